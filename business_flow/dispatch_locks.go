package businessflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// dispatchLocks serializes dispatches per schedule id inside this process.
// TryLock semantics: a second trigger for the same schedule fails fast
// instead of queueing behind the in-flight one.
var (
	dispatchMutexesMu sync.Mutex
	dispatchMutexes   = make(map[uint]*sync.Mutex)
)

func dispatchMutex(scheduleID uint) *sync.Mutex {
	dispatchMutexesMu.Lock()
	defer dispatchMutexesMu.Unlock()
	mu, ok := dispatchMutexes[scheduleID]
	if !ok {
		mu = &sync.Mutex{}
		dispatchMutexes[scheduleID] = mu
	}
	return mu
}

func tryLockDispatch(scheduleID uint) bool {
	return dispatchMutex(scheduleID).TryLock()
}

func unlockDispatch(scheduleID uint) {
	dispatchMutex(scheduleID).Unlock()
}

// claimDispatch takes a short-lived Redis claim so that two instances cannot
// dispatch the same schedule at the same time. A nil client degrades to the
// process-local mutex only.
func claimDispatch(ctx context.Context, cache *redis.Client, scheduleID uint, ttl time.Duration) (bool, error) {
	if cache == nil {
		return true, nil
	}
	key := fmt.Sprintf("dispatch:claim:%d", scheduleID)
	return cache.SetNX(ctx, key, 1, ttl).Result()
}

func releaseDispatch(ctx context.Context, cache *redis.Client, scheduleID uint) {
	if cache == nil {
		return
	}
	key := fmt.Sprintf("dispatch:claim:%d", scheduleID)
	cache.Del(ctx, key)
}
