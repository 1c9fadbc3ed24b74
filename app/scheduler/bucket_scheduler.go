// Package scheduler
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	businessflow "github.com/socialbucket/socialbucket/business_flow"
	"github.com/socialbucket/socialbucket/config"
	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/repository"
	"github.com/socialbucket/socialbucket/utils"
	"gopkg.in/natefinch/lumberjack.v2"
)

// BucketScheduler periodically enumerates enabled schedules, evaluates which
// are due in their owner's timezone, and hands the due ones to the dispatch
// flow. The loop itself keeps no dispatch state; the history table is the
// record of what fired.
type BucketScheduler struct {
	scheduleRepo repository.BucketScheduleRepository
	historyRepo  repository.BucketSendHistoryRepository
	dispatchFlow businessflow.DispatchFlow
	logger       *log.Logger
	interval     time.Duration

	loggingCfg config.LoggingConfig
}

func NewBucketScheduler(
	scheduleRepo repository.BucketScheduleRepository,
	historyRepo repository.BucketSendHistoryRepository,
	dispatchFlow businessflow.DispatchFlow,
	interval time.Duration,
	loggingCfg config.LoggingConfig,
) *BucketScheduler {
	if interval <= 0 {
		interval = time.Minute
	}

	s := &BucketScheduler{
		scheduleRepo: scheduleRepo,
		historyRepo:  historyRepo,
		dispatchFlow: dispatchFlow,
		interval:     interval,
		loggingCfg:   loggingCfg,
	}

	s.initSchedulerLogger()

	return s
}

// initSchedulerLogger configures a logger writing to stdout and a rotating
// file under the configured log directory.
func (s *BucketScheduler) initSchedulerLogger() {
	dir := "data"
	if s.loggingCfg.FilePath != "" {
		dir = filepath.Dir(s.loggingCfg.FilePath)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to create log directory: %v", err)
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "scheduler.log"),
		MaxSize:    s.loggingCfg.MaxSize,
		MaxBackups: s.loggingCfg.MaxBackups,
		MaxAge:     s.loggingCfg.MaxAge,
		Compress:   s.loggingCfg.Compress,
	}

	mw := io.MultiWriter(os.Stdout, rotator)
	s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *BucketScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *BucketScheduler) runOnce(ctx context.Context) {
	schedules, err := s.scheduleRepo.ListEnabled(ctx)
	if err != nil {
		s.logger.Printf("scheduler: list enabled schedules failed: %v", err)
		return
	}
	if len(schedules) == 0 {
		return
	}

	now := utils.UTCNow()

	var wg sync.WaitGroup
	for _, schedule := range schedules {
		due, reason := s.shouldFire(ctx, schedule, now)
		if !due {
			if reason != "" {
				s.logger.Printf("scheduler: schedule id=%d skipped: %s", schedule.ID, reason)
			}
			continue
		}

		wg.Add(1)
		go func(schedule *models.BucketSchedule) {
			defer wg.Done()
			s.fire(ctx, schedule)
		}(schedule)
	}
	wg.Wait()
}

// shouldFire runs the due evaluation and per-kind gates for one schedule.
// The returned reason is only set for conditions worth logging.
func (s *BucketScheduler) shouldFire(ctx context.Context, schedule *models.BucketSchedule, now time.Time) (bool, string) {
	if schedule.Bucket == nil || schedule.Bucket.User == nil {
		return false, "owner not loaded"
	}

	loc := schedule.Bucket.User.Location()
	if !businessflow.IsDue(schedule, now, loc) {
		return false, ""
	}

	if schedule.Exhausted() {
		return false, "one-time schedule already sent"
	}

	// One-shot skip on annual schedules declines this occurrence and
	// clears itself.
	if schedule.ScheduleType == models.ScheduleTypeAnnual && schedule.SkipImage > 0 {
		if err := s.scheduleRepo.SetSkipImage(ctx, schedule.ID, 0); err != nil {
			return false, "failed to clear skip: " + err.Error()
		}
		return false, "annual occurrence skipped"
	}

	sendable, err := businessflow.CanSend(ctx, s.historyRepo, schedule, now)
	if err != nil {
		return false, "send check failed: " + err.Error()
	}
	if !sendable {
		return false, "annual schedule sent less than a year ago"
	}

	// The due match is minute-exact; a restart inside the same minute must
	// not fire the occurrence twice.
	minuteStart := now.Truncate(time.Minute)
	fired, err := s.historyRepo.CountSentOn(ctx, schedule.ID, minuteStart, minuteStart.Add(time.Minute))
	if err != nil {
		return false, "occurrence check failed: " + err.Error()
	}
	if fired > 0 {
		return false, ""
	}

	return true, ""
}

func (s *BucketScheduler) fire(ctx context.Context, schedule *models.BucketSchedule) {
	resp, err := s.dispatchFlow.DispatchScheduled(ctx, schedule.ID)
	if err != nil {
		if businessflow.IsDispatchInFlight(err) || businessflow.IsNoImageDue(err) {
			s.logger.Printf("scheduler: schedule id=%d not dispatched: %v", schedule.ID, err)
			return
		}
		s.logger.Printf("scheduler: dispatch failed for schedule id=%d: %v", schedule.ID, err)
		return
	}

	failures := 0
	for _, outcome := range resp.Outcomes {
		if !outcome.Success {
			failures++
		}
	}
	s.logger.Printf("scheduler: dispatched schedule id=%d image=%q networks=%d failures=%d",
		schedule.ID, resp.FriendlyName, len(resp.Outcomes), failures)
}
