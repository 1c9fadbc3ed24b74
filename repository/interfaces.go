// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/socialbucket/socialbucket/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUUID(ctx context.Context, uuid string) (*models.User, error)
}

// BucketRepository defines operations for buckets
type BucketRepository interface {
	Repository[models.Bucket, models.BucketFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Bucket, error)
	ByIDWithSchedules(ctx context.Context, id uint) (*models.Bucket, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Bucket, error)
}

// BucketImageRepository defines operations for bucket images
type BucketImageRepository interface {
	Repository[models.BucketImage, models.BucketImageFilter]
	ByUUID(ctx context.Context, uuid string) (*models.BucketImage, error)
	ListByBucketOrdered(ctx context.Context, bucketID uint) ([]*models.BucketImage, error)
	IncrementTimesSent(ctx context.Context, id uint) error
	DeleteByID(ctx context.Context, id uint) error
}

// BucketScheduleRepository defines operations for bucket schedules
type BucketScheduleRepository interface {
	Repository[models.BucketSchedule, models.BucketScheduleFilter]
	ByUUID(ctx context.Context, uuid string) (*models.BucketSchedule, error)
	ListByBucket(ctx context.Context, bucketID uint) ([]*models.BucketSchedule, error)
	ListEnabled(ctx context.Context) ([]*models.BucketSchedule, error)
	ListByIDsForUser(ctx context.Context, ids []uint, userID uint) ([]*models.BucketSchedule, error)
	Update(ctx context.Context, schedule models.BucketSchedule) error
	IncrementTimesSent(ctx context.Context, id uint) error
	IncrementSkipImage(ctx context.Context, id uint) error
	SetSkipImage(ctx context.Context, id uint, value int) error
	DeleteByID(ctx context.Context, id uint) error
}

// BucketSendHistoryRepository defines operations for dispatch records. The
// history is append-only: no update or delete operations exist.
type BucketSendHistoryRepository interface {
	Repository[models.BucketSendHistory, models.BucketSendHistoryFilter]
	LatestByScheduleIDs(ctx context.Context, scheduleIDs []uint) (*models.BucketSendHistory, error)
	LatestByScheduleID(ctx context.Context, scheduleID uint) (*models.BucketSendHistory, error)
	ListBySchedule(ctx context.Context, scheduleID uint, limit, offset int) ([]*models.BucketSendHistory, error)
	CountSentOn(ctx context.Context, scheduleID uint, dayStart, dayEnd time.Time) (int64, error)
}
