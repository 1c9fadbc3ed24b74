package repository

import (
	"context"
	"errors"
	"time"

	"github.com/socialbucket/socialbucket/models"
	"gorm.io/gorm"
)

// BucketSendHistoryRepositoryImpl implements the BucketSendHistoryRepository
// interface. Records are append-only; this repository exposes no update or
// delete operations.
type BucketSendHistoryRepositoryImpl struct {
	*BaseRepository[models.BucketSendHistory, models.BucketSendHistoryFilter]
}

// NewBucketSendHistoryRepository creates a new dispatch record repository
func NewBucketSendHistoryRepository(db *gorm.DB) BucketSendHistoryRepository {
	return &BucketSendHistoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.BucketSendHistory, models.BucketSendHistoryFilter](db),
	}
}

// LatestByScheduleIDs retrieves the most recent record across all the given
// schedules, nil when none of them has ever fired. Rotation resumes from
// this record.
func (r *BucketSendHistoryRepositoryImpl) LatestByScheduleIDs(ctx context.Context, scheduleIDs []uint) (*models.BucketSendHistory, error) {
	if len(scheduleIDs) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var record models.BucketSendHistory
	err := db.Where("bucket_schedule_id IN ?", scheduleIDs).
		Order("sent_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

// LatestByScheduleID retrieves the most recent record of one schedule
func (r *BucketSendHistoryRepositoryImpl) LatestByScheduleID(ctx context.Context, scheduleID uint) (*models.BucketSendHistory, error) {
	return r.LatestByScheduleIDs(ctx, []uint{scheduleID})
}

// ListBySchedule retrieves the records of a schedule, newest first
func (r *BucketSendHistoryRepositoryImpl) ListBySchedule(ctx context.Context, scheduleID uint, limit, offset int) ([]*models.BucketSendHistory, error) {
	filter := models.BucketSendHistoryFilter{BucketScheduleID: &scheduleID}
	return r.ByFilter(ctx, filter, "sent_at DESC", limit, offset)
}

// CountSentOn counts the records of a schedule inside a time window. The
// trigger loop uses this to avoid firing the same occurrence twice.
func (r *BucketSendHistoryRepositoryImpl) CountSentOn(ctx context.Context, scheduleID uint, dayStart, dayEnd time.Time) (int64, error) {
	filter := models.BucketSendHistoryFilter{
		BucketScheduleID: &scheduleID,
		SentAfter:        &dayStart,
		SentBefore:       &dayEnd,
	}
	return r.Count(ctx, filter)
}

// ByFilter retrieves records based on filter criteria
func (r *BucketSendHistoryRepositoryImpl) ByFilter(ctx context.Context, filter models.BucketSendHistoryFilter, orderBy string, limit, offset int) ([]*models.BucketSendHistory, error) {
	db := r.getDB(ctx)

	var records []*models.BucketSendHistory
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Count returns the number of records matching the filter
func (r *BucketSendHistoryRepositoryImpl) Count(ctx context.Context, filter models.BucketSendHistoryFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.BucketSendHistory{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any record matching the filter exists
func (r *BucketSendHistoryRepositoryImpl) Exists(ctx context.Context, filter models.BucketSendHistoryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *BucketSendHistoryRepositoryImpl) applyFilter(db *gorm.DB, filter models.BucketSendHistoryFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.BucketScheduleID != nil {
		db = db.Where("bucket_schedule_id = ?", *filter.BucketScheduleID)
	}
	if len(filter.BucketScheduleIDs) > 0 {
		db = db.Where("bucket_schedule_id IN ?", filter.BucketScheduleIDs)
	}
	if filter.SentAfter != nil {
		db = db.Where("sent_at >= ?", *filter.SentAfter)
	}
	if filter.SentBefore != nil {
		db = db.Where("sent_at < ?", *filter.SentBefore)
	}

	return db
}
