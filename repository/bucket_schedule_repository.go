package repository

import (
	"context"
	"errors"

	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// BucketScheduleRepositoryImpl implements the BucketScheduleRepository interface
type BucketScheduleRepositoryImpl struct {
	*BaseRepository[models.BucketSchedule, models.BucketScheduleFilter]
}

// NewBucketScheduleRepository creates a new bucket schedule repository
func NewBucketScheduleRepository(db *gorm.DB) BucketScheduleRepository {
	return &BucketScheduleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.BucketSchedule, models.BucketScheduleFilter](db),
	}
}

// ByID retrieves a schedule with its bucket and pinned item preloaded
func (r *BucketScheduleRepositoryImpl) ByID(ctx context.Context, id uint) (*models.BucketSchedule, error) {
	db := r.getDB(ctx)

	var schedule models.BucketSchedule
	err := db.Preload("Bucket").
		Preload("Bucket.User").
		Preload("BucketImage").
		Last(&schedule, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &schedule, nil
}

// ByUUID retrieves a schedule by UUID
func (r *BucketScheduleRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.BucketSchedule, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.BucketScheduleFilter{UUID: &parsedUUID}
	schedules, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(schedules) == 0 {
		return nil, nil
	}

	return schedules[0], nil
}

// ListByBucket retrieves the schedules of a bucket
func (r *BucketScheduleRepositoryImpl) ListByBucket(ctx context.Context, bucketID uint) ([]*models.BucketSchedule, error) {
	filter := models.BucketScheduleFilter{BucketID: &bucketID}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}

// ListEnabled retrieves all schedules that are not paused. Paused schedules
// carry the disabled sentinel in the schedule column.
func (r *BucketScheduleRepositoryImpl) ListEnabled(ctx context.Context) ([]*models.BucketSchedule, error) {
	db := r.getDB(ctx)

	var schedules []*models.BucketSchedule
	err := db.Where("schedule <> ?", models.DisabledSchedule).
		Preload("Bucket").
		Preload("Bucket.User").
		Preload("BucketImage").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}

	return schedules, nil
}

// ListByIDsForUser retrieves the schedules among the given ids that belong to
// buckets of the given user. IDs that do not exist or belong to someone else
// are silently absent from the result.
func (r *BucketScheduleRepositoryImpl) ListByIDsForUser(ctx context.Context, ids []uint, userID uint) ([]*models.BucketSchedule, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var schedules []*models.BucketSchedule
	err := db.Joins("JOIN buckets ON buckets.id = bucket_schedules.bucket_id").
		Where("bucket_schedules.id IN ?", ids).
		Where("buckets.user_id = ?", userID).
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}

	return schedules, nil
}

// Update updates a schedule
func (r *BucketScheduleRepositoryImpl) Update(ctx context.Context, schedule models.BucketSchedule) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := utils.UTCNow()
	schedule.UpdatedAt = &now

	err = db.Save(&schedule).Error
	if err != nil {
		return err
	}

	return nil
}

// IncrementTimesSent bumps the send counter of a schedule
func (r *BucketScheduleRepositoryImpl) IncrementTimesSent(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.BucketSchedule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"times_sent": gorm.Expr("times_sent + 1"),
			"updated_at": utils.UTCNow(),
		}).Error
}

// IncrementSkipImage bumps the skip counter of a schedule
func (r *BucketScheduleRepositoryImpl) IncrementSkipImage(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.BucketSchedule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"skip_image": gorm.Expr("skip_image + 1"),
			"updated_at": utils.UTCNow(),
		}).Error
}

// SetSkipImage sets the skip counter of a schedule to an absolute value
func (r *BucketScheduleRepositoryImpl) SetSkipImage(ctx context.Context, id uint, value int) error {
	db := r.getDB(ctx)
	return db.Model(&models.BucketSchedule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"skip_image": value,
			"updated_at": utils.UTCNow(),
		}).Error
}

// ByFilter retrieves schedules based on filter criteria
func (r *BucketScheduleRepositoryImpl) ByFilter(ctx context.Context, filter models.BucketScheduleFilter, orderBy string, limit, offset int) ([]*models.BucketSchedule, error) {
	db := r.getDB(ctx)

	var schedules []*models.BucketSchedule
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

	query = query.Preload("Bucket").
		Preload("BucketImage")

	err := query.Find(&schedules).Error
	if err != nil {
		return nil, err
	}

	return schedules, nil
}

// Count returns the number of schedules matching the filter
func (r *BucketScheduleRepositoryImpl) Count(ctx context.Context, filter models.BucketScheduleFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.BucketSchedule{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any schedule matching the filter exists
func (r *BucketScheduleRepositoryImpl) Exists(ctx context.Context, filter models.BucketScheduleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *BucketScheduleRepositoryImpl) applyFilter(db *gorm.DB, filter models.BucketScheduleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.BucketID != nil {
		db = db.Where("bucket_id = ?", *filter.BucketID)
	}
	if filter.BucketImageID != nil {
		db = db.Where("bucket_image_id = ?", *filter.BucketImageID)
	}
	if filter.ScheduleType != nil {
		db = db.Where("schedule_type = ?", *filter.ScheduleType)
	}
	if len(filter.IDs) > 0 {
		db = db.Where("id IN ?", filter.IDs)
	}

	return db
}
