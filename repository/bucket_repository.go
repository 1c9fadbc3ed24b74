package repository

import (
	"context"
	"errors"

	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// BucketRepositoryImpl implements the BucketRepository interface
type BucketRepositoryImpl struct {
	*BaseRepository[models.Bucket, models.BucketFilter]
}

// NewBucketRepository creates a new bucket repository
func NewBucketRepository(db *gorm.DB) BucketRepository {
	return &BucketRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Bucket, models.BucketFilter](db),
	}
}

// ByUUID retrieves a bucket by UUID
func (r *BucketRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Bucket, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.BucketFilter{UUID: &parsedUUID}
	buckets, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(buckets) == 0 {
		return nil, nil
	}

	return buckets[0], nil
}

// ByIDWithSchedules retrieves a bucket with its schedules preloaded
func (r *BucketRepositoryImpl) ByIDWithSchedules(ctx context.Context, id uint) (*models.Bucket, error) {
	db := r.getDB(ctx)

	var bucket models.Bucket
	err := db.Preload("User").
		Preload("Schedules").
		Last(&bucket, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &bucket, nil
}

// ListByUser retrieves the buckets of a user
func (r *BucketRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.Bucket, error) {
	filter := models.BucketFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "created_at DESC", 0, 0)
}

// ByFilter retrieves buckets based on filter criteria
func (r *BucketRepositoryImpl) ByFilter(ctx context.Context, filter models.BucketFilter, orderBy string, limit, offset int) ([]*models.Bucket, error) {
	db := r.getDB(ctx)

	var buckets []*models.Bucket
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

	err := query.Find(&buckets).Error
	if err != nil {
		return nil, err
	}

	return buckets, nil
}

// Count returns the number of buckets matching the filter
func (r *BucketRepositoryImpl) Count(ctx context.Context, filter models.BucketFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Bucket{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any bucket matching the filter exists
func (r *BucketRepositoryImpl) Exists(ctx context.Context, filter models.BucketFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *BucketRepositoryImpl) applyFilter(db *gorm.DB, filter models.BucketFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.PostOnce != nil {
		db = db.Where("post_once = ?", *filter.PostOnce)
	}

	return db
}
