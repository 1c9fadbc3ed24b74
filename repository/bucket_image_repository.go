package repository

import (
	"context"

	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// BucketImageRepositoryImpl implements the BucketImageRepository interface
type BucketImageRepositoryImpl struct {
	*BaseRepository[models.BucketImage, models.BucketImageFilter]
}

// NewBucketImageRepository creates a new bucket image repository
func NewBucketImageRepository(db *gorm.DB) BucketImageRepository {
	return &BucketImageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.BucketImage, models.BucketImageFilter](db),
	}
}

// ByUUID retrieves a bucket image by UUID
func (r *BucketImageRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.BucketImage, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.BucketImageFilter{UUID: &parsedUUID}
	images, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(images) == 0 {
		return nil, nil
	}

	return images[0], nil
}

// ListByBucketOrdered retrieves the items of a bucket in friendly name order.
// Rotation depends on this ordering being stable.
func (r *BucketImageRepositoryImpl) ListByBucketOrdered(ctx context.Context, bucketID uint) ([]*models.BucketImage, error) {
	filter := models.BucketImageFilter{BucketID: &bucketID}
	return r.ByFilter(ctx, filter, "friendly_name ASC", 0, 0)
}

// IncrementTimesSent bumps the send counter of an item
func (r *BucketImageRepositoryImpl) IncrementTimesSent(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.BucketImage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"times_sent": gorm.Expr("times_sent + 1"),
			"updated_at": utils.UTCNow(),
		}).Error
}

// ByFilter retrieves bucket images based on filter criteria
func (r *BucketImageRepositoryImpl) ByFilter(ctx context.Context, filter models.BucketImageFilter, orderBy string, limit, offset int) ([]*models.BucketImage, error) {
	db := r.getDB(ctx)

	var images []*models.BucketImage
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

	err := query.Find(&images).Error
	if err != nil {
		return nil, err
	}

	return images, nil
}

// Count returns the number of bucket images matching the filter
func (r *BucketImageRepositoryImpl) Count(ctx context.Context, filter models.BucketImageFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.BucketImage{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any bucket image matching the filter exists
func (r *BucketImageRepositoryImpl) Exists(ctx context.Context, filter models.BucketImageFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *BucketImageRepositoryImpl) applyFilter(db *gorm.DB, filter models.BucketImageFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.BucketID != nil {
		db = db.Where("bucket_id = ?", *filter.BucketID)
	}
	if filter.FriendlyName != nil {
		db = db.Where("friendly_name = ?", *filter.FriendlyName)
	}

	return db
}
