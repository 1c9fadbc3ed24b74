package businessflow

import (
	"context"

	"github.com/socialbucket/socialbucket/app/dto"
	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/repository"
)

// BucketFlow defines the bucket read operations the schedule surfaces hang off
type BucketFlow interface {
	ListBuckets(ctx context.Context, userID uint) ([]dto.BucketDTO, error)
	GetBucket(ctx context.Context, bucketID, userID uint) (*dto.BucketDTO, error)
	ListImages(ctx context.Context, bucketID, userID uint) ([]dto.BucketImageDTO, error)
}

// BucketFlowImpl implements BucketFlow
type BucketFlowImpl struct {
	bucketRepo repository.BucketRepository
	imageRepo  repository.BucketImageRepository
}

// NewBucketFlow creates a new bucket flow
func NewBucketFlow(bucketRepo repository.BucketRepository, imageRepo repository.BucketImageRepository) BucketFlow {
	return &BucketFlowImpl{
		bucketRepo: bucketRepo,
		imageRepo:  imageRepo,
	}
}

// ListBuckets returns the buckets of a user with their image counts
func (f *BucketFlowImpl) ListBuckets(ctx context.Context, userID uint) ([]dto.BucketDTO, error) {
	buckets, err := f.bucketRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("BUCKET_LIST_FAILED", "Failed to list buckets", err)
	}

	out := make([]dto.BucketDTO, 0, len(buckets))
	for _, bucket := range buckets {
		count, err := f.imageRepo.Count(ctx, models.BucketImageFilter{BucketID: &bucket.ID})
		if err != nil {
			return nil, NewBusinessError("IMAGE_COUNT_FAILED", "Failed to count bucket images", err)
		}
		out = append(out, ToBucketDTO(*bucket, count))
	}
	return out, nil
}

// GetBucket returns one bucket owned by the given user
func (f *BucketFlowImpl) GetBucket(ctx context.Context, bucketID, userID uint) (*dto.BucketDTO, error) {
	bucket, err := f.ownedBucket(ctx, bucketID, userID)
	if err != nil {
		return nil, err
	}

	count, err := f.imageRepo.Count(ctx, models.BucketImageFilter{BucketID: &bucket.ID})
	if err != nil {
		return nil, NewBusinessError("IMAGE_COUNT_FAILED", "Failed to count bucket images", err)
	}

	out := ToBucketDTO(*bucket, count)
	return &out, nil
}

// ListImages returns the items of a bucket in rotation order
func (f *BucketFlowImpl) ListImages(ctx context.Context, bucketID, userID uint) ([]dto.BucketImageDTO, error) {
	if _, err := f.ownedBucket(ctx, bucketID, userID); err != nil {
		return nil, err
	}

	images, err := f.imageRepo.ListByBucketOrdered(ctx, bucketID)
	if err != nil {
		return nil, NewBusinessError("IMAGE_LIST_FAILED", "Failed to list bucket images", err)
	}

	out := make([]dto.BucketImageDTO, 0, len(images))
	for _, image := range images {
		out = append(out, ToBucketImageDTO(*image))
	}
	return out, nil
}

func (f *BucketFlowImpl) ownedBucket(ctx context.Context, bucketID, userID uint) (*models.Bucket, error) {
	bucket, err := f.bucketRepo.ByID(ctx, bucketID)
	if err != nil {
		return nil, NewBusinessError("BUCKET_LOOKUP_FAILED", "Failed to load bucket", err)
	}
	if bucket == nil {
		return nil, NewBusinessError("BUCKET_NOT_FOUND", "Bucket not found", ErrBucketNotFound)
	}
	if bucket.UserID != userID {
		return nil, NewBusinessError("BUCKET_ACCESS_DENIED", "Bucket access denied", ErrBucketAccessDenied)
	}
	return bucket, nil
}
