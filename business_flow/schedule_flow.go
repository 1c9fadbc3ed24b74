package businessflow

import (
	"context"

	"github.com/socialbucket/socialbucket/app/dto"
	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/repository"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// ScheduleFlow defines the schedule management operations
type ScheduleFlow interface {
	ListSchedules(ctx context.Context, bucketID, userID uint) ([]dto.ScheduleDTO, error)
	GetSchedule(ctx context.Context, scheduleID, userID uint) (*dto.ScheduleDTO, error)
	CreateRotation(ctx context.Context, req *dto.CreateRotationScheduleRequest, userID uint, metadata *ClientMetadata) (*dto.ScheduleDTO, error)
	CreateDated(ctx context.Context, req *dto.CreateDatedScheduleRequest, userID uint, metadata *ClientMetadata) (*dto.ScheduleDTO, error)
	UpdateSchedule(ctx context.Context, req *dto.UpdateScheduleRequest, userID uint, metadata *ClientMetadata) (*dto.ScheduleDTO, error)
	DeleteSchedule(ctx context.Context, scheduleID, userID uint) error
	BulkRetarget(ctx context.Context, req *dto.BulkRetargetRequest, userID uint, metadata *ClientMetadata) (*dto.BulkOperationResponse, error)
	BulkDelete(ctx context.Context, req *dto.BulkDeleteRequest, userID uint, metadata *ClientMetadata) (*dto.BulkOperationResponse, error)
	SkipImage(ctx context.Context, scheduleID, userID uint) error
	SkipImageSingle(ctx context.Context, scheduleID, userID uint) error
	NextDue(ctx context.Context, scheduleID, userID uint) (*dto.NextDueResponse, error)
	History(ctx context.Context, scheduleID, userID uint, limit, offset int) ([]dto.SendHistoryDTO, error)
}

// ScheduleFlowImpl implements ScheduleFlow
type ScheduleFlowImpl struct {
	scheduleRepo repository.BucketScheduleRepository
	bucketRepo   repository.BucketRepository
	imageRepo    repository.BucketImageRepository
	historyRepo  repository.BucketSendHistoryRepository
	selector     *RotationSelector
	db           *gorm.DB
}

// NewScheduleFlow creates a new schedule flow
func NewScheduleFlow(
	scheduleRepo repository.BucketScheduleRepository,
	bucketRepo repository.BucketRepository,
	imageRepo repository.BucketImageRepository,
	historyRepo repository.BucketSendHistoryRepository,
	selector *RotationSelector,
	db *gorm.DB,
) ScheduleFlow {
	return &ScheduleFlowImpl{
		scheduleRepo: scheduleRepo,
		bucketRepo:   bucketRepo,
		imageRepo:    imageRepo,
		historyRepo:  historyRepo,
		selector:     selector,
		db:           db,
	}
}

// ListSchedules returns the schedules of a bucket owned by the given user
func (f *ScheduleFlowImpl) ListSchedules(ctx context.Context, bucketID, userID uint) ([]dto.ScheduleDTO, error) {
	if _, err := f.ownedBucket(ctx, bucketID, userID); err != nil {
		return nil, err
	}

	schedules, err := f.scheduleRepo.ListByBucket(ctx, bucketID)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LIST_FAILED", "Failed to list schedules", err)
	}

	out := make([]dto.ScheduleDTO, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, ToScheduleDTO(*s))
	}
	return out, nil
}

// GetSchedule returns one schedule owned by the given user
func (f *ScheduleFlowImpl) GetSchedule(ctx context.Context, scheduleID, userID uint) (*dto.ScheduleDTO, error) {
	schedule, err := f.ownedSchedule(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}

	out := ToScheduleDTO(*schedule)
	return &out, nil
}

// CreateRotation creates a rotation schedule firing at a time of day on a
// set of weekdays.
func (f *ScheduleFlowImpl) CreateRotation(ctx context.Context, req *dto.CreateRotationScheduleRequest, userID uint, metadata *ClientMetadata) (*dto.ScheduleDTO, error) {
	if len(req.Days) == 0 {
		return nil, NewBusinessError("NO_DAYS_SELECTED", "At least one day must be selected", ErrNoDaysSelected)
	}
	mask := models.MaskFromNames(req.Networks)
	if mask == 0 {
		return nil, NewBusinessError("NO_NETWORKS_SELECTED", "At least one network must be selected", ErrNoNetworksSelected)
	}

	if _, err := f.ownedBucket(ctx, req.BucketID, userID); err != nil {
		return nil, err
	}

	schedule := &models.BucketSchedule{
		BucketID:           req.BucketID,
		Schedule:           models.BuildRotationSchedule(req.Hour, req.Minute, req.Days),
		ScheduleType:       models.ScheduleTypeRotation,
		PostTo:             mask,
		Description:        req.Description,
		TwitterDescription: req.TwitterDescription,
	}

	if err := f.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, NewBusinessError("SCHEDULE_CREATE_FAILED", "Failed to create schedule", err)
	}

	out := ToScheduleDTO(*schedule)
	return &out, nil
}

// CreateDated creates a one-time or annual schedule pinned to an image and a
// wall-clock date.
func (f *ScheduleFlowImpl) CreateDated(ctx context.Context, req *dto.CreateDatedScheduleRequest, userID uint, metadata *ClientMetadata) (*dto.ScheduleDTO, error) {
	mask := models.MaskFromNames(req.Networks)
	if mask == 0 {
		return nil, NewBusinessError("NO_NETWORKS_SELECTED", "At least one network must be selected", ErrNoNetworksSelected)
	}

	bucket, err := f.ownedBucket(ctx, req.BucketID, userID)
	if err != nil {
		return nil, err
	}

	image, err := f.imageRepo.ByID(ctx, req.BucketImageID)
	if err != nil {
		return nil, NewBusinessError("IMAGE_LOOKUP_FAILED", "Failed to load bucket image", err)
	}
	if image == nil || image.BucketID != bucket.ID {
		return nil, NewBusinessError("IMAGE_NOT_FOUND", "Bucket image not found", ErrImageNotFound)
	}

	scheduleType := models.ScheduleTypeOnce
	if req.Annual {
		scheduleType = models.ScheduleTypeAnnual
	}

	schedule := &models.BucketSchedule{
		BucketID:           req.BucketID,
		BucketImageID:      &image.ID,
		Schedule:           models.BuildDateSchedule(req.PostAt),
		ScheduleTime:       &req.PostAt,
		ScheduleType:       scheduleType,
		PostTo:             mask,
		Description:        req.Description,
		TwitterDescription: req.TwitterDescription,
	}

	if err := f.scheduleRepo.Save(ctx, schedule); err != nil {
		return nil, NewBusinessError("SCHEDULE_CREATE_FAILED", "Failed to create schedule", err)
	}

	out := ToScheduleDTO(*schedule)
	return &out, nil
}

// UpdateSchedule updates the mutable fields of a schedule
func (f *ScheduleFlowImpl) UpdateSchedule(ctx context.Context, req *dto.UpdateScheduleRequest, userID uint, metadata *ClientMetadata) (*dto.ScheduleDTO, error) {
	schedule, err := f.ownedSchedule(ctx, req.ScheduleID, userID)
	if err != nil {
		return nil, err
	}

	if req.Schedule != nil {
		candidate := models.BucketSchedule{Schedule: *req.Schedule}
		if !candidate.ValidFormat() {
			return nil, NewBusinessError("MALFORMED_SCHEDULE", "Schedule must have exactly 5 fields", models.ErrMalformedSchedule)
		}
		schedule.Schedule = *req.Schedule
	}
	if req.Networks != nil {
		mask := models.MaskFromNames(req.Networks)
		if mask == 0 {
			return nil, NewBusinessError("NO_NETWORKS_SELECTED", "At least one network must be selected", ErrNoNetworksSelected)
		}
		schedule.PostTo = mask
	}
	if req.Description != nil {
		schedule.Description = req.Description
	}
	if req.TwitterDescription != nil {
		schedule.TwitterDescription = req.TwitterDescription
	}

	if err := f.scheduleRepo.Update(ctx, *schedule); err != nil {
		return nil, NewBusinessError("SCHEDULE_UPDATE_FAILED", "Failed to update schedule", err)
	}

	out := ToScheduleDTO(*schedule)
	return &out, nil
}

// DeleteSchedule deletes one schedule owned by the given user
func (f *ScheduleFlowImpl) DeleteSchedule(ctx context.Context, scheduleID, userID uint) error {
	if _, err := f.ownedSchedule(ctx, scheduleID, userID); err != nil {
		return err
	}

	if err := f.scheduleRepo.DeleteByID(ctx, scheduleID); err != nil {
		return NewBusinessError("SCHEDULE_DELETE_FAILED", "Failed to delete schedule", err)
	}
	return nil
}

// BulkRetarget rewrites the recurrence string and target mask of every
// matched schedule from a wall-clock time and a network list. Unmatched ids
// are silently skipped; the count of schedules actually updated is returned.
func (f *ScheduleFlowImpl) BulkRetarget(ctx context.Context, req *dto.BulkRetargetRequest, userID uint, metadata *ClientMetadata) (*dto.BulkOperationResponse, error) {
	mask := models.MaskFromNames(req.Networks)
	if mask == 0 {
		return nil, NewBusinessError("NO_NETWORKS_SELECTED", "At least one network must be selected", ErrNoNetworksSelected)
	}

	schedules, err := f.scheduleRepo.ListByIDsForUser(ctx, req.ScheduleIDs, userID)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LIST_FAILED", "Failed to load schedules", err)
	}

	encoding := models.BuildDateSchedule(req.PostAt)

	var updated int
	err = f.withTx(ctx, func(txCtx context.Context) error {
		for _, schedule := range schedules {
			schedule.Schedule = encoding
			schedule.ScheduleTime = &req.PostAt
			schedule.PostTo = mask
			if err := f.scheduleRepo.Update(txCtx, *schedule); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("BULK_UPDATE_FAILED", "Failed to update schedules", err)
	}

	return &dto.BulkOperationResponse{Count: updated}, nil
}

// BulkDelete deletes every matched schedule and returns the count
func (f *ScheduleFlowImpl) BulkDelete(ctx context.Context, req *dto.BulkDeleteRequest, userID uint, metadata *ClientMetadata) (*dto.BulkOperationResponse, error) {
	schedules, err := f.scheduleRepo.ListByIDsForUser(ctx, req.ScheduleIDs, userID)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LIST_FAILED", "Failed to load schedules", err)
	}

	var deleted int
	err = f.withTx(ctx, func(txCtx context.Context) error {
		for _, schedule := range schedules {
			if err := f.scheduleRepo.DeleteByID(txCtx, schedule.ID); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("BULK_DELETE_FAILED", "Failed to delete schedules", err)
	}

	return &dto.BulkOperationResponse{Count: deleted}, nil
}

// SkipImage increments the skip counter; the next dispatch consumes it as a
// rotation offset.
func (f *ScheduleFlowImpl) SkipImage(ctx context.Context, scheduleID, userID uint) error {
	if _, err := f.ownedSchedule(ctx, scheduleID, userID); err != nil {
		return err
	}

	if err := f.scheduleRepo.IncrementSkipImage(ctx, scheduleID); err != nil {
		return NewBusinessError("SKIP_FAILED", "Failed to skip image", err)
	}
	return nil
}

// SkipImageSingle skips exactly one occurrence. Annual schedules get a
// one-shot skip count; one-time schedules are deleted outright since their
// single pinned post is permanently skipped; rotation schedules are
// unaffected.
func (f *ScheduleFlowImpl) SkipImageSingle(ctx context.Context, scheduleID, userID uint) error {
	schedule, err := f.ownedSchedule(ctx, scheduleID, userID)
	if err != nil {
		return err
	}

	switch schedule.ScheduleType {
	case models.ScheduleTypeAnnual:
		if err := f.scheduleRepo.SetSkipImage(ctx, scheduleID, 1); err != nil {
			return NewBusinessError("SKIP_FAILED", "Failed to skip occurrence", err)
		}
	case models.ScheduleTypeOnce:
		if err := f.scheduleRepo.DeleteByID(ctx, scheduleID); err != nil {
			return NewBusinessError("SCHEDULE_DELETE_FAILED", "Failed to delete schedule", err)
		}
	case models.ScheduleTypeRotation:
		// no-op
	}

	return nil
}

// NextDue previews the item and captions the next dispatch of the schedule
// would send, without side effects.
func (f *ScheduleFlowImpl) NextDue(ctx context.Context, scheduleID, userID uint) (*dto.NextDueResponse, error) {
	schedule, err := f.ownedSchedule(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}

	skipOffset := 0
	if schedule.ScheduleType == models.ScheduleTypeRotation {
		skipOffset = schedule.SkipImage
	}

	item, err := f.selector.NextItem(ctx, schedule, 0, skipOffset)
	if err != nil {
		return nil, NewBusinessError("ROTATION_FAILED", "Failed to resolve next image", err)
	}
	if item == nil {
		return nil, NewBusinessError("NO_IMAGE_DUE", "No image is due for this schedule", ErrNoImageDue)
	}

	caption := resolveCaption(nil, schedule.Description, item.Description)
	twitterCaption := resolveCaption(nil, schedule.TwitterDescription, item.TwitterDescription)
	if twitterCaption == "" {
		twitterCaption = caption
	}

	return &dto.NextDueResponse{
		ScheduleID:     schedule.ID,
		ImageID:        item.ID,
		FriendlyName:   item.FriendlyName,
		Caption:        caption,
		TwitterCaption: twitterCaption,
		TwitterWarning: len([]rune(twitterCaption)) > utils.TwitterCharacterLimit,
	}, nil
}

// History lists the dispatch records of a schedule, newest first
func (f *ScheduleFlowImpl) History(ctx context.Context, scheduleID, userID uint, limit, offset int) ([]dto.SendHistoryDTO, error) {
	if _, err := f.ownedSchedule(ctx, scheduleID, userID); err != nil {
		return nil, err
	}

	records, err := f.historyRepo.ListBySchedule(ctx, scheduleID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("HISTORY_LIST_FAILED", "Failed to list dispatch records", err)
	}

	out := make([]dto.SendHistoryDTO, 0, len(records))
	for _, record := range records {
		out = append(out, ToSendHistoryDTO(*record))
	}
	return out, nil
}

func (f *ScheduleFlowImpl) withTx(ctx context.Context, fn func(context.Context) error) error {
	if f.db == nil {
		return fn(ctx)
	}
	return repository.WithTransaction(ctx, f.db, fn)
}

func (f *ScheduleFlowImpl) ownedBucket(ctx context.Context, bucketID, userID uint) (*models.Bucket, error) {
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

func (f *ScheduleFlowImpl) ownedSchedule(ctx context.Context, scheduleID, userID uint) (*models.BucketSchedule, error) {
	schedule, err := f.scheduleRepo.ByID(ctx, scheduleID)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LOOKUP_FAILED", "Failed to load schedule", err)
	}
	if schedule == nil {
		return nil, NewBusinessError("SCHEDULE_NOT_FOUND", "Schedule not found", ErrScheduleNotFound)
	}
	if schedule.Bucket == nil || schedule.Bucket.UserID != userID {
		return nil, NewBusinessError("SCHEDULE_ACCESS_DENIED", "Schedule access denied", ErrScheduleAccessDenied)
	}
	return schedule, nil
}
