package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/socialbucket/socialbucket/app/dto"
	"github.com/socialbucket/socialbucket/app/services"
	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/repository"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// dispatchClaimTTL bounds how long a crashed instance can hold a schedule's
// dispatch claim in Redis.
const dispatchClaimTTL = 5 * time.Minute

// DispatchFlow defines the dispatch operations: resolve the content item a
// schedule should send, fan it out to the selected networks, and record the
// outcome.
type DispatchFlow interface {
	// PostNow runs a manual dispatch for a schedule owned by the given user
	PostNow(ctx context.Context, req *dto.PostNowRequest, userID uint, metadata *ClientMetadata) (*dto.PostNowResponse, error)
	// DispatchScheduled runs an automatic dispatch, consuming any pending
	// skip count. The trigger loop calls this after due evaluation.
	DispatchScheduled(ctx context.Context, scheduleID uint) (*dto.PostNowResponse, error)
}

// DispatchFlowImpl implements DispatchFlow
type DispatchFlowImpl struct {
	scheduleRepo repository.BucketScheduleRepository
	imageRepo    repository.BucketImageRepository
	historyRepo  repository.BucketSendHistoryRepository
	selector     *RotationSelector
	poster       services.SocialPosterService
	media        services.MediaService
	db           *gorm.DB
	cache        *redis.Client
}

// NewDispatchFlow creates a new dispatch flow
func NewDispatchFlow(
	scheduleRepo repository.BucketScheduleRepository,
	imageRepo repository.BucketImageRepository,
	historyRepo repository.BucketSendHistoryRepository,
	selector *RotationSelector,
	poster services.SocialPosterService,
	media services.MediaService,
	db *gorm.DB,
	cache *redis.Client,
) DispatchFlow {
	return &DispatchFlowImpl{
		scheduleRepo: scheduleRepo,
		imageRepo:    imageRepo,
		historyRepo:  historyRepo,
		selector:     selector,
		poster:       poster,
		media:        media,
		db:           db,
		cache:        cache,
	}
}

// PostNow runs a manual dispatch for a schedule owned by the given user
func (f *DispatchFlowImpl) PostNow(ctx context.Context, req *dto.PostNowRequest, userID uint, metadata *ClientMetadata) (*dto.PostNowResponse, error) {
	schedule, err := f.ownedSchedule(ctx, req.ScheduleID, userID)
	if err != nil {
		return nil, err
	}

	return f.dispatch(ctx, schedule, req.Caption, req.TwitterCaption, 0)
}

// DispatchScheduled runs an automatic dispatch for a due schedule. A pending
// skip count on a rotation schedule is consumed as the skip offset; the
// counter resets inside the dispatch transaction.
func (f *DispatchFlowImpl) DispatchScheduled(ctx context.Context, scheduleID uint) (*dto.PostNowResponse, error) {
	schedule, err := f.scheduleRepo.ByID(ctx, scheduleID)
	if err != nil {
		return nil, NewBusinessError("SCHEDULE_LOOKUP_FAILED", "Failed to load schedule", err)
	}
	if schedule == nil {
		return nil, NewBusinessError("SCHEDULE_NOT_FOUND", "Schedule not found", ErrScheduleNotFound)
	}

	skipOffset := 0
	if schedule.ScheduleType == models.ScheduleTypeRotation {
		skipOffset = schedule.SkipImage
	}

	return f.dispatch(ctx, schedule, nil, nil, skipOffset)
}

// dispatch serializes on the schedule id, resolves the item and captions,
// fans out, then appends the dispatch record and bumps counters in one
// transaction. Pre-dispatch failures return before any side effect.
func (f *DispatchFlowImpl) dispatch(ctx context.Context, schedule *models.BucketSchedule, captionOverride, twitterOverride *string, skipOffset int) (*dto.PostNowResponse, error) {
	if !tryLockDispatch(schedule.ID) {
		return nil, NewBusinessError("DISPATCH_IN_FLIGHT", "A dispatch for this schedule is already in flight", ErrDispatchInFlight)
	}
	defer unlockDispatch(schedule.ID)

	claimed, err := claimDispatch(ctx, f.cache, schedule.ID, dispatchClaimTTL)
	if err != nil {
		return nil, NewBusinessError("DISPATCH_CLAIM_FAILED", "Failed to claim schedule for dispatch", err)
	}
	if !claimed {
		return nil, NewBusinessError("DISPATCH_IN_FLIGHT", "A dispatch for this schedule is already in flight", ErrDispatchInFlight)
	}
	defer releaseDispatch(ctx, f.cache, schedule.ID)

	if schedule.Exhausted() {
		return nil, NewBusinessError("SCHEDULE_ALREADY_SENT", "Already sent", ErrScheduleAlreadySent)
	}

	sendable, err := CanSend(ctx, f.historyRepo, schedule, utils.UTCNow())
	if err != nil {
		return nil, NewBusinessError("SEND_CHECK_FAILED", "Failed to check send throttle", err)
	}
	if !sendable {
		return nil, NewBusinessError("ANNUAL_TOO_SOON", "Annual schedule was sent less than a year ago", ErrAnnualTooSoon)
	}

	item, err := f.selector.NextItem(ctx, schedule, 0, skipOffset)
	if err != nil {
		return nil, NewBusinessError("ROTATION_FAILED", "Failed to resolve next image", err)
	}
	if item == nil {
		return nil, NewBusinessError("NO_IMAGE_DUE", "No image is due for this schedule", ErrNoImageDue)
	}

	caption := resolveCaption(captionOverride, schedule.Description, item.Description)
	twitterCaption := resolveCaption(twitterOverride, schedule.TwitterDescription, item.TwitterDescription)
	if twitterCaption == "" {
		twitterCaption = caption
	}

	if schedule.Bucket == nil || schedule.Bucket.User == nil {
		return nil, NewBusinessError("OWNER_NOT_LOADED", "Schedule owner could not be resolved", ErrUserNotFound)
	}

	if ctx.Err() != nil {
		return nil, NewBusinessError("DISPATCH_CANCELLED", "Dispatch cancelled before fan-out", ctx.Err())
	}

	content := services.PostContent{
		MediaURL:       f.media.PublicURL(item.FilePath),
		Caption:        caption,
		TwitterCaption: twitterCaption,
		IsVideo:        item.IsVideo(),
	}

	outcomes := f.poster.PostToAll(ctx, schedule.Bucket.User, schedule.PostTo, content)

	record := &models.BucketSendHistory{
		BucketScheduleID: schedule.ID,
		BucketImageID:    item.ID,
		FriendlyName:     item.FriendlyName,
		Text:             utils.ToPtr(caption),
		TwitterText:      utils.ToPtr(twitterCaption),
		SentTo:           schedule.PostTo,
		SentAt:           utils.UTCNow(),
	}

	err = f.withTx(ctx, func(txCtx context.Context) error {
		if err := f.historyRepo.Save(txCtx, record); err != nil {
			return fmt.Errorf("failed to append dispatch record: %w", err)
		}
		if err := f.scheduleRepo.IncrementTimesSent(txCtx, schedule.ID); err != nil {
			return fmt.Errorf("failed to increment schedule counter: %w", err)
		}
		if err := f.imageRepo.IncrementTimesSent(txCtx, item.ID); err != nil {
			return fmt.Errorf("failed to increment image counter: %w", err)
		}
		if skipOffset > 0 {
			if err := f.scheduleRepo.SetSkipImage(txCtx, schedule.ID, 0); err != nil {
				return fmt.Errorf("failed to reset skip counter: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewBusinessError("DISPATCH_RECORD_FAILED", "Failed to record dispatch", err)
	}

	return buildPostNowResponse(schedule, item, record, content, outcomes), nil
}

// withTx runs fn in a database transaction; a nil db (tests) runs it directly
func (f *DispatchFlowImpl) withTx(ctx context.Context, fn func(context.Context) error) error {
	if f.db == nil {
		return fn(ctx)
	}
	return repository.WithTransaction(ctx, f.db, fn)
}

func (f *DispatchFlowImpl) ownedSchedule(ctx context.Context, scheduleID, userID uint) (*models.BucketSchedule, error) {
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

// resolveCaption walks the override, schedule, item chain and returns the
// first non-empty caption.
func resolveCaption(override, scheduleCaption, itemCaption *string) string {
	for _, c := range []*string{override, scheduleCaption, itemCaption} {
		if c != nil && *c != "" {
			return *c
		}
	}
	return ""
}

func buildPostNowResponse(schedule *models.BucketSchedule, item *models.BucketImage, record *models.BucketSendHistory, content services.PostContent, outcomes map[string]services.PostOutcome) *dto.PostNowResponse {
	out := &dto.PostNowResponse{
		ScheduleID:     schedule.ID,
		ImageID:        item.ID,
		FriendlyName:   item.FriendlyName,
		MediaURL:       content.MediaURL,
		Caption:        content.Caption,
		TwitterCaption: content.TwitterCaption,
		SentTo:         schedule.PostTo.Names(),
		SentAt:         record.SentAt.Format(time.RFC3339),
		Outcomes:       make(map[string]dto.PostOutcomeDTO, len(outcomes)),
	}
	for name, outcome := range outcomes {
		out.Outcomes[name] = dto.PostOutcomeDTO{
			Success: outcome.Success,
			Error:   outcome.Error,
		}
	}
	return out
}
