package businessflow

import (
	"context"

	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/repository"
	"github.com/socialbucket/socialbucket/utils"
)

// RotationSelector computes the next content item of a bucket. It keeps no
// state of its own: the dispatch history is the only rotation state, so the
// selection is resumable after restarts and deterministic for a given
// history.
type RotationSelector struct {
	scheduleRepo repository.BucketScheduleRepository
	imageRepo    repository.BucketImageRepository
	historyRepo  repository.BucketSendHistoryRepository
}

// NewRotationSelector creates a new rotation selector
func NewRotationSelector(
	scheduleRepo repository.BucketScheduleRepository,
	imageRepo repository.BucketImageRepository,
	historyRepo repository.BucketSendHistoryRepository,
) *RotationSelector {
	return &RotationSelector{
		scheduleRepo: scheduleRepo,
		imageRepo:    imageRepo,
		historyRepo:  historyRepo,
	}
}

// NextItem resolves the content item a dispatch of the given schedule should
// send. One-time and annual schedules return their pinned item directly.
//
// For rotation schedules an item whose forced send date falls on the current
// local day takes priority. Otherwise the walk resumes from the most recent
// dispatch record across every rotation schedule of the bucket. An effective offset of
// 0 re-selects the last-sent item itself; an offset of k >= 1 selects the
// item k positions after it, wrapping around the name-ordered list. The skip
// offset is only added when positive. A nil item with nil error means there
// is nothing to send.
func (s *RotationSelector) NextItem(ctx context.Context, schedule *models.BucketSchedule, offset, skipOffset int) (*models.BucketImage, error) {
	if schedule.ScheduleType == models.ScheduleTypeOnce || schedule.ScheduleType == models.ScheduleTypeAnnual {
		return s.pinnedItem(ctx, schedule)
	}

	if skipOffset > 0 {
		offset += skipOffset
	}

	rotationType := models.ScheduleTypeRotation
	rotationSchedules, err := s.scheduleRepo.ByFilter(ctx, models.BucketScheduleFilter{
		BucketID:     &schedule.BucketID,
		ScheduleType: &rotationType,
	}, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(rotationSchedules) == 0 {
		return nil, nil
	}

	scheduleIDs := make([]uint, 0, len(rotationSchedules))
	for _, rs := range rotationSchedules {
		scheduleIDs = append(scheduleIDs, rs.ID)
	}

	lastSent, err := s.historyRepo.LatestByScheduleIDs(ctx, scheduleIDs)
	if err != nil {
		return nil, err
	}

	images, err := s.imageRepo.ListByBucketOrdered(ctx, schedule.BucketID)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}

	// An item with a matching forced send date preempts the rotation walk
	now := utils.UTCNow()
	if schedule.Bucket != nil && schedule.Bucket.User != nil {
		if loc := schedule.Bucket.User.Location(); loc != nil {
			now = now.In(loc)
		}
	}
	for _, img := range images {
		if img.ForcedIsDue(now) {
			return img, nil
		}
	}

	if lastSent == nil {
		if offset > 0 {
			return images[offset%len(images)], nil
		}
		return images[0], nil
	}

	index := resumeIndex(images, lastSent)

	if offset == 0 {
		return images[index], nil
	}

	offset--
	next := (index + 1) % len(images)
	for ; offset > 0; offset-- {
		next = (next + 1) % len(images)
	}
	return images[next], nil
}

// pinnedItem loads the item a one-time or annual schedule is bound to
func (s *RotationSelector) pinnedItem(ctx context.Context, schedule *models.BucketSchedule) (*models.BucketImage, error) {
	if schedule.BucketImage != nil {
		return schedule.BucketImage, nil
	}
	if schedule.BucketImageID == nil {
		return nil, nil
	}
	return s.imageRepo.ByID(ctx, *schedule.BucketImageID)
}

// resumeIndex finds the position rotation resumes from. The last-sent item is
// resolved by id, so renames do not disturb the walk. When the item was
// deleted, the walk falls back to the first item whose name sorts strictly
// after the recorded name, or the first item when none does.
func resumeIndex(images []*models.BucketImage, lastSent *models.BucketSendHistory) int {
	for i, img := range images {
		if img.ID == lastSent.BucketImageID {
			return i
		}
	}
	for i, img := range images {
		if img.FriendlyName > lastSent.FriendlyName {
			return i
		}
	}
	return 0
}
