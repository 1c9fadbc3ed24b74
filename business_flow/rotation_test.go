package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/utils"
)

func rotationImage(bucketID uint, friendlyName string) *models.BucketImage {
	return &models.BucketImage{
		BucketID:     bucketID,
		FriendlyName: friendlyName,
		FilePath:     "buckets/" + friendlyName + ".jpg",
		Description:  utils.ToPtr("Caption for " + friendlyName),
	}
}

func rotationSchedule(bucketID uint) *models.BucketSchedule {
	return &models.BucketSchedule{
		BucketID:     bucketID,
		Schedule:     models.BuildRotationSchedule(12, 0, []int{1, 2, 3, 4, 5, 6, 7}),
		ScheduleType: models.ScheduleTypeRotation,
		PostTo:       models.NetworkMask(models.NetworkFacebook),
	}
}

func historyRecord(scheduleID, imageID uint, friendlyName string, sentAt time.Time) *models.BucketSendHistory {
	return &models.BucketSendHistory{
		BucketScheduleID: scheduleID,
		BucketImageID:    imageID,
		FriendlyName:     friendlyName,
		SentTo:           models.NetworkMask(models.NetworkFacebook),
		SentAt:           sentAt,
	}
}

func TestNextItemFirstDispatch(t *testing.T) {
	ctx := context.Background()
	schedule := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(schedule)
	imageRepo := newFakeImageRepo(
		rotationImage(1, "img-002"),
		rotationImage(1, "img-001"),
		rotationImage(1, "img-003"),
	)
	historyRepo := newFakeHistoryRepo()

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	// No history yet: selection starts at the first item in name order
	item, err := selector.NextItem(ctx, schedule, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-001", item.FriendlyName)
}

func TestNextItemResumesAfterLastSent(t *testing.T) {
	ctx := context.Background()
	schedule := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(schedule)
	imageRepo := newFakeImageRepo(
		rotationImage(1, "img-001"),
		rotationImage(1, "img-002"),
		rotationImage(1, "img-003"),
	)
	historyRepo := newFakeHistoryRepo(
		historyRecord(schedule.ID, 2, "img-002", utils.UTCNow().Add(-time.Hour)),
	)

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	// Offset 0 re-selects the last-sent item itself
	item, err := selector.NextItem(ctx, schedule, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-002", item.FriendlyName)

	// Offset 1 advances to the next item
	item, err = selector.NextItem(ctx, schedule, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-003", item.FriendlyName)
}

func TestNextItemWrapsAround(t *testing.T) {
	ctx := context.Background()
	schedule := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(schedule)
	imageRepo := newFakeImageRepo(
		rotationImage(1, "img-001"),
		rotationImage(1, "img-002"),
		rotationImage(1, "img-003"),
	)
	historyRepo := newFakeHistoryRepo(
		historyRecord(schedule.ID, 3, "img-003", utils.UTCNow().Add(-time.Hour)),
	)

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	item, err := selector.NextItem(ctx, schedule, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-001", item.FriendlyName)
}

func TestNextItemDeletedNameFallsForward(t *testing.T) {
	ctx := context.Background()
	schedule := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(schedule)
	imageRepo := newFakeImageRepo(
		rotationImage(1, "img-001"),
		rotationImage(1, "img-004"),
		rotationImage(1, "img-005"),
	)
	// img-002 was sent and later deleted; resume falls to the first name
	// sorting strictly after it
	historyRepo := newFakeHistoryRepo(
		historyRecord(schedule.ID, 99, "img-002", utils.UTCNow().Add(-time.Hour)),
	)

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	item, err := selector.NextItem(ctx, schedule, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-004", item.FriendlyName)
}

func TestNextItemDeletedNameAfterEverything(t *testing.T) {
	ctx := context.Background()
	schedule := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(schedule)
	imageRepo := newFakeImageRepo(
		rotationImage(1, "img-001"),
		rotationImage(1, "img-002"),
	)
	// The recorded name sorts after every remaining item, so resume wraps
	// to the first
	historyRepo := newFakeHistoryRepo(
		historyRecord(schedule.ID, 99, "img-999", utils.UTCNow().Add(-time.Hour)),
	)

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	item, err := selector.NextItem(ctx, schedule, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-001", item.FriendlyName)
}

func TestNextItemRenamedItemResolvesByID(t *testing.T) {
	ctx := context.Background()
	schedule := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(schedule)

	renamed := rotationImage(1, "img-001")
	imageRepo := newFakeImageRepo(
		renamed,
		rotationImage(1, "img-002"),
		rotationImage(1, "img-003"),
	)
	historyRepo := newFakeHistoryRepo(
		historyRecord(schedule.ID, renamed.ID, "img-001", utils.UTCNow().Add(-time.Hour)),
	)

	// The last-sent item still exists under a new name that sorts last
	renamed.FriendlyName = "img-zzz"

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	// Offset 0 re-selects the item itself regardless of the rename
	item, err := selector.NextItem(ctx, schedule, 0, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-zzz", item.FriendlyName)

	// The walk advances from the item's position in the current name order
	item, err = selector.NextItem(ctx, schedule, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-002", item.FriendlyName)
}

func TestNextItemSkipOffset(t *testing.T) {
	ctx := context.Background()
	schedule := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(schedule)
	imageRepo := newFakeImageRepo(
		rotationImage(1, "img-001"),
		rotationImage(1, "img-002"),
		rotationImage(1, "img-003"),
		rotationImage(1, "img-004"),
	)
	historyRepo := newFakeHistoryRepo(
		historyRecord(schedule.ID, 1, "img-001", utils.UTCNow().Add(-time.Hour)),
	)

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	// A skip of 2 on top of the usual advance of 1 lands three positions on
	item, err := selector.NextItem(ctx, schedule, 1, 2)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-004", item.FriendlyName)
}

func TestNextItemSharedHistoryAcrossRotationSchedules(t *testing.T) {
	ctx := context.Background()
	morning := rotationSchedule(1)
	evening := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(morning, evening)
	imageRepo := newFakeImageRepo(
		rotationImage(1, "img-001"),
		rotationImage(1, "img-002"),
		rotationImage(1, "img-003"),
	)
	// The evening schedule sent last; the morning schedule resumes from its
	// record, not from its own
	historyRepo := newFakeHistoryRepo(
		historyRecord(morning.ID, 1, "img-001", utils.UTCNow().Add(-2*time.Hour)),
		historyRecord(evening.ID, 2, "img-002", utils.UTCNow().Add(-time.Hour)),
	)

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	item, err := selector.NextItem(ctx, morning, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-003", item.FriendlyName)
}

func TestNextItemForcedDatePreemptsRotation(t *testing.T) {
	ctx := context.Background()
	schedule := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(schedule)

	forced := rotationImage(1, "img-003")
	forced.ForceSendDate = utils.ToPtr(utils.UTCNow())

	imageRepo := newFakeImageRepo(
		rotationImage(1, "img-001"),
		rotationImage(1, "img-002"),
		forced,
	)
	historyRepo := newFakeHistoryRepo(
		historyRecord(schedule.ID, 1, "img-001", utils.UTCNow().Add(-time.Hour)),
	)

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	item, err := selector.NextItem(ctx, schedule, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-003", item.FriendlyName)

	// Once sent, a non-repeating forced item yields back to the walk
	forced.TimesSent = 1
	item, err = selector.NextItem(ctx, schedule, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-002", item.FriendlyName)
}

func TestNextItemEmptyBucket(t *testing.T) {
	ctx := context.Background()
	schedule := rotationSchedule(1)
	scheduleRepo := newFakeScheduleRepo(schedule)
	imageRepo := newFakeImageRepo()
	historyRepo := newFakeHistoryRepo()

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	item, err := selector.NextItem(ctx, schedule, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestNextItemPinnedSchedule(t *testing.T) {
	ctx := context.Background()
	pinned := rotationImage(1, "img-005")
	imageRepo := newFakeImageRepo(
		rotationImage(1, "img-001"),
		pinned,
	)
	schedule := &models.BucketSchedule{
		BucketID:      1,
		BucketImageID: &pinned.ID,
		Schedule:      models.BuildDateSchedule(utils.UTCNow()),
		ScheduleType:  models.ScheduleTypeOnce,
	}
	scheduleRepo := newFakeScheduleRepo(schedule)
	historyRepo := newFakeHistoryRepo()

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	// One-time schedules always resolve to their pinned item
	item, err := selector.NextItem(ctx, schedule, 1, 3)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "img-005", item.FriendlyName)
}

func TestNextItemPinnedScheduleWithoutItem(t *testing.T) {
	ctx := context.Background()
	schedule := &models.BucketSchedule{
		BucketID:     1,
		Schedule:     models.BuildDateSchedule(utils.UTCNow()),
		ScheduleType: models.ScheduleTypeOnce,
	}
	scheduleRepo := newFakeScheduleRepo(schedule)
	imageRepo := newFakeImageRepo(rotationImage(1, "img-001"))
	historyRepo := newFakeHistoryRepo()

	selector := NewRotationSelector(scheduleRepo, imageRepo, historyRepo)

	item, err := selector.NextItem(ctx, schedule, 0, 0)
	require.NoError(t, err)
	assert.Nil(t, item)
}
