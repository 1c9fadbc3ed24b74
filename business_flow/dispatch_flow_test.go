package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialbucket/socialbucket/app/dto"
	"github.com/socialbucket/socialbucket/app/services"
	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/utils"
)

type fakeMediaService struct{}

func (fakeMediaService) PublicURL(filePath string) string {
	return "https://cdn.example.com/" + filePath
}

// dispatchEnv bundles the fakes one dispatch test needs
type dispatchEnv struct {
	scheduleRepo *fakeScheduleRepo
	imageRepo    *fakeImageRepo
	historyRepo  *fakeHistoryRepo
	poster       *services.MockSocialPosterService
	flow         DispatchFlow
	user         *models.User
	bucket       *models.Bucket
}

// newDispatchEnv builds a user-owned bucket with the given image names, one
// rotation schedule over them, and a dispatch flow wired to fakes. The nil db
// runs transactions inline and the nil cache skips distributed claims.
func newDispatchEnv(t *testing.T, imageNames ...string) (*dispatchEnv, *models.BucketSchedule) {
	t.Helper()

	user := &models.User{
		ID:       7,
		Email:    "owner@example.com",
		Timezone: utils.ToPtr("UTC"),
		IsActive: true,
	}
	bucket := &models.Bucket{ID: 1, UserID: user.ID, Name: "Test Bucket", User: user}

	images := make([]*models.BucketImage, 0, len(imageNames))
	for _, name := range imageNames {
		images = append(images, rotationImage(bucket.ID, name))
	}

	schedule := rotationSchedule(bucket.ID)
	schedule.PostTo = models.NetworkMask(models.NetworkFacebook | models.NetworkTwitter)
	schedule.Bucket = bucket

	env := &dispatchEnv{
		scheduleRepo: newFakeScheduleRepo(schedule),
		imageRepo:    newFakeImageRepo(images...),
		historyRepo:  newFakeHistoryRepo(),
		poster:       services.NewMockSocialPosterService(),
	}
	selector := NewRotationSelector(env.scheduleRepo, env.imageRepo, env.historyRepo)
	env.flow = NewDispatchFlow(env.scheduleRepo, env.imageRepo, env.historyRepo,
		selector, env.poster, fakeMediaService{}, nil, nil)
	env.user = user
	env.bucket = bucket

	return env, schedule
}

func TestDispatchScheduledHappyPath(t *testing.T) {
	ctx := context.Background()
	env, schedule := newDispatchEnv(t, "img-001", "img-002")

	resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, schedule.ID, resp.ScheduleID)
	assert.Equal(t, "img-001", resp.FriendlyName)
	assert.Equal(t, "Caption for img-001", resp.Caption)
	assert.Equal(t, []string{"facebook", "twitter"}, resp.SentTo)
	assert.Len(t, resp.Outcomes, 2)
	for network, outcome := range resp.Outcomes {
		assert.True(t, outcome.Success, "network %s should succeed", network)
	}

	// One record appended and both counters bumped
	records, err := env.historyRepo.ListBySchedule(ctx, schedule.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "img-001", records[0].FriendlyName)
	assert.Equal(t, schedule.PostTo, records[0].SentTo)

	assert.Equal(t, 1, schedule.TimesSent)
	item, _ := env.imageRepo.ByID(ctx, resp.ImageID)
	require.NotNil(t, item)
	assert.Equal(t, 1, item.TimesSent)
}

func TestDispatchPartialFailureStillRecorded(t *testing.T) {
	ctx := context.Background()
	env, schedule := newDispatchEnv(t, "img-001")
	env.poster.FailNetworks[models.NetworkTwitter] = "rate limited"

	resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.True(t, resp.Outcomes["facebook"].Success)
	assert.False(t, resp.Outcomes["twitter"].Success)
	assert.Equal(t, "rate limited", resp.Outcomes["twitter"].Error)

	// A partial failure is still a dispatch: the record and counters land
	records, err := env.historyRepo.ListBySchedule(ctx, schedule.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, schedule.TimesSent)
}

func TestDispatchUnsupportedNetworkFailsOnlyThatSlot(t *testing.T) {
	ctx := context.Background()
	env, schedule := newDispatchEnv(t, "img-001")
	schedule.PostTo = models.NetworkMask(models.NetworkFacebook | models.NetworkPinterest)
	env.poster.FailNetworks[models.NetworkPinterest] = "no adapter registered for network pinterest"

	resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
	require.NoError(t, err)

	assert.True(t, resp.Outcomes["facebook"].Success)
	assert.False(t, resp.Outcomes["pinterest"].Success)
}

func TestDispatchAlreadySent(t *testing.T) {
	ctx := context.Background()
	env, schedule := newDispatchEnv(t, "img-001")
	schedule.ScheduleType = models.ScheduleTypeOnce
	schedule.TimesSent = 1

	resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsScheduleAlreadySent(err))
	assert.Empty(t, env.poster.SentPosts())
}

func TestDispatchAnnualTooSoon(t *testing.T) {
	ctx := context.Background()
	env, schedule := newDispatchEnv(t, "img-001")
	schedule.ScheduleType = models.ScheduleTypeAnnual
	item, _ := env.imageRepo.ListByBucketOrdered(ctx, env.bucket.ID)
	schedule.BucketImageID = &item[0].ID

	require.NoError(t, env.historyRepo.Save(ctx,
		historyRecord(schedule.ID, item[0].ID, "img-001", utils.UTCNow().AddDate(0, -6, 0))))

	resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsAnnualTooSoon(err))

	// Nothing new was appended
	records, err := env.historyRepo.ListBySchedule(ctx, schedule.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestDispatchNoImageDue(t *testing.T) {
	ctx := context.Background()
	env, schedule := newDispatchEnv(t)

	resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsNoImageDue(err))
}

func TestDispatchInFlightFailsFast(t *testing.T) {
	ctx := context.Background()
	env, schedule := newDispatchEnv(t, "img-001")

	require.True(t, tryLockDispatch(schedule.ID))
	defer unlockDispatch(schedule.ID)

	resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsDispatchInFlight(err))
	assert.Empty(t, env.poster.SentPosts())
}

func TestDispatchCancelledBeforeFanOut(t *testing.T) {
	env, schedule := newDispatchEnv(t, "img-001")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
	require.Error(t, err)
	assert.Nil(t, resp)

	// No post attempts and no record means cancellation left no side effects
	assert.Empty(t, env.poster.SentPosts())
	records, listErr := env.historyRepo.ListBySchedule(context.Background(), schedule.ID, 0, 0)
	require.NoError(t, listErr)
	assert.Empty(t, records)
	assert.Equal(t, 0, schedule.TimesSent)
}

func TestDispatchCaptionChain(t *testing.T) {
	ctx := context.Background()

	t.Run("item caption is the default", func(t *testing.T) {
		env, schedule := newDispatchEnv(t, "img-001")
		resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
		require.NoError(t, err)
		assert.Equal(t, "Caption for img-001", resp.Caption)
		// No twitter caption anywhere falls back to the main one
		assert.Equal(t, "Caption for img-001", resp.TwitterCaption)
	})

	t.Run("schedule caption wins over item caption", func(t *testing.T) {
		env, schedule := newDispatchEnv(t, "img-001")
		schedule.Description = utils.ToPtr("schedule caption")
		schedule.TwitterDescription = utils.ToPtr("schedule twitter caption")

		resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
		require.NoError(t, err)
		assert.Equal(t, "schedule caption", resp.Caption)
		assert.Equal(t, "schedule twitter caption", resp.TwitterCaption)
	})

	t.Run("request override wins over everything", func(t *testing.T) {
		env, schedule := newDispatchEnv(t, "img-001")
		schedule.Description = utils.ToPtr("schedule caption")

		resp, err := env.flow.PostNow(ctx, &dto.PostNowRequest{
			ScheduleID: schedule.ID,
			Caption:    utils.ToPtr("override caption"),
		}, env.user.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "override caption", resp.Caption)
	})
}

func TestDispatchScheduledConsumesSkip(t *testing.T) {
	ctx := context.Background()
	env, schedule := newDispatchEnv(t, "img-001", "img-002", "img-003")
	schedule.SkipImage = 1

	require.NoError(t, env.historyRepo.Save(ctx,
		historyRecord(schedule.ID, 1, "img-001", utils.UTCNow().Add(-time.Hour))))

	resp, err := env.flow.DispatchScheduled(ctx, schedule.ID)
	require.NoError(t, err)

	// Offset 0 plus the pending skip of 1 advances past the last-sent item
	assert.Equal(t, "img-002", resp.FriendlyName)
	assert.Equal(t, 0, schedule.SkipImage)
}

func TestPostNowAccessDenied(t *testing.T) {
	ctx := context.Background()
	env, schedule := newDispatchEnv(t, "img-001")

	resp, err := env.flow.PostNow(ctx, &dto.PostNowRequest{ScheduleID: schedule.ID}, env.user.ID+1, nil)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsScheduleAccessDenied(err))
}

func TestPostNowUnknownSchedule(t *testing.T) {
	ctx := context.Background()
	env, _ := newDispatchEnv(t, "img-001")

	resp, err := env.flow.PostNow(ctx, &dto.PostNowRequest{ScheduleID: 9999}, env.user.ID, nil)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsScheduleNotFound(err))
}
