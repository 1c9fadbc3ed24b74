package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialbucket/socialbucket/app/dto"
	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/utils"
)

type scheduleEnv struct {
	scheduleRepo *fakeScheduleRepo
	bucketRepo   *fakeBucketRepo
	imageRepo    *fakeImageRepo
	historyRepo  *fakeHistoryRepo
	flow         ScheduleFlow
	user         *models.User
	bucket       *models.Bucket
}

func newScheduleEnv(t *testing.T, imageNames ...string) *scheduleEnv {
	t.Helper()

	user := &models.User{ID: 7, Email: "owner@example.com", Timezone: utils.ToPtr("UTC"), IsActive: true}
	bucket := &models.Bucket{UserID: user.ID, Name: "Test Bucket", User: user}

	images := make([]*models.BucketImage, 0, len(imageNames))
	for _, name := range imageNames {
		images = append(images, rotationImage(1, name))
	}

	env := &scheduleEnv{
		scheduleRepo: newFakeScheduleRepo(),
		bucketRepo:   newFakeBucketRepo(bucket),
		imageRepo:    newFakeImageRepo(images...),
		historyRepo:  newFakeHistoryRepo(),
		user:         user,
		bucket:       bucket,
	}
	selector := NewRotationSelector(env.scheduleRepo, env.imageRepo, env.historyRepo)
	env.flow = NewScheduleFlow(env.scheduleRepo, env.bucketRepo, env.imageRepo, env.historyRepo, selector, nil)
	return env
}

// addOwnedSchedule stores a schedule with the bucket relation preloaded, the
// way the real repository returns it.
func (env *scheduleEnv) addOwnedSchedule(t *testing.T, schedule *models.BucketSchedule) *models.BucketSchedule {
	t.Helper()
	schedule.BucketID = env.bucket.ID
	schedule.Bucket = env.bucket
	require.NoError(t, env.scheduleRepo.Save(context.Background(), schedule))
	return schedule
}

func TestCreateRotationValidation(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t)

	t.Run("no days selected", func(t *testing.T) {
		_, err := env.flow.CreateRotation(ctx, &dto.CreateRotationScheduleRequest{
			BucketID: env.bucket.ID,
			Hour:     12,
			Networks: []string{"facebook"},
		}, env.user.ID, nil)
		require.Error(t, err)
		assert.True(t, IsNoDaysSelected(err))
	})

	t.Run("no known networks", func(t *testing.T) {
		_, err := env.flow.CreateRotation(ctx, &dto.CreateRotationScheduleRequest{
			BucketID: env.bucket.ID,
			Hour:     12,
			Days:     []int{1},
			Networks: []string{"myspace"},
		}, env.user.ID, nil)
		require.Error(t, err)
		assert.True(t, IsNoNetworksSelected(err))
	})

	t.Run("foreign bucket denied", func(t *testing.T) {
		_, err := env.flow.CreateRotation(ctx, &dto.CreateRotationScheduleRequest{
			BucketID: env.bucket.ID,
			Hour:     12,
			Days:     []int{1},
			Networks: []string{"facebook"},
		}, env.user.ID+1, nil)
		require.Error(t, err)
		assert.True(t, IsBucketAccessDenied(err))
	})
}

func TestCreateRotationEncodesSchedule(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t)

	out, err := env.flow.CreateRotation(ctx, &dto.CreateRotationScheduleRequest{
		BucketID: env.bucket.ID,
		Hour:     9,
		Minute:   30,
		Days:     []int{1, 3, 5},
		Networks: []string{"facebook", "twitter"},
	}, env.user.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, "30 9 * * 1,3,5", out.Schedule)
	assert.Equal(t, "rotation", out.ScheduleType)
	assert.Equal(t, []string{"facebook", "twitter"}, out.Networks)
	assert.Equal(t, "09:30", out.Time)
	assert.Equal(t, []string{"Monday", "Wednesday", "Friday"}, out.Days)
}

func TestCreateDated(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t, "img-001")
	images, _ := env.imageRepo.ListByBucketOrdered(ctx, 1)
	postAt := time.Date(2026, 12, 24, 18, 0, 0, 0, time.UTC)

	t.Run("one-time schedule", func(t *testing.T) {
		out, err := env.flow.CreateDated(ctx, &dto.CreateDatedScheduleRequest{
			BucketID:      env.bucket.ID,
			BucketImageID: images[0].ID,
			PostAt:        postAt,
			Networks:      []string{"linked_in"},
		}, env.user.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "0 18 24 12 *", out.Schedule)
		assert.Equal(t, "once", out.ScheduleType)
		require.NotNil(t, out.BucketImageID)
		assert.Equal(t, images[0].ID, *out.BucketImageID)
	})

	t.Run("annual schedule", func(t *testing.T) {
		out, err := env.flow.CreateDated(ctx, &dto.CreateDatedScheduleRequest{
			BucketID:      env.bucket.ID,
			BucketImageID: images[0].ID,
			PostAt:        postAt,
			Annual:        true,
			Networks:      []string{"facebook"},
		}, env.user.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "annual", out.ScheduleType)
	})

	t.Run("image from another bucket rejected", func(t *testing.T) {
		foreign := rotationImage(99, "img-zzz")
		require.NoError(t, env.imageRepo.Save(ctx, foreign))

		_, err := env.flow.CreateDated(ctx, &dto.CreateDatedScheduleRequest{
			BucketID:      env.bucket.ID,
			BucketImageID: foreign.ID,
			PostAt:        postAt,
			Networks:      []string{"facebook"},
		}, env.user.ID, nil)
		require.Error(t, err)
		assert.True(t, IsImageNotFound(err))
	})
}

func TestUpdateSchedule(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t)
	schedule := env.addOwnedSchedule(t, rotationSchedule(0))

	t.Run("rewrite recurrence and targets", func(t *testing.T) {
		out, err := env.flow.UpdateSchedule(ctx, &dto.UpdateScheduleRequest{
			ScheduleID: schedule.ID,
			Schedule:   utils.ToPtr("0 8 * * 6,7"),
			Networks:   []string{"instagram"},
		}, env.user.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, "0 8 * * 6,7", out.Schedule)
		assert.Equal(t, []string{"instagram"}, out.Networks)
	})

	t.Run("malformed recurrence rejected", func(t *testing.T) {
		_, err := env.flow.UpdateSchedule(ctx, &dto.UpdateScheduleRequest{
			ScheduleID: schedule.ID,
			Schedule:   utils.ToPtr("0 8 * *"),
		}, env.user.ID, nil)
		assert.Error(t, err)
	})

	t.Run("disable via sentinel", func(t *testing.T) {
		out, err := env.flow.UpdateSchedule(ctx, &dto.UpdateScheduleRequest{
			ScheduleID: schedule.ID,
			Schedule:   utils.ToPtr("0 0 0 0 0"),
		}, env.user.ID, nil)
		require.NoError(t, err)
		assert.True(t, out.Disabled)
	})
}

func TestBulkRetargetSkipsForeignSchedules(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t)

	mine := env.addOwnedSchedule(t, rotationSchedule(0))

	otherUser := &models.User{ID: 8}
	otherBucket := &models.Bucket{ID: 50, UserID: otherUser.ID, User: otherUser}
	foreign := rotationSchedule(otherBucket.ID)
	foreign.Bucket = otherBucket
	require.NoError(t, env.scheduleRepo.Save(ctx, foreign))

	postAt := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	resp, err := env.flow.BulkRetarget(ctx, &dto.BulkRetargetRequest{
		ScheduleIDs: []uint{mine.ID, foreign.ID, 9999},
		Networks:    []string{"twitter"},
		PostAt:      postAt,
	}, env.user.ID, nil)
	require.NoError(t, err)

	// Only the caller's schedule was touched
	assert.Equal(t, 1, resp.Count)

	updated, _ := env.scheduleRepo.ByID(ctx, mine.ID)
	assert.Equal(t, "0 10 1 6 *", updated.Schedule)
	assert.True(t, updated.PostTo.Has(models.NetworkTwitter))

	untouched, _ := env.scheduleRepo.ByID(ctx, foreign.ID)
	assert.False(t, untouched.PostTo.Has(models.NetworkTwitter))
}

func TestBulkDelete(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t)

	first := env.addOwnedSchedule(t, rotationSchedule(0))
	second := env.addOwnedSchedule(t, rotationSchedule(0))

	resp, err := env.flow.BulkDelete(ctx, &dto.BulkDeleteRequest{
		ScheduleIDs: []uint{first.ID, second.ID, 9999},
	}, env.user.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)

	gone, _ := env.scheduleRepo.ByID(ctx, first.ID)
	assert.Nil(t, gone)
}

func TestSkipImageAccumulates(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t)
	schedule := env.addOwnedSchedule(t, rotationSchedule(0))

	require.NoError(t, env.flow.SkipImage(ctx, schedule.ID, env.user.ID))
	require.NoError(t, env.flow.SkipImage(ctx, schedule.ID, env.user.ID))

	assert.Equal(t, 2, schedule.SkipImage)
}

func TestSkipImageSingle(t *testing.T) {
	ctx := context.Background()

	t.Run("annual gets a one-shot skip", func(t *testing.T) {
		env := newScheduleEnv(t)
		schedule := env.addOwnedSchedule(t, &models.BucketSchedule{
			Schedule:     "0 12 24 12 *",
			ScheduleType: models.ScheduleTypeAnnual,
		})

		require.NoError(t, env.flow.SkipImageSingle(ctx, schedule.ID, env.user.ID))
		assert.Equal(t, 1, schedule.SkipImage)
	})

	t.Run("one-time schedule is deleted", func(t *testing.T) {
		env := newScheduleEnv(t)
		schedule := env.addOwnedSchedule(t, &models.BucketSchedule{
			Schedule:     "0 12 24 12 *",
			ScheduleType: models.ScheduleTypeOnce,
		})

		require.NoError(t, env.flow.SkipImageSingle(ctx, schedule.ID, env.user.ID))
		gone, _ := env.scheduleRepo.ByID(ctx, schedule.ID)
		assert.Nil(t, gone)
	})

	t.Run("rotation is unaffected", func(t *testing.T) {
		env := newScheduleEnv(t)
		schedule := env.addOwnedSchedule(t, rotationSchedule(0))

		require.NoError(t, env.flow.SkipImageSingle(ctx, schedule.ID, env.user.ID))
		assert.Equal(t, 0, schedule.SkipImage)
		still, _ := env.scheduleRepo.ByID(ctx, schedule.ID)
		assert.NotNil(t, still)
	})
}

func TestNextDuePreview(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t, "img-001", "img-002")
	schedule := env.addOwnedSchedule(t, rotationSchedule(0))
	schedule.SkipImage = 1

	require.NoError(t, env.historyRepo.Save(ctx,
		historyRecord(schedule.ID, 1, "img-001", utils.UTCNow().Add(-time.Hour))))

	out, err := env.flow.NextDue(ctx, schedule.ID, env.user.ID)
	require.NoError(t, err)

	// The pending skip is previewed but not consumed
	assert.Equal(t, "img-002", out.FriendlyName)
	assert.Equal(t, "Caption for img-002", out.Caption)
	assert.Equal(t, 1, schedule.SkipImage)
}

func TestNextDueEmptyBucket(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t)
	schedule := env.addOwnedSchedule(t, rotationSchedule(0))

	_, err := env.flow.NextDue(ctx, schedule.ID, env.user.ID)
	require.Error(t, err)
	assert.True(t, IsNoImageDue(err))
}

func TestHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	env := newScheduleEnv(t)
	schedule := env.addOwnedSchedule(t, rotationSchedule(0))

	now := utils.UTCNow()
	require.NoError(t, env.historyRepo.Save(ctx, historyRecord(schedule.ID, 1, "img-001", now.Add(-2*time.Hour))))
	require.NoError(t, env.historyRepo.Save(ctx, historyRecord(schedule.ID, 2, "img-002", now.Add(-time.Hour))))

	records, err := env.flow.History(ctx, schedule.ID, env.user.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "img-002", records[0].FriendlyName)
	assert.Equal(t, "img-001", records[1].FriendlyName)
}
