// Package testing provides test utilities and database setup for testing the dispatch engine
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user in the given timezone with fake
// credentials for every platform, so dispatch paths never fail on missing
// tokens.
func (tf *TestFixtures) CreateTestUser(timezone string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)
	displayName := "Test User"

	user := &models.User{
		Email:                   fmt.Sprintf("user.%s@example.com", randomDigits),
		PasswordHash:            string(hashedPassword),
		DisplayName:             &displayName,
		Timezone:                &timezone,
		IsActive:                true,
		FacebookAccessToken:     strPtr("fb-token-" + randomDigits),
		FacebookPageID:          strPtr("123456789"),
		InstagramBusinessID:     strPtr("987654321"),
		TwitterOAuthToken:       strPtr("tw-token-" + randomDigits),
		TwitterOAuthTokenSecret: strPtr("tw-secret-" + randomDigits),
		LinkedInAccessToken:     strPtr("li-token-" + randomDigits),
		LinkedInProfileID:       strPtr("urn-li-person"),
		GoogleRefreshToken:      strPtr("gb-refresh-" + randomDigits),
		GoogleAccountID:         strPtr("accounts/100"),
		GoogleLocationID:        strPtr("locations/200"),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateTestBucket creates a bucket owned by the given user
func (tf *TestFixtures) CreateTestBucket(userID uint, name string) (*models.Bucket, error) {
	bucket := &models.Bucket{
		UserID: userID,
		Name:   name,
	}
	if err := tf.DB.DB.Create(bucket).Error; err != nil {
		return nil, fmt.Errorf("failed to create test bucket: %w", err)
	}
	return bucket, nil
}

// CreateTestImage creates a content item with the given friendly name and a
// caption derived from it.
func (tf *TestFixtures) CreateTestImage(bucketID uint, friendlyName string) (*models.BucketImage, error) {
	description := "Caption for " + friendlyName
	image := &models.BucketImage{
		BucketID:     bucketID,
		FriendlyName: friendlyName,
		FilePath:     fmt.Sprintf("buckets/%d/%s.jpg", bucketID, friendlyName),
		Description:  &description,
	}
	if err := tf.DB.DB.Create(image).Error; err != nil {
		return nil, fmt.Errorf("failed to create test image: %w", err)
	}
	return image, nil
}

// CreateTestImages creates a run of content items named img-001, img-002, ...
// so rotation order over them is deterministic.
func (tf *TestFixtures) CreateTestImages(bucketID uint, count int) ([]*models.BucketImage, error) {
	images := make([]*models.BucketImage, 0, count)
	for i := 1; i <= count; i++ {
		image, err := tf.CreateTestImage(bucketID, fmt.Sprintf("img-%03d", i))
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, nil
}

// CreateRotationSchedule creates an enabled rotation schedule firing at the
// given time of day on the given weekday numbers.
func (tf *TestFixtures) CreateRotationSchedule(bucketID uint, hour, minute int, days []int, postTo models.NetworkMask) (*models.BucketSchedule, error) {
	schedule := &models.BucketSchedule{
		BucketID:     bucketID,
		Schedule:     models.BuildRotationSchedule(hour, minute, days),
		ScheduleType: models.ScheduleTypeRotation,
		PostTo:       postTo,
	}
	if err := tf.DB.DB.Create(schedule).Error; err != nil {
		return nil, fmt.Errorf("failed to create rotation schedule: %w", err)
	}
	return schedule, nil
}

// CreateDatedSchedule creates a one-shot schedule pinned to the given wall
// clock moment and bound to one content item.
func (tf *TestFixtures) CreateDatedSchedule(bucketID, imageID uint, at time.Time, postTo models.NetworkMask) (*models.BucketSchedule, error) {
	scheduleTime := at
	schedule := &models.BucketSchedule{
		BucketID:      bucketID,
		BucketImageID: &imageID,
		Schedule:      models.BuildDateSchedule(at),
		ScheduleTime:  &scheduleTime,
		ScheduleType:  models.ScheduleTypeOnce,
		PostTo:        postTo,
	}
	if err := tf.DB.DB.Create(schedule).Error; err != nil {
		return nil, fmt.Errorf("failed to create dated schedule: %w", err)
	}
	return schedule, nil
}

// CreateHistoryRecord appends a dispatch record for the given schedule,
// sent at the given moment.
func (tf *TestFixtures) CreateHistoryRecord(scheduleID, imageID uint, friendlyName string, sentTo models.NetworkMask, sentAt time.Time) (*models.BucketSendHistory, error) {
	text := "Caption for " + friendlyName
	record := &models.BucketSendHistory{
		BucketScheduleID: scheduleID,
		BucketImageID:    imageID,
		FriendlyName:     friendlyName,
		Text:             &text,
		SentTo:           sentTo,
		SentAt:           sentAt,
	}
	if err := tf.DB.DB.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create history record: %w", err)
	}
	return record, nil
}

// SetupRotationScenario creates a user, a bucket with the given number of
// items, and one rotation schedule over all of them. It is the common
// starting point for rotation and dispatch tests.
func (tf *TestFixtures) SetupRotationScenario(imageCount int) (*models.User, *models.Bucket, []*models.BucketImage, *models.BucketSchedule, error) {
	user, err := tf.CreateTestUser("UTC")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	bucket, err := tf.CreateTestBucket(user.ID, "Rotation Bucket")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	images, err := tf.CreateTestImages(bucket.ID, imageCount)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	schedule, err := tf.CreateRotationSchedule(bucket.ID, 12, 0, []int{1, 2, 3, 4, 5, 6, 7},
		models.NetworkMask(models.NetworkFacebook|models.NetworkTwitter))
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return user, bucket, images, schedule, nil
}

// DaysAgo returns a UTC timestamp the given number of days in the past
func DaysAgo(days int) time.Time {
	return utils.UTCNow().AddDate(0, 0, -days)
}

func strPtr(s string) *string {
	return &s
}
