package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestImageForcedIsDue(t *testing.T) {
	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	sameDay := time.Date(2026, 5, 10, 16, 45, 0, 0, time.UTC)
	otherDay := day.AddDate(0, 0, 1)

	tests := []struct {
		name     string
		image    BucketImage
		now      time.Time
		expected bool
	}{
		{"no forced date", BucketImage{}, sameDay, false},
		{"forced date matches", BucketImage{ForceSendDate: &day}, sameDay, true},
		{"forced date on another day", BucketImage{ForceSendDate: &day}, otherDay, false},
		{"non repeating already sent", BucketImage{ForceSendDate: &day, TimesSent: 1}, sameDay, false},
		{"repeating already sent", BucketImage{ForceSendDate: &day, Repeat: true, TimesSent: 3}, sameDay, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.image.ForcedIsDue(tt.now))
		})
	}
}

func TestImageTwitterWarning(t *testing.T) {
	long := strings.Repeat("a", 300)
	short := "short caption"

	assert.True(t, (&BucketImage{Description: &long}).ShouldDisplayTwitterWarning())
	assert.False(t, (&BucketImage{Description: &short}).ShouldDisplayTwitterWarning())
	assert.False(t, (&BucketImage{}).ShouldDisplayTwitterWarning())

	// A dedicated twitter caption suppresses the warning regardless of length
	assert.False(t, (&BucketImage{Description: &long, TwitterDescription: strPtr("tweet")}).ShouldDisplayTwitterWarning())
}

func TestImageIsVideo(t *testing.T) {
	assert.True(t, (&BucketImage{FilePath: "buckets/1/clip.mp4"}).IsVideo())
	assert.True(t, (&BucketImage{FilePath: "buckets/1/loop.gif"}).IsVideo())
	assert.False(t, (&BucketImage{FilePath: "buckets/1/photo.jpg"}).IsVideo())
	assert.False(t, (&BucketImage{FilePath: ""}).IsVideo())
}

func TestUserLocation(t *testing.T) {
	assert.Nil(t, (&User{}).Location())
	assert.Nil(t, (&User{Timezone: strPtr("")}).Location())
	assert.Nil(t, (&User{Timezone: strPtr("Not/AZone")}).Location())

	loc := (&User{Timezone: strPtr("Asia/Tehran")}).Location()
	assert.NotNil(t, loc)
	assert.Equal(t, "Asia/Tehran", loc.String())
}
