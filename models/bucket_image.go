package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// BucketImage represents a content item inside a bucket: a media asset plus
// its captions. FriendlyName is the stable sort key rotation ordering runs on.
type BucketImage struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	UUID               uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_bucket_images_uuid" json:"uuid"`
	BucketID           uint        `gorm:"not null;index:idx_bucket_images_bucket_id" json:"bucket_id"`
	FriendlyName       string      `gorm:"type:varchar(255);not null;index:idx_bucket_images_friendly_name" json:"friendly_name"`
	FilePath           string      `gorm:"type:varchar(1024);not null" json:"file_path"`
	Description        *string     `gorm:"type:text" json:"description,omitempty"`
	TwitterDescription *string     `gorm:"type:text" json:"twitter_description,omitempty"`
	PostTo             NetworkMask `gorm:"not null;default:0" json:"post_to"`
	ForceSendDate      *time.Time  `gorm:"type:date" json:"force_send_date,omitempty"`
	Repeat             bool        `gorm:"not null;default:false" json:"repeat"`
	UseWatermark       bool        `gorm:"not null;default:false" json:"use_watermark"`
	TimesSent          int         `gorm:"not null;default:0" json:"times_sent"`
	CreatedAt          time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt          *time.Time  `json:"updated_at,omitempty"`

	// Relations
	Bucket *Bucket `gorm:"foreignKey:BucketID;references:ID" json:"bucket,omitempty"`
}

// TableName returns the table name for the model
func (BucketImage) TableName() string {
	return "bucket_images"
}

// BeforeCreate is called before creating a new record
func (i *BucketImage) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == uuid.Nil {
		i.UUID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (i *BucketImage) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	i.UpdatedAt = &now
	return nil
}

// ForcedIsDue checks whether the item carries a forced send date matching the
// given local day. Non-repeating items are only forced while still unsent.
func (i *BucketImage) ForcedIsDue(now time.Time) bool {
	if i.ForceSendDate == nil {
		return false
	}
	if !i.Repeat && i.TimesSent > 0 {
		return false
	}
	y1, m1, d1 := i.ForceSendDate.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ShouldDisplayTwitterWarning reports whether the item would be truncated on
// Twitter: no dedicated twitter caption and a regular caption over the limit.
func (i *BucketImage) ShouldDisplayTwitterWarning() bool {
	if i.TwitterDescription != nil && *i.TwitterDescription != "" {
		return false
	}
	return i.Description != nil && len([]rune(*i.Description)) > utils.TwitterCharacterLimit
}

// IsVideo checks the file extension for the media kinds posted as video
func (i *BucketImage) IsVideo() bool {
	for _, ext := range []string{".mp4", ".gif"} {
		if len(i.FilePath) >= len(ext) && i.FilePath[len(i.FilePath)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// BucketImageFilter represents filter criteria for bucket images
type BucketImageFilter struct {
	ID           *uint      `json:"id,omitempty"`
	UUID         *uuid.UUID `json:"uuid,omitempty"`
	BucketID     *uint      `json:"bucket_id,omitempty"`
	FriendlyName *string    `json:"friendly_name,omitempty"`
}
