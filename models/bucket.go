package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// Bucket represents a named collection of content items owned by a user.
// Schedules attach to a bucket and draw items from it.
type Bucket struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_buckets_uuid" json:"uuid"`
	UserID    uint       `gorm:"not null;index:idx_buckets_user_id" json:"user_id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	PostOnce  bool       `gorm:"not null;default:false" json:"post_once"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	User      *User            `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
	Images    []BucketImage    `gorm:"foreignKey:BucketID" json:"images,omitempty"`
	Schedules []BucketSchedule `gorm:"foreignKey:BucketID" json:"schedules,omitempty"`
}

// TableName returns the table name for the model
func (Bucket) TableName() string {
	return "buckets"
}

// BeforeCreate is called before creating a new record
func (b *Bucket) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (b *Bucket) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	b.UpdatedAt = &now
	return nil
}

// RotationSchedules returns the rotation schedules attached to the bucket,
// nil when there are none. Rotation state is keyed off these.
func (b *Bucket) RotationSchedules() []BucketSchedule {
	var out []BucketSchedule
	for _, s := range b.Schedules {
		if s.ScheduleType == ScheduleTypeRotation {
			out = append(out, s)
		}
	}
	return out
}

// BucketFilter represents filter criteria for buckets
type BucketFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	UserID   *uint      `json:"user_id,omitempty"`
	Name     *string    `json:"name,omitempty"`
	PostOnce *bool      `json:"post_once,omitempty"`
}
