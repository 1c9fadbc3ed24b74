package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// BucketSendHistory is an append-only dispatch record. BucketImageID
// references the item that was sent; FriendlyName snapshots its sort key so
// rotation can still resume after the item itself is deleted. Records are
// never updated or removed.
type BucketSendHistory struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	UUID             uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uk_bucket_send_histories_uuid" json:"uuid"`
	BucketScheduleID uint        `gorm:"not null;index:idx_bucket_send_histories_schedule_id" json:"bucket_schedule_id"`
	BucketImageID    uint        `gorm:"not null;index:idx_bucket_send_histories_image_id" json:"bucket_image_id"`
	FriendlyName     string      `gorm:"type:varchar(255);not null" json:"friendly_name"`
	Text             *string     `gorm:"type:text" json:"text,omitempty"`
	TwitterText      *string     `gorm:"type:text" json:"twitter_text,omitempty"`
	SentTo           NetworkMask `gorm:"not null;default:0" json:"sent_to"`
	SentAt           time.Time   `gorm:"not null;index:idx_bucket_send_histories_sent_at" json:"sent_at"`
	CreatedAt        time.Time   `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	BucketSchedule *BucketSchedule `gorm:"foreignKey:BucketScheduleID;references:ID" json:"bucket_schedule,omitempty"`
}

// TableName returns the table name for the model
func (BucketSendHistory) TableName() string {
	return "bucket_send_histories"
}

// BeforeCreate is called before creating a new record
func (h *BucketSendHistory) BeforeCreate(tx *gorm.DB) error {
	if h.UUID == uuid.Nil {
		h.UUID = uuid.New()
	}
	if h.SentAt.IsZero() {
		h.SentAt = utils.UTCNow()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = utils.UTCNow()
	}
	return nil
}

// SentToName renders the recorded target mask as a display string
func (h *BucketSendHistory) SentToName() string {
	return h.SentTo.DisplayNames()
}

// BucketSendHistoryFilter represents filter criteria for dispatch records
type BucketSendHistoryFilter struct {
	ID                *uint      `json:"id,omitempty"`
	UUID              *uuid.UUID `json:"uuid,omitempty"`
	BucketScheduleID  *uint      `json:"bucket_schedule_id,omitempty"`
	BucketScheduleIDs []uint     `json:"bucket_schedule_ids,omitempty"`
	SentAfter         *time.Time `json:"sent_after,omitempty"`
	SentBefore        *time.Time `json:"sent_before,omitempty"`
}
