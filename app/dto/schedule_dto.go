package dto

import (
	"time"
)

// ScheduleDTO represents a schedule in responses
type ScheduleDTO struct {
	ID                 uint     `json:"id"`
	UUID               string   `json:"uuid"`
	BucketID           uint     `json:"bucket_id"`
	BucketImageID      *uint    `json:"bucket_image_id,omitempty"`
	Schedule           string   `json:"schedule"`
	ScheduleType       string   `json:"schedule_type"`
	PostTo             int64    `json:"post_to"`
	Networks           []string `json:"networks"`
	Description        *string  `json:"description,omitempty"`
	TwitterDescription *string  `json:"twitter_description,omitempty"`
	TimesSent          int      `json:"times_sent"`
	SkipImage          int      `json:"skip_image"`
	Disabled           bool     `json:"disabled"`
	Time               string   `json:"time"`
	Days               []string `json:"days"`
	ScheduledDate      string   `json:"scheduled_date,omitempty"`
	TwitterWarning     bool     `json:"twitter_warning"`
	CreatedAt          string   `json:"created_at"`
}

// CreateRotationScheduleRequest represents the request to create a rotation schedule
type CreateRotationScheduleRequest struct {
	BucketID           uint     `json:"bucket_id" validate:"required"`
	Hour               int      `json:"hour" validate:"min=0,max=23"`
	Minute             int      `json:"minute" validate:"min=0,max=59"`
	Days               []int    `json:"days" validate:"required,min=1,dive,min=1,max=7"`
	Networks           []string `json:"networks" validate:"required,min=1"`
	Description        *string  `json:"description,omitempty"`
	TwitterDescription *string  `json:"twitter_description,omitempty"`
}

// CreateDatedScheduleRequest represents the request to create a one-time or annual schedule
type CreateDatedScheduleRequest struct {
	BucketID           uint      `json:"bucket_id" validate:"required"`
	BucketImageID      uint      `json:"bucket_image_id" validate:"required"`
	PostAt             time.Time `json:"post_at" validate:"required"`
	Annual             bool      `json:"annual"`
	Networks           []string  `json:"networks" validate:"required,min=1"`
	Description        *string   `json:"description,omitempty"`
	TwitterDescription *string   `json:"twitter_description,omitempty"`
}

// UpdateScheduleRequest represents the request to update an existing schedule
type UpdateScheduleRequest struct {
	ScheduleID         uint     `json:"-"`
	Schedule           *string  `json:"schedule,omitempty"`
	Networks           []string `json:"networks,omitempty"`
	Description        *string  `json:"description,omitempty"`
	TwitterDescription *string  `json:"twitter_description,omitempty"`
}

// BulkRetargetRequest represents the request to retime and retarget many schedules
type BulkRetargetRequest struct {
	ScheduleIDs []uint    `json:"schedule_ids" validate:"required,min=1"`
	Networks    []string  `json:"networks" validate:"required,min=1"`
	PostAt      time.Time `json:"post_at" validate:"required"`
}

// BulkDeleteRequest represents the request to delete many schedules
type BulkDeleteRequest struct {
	ScheduleIDs []uint `json:"schedule_ids" validate:"required,min=1"`
}

// BulkOperationResponse reports how many schedules a bulk operation touched
type BulkOperationResponse struct {
	Count int `json:"count"`
}

// SendHistoryDTO represents a dispatch record in responses
type SendHistoryDTO struct {
	ID           uint    `json:"id"`
	UUID         string  `json:"uuid"`
	ScheduleID   uint    `json:"schedule_id"`
	ImageID      uint    `json:"image_id"`
	FriendlyName string  `json:"friendly_name"`
	Text         *string `json:"text,omitempty"`
	TwitterText  *string `json:"twitter_text,omitempty"`
	SentTo       int64   `json:"sent_to"`
	SentToName   string  `json:"sent_to_name"`
	SentAt       string  `json:"sent_at"`
}

// NextDueResponse previews what the next dispatch of a schedule would send
type NextDueResponse struct {
	ScheduleID     uint   `json:"schedule_id"`
	ImageID        uint   `json:"image_id"`
	FriendlyName   string `json:"friendly_name"`
	Caption        string `json:"caption"`
	TwitterCaption string `json:"twitter_caption"`
	TwitterWarning bool   `json:"twitter_warning"`
}
