// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/socialbucket/socialbucket/app/dto"
	"github.com/socialbucket/socialbucket/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToBucketDTO converts a bucket model to BucketDTO
func ToBucketDTO(bucket models.Bucket, imageCount int64) dto.BucketDTO {
	return dto.BucketDTO{
		ID:         bucket.ID,
		UUID:       bucket.UUID.String(),
		Name:       bucket.Name,
		PostOnce:   bucket.PostOnce,
		ImageCount: imageCount,
		CreatedAt:  bucket.CreatedAt.Format(time.RFC3339),
	}
}

// ToBucketImageDTO converts a bucket image model to BucketImageDTO
func ToBucketImageDTO(image models.BucketImage) dto.BucketImageDTO {
	return dto.BucketImageDTO{
		ID:                 image.ID,
		UUID:               image.UUID.String(),
		BucketID:           image.BucketID,
		FriendlyName:       image.FriendlyName,
		FilePath:           image.FilePath,
		Description:        image.Description,
		TwitterDescription: image.TwitterDescription,
		PostTo:             int64(image.PostTo),
		Networks:           image.PostTo.Names(),
		TimesSent:          image.TimesSent,
		TwitterWarning:     image.ShouldDisplayTwitterWarning(),
	}
}

// ToScheduleDTO converts a schedule model to ScheduleDTO
func ToScheduleDTO(schedule models.BucketSchedule) dto.ScheduleDTO {
	out := dto.ScheduleDTO{
		ID:                 schedule.ID,
		UUID:               schedule.UUID.String(),
		BucketID:           schedule.BucketID,
		BucketImageID:      schedule.BucketImageID,
		Schedule:           schedule.Schedule,
		ScheduleType:       schedule.ScheduleType.String(),
		PostTo:             int64(schedule.PostTo),
		Networks:           schedule.PostTo.Names(),
		Description:        schedule.Description,
		TwitterDescription: schedule.TwitterDescription,
		TimesSent:          schedule.TimesSent,
		SkipImage:          schedule.SkipImage,
		Disabled:           schedule.IsDisabled(),
		Time:               schedule.TimeFormat(),
		Days:               schedule.DayNames(),
		ScheduledDate:      schedule.ScheduledDateFormat(),
		TwitterWarning:     schedule.ShouldDisplayTwitterWarning(),
		CreatedAt:          schedule.CreatedAt.Format(time.RFC3339),
	}
	return out
}

// ToSendHistoryDTO converts a dispatch record to SendHistoryDTO
func ToSendHistoryDTO(record models.BucketSendHistory) dto.SendHistoryDTO {
	return dto.SendHistoryDTO{
		ID:           record.ID,
		UUID:         record.UUID.String(),
		ScheduleID:   record.BucketScheduleID,
		ImageID:      record.BucketImageID,
		FriendlyName: record.FriendlyName,
		Text:         record.Text,
		TwitterText:  record.TwitterText,
		SentTo:       int64(record.SentTo),
		SentToName:   record.SentToName(),
		SentAt:       record.SentAt.Format(time.RFC3339),
	}
}
