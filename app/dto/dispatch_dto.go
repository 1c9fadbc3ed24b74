package dto

// PostNowRequest represents the request to dispatch a schedule immediately
type PostNowRequest struct {
	ScheduleID     uint    `json:"schedule_id" validate:"required"`
	Caption        *string `json:"caption,omitempty"`
	TwitterCaption *string `json:"twitter_caption,omitempty"`
}

// PostOutcomeDTO represents one network's result in a dispatch response
type PostOutcomeDTO struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// PostNowResponse represents the result of a dispatch
type PostNowResponse struct {
	ScheduleID     uint                      `json:"schedule_id"`
	ImageID        uint                      `json:"image_id"`
	FriendlyName   string                    `json:"friendly_name"`
	MediaURL       string                    `json:"media_url"`
	Caption        string                    `json:"caption"`
	TwitterCaption string                    `json:"twitter_caption"`
	SentTo         []string                  `json:"sent_to"`
	SentAt         string                    `json:"sent_at"`
	Outcomes       map[string]PostOutcomeDTO `json:"outcomes"`
}
