package dto

// BucketDTO represents a bucket in responses
type BucketDTO struct {
	ID         uint   `json:"id"`
	UUID       string `json:"uuid"`
	Name       string `json:"name"`
	PostOnce   bool   `json:"post_once"`
	ImageCount int64  `json:"image_count"`
	CreatedAt  string `json:"created_at"`
}

// BucketImageDTO represents a content item in responses
type BucketImageDTO struct {
	ID                 uint     `json:"id"`
	UUID               string   `json:"uuid"`
	BucketID           uint     `json:"bucket_id"`
	FriendlyName       string   `json:"friendly_name"`
	FilePath           string   `json:"file_path"`
	Description        *string  `json:"description,omitempty"`
	TwitterDescription *string  `json:"twitter_description,omitempty"`
	PostTo             int64    `json:"post_to"`
	Networks           []string `json:"networks"`
	TimesSent          int      `json:"times_sent"`
	TwitterWarning     bool     `json:"twitter_warning"`
}
