package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// User represents an account owner in the database. The per-platform
// credential columns are written by the OAuth connect flows and read by the
// platform clients at dispatch time.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid" json:"uuid"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex:uk_users_email" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	DisplayName  *string    `gorm:"type:varchar(255)" json:"display_name,omitempty"`
	Timezone     *string    `gorm:"type:varchar(64)" json:"timezone,omitempty"`
	IsActive     bool       `gorm:"not null;default:true;index:idx_users_is_active" json:"is_active"`
	CreatedAt    time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`

	// Facebook / Instagram (Graph API)
	FacebookAccessToken *string `gorm:"type:text" json:"-"`
	FacebookPageID      *string `gorm:"type:varchar(64)" json:"facebook_page_id,omitempty"`
	InstagramBusinessID *string `gorm:"type:varchar(64)" json:"instagram_business_id,omitempty"`

	// Twitter (OAuth 1.0a user context)
	TwitterOAuthToken       *string `gorm:"type:text" json:"-"`
	TwitterOAuthTokenSecret *string `gorm:"type:text" json:"-"`

	// LinkedIn
	LinkedInAccessToken *string `gorm:"type:text" json:"-"`
	LinkedInProfileID   *string `gorm:"type:varchar(64)" json:"linkedin_profile_id,omitempty"`

	// Google Business Profile
	GoogleRefreshToken *string `gorm:"type:text" json:"-"`
	GoogleAccountID    *string `gorm:"type:varchar(64)" json:"google_account_id,omitempty"`
	GoogleLocationID   *string `gorm:"type:varchar(64)" json:"google_location_id,omitempty"`

	// Relations
	Buckets []Bucket `gorm:"foreignKey:UserID" json:"buckets,omitempty"`
}

// TableName returns the table name for the model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is called before creating a new record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	u.UpdatedAt = &now
	return nil
}

// Location resolves the user's timezone, nil when none is configured or the
// name is not a valid IANA zone. Schedules of a user without a timezone are
// never considered due.
func (u *User) Location() *time.Location {
	if u.Timezone == nil || *u.Timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(*u.Timezone)
	if err != nil {
		return nil
	}
	return loc
}

// HasNetworkCredentials checks whether the user carries the credential
// columns a platform client needs for the given network.
func (u *User) HasNetworkCredentials(n Network) bool {
	switch n {
	case NetworkFacebook:
		return u.FacebookAccessToken != nil && u.FacebookPageID != nil
	case NetworkTwitter:
		return u.TwitterOAuthToken != nil && u.TwitterOAuthTokenSecret != nil
	case NetworkInstagram:
		return u.FacebookAccessToken != nil && u.InstagramBusinessID != nil
	case NetworkLinkedIn:
		return u.LinkedInAccessToken != nil && u.LinkedInProfileID != nil
	case NetworkGoogleBusiness:
		return u.GoogleRefreshToken != nil && u.GoogleLocationID != nil
	default:
		return false
	}
}

// UserFilter represents filter criteria for users
type UserFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Email    *string    `json:"email,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}
