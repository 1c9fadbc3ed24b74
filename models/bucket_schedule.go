package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/socialbucket/socialbucket/utils"
	"gorm.io/gorm"
)

// ErrMalformedSchedule is returned when a recurrence string does not have
// exactly five fields.
var ErrMalformedSchedule = errors.New("schedule must have exactly 5 fields")

// DisabledSchedule is the sentinel recurrence string for a paused schedule.
const DisabledSchedule = "0 0 0 0 0"

// ScheduleType represents the kind of a schedule
type ScheduleType int

const (
	ScheduleTypeRotation ScheduleType = 1
	ScheduleTypeOnce     ScheduleType = 2
	ScheduleTypeAnnual   ScheduleType = 3
)

// String returns the string representation of the schedule type
func (t ScheduleType) String() string {
	switch t {
	case ScheduleTypeRotation:
		return "rotation"
	case ScheduleTypeOnce:
		return "once"
	case ScheduleTypeAnnual:
		return "annual"
	default:
		return "unknown"
	}
}

// Valid checks if the schedule type is valid
func (t ScheduleType) Valid() bool {
	switch t {
	case ScheduleTypeRotation, ScheduleTypeOnce, ScheduleTypeAnnual:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ScheduleType
func (t *ScheduleType) Scan(value any) error {
	if value == nil {
		*t = 0
		return nil
	}

	switch v := value.(type) {
	case int64:
		*t = ScheduleType(v)
	case []byte:
		n, err := strconv.Atoi(string(v))
		if err != nil {
			return fmt.Errorf("cannot scan %q into ScheduleType", v)
		}
		*t = ScheduleType(n)
	default:
		return fmt.Errorf("cannot scan %T into ScheduleType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ScheduleType
func (t ScheduleType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid ScheduleType: %d", t)
	}
	return int64(t), nil
}

// weekdayNumbers maps weekday names to the numbering used in the weekday
// field of recurrence strings, Monday=1 through Sunday=7.
var weekdayNumbers = map[string]int{
	"Monday":    1,
	"Tuesday":   2,
	"Wednesday": 3,
	"Thursday":  4,
	"Friday":    5,
	"Saturday":  6,
	"Sunday":    7,
}

// WeekdayNumber converts a time.Weekday to the Monday=1..Sunday=7 numbering
func WeekdayNumber(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

// BucketSchedule represents a recurring or one-shot posting rule attached to
// a bucket. The Schedule column holds a five field recurrence string
// "minute hour day-of-month month weekdays"; each field is either "*", a
// number, or for weekdays a comma separated list of Monday=1..Sunday=7
// numbers. The string is stored as opaque text and only parsed on read.
type BucketSchedule struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	UUID               uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uk_bucket_schedules_uuid" json:"uuid"`
	BucketID           uint         `gorm:"not null;index:idx_bucket_schedules_bucket_id" json:"bucket_id"`
	BucketImageID      *uint        `gorm:"index:idx_bucket_schedules_bucket_image_id" json:"bucket_image_id,omitempty"`
	Schedule           string       `gorm:"type:varchar(64);not null" json:"schedule"`
	ScheduleTime       *time.Time   `json:"schedule_time,omitempty"`
	ScheduleType       ScheduleType `gorm:"not null;default:1;index:idx_bucket_schedules_schedule_type" json:"schedule_type"`
	PostTo             NetworkMask  `gorm:"not null;default:0" json:"post_to"`
	Description        *string      `gorm:"type:text" json:"description,omitempty"`
	TwitterDescription *string      `gorm:"type:text" json:"twitter_description,omitempty"`
	TimesSent          int          `gorm:"not null;default:0" json:"times_sent"`
	SkipImage          int          `gorm:"not null;default:0" json:"skip_image"`
	CreatedAt          time.Time    `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt          *time.Time   `json:"updated_at,omitempty"`

	// Relations
	Bucket      *Bucket             `gorm:"foreignKey:BucketID;references:ID" json:"bucket,omitempty"`
	BucketImage *BucketImage        `gorm:"foreignKey:BucketImageID;references:ID" json:"bucket_image,omitempty"`
	Histories   []BucketSendHistory `gorm:"foreignKey:BucketScheduleID" json:"histories,omitempty"`
}

// TableName returns the table name for the model
func (BucketSchedule) TableName() string {
	return "bucket_schedules"
}

// BeforeCreate is called before creating a new record
func (s *BucketSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (s *BucketSchedule) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	s.UpdatedAt = &now
	return nil
}

// Fields splits the recurrence string into its five tokens. The error is
// ErrMalformedSchedule when the shape is wrong; token contents are not
// validated.
func (s *BucketSchedule) Fields() ([]string, error) {
	parts := strings.Fields(s.Schedule)
	if len(parts) != 5 {
		return nil, ErrMalformedSchedule
	}
	return parts, nil
}

// ValidFormat checks the shape of the recurrence string
func (s *BucketSchedule) ValidFormat() bool {
	_, err := s.Fields()
	return err == nil
}

// IsDisabled checks for the disabled sentinel
func (s *BucketSchedule) IsDisabled() bool {
	return strings.Join(strings.Fields(s.Schedule), " ") == DisabledSchedule
}

// TimeOfDay returns the hour and minute encoded in the recurrence string,
// falling back to noon when either field is not numeric.
func (s *BucketSchedule) TimeOfDay() (hour, minute int) {
	hour, minute = utils.DefaultScheduleHour, utils.DefaultScheduleMinute
	parts, err := s.Fields()
	if err != nil {
		return hour, minute
	}
	m, errM := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errM != nil || errH != nil {
		return hour, minute
	}
	return h, m
}

// TimeFormat renders the encoded time of day as "HH:MM"
func (s *BucketSchedule) TimeFormat() string {
	hour, minute := s.TimeOfDay()
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ScheduledDateFormat renders the day-of-month and month fields as a date
// string for display. When either field is a wildcard the schedule fires on
// recurrence rather than a fixed date, so the current day is rendered instead.
func (s *BucketSchedule) ScheduledDateFormat() string {
	now := utils.UTCNow()
	parts, err := s.Fields()
	if err != nil {
		return fmt.Sprintf("%s %d", now.Month().String(), now.Day())
	}
	day, errD := strconv.Atoi(parts[2])
	month, errM := strconv.Atoi(parts[3])
	if errD != nil || errM != nil || month < 1 || month > 12 {
		return fmt.Sprintf("%s %d", now.Month().String(), now.Day())
	}
	return fmt.Sprintf("%s %d", time.Month(month).String(), day)
}

// DaysSelected returns the raw weekday field split on commas, nil when the
// recurrence string is malformed. Joining the result back with commas yields
// the field unchanged.
func (s *BucketSchedule) DaysSelected() []string {
	parts, err := s.Fields()
	if err != nil {
		return nil
	}
	return strings.Split(parts[4], ",")
}

// DayNames returns the weekday names selected by the weekday field, in
// Monday-first order. "*" selects every day.
func (s *BucketSchedule) DayNames() []string {
	ordered := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	parts, err := s.Fields()
	if err != nil {
		return nil
	}
	if parts[4] == "*" {
		return ordered
	}
	selected := map[int]bool{}
	for _, tok := range strings.Split(parts[4], ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(tok)); err == nil {
			selected[n] = true
		}
	}
	var out []string
	for _, name := range ordered {
		if selected[weekdayNumbers[name]] {
			out = append(out, name)
		}
	}
	return out
}

// IsDaySelected checks whether the weekday field covers the given weekday
func (s *BucketSchedule) IsDaySelected(d time.Weekday) bool {
	want := strconv.Itoa(WeekdayNumber(d))
	for _, tok := range s.DaysSelected() {
		if tok == "*" || tok == want {
			return true
		}
	}
	return false
}

// Exhausted checks whether a one-time schedule has already fired
func (s *BucketSchedule) Exhausted() bool {
	return s.ScheduleType == ScheduleTypeOnce && s.TimesSent > 0
}

// ShouldDisplayTwitterWarning reports whether the schedule caption would be
// truncated on Twitter.
func (s *BucketSchedule) ShouldDisplayTwitterWarning() bool {
	if s.TwitterDescription != nil && *s.TwitterDescription != "" {
		return false
	}
	return s.Description != nil && len([]rune(*s.Description)) > utils.TwitterCharacterLimit
}

// BuildRotationSchedule builds a recurrence string firing at the given time
// of day on the given weekday numbers: "M H * * d1,d2".
func BuildRotationSchedule(hour, minute int, days []int) string {
	tokens := make([]string, 0, len(days))
	for _, d := range days {
		tokens = append(tokens, strconv.Itoa(d))
	}
	dayField := "*"
	if len(tokens) > 0 {
		dayField = strings.Join(tokens, ",")
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, dayField)
}

// BuildDateSchedule builds a recurrence string pinned to one wall-clock
// date: "M H D Mo *".
func BuildDateSchedule(t time.Time) string {
	return fmt.Sprintf("%d %d %d %d *", t.Minute(), t.Hour(), t.Day(), int(t.Month()))
}

// BucketScheduleFilter represents filter criteria for bucket schedules
type BucketScheduleFilter struct {
	ID            *uint         `json:"id,omitempty"`
	UUID          *uuid.UUID    `json:"uuid,omitempty"`
	BucketID      *uint         `json:"bucket_id,omitempty"`
	BucketImageID *uint         `json:"bucket_image_id,omitempty"`
	ScheduleType  *ScheduleType `json:"schedule_type,omitempty"`
	IDs           []uint        `json:"ids,omitempty"`
}
