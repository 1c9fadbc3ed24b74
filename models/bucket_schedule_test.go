package models

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialbucket/socialbucket/utils"
)

func TestScheduleValidFormat(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		valid    bool
	}{
		{"five fields", "30 14 * * *", true},
		{"disabled sentinel", "0 0 0 0 0", true},
		{"extra whitespace", "  30  14 * *   1,2  ", true},
		{"four fields", "30 14 * *", false},
		{"six fields", "30 14 * * * *", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &BucketSchedule{Schedule: tt.schedule}
			assert.Equal(t, tt.valid, s.ValidFormat())
		})
	}
}

func TestScheduleIsDisabled(t *testing.T) {
	assert.True(t, (&BucketSchedule{Schedule: "0 0 0 0 0"}).IsDisabled())
	assert.True(t, (&BucketSchedule{Schedule: " 0 0  0 0 0 "}).IsDisabled())
	assert.False(t, (&BucketSchedule{Schedule: "0 0 * 0 0"}).IsDisabled())
	assert.False(t, (&BucketSchedule{Schedule: "30 14 * * *"}).IsDisabled())
}

func TestScheduleTimeOfDay(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		hour     int
		minute   int
	}{
		{"numeric fields", "45 9 * * *", 9, 45},
		{"wildcard time falls back to noon", "* * * * *", 12, 0},
		{"malformed falls back to noon", "bad", 12, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &BucketSchedule{Schedule: tt.schedule}
			hour, minute := s.TimeOfDay()
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.minute, minute)
		})
	}

	assert.Equal(t, "09:45", (&BucketSchedule{Schedule: "45 9 * * *"}).TimeFormat())
}

func TestScheduleDaysSelected(t *testing.T) {
	s := &BucketSchedule{Schedule: "0 12 * * 1,3,7"}
	assert.Equal(t, []string{"1", "3", "7"}, s.DaysSelected())

	all := &BucketSchedule{Schedule: "0 12 * * *"}
	assert.Equal(t, []string{"*"}, all.DaysSelected())

	malformed := &BucketSchedule{Schedule: "0 12 *"}
	assert.Nil(t, malformed.DaysSelected())
}

func TestScheduleDaysSelectedRoundTrip(t *testing.T) {
	for _, days := range [][]string{
		{"1"},
		{"1", "3", "5"},
		{"2", "4", "6", "7"},
		{"*"},
	} {
		s := &BucketSchedule{Schedule: "0 12 * * " + strings.Join(days, ",")}
		assert.Equal(t, days, s.DaysSelected())
	}
}

func TestScheduleDayNames(t *testing.T) {
	s := &BucketSchedule{Schedule: "0 12 * * 1,3,7"}
	assert.Equal(t, []string{"Monday", "Wednesday", "Sunday"}, s.DayNames())

	all := &BucketSchedule{Schedule: "0 12 * * *"}
	assert.Len(t, all.DayNames(), 7)
}

func TestScheduleIsDaySelected(t *testing.T) {
	s := &BucketSchedule{Schedule: "0 12 * * 1,5"}
	assert.True(t, s.IsDaySelected(time.Monday))
	assert.True(t, s.IsDaySelected(time.Friday))
	assert.False(t, s.IsDaySelected(time.Sunday))

	all := &BucketSchedule{Schedule: "0 12 * * *"}
	assert.True(t, all.IsDaySelected(time.Sunday))
}

func TestWeekdayNumber(t *testing.T) {
	assert.Equal(t, 1, WeekdayNumber(time.Monday))
	assert.Equal(t, 6, WeekdayNumber(time.Saturday))
	assert.Equal(t, 7, WeekdayNumber(time.Sunday))
}

func TestBuildRotationSchedule(t *testing.T) {
	assert.Equal(t, "30 9 * * 1,3,5", BuildRotationSchedule(9, 30, []int{1, 3, 5}))
	assert.Equal(t, "0 18 * * *", BuildRotationSchedule(18, 0, nil))
}

func TestBuildDateSchedule(t *testing.T) {
	at := time.Date(2026, 7, 4, 18, 15, 0, 0, time.UTC)
	assert.Equal(t, "15 18 4 7 *", BuildDateSchedule(at))
}

func TestScheduleRoundTrip(t *testing.T) {
	s := &BucketSchedule{Schedule: BuildRotationSchedule(9, 30, []int{2, 4})}
	require.True(t, s.ValidFormat())

	hour, minute := s.TimeOfDay()
	assert.Equal(t, 9, hour)
	assert.Equal(t, 30, minute)
	assert.Equal(t, []string{"2", "4"}, s.DaysSelected())
	assert.Equal(t, []string{"Tuesday", "Thursday"}, s.DayNames())
}

func TestScheduledDateFormat(t *testing.T) {
	assert.Equal(t, "July 4", (&BucketSchedule{Schedule: "15 18 4 7 *"}).ScheduledDateFormat())

	// Wildcard day/month schedules render the current date
	now := utils.UTCNow()
	today := fmt.Sprintf("%s %d", now.Month().String(), now.Day())
	assert.Equal(t, today, (&BucketSchedule{Schedule: "0 12 * * *"}).ScheduledDateFormat())
	assert.Equal(t, today, (&BucketSchedule{Schedule: "0 12 4 13 *"}).ScheduledDateFormat())
}

func TestScheduleExhausted(t *testing.T) {
	assert.True(t, (&BucketSchedule{ScheduleType: ScheduleTypeOnce, TimesSent: 1}).Exhausted())
	assert.False(t, (&BucketSchedule{ScheduleType: ScheduleTypeOnce, TimesSent: 0}).Exhausted())
	assert.False(t, (&BucketSchedule{ScheduleType: ScheduleTypeRotation, TimesSent: 5}).Exhausted())
	assert.False(t, (&BucketSchedule{ScheduleType: ScheduleTypeAnnual, TimesSent: 3}).Exhausted())
}

func TestScheduleTypeValues(t *testing.T) {
	assert.Equal(t, "rotation", ScheduleTypeRotation.String())
	assert.Equal(t, "once", ScheduleTypeOnce.String())
	assert.Equal(t, "annual", ScheduleTypeAnnual.String())
	assert.Equal(t, "unknown", ScheduleType(99).String())

	assert.True(t, ScheduleTypeRotation.Valid())
	assert.False(t, ScheduleType(0).Valid())
}
