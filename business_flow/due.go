package businessflow

import (
	"context"
	"strconv"
	"time"

	"github.com/socialbucket/socialbucket/models"
	"github.com/socialbucket/socialbucket/repository"
	"github.com/socialbucket/socialbucket/utils"
)

// IsDue evaluates a schedule's recurrence string against a wall-clock
// instant in the owner's timezone. A nil location means the owner has no
// timezone configured and the schedule is never due. The disabled sentinel
// and malformed strings are never due.
//
// Matching is exact: the minute, hour, day-of-month, and month fields each
// match when "*" or numerically equal to the corresponding component of the
// local time; the weekday field matches when "*" or when its comma separated
// list contains the local weekday numbered Monday=1 through Sunday=7.
func IsDue(schedule *models.BucketSchedule, now time.Time, loc *time.Location) bool {
	if loc == nil {
		return false
	}
	if schedule.IsDisabled() {
		return false
	}

	parts, err := schedule.Fields()
	if err != nil {
		return false
	}

	local := now.In(loc)

	if !fieldMatches(parts[0], local.Minute()) {
		return false
	}
	if !fieldMatches(parts[1], local.Hour()) {
		return false
	}
	if !fieldMatches(parts[2], local.Day()) {
		return false
	}
	if !fieldMatches(parts[3], int(local.Month())) {
		return false
	}

	return schedule.IsDaySelected(local.Weekday())
}

// fieldMatches checks one recurrence field against a time component.
// Non-numeric fields other than "*" never match.
func fieldMatches(field string, value int) bool {
	if field == "*" {
		return true
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return false
	}
	return n == value
}

// CanSend applies the per-kind send throttle. Annual schedules may only fire
// when they have never fired or their latest dispatch record is more than a
// year old; other kinds are always sendable here and are bounded by their
// own exhaustion rules.
func CanSend(ctx context.Context, historyRepo repository.BucketSendHistoryRepository, schedule *models.BucketSchedule, now time.Time) (bool, error) {
	if schedule.ScheduleType != models.ScheduleTypeAnnual {
		return true, nil
	}

	last, err := historyRepo.LatestByScheduleID(ctx, schedule.ID)
	if err != nil {
		return false, err
	}
	if last == nil {
		return true, nil
	}

	return now.Sub(last.SentAt) > utils.AnnualRepostWindow, nil
}
