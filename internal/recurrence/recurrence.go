// Package recurrence computes reminder reschedule times and termination.
// Everything here is pure: callers pass the time to step from, nothing
// consults a live clock.
package recurrence

import (
	"strings"
	"time"

	"github.com/jykim632/secretary/internal/models"
)

// NextOccurrence returns the delivery time that follows current under the
// given rule. Rules are matched after trimming and lowercasing. Unrecognized
// rules (including the empty string) behave like "daily" rather than failing,
// so a malformed rule degrades to a daily reminder instead of a stuck one.
func NextOccurrence(current time.Time, rule string) time.Time {
	switch strings.ToLower(strings.TrimSpace(rule)) {
	case "weekly":
		return current.AddDate(0, 0, 7)
	case "monthly":
		return nextMonth(current)
	default:
		// "daily" and the unknown-rule fallback. AddDate steps by calendar
		// day, so the wall-clock time survives DST transitions.
		return current.AddDate(0, 0, 1)
	}
}

// nextMonth keeps the day-of-month, clamped to the last valid day of the
// target month (Jan 31 -> Feb 28/29). time.AddDate is unsuitable here: it
// normalizes overflow, turning Jan 31 + 1 month into Mar 2 or 3.
func nextMonth(current time.Time) time.Time {
	year := current.Year()
	month := int(current.Month()) + 1
	if month > 12 {
		month = 1
		year++
	}
	day := current.Day()
	if last := daysIn(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day,
		current.Hour(), current.Minute(), current.Second(), current.Nanosecond(),
		current.Location())
}

func daysIn(year int, month time.Month) int {
	// Day zero of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsEnded reports whether the recurrence terminates instead of rescheduling
// to nextAt. The two termination conditions are independent; either ends the
// series:
//   - the delivery-count cap has been reached (DeliveredCount already
//     includes the delivery being processed)
//   - the next occurrence would fall after the end date
func IsEnded(r *models.Reminder, nextAt time.Time) bool {
	if r.RecurrenceCount != nil && r.DeliveredCount >= *r.RecurrenceCount {
		return true
	}
	if r.RecurrenceEndDate != nil && nextAt.After(*r.RecurrenceEndDate) {
		return true
	}
	return false
}

// ApplyDelivery advances a reminder's state after one successful delivery.
// One-shot reminders become terminal immediately. Recurring reminders either
// move RemindAt forward to the next occurrence or, when a termination
// condition is met, become terminal with RemindAt left untouched.
// DeliveredCount increases by exactly one either way.
//
// The repository calls this inside a row-locked transaction; it is exposed as
// a pure function so the transition itself is testable without a database.
func ApplyDelivery(r *models.Reminder) {
	r.DeliveredCount++

	if r.HasRecurrence() {
		next := NextOccurrence(r.RemindAt, r.RecurrenceRule)
		if IsEnded(r, next) {
			r.IsDelivered = true
		} else {
			r.RemindAt = next
		}
		return
	}

	r.IsDelivered = true
}

// Label returns a short human-readable description of a rule for display in
// notification text. Unknown rules are shown as-is.
func Label(rule string) string {
	switch strings.ToLower(strings.TrimSpace(rule)) {
	case "daily":
		return "daily"
	case "weekly":
		return "weekly"
	case "monthly":
		return "monthly"
	default:
		return rule
	}
}
