package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jykim632/secretary/internal/models"
)

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestNextOccurrence_DailyAndWeekly(t *testing.T) {
	start := at(2026, time.March, 1, 9, 0)

	assert.Equal(t, at(2026, time.March, 2, 9, 0), NextOccurrence(start, "daily"))
	assert.Equal(t, at(2026, time.March, 8, 9, 0), NextOccurrence(start, "weekly"))
}

func TestNextOccurrence_RuleNormalization(t *testing.T) {
	start := at(2026, time.March, 1, 9, 0)

	assert.Equal(t, NextOccurrence(start, "daily"), NextOccurrence(start, "  Daily \n"))
	assert.Equal(t, NextOccurrence(start, "weekly"), NextOccurrence(start, "WEEKLY"))
}

func TestNextOccurrence_UnknownRuleFallsBackToDaily(t *testing.T) {
	start := at(2026, time.June, 10, 18, 30)

	for _, rule := range []string{"", "bogus", "yearly", "every other thursday"} {
		assert.Equal(t, NextOccurrence(start, "daily"), NextOccurrence(start, rule),
			"rule %q should step like daily", rule)
	}
}

func TestNextOccurrence_MonthlyClampsToMonthEnd(t *testing.T) {
	// Jan 31 -> Feb 28 (2026 is not a leap year)
	assert.Equal(t, at(2026, time.February, 28, 9, 0),
		NextOccurrence(at(2026, time.January, 31, 9, 0), "monthly"))

	// Jan 31 -> Feb 29 on a leap year
	assert.Equal(t, at(2028, time.February, 29, 9, 0),
		NextOccurrence(at(2028, time.January, 31, 9, 0), "monthly"))

	// Mar 31 -> Apr 30
	assert.Equal(t, at(2026, time.April, 30, 9, 0),
		NextOccurrence(at(2026, time.March, 31, 9, 0), "monthly"))
}

func TestNextOccurrence_MonthlyYearRollover(t *testing.T) {
	assert.Equal(t, at(2027, time.January, 15, 9, 0),
		NextOccurrence(at(2026, time.December, 15, 9, 0), "monthly"))
}

func TestNextOccurrence_PreservesTimeOfDay(t *testing.T) {
	start := time.Date(2026, time.May, 14, 7, 45, 30, 0, time.UTC)

	for _, rule := range []string{"daily", "weekly", "monthly"} {
		next := NextOccurrence(start, rule)
		assert.Equal(t, 7, next.Hour(), "rule %s", rule)
		assert.Equal(t, 45, next.Minute(), "rule %s", rule)
		assert.Equal(t, 30, next.Second(), "rule %s", rule)
	}
}

func TestNextOccurrence_IsForwardOnly(t *testing.T) {
	start := at(2026, time.December, 31, 23, 59)
	for _, rule := range []string{"daily", "weekly", "monthly", "junk"} {
		assert.True(t, NextOccurrence(start, rule).After(start), "rule %s", rule)
	}
}

func TestIsEnded_CountCap(t *testing.T) {
	count := 3
	r := &models.Reminder{RecurrenceCount: &count}
	next := at(2026, time.March, 2, 9, 0)

	r.DeliveredCount = 2
	assert.False(t, IsEnded(r, next))

	r.DeliveredCount = 3
	assert.True(t, IsEnded(r, next))
}

func TestIsEnded_EndDate(t *testing.T) {
	end := at(2026, time.March, 5, 0, 0)
	r := &models.Reminder{RecurrenceEndDate: &end}

	assert.False(t, IsEnded(r, at(2026, time.March, 4, 9, 0)))
	assert.False(t, IsEnded(r, end), "end date itself is still inside the series")
	assert.True(t, IsEnded(r, at(2026, time.March, 5, 9, 0)))
}

func TestIsEnded_EitherConditionWins(t *testing.T) {
	count := 10
	end := at(2026, time.March, 5, 0, 0)
	r := &models.Reminder{RecurrenceCount: &count, RecurrenceEndDate: &end, DeliveredCount: 1}

	// Count not reached, but date exceeded.
	assert.True(t, IsEnded(r, at(2026, time.March, 6, 9, 0)))

	// Date fine, but count reached.
	r.DeliveredCount = 10
	assert.True(t, IsEnded(r, at(2026, time.March, 4, 9, 0)))
}

func TestIsEnded_NoConstraints(t *testing.T) {
	r := &models.Reminder{DeliveredCount: 9999}
	assert.False(t, IsEnded(r, at(2099, time.January, 1, 0, 0)))
}

func TestApplyDelivery_OneShot(t *testing.T) {
	r := &models.Reminder{
		Message:  "take out the trash",
		RemindAt: at(2026, time.March, 1, 9, 0),
	}

	ApplyDelivery(r)

	assert.True(t, r.IsDelivered)
	assert.Equal(t, 1, r.DeliveredCount)
	assert.Equal(t, at(2026, time.March, 1, 9, 0), r.RemindAt)
}

func TestApplyDelivery_RecurringReschedulesForward(t *testing.T) {
	r := &models.Reminder{
		RemindAt:       at(2026, time.March, 1, 9, 0),
		IsRecurring:    true,
		RecurrenceRule: "daily",
	}

	ApplyDelivery(r)

	assert.False(t, r.IsDelivered)
	assert.Equal(t, 1, r.DeliveredCount)
	assert.Equal(t, at(2026, time.March, 2, 9, 0), r.RemindAt)
}

func TestApplyDelivery_CountTerminatesOnExactDelivery(t *testing.T) {
	count := 3
	r := &models.Reminder{
		RemindAt:        at(2026, time.March, 1, 9, 0),
		IsRecurring:     true,
		RecurrenceRule:  "daily",
		RecurrenceCount: &count,
	}

	// Deliveries 1 and 2 reschedule.
	ApplyDelivery(r)
	require.False(t, r.IsDelivered)
	ApplyDelivery(r)
	require.False(t, r.IsDelivered)
	assert.Equal(t, at(2026, time.March, 3, 9, 0), r.RemindAt)

	// Delivery 3 is terminal, exactly at the cap.
	ApplyDelivery(r)
	assert.True(t, r.IsDelivered)
	assert.Equal(t, 3, r.DeliveredCount)
	// RemindAt stays where it was; the row is terminal anyway.
	assert.Equal(t, at(2026, time.March, 3, 9, 0), r.RemindAt)
}

func TestApplyDelivery_EndDateTerminatesFirstOverstep(t *testing.T) {
	end := at(2026, time.March, 3, 12, 0)
	r := &models.Reminder{
		RemindAt:          at(2026, time.March, 1, 9, 0),
		IsRecurring:       true,
		RecurrenceRule:    "daily",
		RecurrenceEndDate: &end,
	}

	// Mar 2 and Mar 3 are still within the end date.
	ApplyDelivery(r)
	require.False(t, r.IsDelivered)
	ApplyDelivery(r)
	require.False(t, r.IsDelivered)
	assert.Equal(t, at(2026, time.March, 3, 9, 0), r.RemindAt)

	// Next would be Mar 4 09:00 > end date -> terminal.
	ApplyDelivery(r)
	assert.True(t, r.IsDelivered)
	assert.Equal(t, 3, r.DeliveredCount)
}

func TestApplyDelivery_RecurringFlagWithoutRuleIsOneShot(t *testing.T) {
	r := &models.Reminder{
		RemindAt:    at(2026, time.March, 1, 9, 0),
		IsRecurring: true,
	}

	ApplyDelivery(r)

	assert.True(t, r.IsDelivered, "recurring flag without a rule cannot reschedule")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "daily", Label(" Daily "))
	assert.Equal(t, "weekly", Label("weekly"))
	assert.Equal(t, "monthly", Label("MONTHLY"))
	assert.Equal(t, "fortnightly", Label("fortnightly"))
}
