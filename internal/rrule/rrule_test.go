package rrule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrefixTolerated(t *testing.T) {
	dtstart := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := Parse("FREQ=DAILY", dtstart)
	assert.NoError(t, err)

	_, err = Parse("RRULE:FREQ=DAILY", dtstart)
	assert.NoError(t, err)

	_, err = Parse("FREQ=NONSENSE", dtstart)
	assert.Error(t, err)
}

func TestNextAfterWeekly(t *testing.T) {
	dtstart := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) // a Monday

	next, err := NextAfter("FREQ=WEEKLY;BYDAY=MO", dtstart, dtstart)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC), *next)
}

func TestNextAfterExhaustedRule(t *testing.T) {
	dtstart := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	next, err := NextAfter("FREQ=DAILY;COUNT=2", dtstart, dtstart.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestUpcoming(t *testing.T) {
	dtstart := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	occurrences, err := Upcoming("FREQ=DAILY", dtstart, dtstart, 3)
	require.NoError(t, err)
	require.Len(t, occurrences, 3)
	assert.Equal(t, dtstart.AddDate(0, 0, 1), occurrences[0])
	assert.Equal(t, dtstart.AddDate(0, 0, 2), occurrences[1])
	assert.Equal(t, dtstart.AddDate(0, 0, 3), occurrences[2])
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("FREQ=MONTHLY;BYMONTHDAY=15"))
	assert.Error(t, Validate("not a rule"))
}
