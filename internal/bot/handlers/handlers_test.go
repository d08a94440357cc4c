package handlers

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeToday(t *testing.T) {
	parsed, err := parseTimeToday("15:30")
	require.NoError(t, err)

	now := time.Now()
	assert.Equal(t, 15, parsed.Hour())
	assert.Equal(t, 30, parsed.Minute())
	// Always the next occurrence of that clock time.
	assert.True(t, parsed.After(now))
	assert.True(t, parsed.Sub(now) <= 24*time.Hour)
}

func TestParseTimeTodayRejectsGarbage(t *testing.T) {
	_, err := parseTimeToday("half past three")
	assert.Error(t, err)

	_, err = parseTimeToday("25:99")
	assert.Error(t, err)
}

func TestNewInviteCode(t *testing.T) {
	codeRe := regexp.MustCompile(`^[0-9A-F]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := newInviteCode()
		assert.Regexp(t, codeRe, code)
		assert.False(t, seen[code], "codes must not repeat")
		seen[code] = true
	}
}

func TestParseParamTime(t *testing.T) {
	parsed, err := parseParamTime("2026-09-12 18:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 12, 18, 0, 0, 0, time.Local), parsed)

	_, err = parseParamTime("tomorrow evening")
	assert.Error(t, err)
}

func TestVisibilityOrPrivate(t *testing.T) {
	assert.Equal(t, "family", visibilityOrPrivate(map[string]string{"visibility": "family"}))
	assert.Equal(t, "private", visibilityOrPrivate(map[string]string{"visibility": "everyone"}))
	assert.Equal(t, "private", visibilityOrPrivate(map[string]string{}))
}
