// Package rrule evaluates RFC 5545 recurrence rules for calendar events.
package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Parse parses an RFC 5545 RRULE string anchored at dtstart. A leading
// "RRULE:" prefix is tolerated.
func Parse(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = dtstart
	return rrule.NewRRule(*opt)
}

// Validate reports whether ruleStr is a well-formed RRULE.
func Validate(ruleStr string) error {
	_, err := Parse(ruleStr, time.Now())
	return err
}

// NextAfter returns the first occurrence strictly after the given time, or
// nil when the rule has no further occurrences.
func NextAfter(ruleStr string, dtstart, after time.Time) (*time.Time, error) {
	rule, err := Parse(ruleStr, dtstart)
	if err != nil {
		return nil, err
	}

	next := rule.After(after, false)
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

// Upcoming returns up to count occurrences after the given time.
func Upcoming(ruleStr string, dtstart, after time.Time, count int) ([]time.Time, error) {
	rule, err := Parse(ruleStr, dtstart)
	if err != nil {
		return nil, err
	}

	iterator := rule.Iterator()
	var results []time.Time
	for {
		next, ok := iterator()
		if !ok {
			break
		}
		if next.After(after) {
			results = append(results, next)
			if len(results) >= count {
				break
			}
		}
	}
	return results, nil
}
