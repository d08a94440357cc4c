package models

import "time"

type Event struct {
	EventID        int64      `json:"event_id"`
	UserID         int64      `json:"user_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time"`
	Visibility     string     `json:"visibility"`      // private | family
	RecurrenceRule string     `json:"recurrence_rule"` // RFC 5545 RRULE (empty = one-time)
	NextOccurrence *time.Time `json:"next_occurrence"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsRecurring returns true if this event has a recurrence rule
func (e *Event) IsRecurring() bool {
	return e.RecurrenceRule != ""
}
