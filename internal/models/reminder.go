package models

import "time"

type Reminder struct {
	ReminderID        int64      `json:"reminder_id"`
	UserID            int64      `json:"user_id"`
	Message           string     `json:"message"`
	RemindAt          time.Time  `json:"remind_at"` // Next scheduled delivery time
	IsRecurring       bool       `json:"is_recurring"`
	RecurrenceRule    string     `json:"recurrence_rule"` // daily | weekly | monthly (empty = none)
	RecurrenceCount   *int       `json:"recurrence_count"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date"`
	DeliveredCount    int        `json:"delivered_count"`
	IsDelivered       bool       `json:"is_delivered"` // Terminal: no further deliveries will occur
	CreatedAt         time.Time  `json:"created_at"`
}

// HasRecurrence returns true if this reminder reschedules itself after delivery.
func (r *Reminder) HasRecurrence() bool {
	return r.IsRecurring && r.RecurrenceRule != ""
}
