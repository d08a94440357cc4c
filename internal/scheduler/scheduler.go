// Package scheduler drives time-based work: polling for due reminders and
// the daily conversation-history cleanup.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jykim632/secretary/internal/models"
	"github.com/jykim632/secretary/internal/recurrence"
)

// ReminderStore is the slice of the reminder repository the engine needs.
type ReminderStore interface {
	GetDueReminders(ctx context.Context, now time.Time) ([]*models.Reminder, error)
	// MarkDelivered advances delivery state and returns the updated row, or
	// (nil, nil) when the reminder no longer exists.
	MarkDelivered(ctx context.Context, reminderID int64) (*models.Reminder, error)
}

// ConversationStore is the cleanup surface of the conversation repository.
type ConversationStore interface {
	CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Notifier delivers text to a user, reporting only success or failure.
type Notifier interface {
	NotifyUser(ctx context.Context, userID int64, text string) bool
}

const (
	defaultCheckInterval = 30 * time.Second
	defaultCleanupHour   = 3 // daily history cleanup at 03:00
)

// Config tunes the polling and cleanup cadence. Zero values fall back to
// the defaults above.
type Config struct {
	CheckInterval time.Duration
	CleanupHour   int
	RetentionDays int
}

type Engine struct {
	reminders     ReminderStore
	conversations ConversationStore
	notifier      Notifier

	checkInterval time.Duration
	cleanupHour   int
	retentionDays int
	notifyCh      chan struct{}
	now           func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

func New(reminders ReminderStore, conversations ConversationStore, notifier Notifier, cfg Config) *Engine {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = defaultCheckInterval
	}
	if cfg.CleanupHour <= 0 {
		cfg.CleanupHour = defaultCleanupHour
	}
	return &Engine{
		reminders:     reminders,
		conversations: conversations,
		notifier:      notifier,
		checkInterval: cfg.CheckInterval,
		cleanupHour:   cfg.CleanupHour,
		retentionDays: cfg.RetentionDays,
		notifyCh:      make(chan struct{}, 1),
		now:           time.Now,
	}
}

// Notify triggers an immediate check. Non-blocking if a check is already pending.
func (e *Engine) Notify() {
	select {
	case e.notifyCh <- struct{}{}:
	default:
		// A check is already pending, skip
	}
}

// Start launches the polling loop. Calling Start on a running engine is a
// no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true
	go e.run(ctx)
}

// Stop cancels future ticks without waiting for an in-flight check to
// finish. Safe to call on a stopped engine.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.cancel()
	e.running = false
}

func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) run(ctx context.Context) {
	log.Printf("Reminder engine started (%s interval)", e.checkInterval)
	log.Printf("Conversation cleanup scheduled (daily %02d:00, retention=%d days)",
		e.cleanupHour, e.retentionDays)

	ticker := time.NewTicker(e.checkInterval)
	defer ticker.Stop()

	nextCleanup := e.nextCleanupTime(e.now())

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder engine stopped")
			return
		case <-ticker.C:
		case <-e.notifyCh:
		}

		e.checkReminders(ctx)

		if !e.now().Before(nextCleanup) {
			e.cleanupConversations(ctx)
			nextCleanup = e.nextCleanupTime(e.now())
		}
	}
}

// nextCleanupTime returns the next occurrence of the cleanup hour strictly
// after now.
func (e *Engine) nextCleanupTime(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), e.cleanupHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// checkReminders is one poll tick: fetch everything due, deliver each in
// remind_at order, and advance delivery state only after a successful send.
// A failed send leaves the reminder due so the next tick retries it
// (at-least-once delivery; a reminder is never dropped on transport failure).
// The tick never takes the scheduler down: a panic is logged and the next
// tick proceeds independently.
func (e *Engine) checkReminders(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error in reminder check: %v", r)
		}
	}()

	now := e.now()
	due, err := e.reminders.GetDueReminders(ctx, now)
	if err != nil {
		log.Printf("Failed to get due reminders: %v", err)
		return
	}

	for _, reminder := range due {
		if !e.notifier.NotifyUser(ctx, reminder.UserID, displayText(reminder)) {
			log.Printf("Failed to deliver reminder %d to user %d, will retry next tick",
				reminder.ReminderID, reminder.UserID)
			continue
		}

		updated, err := e.reminders.MarkDelivered(ctx, reminder.ReminderID)
		if err != nil {
			log.Printf("Failed to mark reminder %d delivered: %v", reminder.ReminderID, err)
			continue
		}
		if updated == nil {
			// Cancelled between the due query and the send; nothing to do.
			continue
		}

		switch {
		case updated.HasRecurrence() && !updated.IsDelivered:
			log.Printf("Recurring reminder %d delivered to user %d, next at %s (rule=%s, delivered_count=%d)",
				updated.ReminderID, updated.UserID,
				updated.RemindAt.Format("2006-01-02 15:04"),
				updated.RecurrenceRule, updated.DeliveredCount)
		case updated.HasRecurrence():
			log.Printf("Recurring reminder %d final delivery to user %d (recurrence ended, delivered_count=%d)",
				updated.ReminderID, updated.UserID, updated.DeliveredCount)
		default:
			log.Printf("Delivered reminder %d to user %d", updated.ReminderID, updated.UserID)
		}
	}
}

func (e *Engine) cleanupConversations(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error in conversation cleanup: %v", r)
		}
	}()

	cutoff := e.now().AddDate(0, 0, -e.retentionDays)
	deleted, err := e.conversations.CleanupOlderThan(ctx, cutoff)
	if err != nil {
		log.Printf("Failed to clean up conversations: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Cleaned up %d old conversation records", deleted)
	}
}

// displayText builds the notification body. The recurrence label is cosmetic
// only; unknown rules are shown as written.
func displayText(r *models.Reminder) string {
	text := "⏰ Reminder: " + r.Message
	if r.HasRecurrence() {
		text += fmt.Sprintf(" (repeats %s)", recurrence.Label(r.RecurrenceRule))
	}
	return text
}
