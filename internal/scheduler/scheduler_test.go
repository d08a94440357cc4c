package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jykim632/secretary/internal/models"
	"github.com/jykim632/secretary/internal/recurrence"
)

// fakeReminderStore mimics the repository's delivery transition in memory.
type fakeReminderStore struct {
	mu        sync.Mutex
	reminders map[int64]*models.Reminder
	polled    chan struct{}
	panicNext bool
}

func newFakeReminderStore(reminders ...*models.Reminder) *fakeReminderStore {
	s := &fakeReminderStore{
		reminders: make(map[int64]*models.Reminder),
		polled:    make(chan struct{}, 16),
	}
	for _, r := range reminders {
		s.reminders[r.ReminderID] = r
	}
	return s
}

func (s *fakeReminderStore) GetDueReminders(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicNext {
		s.panicNext = false
		panic("store blew up")
	}
	select {
	case s.polled <- struct{}{}:
	default:
	}
	var due []*models.Reminder
	for _, r := range s.reminders {
		if !r.IsDelivered && !r.RemindAt.After(now) {
			copied := *r
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (s *fakeReminderStore) MarkDelivered(ctx context.Context, reminderID int64) (*models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[reminderID]
	if !ok {
		return nil, nil
	}
	recurrence.ApplyDelivery(r)
	copied := *r
	return &copied, nil
}

func (s *fakeReminderStore) Cancel(ctx context.Context, reminderID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[reminderID]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(s.reminders, reminderID)
	return true, nil
}

func (s *fakeReminderStore) get(id int64) *models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reminders[id]
	if !ok {
		return nil
	}
	copied := *r
	return &copied
}

type fakeConversationStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (s *fakeConversationStore) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return 3, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	fail     bool
	messages []string
	userIDs  []int64
}

func (n *fakeNotifier) NotifyUser(ctx context.Context, userID int64, text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return false
	}
	n.messages = append(n.messages, text)
	n.userIDs = append(n.userIDs, userID)
	return true
}

func (n *fakeNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func newTestEngine(store *fakeReminderStore, notifier *fakeNotifier, at time.Time) *Engine {
	e := New(store, &fakeConversationStore{}, notifier, Config{RetentionDays: 30})
	e.now = func() time.Time { return at }
	return e
}

func TestCheckRemindersOneShot(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(&models.Reminder{
		ReminderID: 1,
		UserID:     42,
		Message:    "take out the trash",
		RemindAt:   now.Add(-time.Minute),
	})
	notifier := &fakeNotifier{}
	e := newTestEngine(store, notifier, now)

	e.checkReminders(context.Background())

	require.Len(t, notifier.sent(), 1)
	assert.Equal(t, "⏰ Reminder: take out the trash", notifier.sent()[0])
	assert.Equal(t, int64(42), notifier.userIDs[0])

	r := store.get(1)
	assert.True(t, r.IsDelivered)

	// A delivered one-shot must never fire again.
	e.checkReminders(context.Background())
	assert.Len(t, notifier.sent(), 1)
}

func TestCheckRemindersRecurringRescheduled(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(&models.Reminder{
		ReminderID:     2,
		UserID:         7,
		Message:        "water the plants",
		RemindAt:       now.Add(-time.Second),
		IsRecurring:    true,
		RecurrenceRule: "daily",
	})
	notifier := &fakeNotifier{}
	e := newTestEngine(store, notifier, now)

	e.checkReminders(context.Background())

	require.Len(t, notifier.sent(), 1)
	assert.Equal(t, "⏰ Reminder: water the plants (repeats daily)", notifier.sent()[0])

	r := store.get(2)
	assert.False(t, r.IsDelivered)
	assert.Equal(t, 1, r.DeliveredCount)
	assert.Equal(t, now.Add(-time.Second).AddDate(0, 0, 1), r.RemindAt)

	// Rescheduled into the future, so a second tick at the same instant
	// must not deliver again.
	e.checkReminders(context.Background())
	assert.Len(t, notifier.sent(), 1)
}

func TestCheckRemindersNotDueYet(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(&models.Reminder{
		ReminderID: 3,
		UserID:     7,
		Message:    "future",
		RemindAt:   now.Add(time.Hour),
	})
	notifier := &fakeNotifier{}
	e := newTestEngine(store, notifier, now)

	e.checkReminders(context.Background())

	assert.Empty(t, notifier.sent())
	assert.False(t, store.get(3).IsDelivered)
}

func TestCheckRemindersRetainsOnSendFailure(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(&models.Reminder{
		ReminderID: 4,
		UserID:     7,
		Message:    "flaky",
		RemindAt:   now.Add(-time.Minute),
	})
	notifier := &fakeNotifier{fail: true}
	e := newTestEngine(store, notifier, now)

	e.checkReminders(context.Background())

	// Delivery state untouched, so the next tick retries.
	r := store.get(4)
	assert.False(t, r.IsDelivered)
	assert.Equal(t, 0, r.DeliveredCount)

	notifier.mu.Lock()
	notifier.fail = false
	notifier.mu.Unlock()

	e.checkReminders(context.Background())
	assert.Len(t, notifier.sent(), 1)
	assert.True(t, store.get(4).IsDelivered)
}

func TestCheckRemindersSurvivesPanic(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(&models.Reminder{
		ReminderID: 5,
		UserID:     7,
		Message:    "after the storm",
		RemindAt:   now.Add(-time.Minute),
	})
	store.panicNext = true
	notifier := &fakeNotifier{}
	e := newTestEngine(store, notifier, now)

	assert.NotPanics(t, func() {
		e.checkReminders(context.Background())
	})
	assert.Empty(t, notifier.sent())

	// The next tick is unaffected.
	e.checkReminders(context.Background())
	assert.Len(t, notifier.sent(), 1)
}

func TestCancelOnlyOwnersReminder(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(&models.Reminder{
		ReminderID: 6,
		UserID:     42,
		Message:    "dentist",
		RemindAt:   now.Add(-time.Minute),
	})
	notifier := &fakeNotifier{}
	e := newTestEngine(store, notifier, now)

	// Another user cannot cancel it, and it still fires.
	ok, err := store.Cancel(context.Background(), 6, 99)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NotNil(t, store.get(6))

	e.checkReminders(context.Background())
	assert.Len(t, notifier.sent(), 1)
}

func TestCancelRemovesFromDelivery(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(&models.Reminder{
		ReminderID: 7,
		UserID:     42,
		Message:    "cancelled before due",
		RemindAt:   now.Add(-time.Minute),
	})
	notifier := &fakeNotifier{}
	e := newTestEngine(store, notifier, now)

	ok, err := store.Cancel(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.True(t, ok)

	// Cancelling again reports nothing left to cancel.
	ok, err = store.Cancel(context.Background(), 7, 42)
	require.NoError(t, err)
	assert.False(t, ok)

	e.checkReminders(context.Background())
	assert.Empty(t, notifier.sent())
}

func TestStartStop(t *testing.T) {
	store := newFakeReminderStore()
	e := newTestEngine(store, &fakeNotifier{}, time.Now())

	assert.False(t, e.IsRunning())
	e.Start()
	assert.True(t, e.IsRunning())
	e.Start() // no-op on a running engine
	assert.True(t, e.IsRunning())

	e.Stop()
	assert.False(t, e.IsRunning())
	e.Stop() // safe on a stopped engine
	assert.False(t, e.IsRunning())
}

func TestNotifyTriggersImmediateCheck(t *testing.T) {
	store := newFakeReminderStore()
	e := newTestEngine(store, &fakeNotifier{}, time.Now())
	e.checkInterval = time.Hour // only the nudge can trigger a poll quickly

	e.Start()
	defer e.Stop()

	e.Notify()
	select {
	case <-store.polled:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a poll after Notify")
	}
}

func TestNotifyNonBlockingWhenPending(t *testing.T) {
	e := New(newFakeReminderStore(), &fakeConversationStore{}, &fakeNotifier{}, Config{RetentionDays: 30})
	// Engine not started, so the buffered slot fills and extra nudges drop.
	done := make(chan struct{})
	go func() {
		e.Notify()
		e.Notify()
		e.Notify()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked")
	}
}

func TestNextCleanupTime(t *testing.T) {
	e := New(newFakeReminderStore(), &fakeConversationStore{}, &fakeNotifier{}, Config{RetentionDays: 30})

	// Before 03:00 -> same day.
	now := time.Date(2026, 3, 10, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC), e.nextCleanupTime(now))

	// Exactly 03:00 -> tomorrow.
	now = time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC), e.nextCleanupTime(now))

	// After 03:00 -> tomorrow.
	now = time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC), e.nextCleanupTime(now))
}

func TestCleanupConversationsCutoff(t *testing.T) {
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	conv := &fakeConversationStore{}
	e := New(newFakeReminderStore(), conv, &fakeNotifier{}, Config{RetentionDays: 30})
	e.now = func() time.Time { return now }

	e.cleanupConversations(context.Background())

	require.Len(t, conv.cutoffs, 1)
	assert.Equal(t, now.AddDate(0, 0, -30), conv.cutoffs[0])
}
