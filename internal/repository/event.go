package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jykim632/secretary/internal/database"
	"github.com/jykim632/secretary/internal/models"
	"github.com/jykim632/secretary/internal/rrule"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

// EventUpdate carries the fields to change; nil means leave as is.
type EventUpdate struct {
	Title          *string
	Description    *string
	StartTime      *time.Time
	EndTime        *time.Time
	Visibility     *string
	RecurrenceRule *string
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if err := fillNextOccurrence(event); err != nil {
		return err
	}
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO events (user_id, title, description, start_time, end_time, visibility, recurrence_rule, next_occurrence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING event_id, created_at, updated_at`,
		event.UserID, event.Title, event.Description, event.StartTime, event.EndTime,
		event.Visibility, event.RecurrenceRule, event.NextOccurrence,
	).Scan(&event.EventID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, eventID, userID int64) (*models.Event, error) {
	event := &models.Event{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT event_id, user_id, title, description, start_time, end_time, visibility,
		        recurrence_rule, next_occurrence, created_at, updated_at
		 FROM events WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&event.EventID, &event.UserID, &event.Title, &event.Description, &event.StartTime,
		&event.EndTime, &event.Visibility, &event.RecurrenceRule, &event.NextOccurrence,
		&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// ListVisible returns the user's own events plus family-visible events of
// the other family members, soonest start first.
func (r *EventRepository) ListVisible(ctx context.Context, userID int64, familyMemberIDs []int64) ([]*models.Event, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT event_id, user_id, title, description, start_time, end_time, visibility,
		        recurrence_rule, next_occurrence, created_at, updated_at
		 FROM events
		 WHERE user_id = $1 OR (user_id = ANY($2) AND visibility = 'family')
		 ORDER BY start_time ASC`,
		userID, familyMemberIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event := &models.Event{}
		if err := rows.Scan(&event.EventID, &event.UserID, &event.Title, &event.Description,
			&event.StartTime, &event.EndTime, &event.Visibility, &event.RecurrenceRule,
			&event.NextOccurrence, &event.CreatedAt, &event.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *EventRepository) Update(ctx context.Context, eventID, userID int64, update EventUpdate) error {
	event, err := r.GetByID(ctx, eventID, userID)
	if err != nil {
		return err
	}

	sets := []string{"updated_at = NOW()"}
	args := []any{eventID, userID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.StartTime != nil {
		event.StartTime = *update.StartTime
		add("start_time", *update.StartTime)
	}
	if update.EndTime != nil {
		add("end_time", *update.EndTime)
	}
	if update.Visibility != nil {
		add("visibility", *update.Visibility)
	}
	if update.RecurrenceRule != nil {
		event.RecurrenceRule = *update.RecurrenceRule
		add("recurrence_rule", *update.RecurrenceRule)
	}

	// Start time or rule changes invalidate the cached next occurrence.
	if update.StartTime != nil || update.RecurrenceRule != nil {
		if err := fillNextOccurrence(event); err != nil {
			return err
		}
		add("next_occurrence", event.NextOccurrence)
	}

	_, err = r.db.Pool.Exec(ctx,
		`UPDATE events SET `+strings.Join(sets, ", ")+` WHERE event_id = $1 AND user_id = $2`,
		args...,
	)
	return err
}

func (r *EventRepository) Delete(ctx context.Context, eventID, userID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM events WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func fillNextOccurrence(event *models.Event) error {
	if !event.IsRecurring() {
		event.NextOccurrence = nil
		return nil
	}
	next, err := rrule.NextAfter(event.RecurrenceRule, event.StartTime, time.Now())
	if err != nil {
		return fmt.Errorf("invalid recurrence rule: %w", err)
	}
	event.NextOccurrence = next
	return nil
}
