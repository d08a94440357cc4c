package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jykim632/secretary/internal/database"
	"github.com/jykim632/secretary/internal/models"
	"github.com/jykim632/secretary/internal/recurrence"
)

type ReminderRepository struct {
	db *database.DB
}

func NewReminderRepository(db *database.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (user_id, message, remind_at, is_recurring, recurrence_rule, recurrence_count, recurrence_end_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING reminder_id, created_at`,
		reminder.UserID, reminder.Message, reminder.RemindAt, reminder.IsRecurring,
		reminder.RecurrenceRule, reminder.RecurrenceCount, reminder.RecurrenceEndDate,
	).Scan(&reminder.ReminderID, &reminder.CreatedAt)
}

func (r *ReminderRepository) GetByID(ctx context.Context, reminderID, userID int64) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT reminder_id, user_id, message, remind_at, is_recurring, recurrence_rule,
		        recurrence_count, recurrence_end_date, delivered_count, is_delivered, created_at
		 FROM reminders WHERE reminder_id = $1 AND user_id = $2`,
		reminderID, userID,
	).Scan(&reminder.ReminderID, &reminder.UserID, &reminder.Message, &reminder.RemindAt,
		&reminder.IsRecurring, &reminder.RecurrenceRule, &reminder.RecurrenceCount,
		&reminder.RecurrenceEndDate, &reminder.DeliveredCount, &reminder.IsDelivered, &reminder.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

func (r *ReminderRepository) GetByUserID(ctx context.Context, userID int64, includeDelivered bool) ([]*models.Reminder, error) {
	query := `SELECT reminder_id, user_id, message, remind_at, is_recurring, recurrence_rule,
	                 recurrence_count, recurrence_end_date, delivered_count, is_delivered, created_at
	          FROM reminders WHERE user_id = $1`
	if !includeDelivered {
		query += ` AND is_delivered = false`
	}
	query += ` ORDER BY remind_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

// GetDueReminders returns every undelivered reminder whose remind_at is at
// or before now, soonest first.
func (r *ReminderRepository) GetDueReminders(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT reminder_id, user_id, message, remind_at, is_recurring, recurrence_rule,
		        recurrence_count, recurrence_end_date, delivered_count, is_delivered, created_at
		 FROM reminders WHERE is_delivered = false AND remind_at <= $1
		 ORDER BY remind_at ASC`,
		now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanReminders(rows)
}

// MarkDelivered records one delivery and advances the reminder: a recurring
// reminder is rescheduled to its next occurrence unless its recurrence has
// ended, everything else becomes terminal. The row is locked for the whole
// transition so a concurrent cancel or second scheduler cannot interleave.
// Returns (nil, nil) when the reminder no longer exists.
func (r *ReminderRepository) MarkDelivered(ctx context.Context, reminderID int64) (*models.Reminder, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	reminder := &models.Reminder{}
	err = tx.QueryRow(ctx,
		`SELECT reminder_id, user_id, message, remind_at, is_recurring, recurrence_rule,
		        recurrence_count, recurrence_end_date, delivered_count, is_delivered, created_at
		 FROM reminders WHERE reminder_id = $1 FOR UPDATE`,
		reminderID,
	).Scan(&reminder.ReminderID, &reminder.UserID, &reminder.Message, &reminder.RemindAt,
		&reminder.IsRecurring, &reminder.RecurrenceRule, &reminder.RecurrenceCount,
		&reminder.RecurrenceEndDate, &reminder.DeliveredCount, &reminder.IsDelivered, &reminder.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	recurrence.ApplyDelivery(reminder)

	_, err = tx.Exec(ctx,
		`UPDATE reminders SET remind_at = $1, delivered_count = $2, is_delivered = $3
		 WHERE reminder_id = $4`,
		reminder.RemindAt, reminder.DeliveredCount, reminder.IsDelivered, reminder.ReminderID,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return reminder, nil
}

// Cancel deletes a reminder owned by the given user. Returns false when no
// such reminder exists.
func (r *ReminderRepository) Cancel(ctx context.Context, reminderID, userID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders WHERE reminder_id = $1 AND user_id = $2`,
		reminderID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanReminders(rows pgx.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder := &models.Reminder{}
		if err := rows.Scan(&reminder.ReminderID, &reminder.UserID, &reminder.Message, &reminder.RemindAt,
			&reminder.IsRecurring, &reminder.RecurrenceRule, &reminder.RecurrenceCount,
			&reminder.RecurrenceEndDate, &reminder.DeliveredCount, &reminder.IsDelivered, &reminder.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}
