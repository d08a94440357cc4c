package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jykim632/secretary/internal/models"
	"github.com/jykim632/secretary/internal/recurrence"
)

func (h *Handlers) handleRemind(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /remind <HH:MM> <message>\nor: /remind daily|weekly|monthly <HH:MM> <message>")
		return
	}

	parts := strings.SplitN(args, " ", 2)

	rule := ""
	switch strings.ToLower(parts[0]) {
	case "daily", "weekly", "monthly":
		rule = strings.ToLower(parts[0])
		if len(parts) < 2 {
			h.sendMessage(msg.Chat.ID, "Usage: /remind "+rule+" <HH:MM> <message>")
			return
		}
		parts = strings.SplitN(strings.TrimSpace(parts[1]), " ", 2)
	}

	if len(parts) < 2 {
		h.sendMessage(msg.Chat.ID, "Usage: /remind <HH:MM> <message>\nExample: /remind 15:30 pick up the kids")
		return
	}

	remindAt, err := parseTimeToday(parts[0])
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Bad time format, use HH:MM (for example 15:30)")
		return
	}

	reminder := &models.Reminder{
		UserID:         user.UserID,
		Message:        parts[1],
		RemindAt:       remindAt,
		IsRecurring:    rule != "",
		RecurrenceRule: rule,
	}
	if err := h.createReminder(ctx, reminder); err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to create the reminder, please try again")
		return
	}

	text := fmt.Sprintf("⏰ Reminder #%d set for %s", reminder.ReminderID, remindAt.Format("2006-01-02 15:04"))
	if reminder.HasRecurrence() {
		text += fmt.Sprintf(", repeating %s", recurrence.Label(rule))
	}
	h.sendMessage(msg.Chat.ID, text)
}

// createReminder persists the reminder and nudges the engine so one due in
// the next few seconds is not left waiting for the next poll tick.
func (h *Handlers) createReminder(ctx context.Context, reminder *models.Reminder) error {
	if err := h.repos.Reminder.Create(ctx, reminder); err != nil {
		return err
	}
	h.engine.Notify()
	return nil
}

func (h *Handlers) handleReminderList(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	reminders, err := h.repos.Reminder.GetByUserID(ctx, user.UserID, false)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to fetch reminders, please try again")
		return
	}

	if len(reminders) == 0 {
		h.sendMessage(msg.Chat.ID, "⏰ No reminders set")
		return
	}

	var sb strings.Builder
	sb.WriteString("⏰ **Reminders**\n\n")
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("**%d.** %s\n", r.ReminderID, r.Message))
		sb.WriteString(fmt.Sprintf("   📅 %s", r.RemindAt.Format("2006-01-02 15:04")))
		if r.HasRecurrence() {
			sb.WriteString(fmt.Sprintf(" · repeats %s", recurrence.Label(r.RecurrenceRule)))
			if r.RecurrenceCount != nil {
				sb.WriteString(fmt.Sprintf(" (%d/%d)", r.DeliveredCount, *r.RecurrenceCount))
			}
		}
		sb.WriteString("\n\n")
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleCancelRemind(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Usage: /cancelremind <id>\nSee /reminders for the ids")
		return
	}

	reminder, err := h.repos.Reminder.GetByID(ctx, id, user.UserID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to cancel the reminder, please try again")
		return
	}
	if reminder == nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("No reminder #%d found", id))
		return
	}

	ok, err := h.repos.Reminder.Cancel(ctx, id, user.UserID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to cancel the reminder, please try again")
		return
	}
	if !ok {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("No reminder #%d found", id))
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Reminder #%d cancelled: %s", id, reminder.Message))
}

// parseTimeToday interprets HH:MM as the next occurrence of that clock time.
func parseTimeToday(timeStr string) (time.Time, error) {
	now := time.Now()
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		return time.Time{}, err
	}

	result := time.Date(now.Year(), now.Month(), now.Day(),
		t.Hour(), t.Minute(), 0, 0, now.Location())
	if result.Before(now) {
		result = result.Add(24 * time.Hour)
	}
	return result, nil
}
