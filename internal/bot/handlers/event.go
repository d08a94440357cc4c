package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jykim632/secretary/internal/models"
)

func (h *Handlers) handleEvent(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	if args == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /event <YYYY-MM-DD HH:MM> <title>")
		return
	}

	parts := strings.SplitN(args, " ", 3)
	if len(parts) < 3 {
		h.sendMessage(msg.Chat.ID, "Usage: /event <YYYY-MM-DD HH:MM> <title>\nExample: /event 2026-09-12 18:00 dinner with grandma")
		return
	}

	startTime, err := time.ParseInLocation("2006-01-02 15:04", parts[0]+" "+parts[1], time.Local)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Bad date format, use YYYY-MM-DD HH:MM")
		return
	}

	event := &models.Event{
		UserID:     user.UserID,
		Title:      parts[2],
		StartTime:  startTime,
		Visibility: "private",
	}
	if err := h.repos.Event.Create(ctx, event); err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to save the event, please try again")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf("📅 Event #%d on %s: %s",
		event.EventID, startTime.Format("2006-01-02 15:04"), event.Title))
}

func (h *Handlers) handleEventList(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	memberIDs, err := h.repos.User.GetFamilyMemberIDs(ctx, user.FamilyGroupID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to fetch events, please try again")
		return
	}

	events, err := h.repos.Event.ListVisible(ctx, user.UserID, memberIDs)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to fetch events, please try again")
		return
	}

	if len(events) == 0 {
		h.sendMessage(msg.Chat.ID, "📅 Nothing scheduled")
		return
	}

	var sb strings.Builder
	sb.WriteString("📅 **Events**\n\n")
	for _, e := range events {
		sb.WriteString(fmt.Sprintf("**%d.** %s", e.EventID, e.Title))
		if e.UserID != user.UserID {
			sb.WriteString(" 👨‍👩‍👧")
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("   🕐 %s", e.StartTime.Format("2006-01-02 15:04")))
		if e.IsRecurring() && e.NextOccurrence != nil {
			sb.WriteString(fmt.Sprintf(" · next %s", e.NextOccurrence.Format("2006-01-02 15:04")))
		}
		sb.WriteString("\n")
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}
