package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jykim632/secretary/internal/models"
)

var priorityMarks = map[int]string{1: "❗", 2: "‼️"}

func (h *Handlers) handleTodo(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	title := strings.TrimSpace(msg.CommandArguments())
	if title == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /todo <title>")
		return
	}

	todo := &models.Todo{
		UserID:     user.UserID,
		Title:      title,
		Visibility: "private",
	}
	if err := h.repos.Todo.Create(ctx, todo); err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to save the todo, please try again")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Todo #%d added", todo.TodoID))
}

func (h *Handlers) handleTodoList(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	memberIDs, err := h.repos.User.GetFamilyMemberIDs(ctx, user.FamilyGroupID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to fetch todos, please try again")
		return
	}

	todos, err := h.repos.Todo.ListVisible(ctx, user.UserID, memberIDs, false)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to fetch todos, please try again")
		return
	}

	if len(todos) == 0 {
		h.sendMessage(msg.Chat.ID, "✅ Nothing on the list, enjoy your day")
		return
	}

	var sb strings.Builder
	sb.WriteString("✅ **Todos**\n\n")
	for _, t := range todos {
		sb.WriteString(fmt.Sprintf("**%d.** %s%s", t.TodoID, priorityMarks[t.Priority], t.Title))
		if t.UserID != user.UserID {
			sb.WriteString(" 👨‍👩‍👧")
		}
		sb.WriteString("\n")
		if t.DueDate != nil {
			sb.WriteString(fmt.Sprintf("   📅 due %s\n", t.DueDate.Format("2006-01-02 15:04")))
		}
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleTodoDone(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	args := strings.TrimSpace(msg.CommandArguments())
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Usage: /done <id>\nSee /todos for the ids")
		return
	}

	ok, err := h.repos.Todo.MarkDone(ctx, id, user.UserID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to update the todo, please try again")
		return
	}
	if !ok {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("No todo #%d found", id))
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🎉 Todo #%d done", id))
}
