package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jykim632/secretary/internal/models"
)

func (h *Handlers) handleMemo(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	content := strings.TrimSpace(msg.CommandArguments())
	if content == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /memo <text>")
		return
	}

	// First line doubles as the title.
	title := content
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		title = content[:idx]
	}

	memo := &models.Memo{
		UserID:     user.UserID,
		Title:      title,
		Content:    content,
		Visibility: "private",
	}
	if err := h.repos.Memo.Create(ctx, memo); err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to save the memo, please try again")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf("📝 Memo #%d saved", memo.MemoID))
}

func (h *Handlers) handleMemoList(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	memberIDs, err := h.repos.User.GetFamilyMemberIDs(ctx, user.FamilyGroupID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to fetch memos, please try again")
		return
	}

	memos, err := h.repos.Memo.ListVisible(ctx, user.UserID, memberIDs)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to fetch memos, please try again")
		return
	}

	if len(memos) == 0 {
		h.sendMessage(msg.Chat.ID, "📝 No memos yet")
		return
	}

	var sb strings.Builder
	sb.WriteString("📝 **Memos**\n\n")
	for _, m := range memos {
		sb.WriteString(fmt.Sprintf("**%d.** %s", m.MemoID, m.Title))
		if m.UserID != user.UserID {
			sb.WriteString(" 👨‍👩‍👧")
		}
		sb.WriteString("\n")
		if m.Tags != "" {
			sb.WriteString(fmt.Sprintf("   🏷 %s\n", m.Tags))
		}
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}
