package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/jykim632/secretary/internal/models"
)

const inviteTTL = 72 * time.Hour

// newInviteCode derives a short shareable code from a fresh UUID.
func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (h *Handlers) handleInvite(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	if !user.IsAdmin() {
		h.sendMessage(msg.Chat.ID, "Only the family admin can create invites")
		return
	}

	invite := &models.FamilyInvite{
		FamilyGroupID: user.FamilyGroupID,
		Code:          newInviteCode(),
		CreatedBy:     user.UserID,
		ExpiresAt:     time.Now().Add(inviteTTL),
	}
	if err := h.repos.Invite.Create(ctx, invite); err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to create the invite, please try again")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"👨‍👩‍👧 Invite code: `%s`\nValid until %s. Family members redeem it with /join %s",
		invite.Code, invite.ExpiresAt.Format("2006-01-02 15:04"), invite.Code))
}

func (h *Handlers) handleInvites(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	if !user.IsAdmin() {
		h.sendMessage(msg.Chat.ID, "Only the family admin can manage invites")
		return
	}

	invites, err := h.repos.Invite.ListActive(ctx, user.FamilyGroupID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to fetch invites, please try again")
		return
	}
	if len(invites) == 0 {
		h.sendMessage(msg.Chat.ID, "No active invites. Create one with /invite")
		return
	}

	var sb strings.Builder
	sb.WriteString("👨‍👩‍👧 Active invites:\n")
	for _, inv := range invites {
		sb.WriteString(fmt.Sprintf("%d. `%s` until %s, used %d", inv.InviteID, inv.Code,
			inv.ExpiresAt.Format("2006-01-02 15:04"), inv.UseCount))
		if inv.MaxUses != nil {
			sb.WriteString(fmt.Sprintf("/%d", *inv.MaxUses))
		}
		sb.WriteString("\n")
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleRevokeInvite(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	if !user.IsAdmin() {
		h.sendMessage(msg.Chat.ID, "Only the family admin can manage invites")
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(msg.CommandArguments()), 10, 64)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Usage: /revokeinvite <id> (see /invites)")
		return
	}

	ok, err := h.repos.Invite.Deactivate(ctx, id, user.FamilyGroupID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to revoke the invite, please try again")
		return
	}
	if !ok {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("No invite #%d found", id))
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Invite #%d revoked", id))
}

// handleLinkSlack attaches a Slack identity to the current account so
// reminders can fall back to Slack delivery.
func (h *Handlers) handleLinkSlack(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	slackID := strings.TrimSpace(msg.CommandArguments())
	if slackID == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /linkslack <your Slack member ID, e.g. U0123ABCDEF>")
		return
	}

	link := &models.UserPlatformLink{
		UserID:         user.UserID,
		Platform:       "slack",
		PlatformUserID: slackID,
	}
	if err := h.repos.User.AddPlatformLink(ctx, link); err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to link the Slack account, it may already be linked")
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🔗 Slack account %s linked", slackID))
}

func (h *Handlers) aiListInvites(ctx context.Context, user *models.User) string {
	if !user.IsAdmin() {
		return "Only the family admin can manage invites."
	}
	invites, err := h.repos.Invite.ListActive(ctx, user.FamilyGroupID)
	if err != nil {
		return "Failed to fetch invites, please try again."
	}
	if len(invites) == 0 {
		return "No active invites."
	}

	var sb strings.Builder
	sb.WriteString("👨‍👩‍👧 Active invites:\n")
	for _, inv := range invites {
		sb.WriteString(fmt.Sprintf("%d. `%s` until %s\n", inv.InviteID, inv.Code,
			inv.ExpiresAt.Format("2006-01-02 15:04")))
	}
	return sb.String()
}

func (h *Handlers) aiRevokeInvite(ctx context.Context, user *models.User, params map[string]string) string {
	if !user.IsAdmin() {
		return "Only the family admin can manage invites."
	}
	id, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return "Which invite? Tell me the number from the list."
	}
	ok, err := h.repos.Invite.Deactivate(ctx, id, user.FamilyGroupID)
	if err != nil {
		return "Failed to revoke the invite, please try again."
	}
	if !ok {
		return fmt.Sprintf("No invite #%d found.", id)
	}
	return fmt.Sprintf("🗑 Invite #%d revoked.", id)
}

func (h *Handlers) aiCreateInvite(ctx context.Context, user *models.User) string {
	if !user.IsAdmin() {
		return "Only the family admin can create invites."
	}

	invite := &models.FamilyInvite{
		FamilyGroupID: user.FamilyGroupID,
		Code:          newInviteCode(),
		CreatedBy:     user.UserID,
		ExpiresAt:     time.Now().Add(inviteTTL),
	}
	if err := h.repos.Invite.Create(ctx, invite); err != nil {
		return "Failed to create the invite, please try again."
	}
	return fmt.Sprintf("👨‍👩‍👧 Invite code: `%s`, valid until %s.",
		invite.Code, invite.ExpiresAt.Format("2006-01-02 15:04"))
}

func (h *Handlers) aiJoinFamily(ctx context.Context, user *models.User, params map[string]string) string {
	code := strings.ToUpper(strings.TrimSpace(params["code"]))
	if code == "" {
		return "What's the invite code?"
	}

	invite, err := h.repos.Invite.GetByCode(ctx, code)
	if err != nil {
		return "Failed to look up the invite, please try again."
	}
	if invite == nil || !invite.IsUsable(time.Now()) {
		return "That invite code is invalid or has expired."
	}
	if invite.FamilyGroupID == user.FamilyGroupID {
		return "You are already in that family group."
	}

	if err := h.repos.User.UpdateFamilyGroup(ctx, user.UserID, invite.FamilyGroupID); err != nil {
		return "Failed to join the family group, please try again."
	}
	if err := h.repos.Invite.IncrementUse(ctx, invite.InviteID); err != nil {
		return "Failed to join the family group, please try again."
	}
	return "🎉 Welcome to your new family group!"
}

func (h *Handlers) handleJoin(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	code := strings.ToUpper(strings.TrimSpace(msg.CommandArguments()))
	if code == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /join <code>")
		return
	}

	invite, err := h.repos.Invite.GetByCode(ctx, code)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to look up the invite, please try again")
		return
	}
	if invite == nil || !invite.IsUsable(time.Now()) {
		h.sendMessage(msg.Chat.ID, "That invite code is invalid or has expired")
		return
	}

	if invite.FamilyGroupID == user.FamilyGroupID {
		h.sendMessage(msg.Chat.ID, "You are already in that family group")
		return
	}

	if err := h.repos.User.UpdateFamilyGroup(ctx, user.UserID, invite.FamilyGroupID); err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to join the family group, please try again")
		return
	}
	if err := h.repos.Invite.IncrementUse(ctx, invite.InviteID); err != nil {
		h.sendMessage(msg.Chat.ID, "Failed to join the family group, please try again")
		return
	}

	group, err := h.repos.User.GetFamilyGroup(ctx, invite.FamilyGroupID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "🎉 Welcome to your new family group!")
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("🎉 Welcome to %s!", group.Name))
}
