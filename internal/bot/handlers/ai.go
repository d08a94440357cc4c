package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jykim632/secretary/internal/ai"
	"github.com/jykim632/secretary/internal/models"
	"github.com/jykim632/secretary/internal/recurrence"
	"github.com/jykim632/secretary/internal/repository"
	"github.com/jykim632/secretary/internal/rrule"
)

func (h *Handlers) handleAIMessage(ctx context.Context, user *models.User, msg *tgbotapi.Message) {
	if h.ai == nil {
		h.sendMessage(msg.Chat.ID, "The AI assistant is not enabled, use /help for commands")
		return
	}

	history, err := h.repos.Conversation.Recent(ctx, user.UserID, h.opts.HistoryMessages, h.opts.HistoryTTL)
	if err != nil {
		log.Printf("Failed to load conversation history: %v", err)
		// Continue without context rather than refusing the message.
	}

	messages := make([]ai.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, ai.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, ai.Message{Role: "user", Content: msg.Text})

	h.appendHistory(ctx, user.UserID, "user", msg.Text)

	intent, err := h.ai.ParseIntentWithHistory(ctx, messages)
	if err != nil {
		log.Printf("Failed to parse intent: %v", err)
		h.sendMessage(msg.Chat.ID, "Sorry, I couldn't work that out. Try rephrasing, or see /help for commands.")
		return
	}

	if intent.Confidence < 0.5 || intent.NeedMoreInfo || intent.Action == "unknown" {
		reply := intent.Reply
		if reply == "" {
			reply = h.chatFallback(ctx, msg.Text)
		}
		h.reply(ctx, user.UserID, msg.Chat.ID, reply)
		return
	}

	result := h.executeIntent(ctx, user, intent)
	reply := result
	if intent.Reply != "" {
		reply = intent.Reply + "\n\n" + result
	}
	h.reply(ctx, user.UserID, msg.Chat.ID, reply)
}

// chatFallback answers small talk when the intent parser returns no reply of
// its own.
func (h *Handlers) chatFallback(ctx context.Context, userMsg string) string {
	answer, err := h.ai.GenerateResponse(ctx,
		"You are a friendly household secretary bot. Answer briefly and conversationally.",
		userMsg)
	if err != nil || answer == "" {
		log.Printf("Chat fallback failed: %v", err)
		return "I'm not sure what you'd like me to do, could you say a bit more?"
	}
	return answer
}

func (h *Handlers) reply(ctx context.Context, userID, chatID int64, text string) {
	h.sendMessage(chatID, text)
	h.appendHistory(ctx, userID, "assistant", text)
}

func (h *Handlers) appendHistory(ctx context.Context, userID int64, role, content string) {
	err := h.repos.Conversation.Append(ctx, &models.ConversationHistory{
		UserID:   userID,
		Role:     role,
		Content:  content,
		Platform: platformTelegram,
	})
	if err != nil {
		log.Printf("Failed to store conversation turn: %v", err)
	}
}

func (h *Handlers) executeIntent(ctx context.Context, user *models.User, intent *ai.Intent) string {
	params := intent.Parameters
	if params == nil {
		params = map[string]string{}
	}

	switch intent.Action {
	case "create_memo":
		return h.aiCreateMemo(ctx, user, params)
	case "list_memo":
		return h.aiListMemos(ctx, user, params)
	case "update_memo":
		return h.aiUpdateMemo(ctx, user, params)
	case "delete_memo":
		return h.aiDelete(ctx, user, params, "memo", func(id int64) (bool, error) {
			return h.repos.Memo.Delete(ctx, id, user.UserID)
		})
	case "create_todo":
		return h.aiCreateTodo(ctx, user, params)
	case "list_todo":
		return h.aiListTodos(ctx, user)
	case "update_todo":
		return h.aiUpdateTodo(ctx, user, params)
	case "complete_todo":
		return h.aiCompleteTodo(ctx, user, params)
	case "delete_todo":
		return h.aiDelete(ctx, user, params, "todo", func(id int64) (bool, error) {
			return h.repos.Todo.Delete(ctx, id, user.UserID)
		})
	case "create_reminder":
		return h.aiCreateReminder(ctx, user, params)
	case "list_reminder":
		return h.aiListReminders(ctx, user)
	case "cancel_reminder":
		return h.aiDelete(ctx, user, params, "reminder", func(id int64) (bool, error) {
			return h.repos.Reminder.Cancel(ctx, id, user.UserID)
		})
	case "create_event":
		return h.aiCreateEvent(ctx, user, params)
	case "list_event":
		return h.aiListEvents(ctx, user)
	case "update_event":
		return h.aiUpdateEvent(ctx, user, params)
	case "delete_event":
		return h.aiDelete(ctx, user, params, "event", func(id int64) (bool, error) {
			return h.repos.Event.Delete(ctx, id, user.UserID)
		})
	case "create_invite":
		return h.aiCreateInvite(ctx, user)
	case "list_invite":
		return h.aiListInvites(ctx, user)
	case "revoke_invite":
		return h.aiRevokeInvite(ctx, user, params)
	case "join_family":
		return h.aiJoinFamily(ctx, user, params)
	default:
		return "I don't know how to do that yet."
	}
}

func (h *Handlers) aiCreateMemo(ctx context.Context, user *models.User, params map[string]string) string {
	content := params["content"]
	title := params["title"]
	if title == "" {
		title = content
		if idx := strings.IndexByte(title, '\n'); idx >= 0 {
			title = title[:idx]
		}
	}
	if title == "" {
		return "What should the memo say?"
	}

	memo := &models.Memo{
		UserID:     user.UserID,
		Title:      title,
		Content:    content,
		Visibility: visibilityOrPrivate(params),
	}
	if err := h.repos.Memo.Create(ctx, memo); err != nil {
		log.Printf("AI create memo failed: %v", err)
		return "Failed to save the memo, please try again."
	}
	return fmt.Sprintf("📝 Memo #%d saved.", memo.MemoID)
}

func (h *Handlers) aiListMemos(ctx context.Context, user *models.User, params map[string]string) string {
	var memos []*models.Memo
	var err error
	if keyword := params["keyword"]; keyword != "" {
		memos, err = h.repos.Memo.Search(ctx, user.UserID, keyword)
		if err == nil && len(memos) == 0 {
			return fmt.Sprintf("📝 No memos matching %q.", keyword)
		}
	} else {
		var memberIDs []int64
		memberIDs, err = h.repos.User.GetFamilyMemberIDs(ctx, user.FamilyGroupID)
		if err == nil {
			memos, err = h.repos.Memo.ListVisible(ctx, user.UserID, memberIDs)
		}
	}
	if err != nil {
		return "Failed to fetch memos, please try again."
	}
	if len(memos) == 0 {
		return "📝 No memos yet."
	}

	var sb strings.Builder
	sb.WriteString("📝 Memos:\n")
	for _, m := range memos {
		sb.WriteString(fmt.Sprintf("%d. %s\n", m.MemoID, m.Title))
	}
	return sb.String()
}

func (h *Handlers) aiUpdateMemo(ctx context.Context, user *models.User, params map[string]string) string {
	id, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return "Which memo? Tell me the number from the list."
	}

	var update repository.MemoUpdate
	if v, ok := params["title"]; ok && v != "" {
		update.Title = &v
	}
	if v, ok := params["content"]; ok && v != "" {
		update.Content = &v
	}
	if v := params["visibility"]; v == "private" || v == "family" {
		update.Visibility = &v
	}
	if update == (repository.MemoUpdate{}) {
		return "What should I change on the memo?"
	}

	if _, err := h.repos.Memo.GetByID(ctx, id, user.UserID); err != nil {
		return fmt.Sprintf("No memo #%d found.", id)
	}
	if err := h.repos.Memo.Update(ctx, id, user.UserID, update); err != nil {
		log.Printf("AI update memo failed: %v", err)
		return "Failed to update the memo, please try again."
	}
	return fmt.Sprintf("📝 Memo #%d updated.", id)
}

func (h *Handlers) aiCreateTodo(ctx context.Context, user *models.User, params map[string]string) string {
	title := params["title"]
	if title == "" {
		return "What should the todo say?"
	}

	todo := &models.Todo{
		UserID:     user.UserID,
		Title:      title,
		Visibility: visibilityOrPrivate(params),
	}
	if p, err := strconv.Atoi(params["priority"]); err == nil {
		todo.Priority = p
	}
	if due, err := parseParamTime(params["due_date"]); err == nil {
		todo.DueDate = &due
	}

	if err := h.repos.Todo.Create(ctx, todo); err != nil {
		log.Printf("AI create todo failed: %v", err)
		return "Failed to save the todo, please try again."
	}
	return fmt.Sprintf("✅ Todo #%d added.", todo.TodoID)
}

func (h *Handlers) aiListTodos(ctx context.Context, user *models.User) string {
	memberIDs, err := h.repos.User.GetFamilyMemberIDs(ctx, user.FamilyGroupID)
	if err != nil {
		return "Failed to fetch todos, please try again."
	}
	todos, err := h.repos.Todo.ListVisible(ctx, user.UserID, memberIDs, false)
	if err != nil {
		return "Failed to fetch todos, please try again."
	}
	if len(todos) == 0 {
		return "✅ Nothing on the list."
	}

	var sb strings.Builder
	sb.WriteString("✅ Todos:\n")
	for _, t := range todos {
		sb.WriteString(fmt.Sprintf("%d. %s%s\n", t.TodoID, priorityMarks[t.Priority], t.Title))
	}
	return sb.String()
}

func (h *Handlers) aiUpdateTodo(ctx context.Context, user *models.User, params map[string]string) string {
	id, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return "Which todo? Tell me the number from the list."
	}

	var update repository.TodoUpdate
	if v, ok := params["title"]; ok && v != "" {
		update.Title = &v
	}
	if due, err := parseParamTime(params["due_date"]); err == nil {
		update.DueDate = &due
	}
	if p, err := strconv.Atoi(params["priority"]); err == nil {
		update.Priority = &p
	}
	if v := params["visibility"]; v == "private" || v == "family" {
		update.Visibility = &v
	}
	if update == (repository.TodoUpdate{}) {
		return "What should I change on the todo?"
	}

	if _, err := h.repos.Todo.GetByID(ctx, id, user.UserID); err != nil {
		return fmt.Sprintf("No todo #%d found.", id)
	}
	if err := h.repos.Todo.Update(ctx, id, user.UserID, update); err != nil {
		log.Printf("AI update todo failed: %v", err)
		return "Failed to update the todo, please try again."
	}
	return fmt.Sprintf("✅ Todo #%d updated.", id)
}

func (h *Handlers) aiCompleteTodo(ctx context.Context, user *models.User, params map[string]string) string {
	id, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return "Which todo? Tell me the number from the list."
	}
	ok, err := h.repos.Todo.MarkDone(ctx, id, user.UserID)
	if err != nil {
		return "Failed to update the todo, please try again."
	}
	if !ok {
		return fmt.Sprintf("No todo #%d found.", id)
	}
	return fmt.Sprintf("🎉 Todo #%d done.", id)
}

func (h *Handlers) aiCreateReminder(ctx context.Context, user *models.User, params map[string]string) string {
	message := params["message"]
	if message == "" {
		message = params["title"]
	}
	if message == "" {
		return "What should I remind you about?"
	}

	remindAt, err := parseParamTime(params["remind_at"])
	if err != nil {
		return "When should I remind you? Give me a date and time."
	}

	reminder := &models.Reminder{
		UserID:   user.UserID,
		Message:  message,
		RemindAt: remindAt,
	}
	if rule := strings.ToLower(params["recurrence"]); rule != "" {
		reminder.IsRecurring = true
		reminder.RecurrenceRule = rule
	}
	if n, err := strconv.Atoi(params["recurrence_count"]); err == nil && n > 0 {
		reminder.RecurrenceCount = &n
	}
	if end, err := time.ParseInLocation("2006-01-02", params["recurrence_end_date"], time.Local); err == nil {
		endOfDay := end.Add(24*time.Hour - time.Second)
		reminder.RecurrenceEndDate = &endOfDay
	}

	if err := h.createReminder(ctx, reminder); err != nil {
		log.Printf("AI create reminder failed: %v", err)
		return "Failed to create the reminder, please try again."
	}

	result := fmt.Sprintf("⏰ Reminder #%d set for %s.", reminder.ReminderID, remindAt.Format("2006-01-02 15:04"))
	if reminder.HasRecurrence() {
		result += fmt.Sprintf(" Repeats %s.", recurrence.Label(reminder.RecurrenceRule))
	}
	return result
}

func (h *Handlers) aiListReminders(ctx context.Context, user *models.User) string {
	reminders, err := h.repos.Reminder.GetByUserID(ctx, user.UserID, false)
	if err != nil {
		return "Failed to fetch reminders, please try again."
	}
	if len(reminders) == 0 {
		return "⏰ No reminders set."
	}

	var sb strings.Builder
	sb.WriteString("⏰ Reminders:\n")
	for _, r := range reminders {
		sb.WriteString(fmt.Sprintf("%d. %s at %s", r.ReminderID, r.Message, r.RemindAt.Format("2006-01-02 15:04")))
		if r.HasRecurrence() {
			sb.WriteString(fmt.Sprintf(" (repeats %s)", recurrence.Label(r.RecurrenceRule)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (h *Handlers) aiCreateEvent(ctx context.Context, user *models.User, params map[string]string) string {
	title := params["title"]
	if title == "" {
		return "What's the event called?"
	}
	startTime, err := parseParamTime(params["start_time"])
	if err != nil {
		return "When does it start? Give me a date and time."
	}

	event := &models.Event{
		UserID:     user.UserID,
		Title:      title,
		StartTime:  startTime,
		Visibility: visibilityOrPrivate(params),
	}
	if end, err := parseParamTime(params["end_time"]); err == nil {
		event.EndTime = &end
	}
	if ruleStr := params["rrule"]; ruleStr != "" {
		if err := rrule.Validate(ruleStr); err != nil {
			return "I couldn't understand that repeat pattern, try something like \"every Monday\"."
		}
		event.RecurrenceRule = ruleStr
	}

	if err := h.repos.Event.Create(ctx, event); err != nil {
		log.Printf("AI create event failed: %v", err)
		return "Failed to save the event, please try again."
	}
	return fmt.Sprintf("📅 Event #%d on %s: %s.", event.EventID, startTime.Format("2006-01-02 15:04"), event.Title)
}

func (h *Handlers) aiListEvents(ctx context.Context, user *models.User) string {
	memberIDs, err := h.repos.User.GetFamilyMemberIDs(ctx, user.FamilyGroupID)
	if err != nil {
		return "Failed to fetch events, please try again."
	}
	events, err := h.repos.Event.ListVisible(ctx, user.UserID, memberIDs)
	if err != nil {
		return "Failed to fetch events, please try again."
	}
	if len(events) == 0 {
		return "📅 Nothing scheduled."
	}

	var sb strings.Builder
	sb.WriteString("📅 Events:\n")
	for _, e := range events {
		sb.WriteString(fmt.Sprintf("%d. %s at %s\n", e.EventID, e.Title, e.StartTime.Format("2006-01-02 15:04")))
	}
	return sb.String()
}

func (h *Handlers) aiUpdateEvent(ctx context.Context, user *models.User, params map[string]string) string {
	id, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return "Which event? Tell me the number from the list."
	}

	var update repository.EventUpdate
	if v, ok := params["title"]; ok && v != "" {
		update.Title = &v
	}
	if start, err := parseParamTime(params["start_time"]); err == nil {
		update.StartTime = &start
	}
	if end, err := parseParamTime(params["end_time"]); err == nil {
		update.EndTime = &end
	}
	if ruleStr, ok := params["rrule"]; ok && ruleStr != "" {
		if err := rrule.Validate(ruleStr); err != nil {
			return "I couldn't understand that repeat pattern, try something like \"every Monday\"."
		}
		update.RecurrenceRule = &ruleStr
	}
	if v := params["visibility"]; v == "private" || v == "family" {
		update.Visibility = &v
	}
	if update == (repository.EventUpdate{}) {
		return "What should I change on the event?"
	}

	if err := h.repos.Event.Update(ctx, id, user.UserID, update); err != nil {
		log.Printf("AI update event failed: %v", err)
		return fmt.Sprintf("No event #%d found, or the update failed.", id)
	}
	return fmt.Sprintf("📅 Event #%d updated.", id)
}

func (h *Handlers) aiDelete(ctx context.Context, user *models.User, params map[string]string, kind string, del func(int64) (bool, error)) string {
	id, err := strconv.ParseInt(params["id"], 10, 64)
	if err != nil {
		return fmt.Sprintf("Which %s? Tell me the number from the list.", kind)
	}
	ok, err := del(id)
	if err != nil {
		return fmt.Sprintf("Failed to delete the %s, please try again.", kind)
	}
	if !ok {
		return fmt.Sprintf("No %s #%d found.", kind, id)
	}
	return fmt.Sprintf("🗑 Deleted %s #%d.", kind, id)
}

func parseParamTime(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", value, time.Local)
}

func visibilityOrPrivate(params map[string]string) string {
	if params["visibility"] == "family" {
		return "family"
	}
	return "private"
}
