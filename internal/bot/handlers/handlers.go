package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jykim632/secretary/internal/ai"
	"github.com/jykim632/secretary/internal/chunk"
	"github.com/jykim632/secretary/internal/format"
	"github.com/jykim632/secretary/internal/models"
	"github.com/jykim632/secretary/internal/repository"
	"github.com/jykim632/secretary/internal/scheduler"
)

const platformTelegram = "telegram"

type Repositories struct {
	User         *repository.UserRepository
	Invite       *repository.InviteRepository
	Memo         *repository.MemoRepository
	Todo         *repository.TodoRepository
	Event        *repository.EventRepository
	Reminder     *repository.ReminderRepository
	Conversation *repository.ConversationRepository
}

// Options are the conversational knobs that come from configuration.
type Options struct {
	DefaultFamilyName string
	DefaultTimezone   string
	HistoryMessages   int
	HistoryTTL        time.Duration
}

type Handlers struct {
	api    *tgbotapi.BotAPI
	repos  *Repositories
	ai     *ai.Client
	engine *scheduler.Engine
	opts   Options
}

func New(repos *Repositories, aiClient *ai.Client, engine *scheduler.Engine, opts Options) *Handlers {
	return &Handlers{
		repos:  repos,
		ai:     aiClient,
		engine: engine,
		opts:   opts,
	}
}

// BindAPI attaches the Telegram API once the bot has connected.
func (h *Handlers) BindAPI(api *tgbotapi.BotAPI) {
	h.api = api
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	user, err := h.resolveUser(ctx, msg)
	if err != nil {
		log.Printf("Failed to resolve user: %v", err)
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(ctx, msg)
	case "memo":
		h.handleMemo(ctx, user, msg)
	case "memos":
		h.handleMemoList(ctx, user, msg)
	case "todo":
		h.handleTodo(ctx, user, msg)
	case "todos":
		h.handleTodoList(ctx, user, msg)
	case "done":
		h.handleTodoDone(ctx, user, msg)
	case "remind":
		h.handleRemind(ctx, user, msg)
	case "reminders":
		h.handleReminderList(ctx, user, msg)
	case "cancelremind":
		h.handleCancelRemind(ctx, user, msg)
	case "event":
		h.handleEvent(ctx, user, msg)
	case "events":
		h.handleEventList(ctx, user, msg)
	case "invite":
		h.handleInvite(ctx, user, msg)
	case "invites":
		h.handleInvites(ctx, user, msg)
	case "revokeinvite":
		h.handleRevokeInvite(ctx, user, msg)
	case "join":
		h.handleJoin(ctx, user, msg)
	case "linkslack":
		h.handleLinkSlack(ctx, user, msg)
	default:
		h.sendMessage(msg.Chat.ID, "Unknown command, see /help for what I can do")
	}
}

func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := h.resolveUser(ctx, msg)
	if err != nil {
		log.Printf("Failed to resolve user: %v", err)
		return
	}

	h.handleAIMessage(ctx, user, msg)
}

// resolveUser maps the Telegram sender to an internal user, creating one on
// first contact.
func (h *Handlers) resolveUser(ctx context.Context, msg *tgbotapi.Message) (*models.User, error) {
	displayName := msg.From.FirstName
	if displayName == "" {
		displayName = msg.From.UserName
	}
	return h.repos.User.GetOrCreateByPlatform(ctx,
		platformTelegram, strconv.FormatInt(msg.From.ID, 10),
		displayName, h.opts.DefaultFamilyName, h.opts.DefaultTimezone)
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	for i, piece := range chunk.Split(text, chunk.TelegramMaxLength) {
		if i > 0 {
			time.Sleep(300 * time.Millisecond)
		}
		parsed := format.ParseMarkdown(piece)
		msg := tgbotapi.NewMessage(chatID, parsed.Text)
		msg.Entities = parsed.Entities
		if _, err := h.api.Send(msg); err != nil {
			log.Printf("Failed to send message: %v", err)
			return
		}
	}
}

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	text := fmt.Sprintf(`👋 Hi %s!

I'm your household secretary. I can help you with:
📝 memos
✅ todos
⏰ reminders, one-off or recurring
📅 calendar events
👨‍👩‍👧 sharing all of the above with your family

Just tell me what you need in plain language, for example:
• "remind me to water the plants every day at 9am"
• "add milk to my shopping list"
• "what's on my calendar this week?"

See /help for the full command list`, msg.From.FirstName)
	h.sendMessage(msg.Chat.ID, text)
}

func (h *Handlers) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	text := `📖 **Commands**

**Memos**
/memo <text> - add a memo
/memos - list memos

**Todos**
/todo <title> - add a todo
/todos - list open todos
/done <id> - complete a todo

**Reminders**
/remind <HH:MM> <message> - one-off reminder
/remind daily|weekly|monthly <HH:MM> <message> - recurring
/reminders - list reminders
/cancelremind <id> - cancel a reminder

**Calendar**
/event <YYYY-MM-DD HH:MM> <title> - add an event
/events - list upcoming events

**Family**
/invite - create an invite code for your family group
/invites - list active invite codes (admin)
/revokeinvite <id> - revoke an invite code (admin)
/join <code> - join a family group

**Accounts**
/linkslack <slack-id> - also deliver reminders to your Slack account

💡 Or just talk to me in plain language!`
	h.sendMessage(msg.Chat.ID, text)
}
