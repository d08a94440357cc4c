// Package bot is the Telegram front end: inbound commands and free-text
// messages, and outbound delivery for the reminder engine.
package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jykim632/secretary/internal/bot/handlers"
	"github.com/jykim632/secretary/internal/chunk"
	"github.com/jykim632/secretary/internal/format"
)

const interChunkDelay = 300 * time.Millisecond

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
}

func New(token string, h *handlers.Handlers) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h.BindAPI(api)
	return &Bot{api: api, handlers: h}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	b.handlers.HandleMessage(ctx, update.Message)
}

// SendMessage delivers text to a Telegram chat id, splitting anything over
// the platform limit and pacing the pieces to stay under rate limits. This
// is the notification router's Telegram sender.
func (b *Bot) SendMessage(ctx context.Context, platformUserID, text string) error {
	chatID, err := strconv.ParseInt(platformUserID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", platformUserID, err)
	}

	pieces := chunk.Split(text, chunk.TelegramMaxLength)
	for i, piece := range pieces {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interChunkDelay):
			}
		}

		parsed := format.ParseMarkdown(piece)
		msg := tgbotapi.NewMessage(chatID, parsed.Text)
		msg.Entities = parsed.Entities
		if _, err := b.api.Send(msg); err != nil {
			return fmt.Errorf("failed to send telegram message: %w", err)
		}
	}
	return nil
}
