// Package slack is the outbound Slack delivery adapter. It only sends;
// inbound Slack traffic is not handled.
package slack

import (
	"context"
	"time"

	"github.com/slack-go/slack"

	"github.com/jykim632/secretary/internal/chunk"
)

const interChunkDelay = 300 * time.Millisecond

type Sender struct {
	client *slack.Client
}

func New(botToken string) *Sender {
	return &Sender{client: slack.New(botToken)}
}

// SendMessage posts text to the given channel or user id, splitting messages
// that exceed Slack's length limit.
func (s *Sender) SendMessage(ctx context.Context, platformUserID, text string) error {
	pieces := chunk.Split(text, chunk.SlackMaxLength)
	for i, piece := range pieces {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interChunkDelay):
			}
		}
		_, _, err := s.client.PostMessageContext(ctx, platformUserID,
			slack.MsgOptionText(piece, false),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
