// Package notify routes outbound messages to a user's chat platforms.
package notify

import (
	"context"
	"log"
	"sync"

	"github.com/jykim632/secretary/internal/models"
)

// Sender delivers text to one address on a single platform. The Telegram bot
// and the Slack client both implement it.
type Sender interface {
	SendMessage(ctx context.Context, platformUserID string, text string) error
}

// LinkSource looks up a user's platform addresses, primary link first.
type LinkSource interface {
	GetPlatformLinks(ctx context.Context, userID int64) ([]*models.UserPlatformLink, error)
}

// Router fans a notification out to whichever of the user's platforms
// accepts it first. Senders are registered at startup; registering a platform
// twice replaces the earlier sender.
type Router struct {
	mu      sync.RWMutex
	senders map[string]Sender
	links   LinkSource
}

func NewRouter(links LinkSource) *Router {
	return &Router{
		senders: make(map[string]Sender),
		links:   links,
	}
}

func (r *Router) RegisterSender(platform string, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[platform] = sender
}

// NotifyUser tries the user's platform links in order (primary first) and
// stops at the first successful send. A failing transport is logged and the
// next one is tried; links whose platform has no registered sender are
// skipped. Returns false when every attempt failed or no links exist, so the
// caller can leave the reminder due and retry later.
func (r *Router) NotifyUser(ctx context.Context, userID int64, text string) bool {
	links, err := r.links.GetPlatformLinks(ctx, userID)
	if err != nil {
		log.Printf("Failed to get platform links for user %d: %v", userID, err)
		return false
	}
	if len(links) == 0 {
		log.Printf("No platform links for user %d", userID)
		return false
	}

	for _, link := range links {
		r.mu.RLock()
		sender, ok := r.senders[link.Platform]
		r.mu.RUnlock()
		if !ok {
			continue
		}

		if err := sender.SendMessage(ctx, link.PlatformUserID, text); err != nil {
			log.Printf("Failed to send via %s to user %d: %v", link.Platform, userID, err)
			continue
		}
		return true
	}

	log.Printf("All platform sends failed for user %d", userID)
	return false
}
