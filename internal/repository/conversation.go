package repository

import (
	"context"
	"time"

	"github.com/jykim632/secretary/internal/database"
	"github.com/jykim632/secretary/internal/models"
)

type ConversationRepository struct {
	db *database.DB
}

func NewConversationRepository(db *database.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Append(ctx context.Context, msg *models.ConversationHistory) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO conversation_history (user_id, role, content, platform)
		 VALUES ($1, $2, $3, $4)
		 RETURNING message_id, created_at`,
		msg.UserID, msg.Role, msg.Content, msg.Platform,
	).Scan(&msg.MessageID, &msg.CreatedAt)
}

// Recent returns up to maxMessages turns from the last ttl window, oldest
// first so they can feed straight into a chat completion request.
func (r *ConversationRepository) Recent(ctx context.Context, userID int64, maxMessages int, ttl time.Duration) ([]*models.ConversationHistory, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT message_id, user_id, role, content, platform, created_at
		 FROM (
		     SELECT message_id, user_id, role, content, platform, created_at
		     FROM conversation_history
		     WHERE user_id = $1 AND created_at >= $2
		     ORDER BY created_at DESC, message_id DESC LIMIT $3
		 ) recent
		 ORDER BY created_at ASC, message_id ASC`,
		userID, time.Now().Add(-ttl), maxMessages,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.ConversationHistory
	for rows.Next() {
		msg := &models.ConversationHistory{}
		if err := rows.Scan(&msg.MessageID, &msg.UserID, &msg.Role, &msg.Content,
			&msg.Platform, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CleanupOlderThan deletes history before the cutoff and returns how many
// rows were removed.
func (r *ConversationRepository) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM conversation_history WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
