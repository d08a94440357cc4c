package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jykim632/secretary/internal/database"
	"github.com/jykim632/secretary/internal/models"
)

type MemoRepository struct {
	db *database.DB
}

func NewMemoRepository(db *database.DB) *MemoRepository {
	return &MemoRepository{db: db}
}

// MemoUpdate carries the fields to change; nil means leave as is.
type MemoUpdate struct {
	Title      *string
	Content    *string
	Visibility *string
	Tags       *string
}

func (r *MemoRepository) Create(ctx context.Context, memo *models.Memo) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO memos (user_id, title, content, visibility, tags)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING memo_id, created_at, updated_at`,
		memo.UserID, memo.Title, memo.Content, memo.Visibility, memo.Tags,
	).Scan(&memo.MemoID, &memo.CreatedAt, &memo.UpdatedAt)
}

func (r *MemoRepository) GetByID(ctx context.Context, memoID, userID int64) (*models.Memo, error) {
	memo := &models.Memo{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT memo_id, user_id, title, content, visibility, tags, created_at, updated_at
		 FROM memos WHERE memo_id = $1 AND user_id = $2`,
		memoID, userID,
	).Scan(&memo.MemoID, &memo.UserID, &memo.Title, &memo.Content, &memo.Visibility,
		&memo.Tags, &memo.CreatedAt, &memo.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return memo, nil
}

// ListVisible returns the user's own memos plus family-visible memos of the
// other family members, newest first.
func (r *MemoRepository) ListVisible(ctx context.Context, userID int64, familyMemberIDs []int64) ([]*models.Memo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT memo_id, user_id, title, content, visibility, tags, created_at, updated_at
		 FROM memos
		 WHERE user_id = $1 OR (user_id = ANY($2) AND visibility = 'family')
		 ORDER BY created_at DESC`,
		userID, familyMemberIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memos []*models.Memo
	for rows.Next() {
		memo := &models.Memo{}
		if err := rows.Scan(&memo.MemoID, &memo.UserID, &memo.Title, &memo.Content, &memo.Visibility,
			&memo.Tags, &memo.CreatedAt, &memo.UpdatedAt); err != nil {
			return nil, err
		}
		memos = append(memos, memo)
	}
	return memos, rows.Err()
}

func (r *MemoRepository) Update(ctx context.Context, memoID, userID int64, update MemoUpdate) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{memoID, userID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.Content != nil {
		add("content", *update.Content)
	}
	if update.Visibility != nil {
		add("visibility", *update.Visibility)
	}
	if update.Tags != nil {
		add("tags", *update.Tags)
	}

	_, err := r.db.Pool.Exec(ctx,
		`UPDATE memos SET `+strings.Join(sets, ", ")+` WHERE memo_id = $1 AND user_id = $2`,
		args...,
	)
	return err
}

func (r *MemoRepository) Delete(ctx context.Context, memoID, userID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM memos WHERE memo_id = $1 AND user_id = $2`,
		memoID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MemoRepository) Search(ctx context.Context, userID int64, keyword string) ([]*models.Memo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT memo_id, user_id, title, content, visibility, tags, created_at, updated_at
		 FROM memos WHERE user_id = $1 AND (title ILIKE $2 OR content ILIKE $2 OR tags ILIKE $2)
		 ORDER BY created_at DESC`,
		userID, "%"+keyword+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memos []*models.Memo
	for rows.Next() {
		memo := &models.Memo{}
		if err := rows.Scan(&memo.MemoID, &memo.UserID, &memo.Title, &memo.Content, &memo.Visibility,
			&memo.Tags, &memo.CreatedAt, &memo.UpdatedAt); err != nil {
			return nil, err
		}
		memos = append(memos, memo)
	}
	return memos, rows.Err()
}
