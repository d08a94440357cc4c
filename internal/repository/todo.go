package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jykim632/secretary/internal/database"
	"github.com/jykim632/secretary/internal/models"
)

type TodoRepository struct {
	db *database.DB
}

func NewTodoRepository(db *database.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// TodoUpdate carries the fields to change; nil means leave as is.
type TodoUpdate struct {
	Title      *string
	IsDone     *bool
	DueDate    *time.Time
	Visibility *string
	Priority   *int
}

func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO todos (user_id, title, due_date, visibility, priority)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING todo_id, created_at, updated_at`,
		todo.UserID, todo.Title, todo.DueDate, todo.Visibility, todo.Priority,
	).Scan(&todo.TodoID, &todo.CreatedAt, &todo.UpdatedAt)
}

func (r *TodoRepository) GetByID(ctx context.Context, todoID, userID int64) (*models.Todo, error) {
	todo := &models.Todo{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT todo_id, user_id, title, is_done, due_date, visibility, priority, created_at, updated_at
		 FROM todos WHERE todo_id = $1 AND user_id = $2`,
		todoID, userID,
	).Scan(&todo.TodoID, &todo.UserID, &todo.Title, &todo.IsDone, &todo.DueDate,
		&todo.Visibility, &todo.Priority, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// ListVisible returns open todos the user can see: their own plus
// family-visible ones, urgent first, then by due date.
func (r *TodoRepository) ListVisible(ctx context.Context, userID int64, familyMemberIDs []int64, includeDone bool) ([]*models.Todo, error) {
	query := `SELECT todo_id, user_id, title, is_done, due_date, visibility, priority, created_at, updated_at
	          FROM todos
	          WHERE (user_id = $1 OR (user_id = ANY($2) AND visibility = 'family'))`
	if !includeDone {
		query += ` AND is_done = false`
	}
	query += ` ORDER BY priority DESC, due_date ASC NULLS LAST, created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, userID, familyMemberIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		todo := &models.Todo{}
		if err := rows.Scan(&todo.TodoID, &todo.UserID, &todo.Title, &todo.IsDone, &todo.DueDate,
			&todo.Visibility, &todo.Priority, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

func (r *TodoRepository) Update(ctx context.Context, todoID, userID int64, update TodoUpdate) error {
	sets := []string{"updated_at = NOW()"}
	args := []any{todoID, userID}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.Title != nil {
		add("title", *update.Title)
	}
	if update.IsDone != nil {
		add("is_done", *update.IsDone)
	}
	if update.DueDate != nil {
		add("due_date", *update.DueDate)
	}
	if update.Visibility != nil {
		add("visibility", *update.Visibility)
	}
	if update.Priority != nil {
		add("priority", *update.Priority)
	}

	_, err := r.db.Pool.Exec(ctx,
		`UPDATE todos SET `+strings.Join(sets, ", ")+` WHERE todo_id = $1 AND user_id = $2`,
		args...,
	)
	return err
}

// MarkDone completes a todo. Returns false when the todo does not exist or
// belongs to someone else.
func (r *TodoRepository) MarkDone(ctx context.Context, todoID, userID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE todos SET is_done = true, updated_at = NOW()
		 WHERE todo_id = $1 AND user_id = $2`,
		todoID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TodoRepository) Delete(ctx context.Context, todoID, userID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM todos WHERE todo_id = $1 AND user_id = $2`,
		todoID, userID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
