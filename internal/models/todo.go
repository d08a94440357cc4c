package models

import "time"

type Todo struct {
	TodoID     int64      `json:"todo_id"`
	UserID     int64      `json:"user_id"`
	Title      string     `json:"title"`
	IsDone     bool       `json:"is_done"`
	DueDate    *time.Time `json:"due_date"`
	Visibility string     `json:"visibility"` // private | family
	Priority   int        `json:"priority"`   // 0=normal, 1=high, 2=urgent
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
