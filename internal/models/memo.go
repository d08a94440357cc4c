package models

import "time"

type Memo struct {
	MemoID     int64     `json:"memo_id"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Visibility string    `json:"visibility"` // private | family
	Tags       string    `json:"tags"`       // comma-separated
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
