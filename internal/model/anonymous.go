package model

import "time"

// AnonymousList is a shared todo list addressable by anyone who holds its id.
// The id is a random UUID; possession of it is the only access control.
type AnonymousList struct {
	ID        string    `json:"id"`
	ListName  string    `json:"list_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AnonymousTask belongs to an AnonymousList instead of a user account.
type AnonymousTask struct {
	ID          int64     `json:"id"`
	ListID      string    `json:"list_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
