package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atiohaidar/todolist/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, user_id, title, description, completed, attachments, created_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var completed int
	var attachments string

	err := scanner.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &completed, &attachments, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	t.Completed = completed != 0
	if err := json.Unmarshal([]byte(attachments), &t.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
	return &t, nil
}

func (s *TaskStore) Create(userID int64, title, description string) (*model.Task, error) {
	row := s.db.QueryRow(
		`INSERT INTO tasks (user_id, title, description) VALUES (?, ?, ?) RETURNING `+taskCols,
		userID, title, description,
	)
	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// ListByUser returns the user's tasks, newest first.
func (s *TaskStore) ListByUser(userID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Get returns the task only if it belongs to userID; (nil, nil) otherwise.
// The owner match is part of the query itself, never a separate check.
func (s *TaskStore) Get(id, userID int64) (*model.Task, error) {
	row := s.db.QueryRow(
		`SELECT `+taskCols+` FROM tasks WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// TaskUpdate carries the optional fields of a partial update. Nil fields are
// left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}

func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Completed == nil
}

// Update applies a partial update scoped by task id and owner in a single
// statement. Returns (nil, nil) when no row matched, whether the task is
// absent or owned by someone else.
func (s *TaskStore) Update(id, userID int64, upd TaskUpdate) (*model.Task, error) {
	var sets []string
	var args []any
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.Completed != nil {
		c := 0
		if *upd.Completed {
			c = 1
		}
		sets = append(sets, "completed = ?")
		args = append(args, c)
	}
	if len(sets) == 0 {
		return s.Get(id, userID)
	}
	args = append(args, id, userID)

	row := s.db.QueryRow(
		`UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ? RETURNING `+taskCols,
		args...,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// Delete removes the task scoped by owner; (nil, nil) when no row matched.
func (s *TaskStore) Delete(id, userID int64) (*model.Task, error) {
	row := s.db.QueryRow(
		`DELETE FROM tasks WHERE id = ? AND user_id = ? RETURNING `+taskCols,
		id, userID,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete task: %w", err)
	}
	return t, nil
}

// AppendAttachment appends a blob key to the task's attachment list in one
// owner-scoped statement, preserving order.
func (s *TaskStore) AppendAttachment(id, userID int64, key string) (*model.Task, error) {
	row := s.db.QueryRow(
		`UPDATE tasks SET attachments = json_insert(attachments, '$[#]', ?) WHERE id = ? AND user_id = ? RETURNING `+taskCols,
		key, id, userID,
	)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("append attachment: %w", err)
	}
	return t, nil
}
