package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/atiohaidar/todolist/internal/model"
)

// AnonymousListStore persists shared lists and their tasks. List ids are
// random UUIDs; holding one is the only credential for everything under it.
type AnonymousListStore struct {
	db *sql.DB
}

func NewAnonymousListStore(db *sql.DB) *AnonymousListStore {
	return &AnonymousListStore{db: db}
}

const anonListCols = `id, list_name, created_at, updated_at`
const anonTaskCols = `id, list_id, title, description, completed, attachments, created_at, updated_at`

func scanAnonList(scanner interface{ Scan(...any) error }) (*model.AnonymousList, error) {
	var l model.AnonymousList
	err := scanner.Scan(&l.ID, &l.ListName, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanAnonTask(scanner interface{ Scan(...any) error }) (*model.AnonymousTask, error) {
	var t model.AnonymousTask
	var completed int
	var attachments string

	err := scanner.Scan(&t.ID, &t.ListID, &t.Title, &t.Description, &completed, &attachments, &t.CreatedAt, &t.UpdatedAt)
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

func (s *AnonymousListStore) CreateList(name string) (*model.AnonymousList, error) {
	row := s.db.QueryRow(
		`INSERT INTO anonymous_lists (id, list_name) VALUES (?, ?) RETURNING `+anonListCols,
		uuid.NewString(), name,
	)
	l, err := scanAnonList(row)
	if err != nil {
		return nil, fmt.Errorf("insert anonymous list: %w", err)
	}
	return l, nil
}

func (s *AnonymousListStore) GetList(id string) (*model.AnonymousList, error) {
	row := s.db.QueryRow(`SELECT `+anonListCols+` FROM anonymous_lists WHERE id = ?`, id)
	l, err := scanAnonList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get anonymous list: %w", err)
	}
	return l, nil
}

// ListTasks returns all tasks under the list, oldest first so polling clients
// render a stable order.
func (s *AnonymousListStore) ListTasks(listID string) ([]model.AnonymousTask, error) {
	rows, err := s.db.Query(
		`SELECT `+anonTaskCols+` FROM anonymous_tasks WHERE list_id = ? ORDER BY created_at ASC, id ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list anonymous tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.AnonymousTask
	for rows.Next() {
		t, err := scanAnonTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan anonymous task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a task under the list and bumps the list's updated_at in
// the same transaction. Returns (nil, nil) when the list does not exist.
func (s *AnonymousListStore) CreateTask(listID, title, description string) (*model.AnonymousTask, error) {
	return s.taskMutation(listID, func(tx *sql.Tx) (*model.AnonymousTask, error) {
		row := tx.QueryRow(
			`INSERT INTO anonymous_tasks (list_id, title, description) VALUES (?, ?, ?) RETURNING `+anonTaskCols,
			listID, title, description,
		)
		return scanAnonTask(row)
	})
}

func (s *AnonymousListStore) GetTask(listID string, taskID int64) (*model.AnonymousTask, error) {
	row := s.db.QueryRow(
		`SELECT `+anonTaskCols+` FROM anonymous_tasks WHERE id = ? AND list_id = ?`,
		taskID, listID,
	)
	t, err := scanAnonTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get anonymous task: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update scoped by task id and list id in one
// statement, then bumps the list's updated_at. (nil, nil) when no row matched.
func (s *AnonymousListStore) UpdateTask(listID string, taskID int64, upd TaskUpdate) (*model.AnonymousTask, error) {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
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
	args = append(args, taskID, listID)

	return s.taskMutation(listID, func(tx *sql.Tx) (*model.AnonymousTask, error) {
		row := tx.QueryRow(
			`UPDATE anonymous_tasks SET `+strings.Join(sets, ", ")+` WHERE id = ? AND list_id = ? RETURNING `+anonTaskCols,
			args...,
		)
		return scanAnonTask(row)
	})
}

// DeleteTask removes the task scoped by list id; (nil, nil) when no row
// matched.
func (s *AnonymousListStore) DeleteTask(listID string, taskID int64) (*model.AnonymousTask, error) {
	return s.taskMutation(listID, func(tx *sql.Tx) (*model.AnonymousTask, error) {
		row := tx.QueryRow(
			`DELETE FROM anonymous_tasks WHERE id = ? AND list_id = ? RETURNING `+anonTaskCols,
			taskID, listID,
		)
		return scanAnonTask(row)
	})
}

// AppendTaskAttachment appends a blob key to the task's attachment list,
// scoped by list id.
func (s *AnonymousListStore) AppendTaskAttachment(listID string, taskID int64, key string) (*model.AnonymousTask, error) {
	return s.taskMutation(listID, func(tx *sql.Tx) (*model.AnonymousTask, error) {
		row := tx.QueryRow(
			`UPDATE anonymous_tasks SET attachments = json_insert(attachments, '$[#]', ?), updated_at = CURRENT_TIMESTAMP WHERE id = ? AND list_id = ? RETURNING `+anonTaskCols,
			key, taskID, listID,
		)
		return scanAnonTask(row)
	})
}

// taskMutation runs a single task statement and the list updated_at bump in
// one transaction. A zero-row mutation commits nothing and returns (nil, nil).
func (s *AnonymousListStore) taskMutation(listID string, fn func(*sql.Tx) (*model.AnonymousTask, error)) (*model.AnonymousTask, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	t, err := fn(tx)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("anonymous task mutation: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE anonymous_lists SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		listID,
	); err != nil {
		return nil, fmt.Errorf("bump list updated_at: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}
