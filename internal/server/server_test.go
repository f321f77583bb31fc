package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atiohaidar/todolist/internal/auth"
	"github.com/atiohaidar/todolist/internal/blob"
	"github.com/atiohaidar/todolist/internal/database"
	"github.com/atiohaidar/todolist/internal/model"
)

func setupTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.DiscardHandler)
	tokens := auth.NewTokenIssuer([]byte("test-secret"))
	return New(db, blob.NewMemoryStore(), tokens, logger).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

type authResp struct {
	Token string `json:"token"`
	User  struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

func registerUser(t *testing.T, h http.Handler, username, password string) authResp {
	t.Helper()
	rec := doJSON(t, h, "POST", "/api/auth/register", "", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("register %s: status = %d, body = %s", username, rec.Code, rec.Body.String())
	}
	return decode[authResp](t, rec)
}

func TestHealth(t *testing.T) {
	h := setupTestServer(t)

	rec := doJSON(t, h, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthTaskScenario(t *testing.T) {
	h := setupTestServer(t)

	// Register alice
	alice := registerUser(t, h, "alice", "secret1")
	if alice.Token == "" {
		t.Fatal("register should return a token")
	}
	if alice.User.Username != "alice" {
		t.Errorf("username = %q, want alice", alice.User.Username)
	}

	// Register alice again → 409
	rec := doJSON(t, h, "POST", "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "secret1",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: status = %d, want 409", rec.Code)
	}

	// Wrong password → 401
	rec = doJSON(t, h, "POST", "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login: status = %d, want 401", rec.Code)
	}

	// Correct login
	rec = doJSON(t, h, "POST", "/api/auth/login", "", map[string]string{
		"username": "alice", "password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d", rec.Code)
	}
	login := decode[authResp](t, rec)
	if login.User.ID != alice.User.ID {
		t.Errorf("login user id = %d, want %d", login.User.ID, alice.User.ID)
	}

	// Create a task
	rec = doJSON(t, h, "POST", "/api/tasks", login.Token, map[string]string{"title": "buy milk"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create task: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	task := decode[model.Task](t, rec)
	if task.Title != "buy milk" {
		t.Errorf("title = %q, want buy milk", task.Title)
	}
	if task.Completed {
		t.Error("new task should have completed:false")
	}

	// List contains it
	rec = doJSON(t, h, "GET", "/api/tasks", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list tasks: status = %d", rec.Code)
	}
	tasks := decode[[]model.Task](t, rec)
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("tasks = %+v, want the created task", tasks)
	}

	// Delete, then the list is empty
	rec = doJSON(t, h, "DELETE", fmt.Sprintf("/api/tasks/%d", task.ID), login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete task: status = %d", rec.Code)
	}

	rec = doJSON(t, h, "GET", "/api/tasks", login.Token, nil)
	tasks = decode[[]model.Task](t, rec)
	if len(tasks) != 0 {
		t.Fatalf("tasks after delete = %+v, want empty array", tasks)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := setupTestServer(t)

	rec := doJSON(t, h, "POST", "/api/auth/register", "", map[string]string{
		"username": "alice", "password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("short password: status = %d, want 400", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := setupTestServer(t)

	rec := doJSON(t, h, "GET", "/api/tasks", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, h, "GET", "/api/tasks", "bogus-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus token: status = %d, want 401", rec.Code)
	}
}

func TestTaskOwnershipIsolation(t *testing.T) {
	h := setupTestServer(t)

	alice := registerUser(t, h, "alice", "secret1")
	bob := registerUser(t, h, "bob", "secret2")

	rec := doJSON(t, h, "POST", "/api/tasks", alice.Token, map[string]string{"title": "alice's task"})
	task := decode[model.Task](t, rec)

	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	// Bob's attempts all look like the task does not exist.
	rec = doJSON(t, h, "PUT", path, bob.Token, map[string]any{"completed": true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("bob update: status = %d, want 404", rec.Code)
	}
	rec = doJSON(t, h, "DELETE", path, bob.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("bob delete: status = %d, want 404", rec.Code)
	}

	// Alice's task is unaffected.
	rec = doJSON(t, h, "GET", "/api/tasks", alice.Token, nil)
	tasks := decode[[]model.Task](t, rec)
	if len(tasks) != 1 || tasks[0].Completed {
		t.Fatalf("alice's tasks = %+v, want one untouched task", tasks)
	}
}

func TestTaskPartialUpdate(t *testing.T) {
	h := setupTestServer(t)

	alice := registerUser(t, h, "alice", "secret1")

	rec := doJSON(t, h, "POST", "/api/tasks", alice.Token, map[string]string{
		"title": "buy milk", "description": "whole milk",
	})
	task := decode[model.Task](t, rec)

	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	rec = doJSON(t, h, "PUT", path, alice.Token, map[string]any{"completed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d", rec.Code)
	}
	updated := decode[model.Task](t, rec)
	if !updated.Completed || updated.Title != "buy milk" || updated.Description != "whole milk" {
		t.Errorf("updated = %+v, want only completed flipped", updated)
	}

	// Empty update body → 400
	rec = doJSON(t, h, "PUT", path, alice.Token, map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty update: status = %d, want 400", rec.Code)
	}
}

func uploadFile(t *testing.T, h http.Handler, path, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAttachmentUploadAndDownload(t *testing.T) {
	h := setupTestServer(t)

	alice := registerUser(t, h, "alice", "secret1")
	bob := registerUser(t, h, "bob", "secret2")

	rec := doJSON(t, h, "POST", "/api/tasks", alice.Token, map[string]string{"title": "with file"})
	task := decode[model.Task](t, rec)

	rec = uploadFile(t, h, fmt.Sprintf("/api/tasks/%d/attachments", task.ID), alice.Token, "notes.txt", "hello")
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	att := decode[model.Attachment](t, rec)
	if att.Filename != "notes.txt" || att.Size != 5 {
		t.Errorf("attachment = %+v, want notes.txt of 5 bytes", att)
	}

	// Key appears on the task
	rec = doJSON(t, h, "GET", "/api/tasks", alice.Token, nil)
	tasks := decode[[]model.Task](t, rec)
	if len(tasks) != 1 || len(tasks[0].Attachments) != 1 || tasks[0].Attachments[0] != att.Key {
		t.Fatalf("tasks = %+v, want attachment key %q", tasks, att.Key)
	}

	// Owner downloads it
	rec = doJSON(t, h, "GET", "/api/tasks/attachments/"+att.Key, alice.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download: status = %d", rec.Code)
	}
	if rec.Body.String() != "hello" {
		t.Errorf("downloaded = %q, want hello", rec.Body.String())
	}

	// Bob cannot fetch alice's key even with a valid token
	rec = doJSON(t, h, "GET", "/api/tasks/attachments/"+att.Key, bob.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-account download: status = %d, want 404", rec.Code)
	}

	// Upload to someone else's task id → 404
	rec = uploadFile(t, h, fmt.Sprintf("/api/tasks/%d/attachments", task.ID), bob.Token, "x.txt", "x")
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-account upload: status = %d, want 404", rec.Code)
	}
}

type listResp struct {
	List      model.AnonymousList `json:"list"`
	SharePath string              `json:"share_path"`
}

func TestAnonymousListFlow(t *testing.T) {
	h := setupTestServer(t)

	rec := doJSON(t, h, "POST", "/api/anonymous-lists", "", map[string]string{"name": "party prep"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create list: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	created := decode[listResp](t, rec)
	if created.List.ID == "" {
		t.Fatal("expected list id")
	}
	if created.SharePath != "/api/anonymous-lists/"+created.List.ID {
		t.Errorf("share_path = %q", created.SharePath)
	}

	base := "/api/anonymous-lists/" + created.List.ID

	// Any holder of the id can read it, no token needed
	rec = doJSON(t, h, "GET", base, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get list: status = %d", rec.Code)
	}

	// Create, update, delete a task
	rec = doJSON(t, h, "POST", base+"/tasks", "", map[string]string{"title": "bring snacks"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create task: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	task := decode[model.AnonymousTask](t, rec)

	rec = doJSON(t, h, "PUT", fmt.Sprintf("%s/tasks/%d", base, task.ID), "", map[string]any{"completed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("update task: status = %d", rec.Code)
	}

	rec = doJSON(t, h, "GET", base+"/tasks", "", nil)
	tasks := decode[[]model.AnonymousTask](t, rec)
	if len(tasks) != 1 || !tasks[0].Completed {
		t.Fatalf("tasks = %+v, want one completed task", tasks)
	}

	rec = doJSON(t, h, "DELETE", fmt.Sprintf("%s/tasks/%d", base, task.ID), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete task: status = %d", rec.Code)
	}

	// Unknown list id gets a uniform 404 everywhere
	unknown := "/api/anonymous-lists/not-a-real-id"
	for _, tc := range []struct{ method, path string }{
		{"GET", unknown},
		{"GET", unknown + "/tasks"},
		{"POST", unknown + "/tasks"},
	} {
		var body any
		if tc.method == "POST" {
			body = map[string]string{"title": "x"}
		}
		rec = doJSON(t, h, tc.method, tc.path, "", body)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: status = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}

	rec = doJSON(t, h, "PUT", fmt.Sprintf("%s/tasks/%d", unknown, task.ID), "", map[string]any{"completed": false})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update under unknown list: status = %d, want 404", rec.Code)
	}
}
