package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atiohaidar/todolist/internal/auth"
	"github.com/atiohaidar/todolist/internal/blob"
	"github.com/atiohaidar/todolist/internal/model"
	"github.com/atiohaidar/todolist/internal/store"
)

type TaskHandler struct {
	taskStore *store.TaskStore
	blobs     blob.Store
	logger    *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, blobs blob.Store, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskStore: ts, blobs: blobs, logger: logger}
}

type taskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type taskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	tasks, err := h.taskStore.ListByUser(id.UserID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req taskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Title required"})
		return
	}

	task, err := h.taskStore.Create(id.UserID, req.Title, req.Description)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	taskID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	upd := store.TaskUpdate{Title: req.Title, Description: req.Description, Completed: req.Completed}
	if upd.Empty() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No updates provided"})
		return
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Title required"})
		return
	}

	task, err := h.taskStore.Update(taskID, id.UserID, upd)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}
	if task == nil {
		// Absent and not-owned are indistinguishable on purpose.
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	taskID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	task, err := h.taskStore.Delete(taskID, id.UserID)
	if err != nil {
		h.logger.Error("delete task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func (h *TaskHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	taskID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	att, data, errMsg := readAttachmentUpload(r)
	if errMsg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errMsg})
		return
	}
	att.Key = blob.NewKey(blob.UserNamespace(id.UserID), att.Filename, time.Now())

	if err := h.blobs.Put(r.Context(), att.Key, data, att.Type); err != nil {
		h.logger.Error("store attachment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store attachment"})
		return
	}

	task, err := h.taskStore.AppendAttachment(taskID, id.UserID, att.Key)
	if err != nil {
		h.logger.Error("append attachment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store attachment"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
		return
	}
	writeJSON(w, http.StatusOK, att)
}

func (h *TaskHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	key := r.PathValue("key")
	// A key outside the caller's namespace is reported exactly like a
	// missing one.
	if !blob.InNamespace(key, blob.UserNamespace(id.UserID)) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Attachment not found"})
		return
	}

	serveBlob(w, r, h.blobs, key, h.logger)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// readAttachmentUpload extracts the uploaded file from a multipart form.
// Returns the attachment metadata (without a key) and the file bytes, or a
// client error message.
func readAttachmentUpload(r *http.Request) (model.Attachment, []byte, string) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return model.Attachment{}, nil, "invalid multipart form"
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return model.Attachment{}, nil, "file is required"
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return model.Attachment{}, nil, "failed to read file"
	}

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		return model.Attachment{}, nil, "invalid filename"
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return model.Attachment{
		Filename: filename,
		Size:     int64(len(data)),
		Type:     contentType,
	}, data, ""
}

// sanitizeFilename strips any path components from an uploaded filename.
func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

func serveBlob(w http.ResponseWriter, r *http.Request, blobs blob.Store, key string, logger *slog.Logger) {
	data, contentType, err := blobs.Get(r.Context(), key)
	if errors.Is(err, blob.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Attachment not found"})
		return
	}
	if err != nil {
		logger.Error("get attachment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get attachment"})
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+blob.Filename(key)+`"`)
	w.Write(data)
}
