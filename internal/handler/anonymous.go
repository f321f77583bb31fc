package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/atiohaidar/todolist/internal/blob"
	"github.com/atiohaidar/todolist/internal/model"
	"github.com/atiohaidar/todolist/internal/store"
)

const defaultListName = "Untitled list"

// AnonymousListHandler serves the shared-list routes. There is no account
// auth here: the list id in the path is the credential, and clients poll the
// list's updated_at to pick up edits from other holders of the id.
type AnonymousListHandler struct {
	listStore *store.AnonymousListStore
	blobs     blob.Store
	logger    *slog.Logger
}

func NewAnonymousListHandler(ls *store.AnonymousListStore, blobs blob.Store, logger *slog.Logger) *AnonymousListHandler {
	return &AnonymousListHandler{listStore: ls, blobs: blobs, logger: logger}
}

type listCreateRequest struct {
	Name string `json:"name"`
}

func (h *AnonymousListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req listCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = defaultListName
	}

	list, err := h.listStore.CreateList(name)
	if err != nil {
		h.logger.Error("create anonymous list", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create list"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"list":       list,
		"share_path": "/api/anonymous-lists/" + list.ID,
	})
}

func (h *AnonymousListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	list, ok := h.resolveList(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AnonymousListHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	list, ok := h.resolveList(w, r)
	if !ok {
		return
	}

	tasks, err := h.listStore.ListTasks(list.ID)
	if err != nil {
		h.logger.Error("list anonymous tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}
	if tasks == nil {
		tasks = []model.AnonymousTask{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *AnonymousListHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	list, ok := h.resolveList(w, r)
	if !ok {
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

	task, err := h.listStore.CreateTask(list.ID, req.Title, req.Description)
	if err != nil {
		h.logger.Error("create anonymous task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *AnonymousListHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")

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

	task, err := h.listStore.UpdateTask(listID, taskID, upd)
	if err != nil {
		h.logger.Error("update anonymous task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *AnonymousListHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")

	taskID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	task, err := h.listStore.DeleteTask(listID, taskID)
	if err != nil {
		h.logger.Error("delete anonymous task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}
	if task == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Task not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
}

func (h *AnonymousListHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")

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
	att.Key = blob.NewKey(blob.ListNamespace(listID), att.Filename, time.Now())

	if err := h.blobs.Put(r.Context(), att.Key, data, att.Type); err != nil {
		h.logger.Error("store attachment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store attachment"})
		return
	}

	task, err := h.listStore.AppendTaskAttachment(listID, taskID, att.Key)
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

func (h *AnonymousListHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("list_id")

	key := r.PathValue("key")
	if !blob.InNamespace(key, blob.ListNamespace(listID)) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Attachment not found"})
		return
	}

	serveBlob(w, r, h.blobs, key, h.logger)
}

// resolveList loads the list named in the path, writing a 404 when it does
// not exist. Unknown and unguessed ids look identical to the caller.
func (h *AnonymousListHandler) resolveList(w http.ResponseWriter, r *http.Request) (*model.AnonymousList, bool) {
	list, err := h.listStore.GetList(r.PathValue("list_id"))
	if err != nil {
		h.logger.Error("get anonymous list", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get list"})
		return nil, false
	}
	if list == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "List not found"})
		return nil, false
	}
	return list, true
}
