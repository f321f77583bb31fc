package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/atiohaidar/todolist/internal/auth"
	"github.com/atiohaidar/todolist/internal/blob"
	"github.com/atiohaidar/todolist/internal/handler"
	"github.com/atiohaidar/todolist/internal/middleware"
	"github.com/atiohaidar/todolist/internal/store"
)

type Server struct {
	db     *sql.DB
	tokens *auth.TokenIssuer
	authH  *handler.AuthHandler
	taskH  *handler.TaskHandler
	anonH  *handler.AnonymousListHandler
	logger *slog.Logger
}

func New(db *sql.DB, blobs blob.Store, tokens *auth.TokenIssuer, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	taskStore := store.NewTaskStore(db)
	listStore := store.NewAnonymousListStore(db)

	authService := auth.NewService(userStore, tokens, logger.With("component", "auth"))

	return &Server{
		db:     db,
		tokens: tokens,
		authH:  handler.NewAuthHandler(authService, logger.With("component", "auth_handler")),
		taskH:  handler.NewTaskHandler(taskStore, blobs, logger.With("component", "task")),
		anonH:  handler.NewAnonymousListHandler(listStore, blobs, logger.With("component", "anonymous_list")),
		logger: logger,
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("POST /api/auth/register", s.authH.Register)
	outerMux.HandleFunc("POST /api/auth/login", s.authH.Login)
	outerMux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	// Anonymous list routes — the list id in the path is the credential
	outerMux.HandleFunc("POST /api/anonymous-lists", s.anonH.CreateList)
	outerMux.HandleFunc("GET /api/anonymous-lists/{list_id}", s.anonH.GetList)
	outerMux.HandleFunc("GET /api/anonymous-lists/{list_id}/tasks", s.anonH.ListTasks)
	outerMux.HandleFunc("POST /api/anonymous-lists/{list_id}/tasks", s.anonH.CreateTask)
	outerMux.HandleFunc("PUT /api/anonymous-lists/{list_id}/tasks/{id}", s.anonH.UpdateTask)
	outerMux.HandleFunc("DELETE /api/anonymous-lists/{list_id}/tasks/{id}", s.anonH.DeleteTask)
	outerMux.HandleFunc("POST /api/anonymous-lists/{list_id}/tasks/{id}/attachments", s.anonH.UploadAttachment)
	outerMux.HandleFunc("GET /api/anonymous-lists/{list_id}/attachments/{key...}", s.anonH.DownloadAttachment)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /api/tasks", s.taskH.List)
	protectedMux.HandleFunc("POST /api/tasks", s.taskH.Create)
	protectedMux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	protectedMux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	protectedMux.HandleFunc("POST /api/tasks/{id}/attachments", s.taskH.UploadAttachment)
	protectedMux.HandleFunc("GET /api/tasks/attachments/{key...}", s.taskH.DownloadAttachment)

	authMiddleware := middleware.RequireAuth(s.tokens)
	outerMux.Handle("/api/tasks", authMiddleware(protectedMux))
	outerMux.Handle("/api/tasks/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(middleware.CORS(outerMux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
