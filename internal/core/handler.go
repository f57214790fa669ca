package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/graphql-go/graphql"
	"go.uber.org/zap"

	"github.com/hunghnUIT/seft-203/internal/middleware"
	"github.com/hunghnUIT/seft-203/internal/models"
)

type UserService interface {
	Register(ctx context.Context, email, name, password string) error
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, email string) error
}

type TaskRepository interface {
	Create(ctx context.Context, email, note string) (*models.Task, error)
	List(ctx context.Context, email string) ([]models.Task, error)
	Get(ctx context.Context, email, taskID string) (*models.Task, error)
	Update(ctx context.Context, email, taskID string, update models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, email, taskID string) error
	SearchByNote(ctx context.Context, email string, checked bool, substring string) ([]models.Task, error)
	Report(ctx context.Context, email string) (*models.TaskReport, error)
	Import(ctx context.Context, email, body string) (int, error)
}

type Handler struct {
	users  UserService
	tasks  TaskRepository
	schema graphql.Schema
	logger *zap.Logger
}

func NewHandler(users UserService, tasks TaskRepository, schema graphql.Schema, logger *zap.Logger) *Handler {
	return &Handler{users: users, tasks: tasks, schema: schema, logger: logger}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	writeFailure(w, status, err.Error())
}

func principal(w http.ResponseWriter, r *http.Request) (string, bool) {
	email, ok := middleware.Principal(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "Unauthorized")
	}
	return email, ok
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		writeFailure(w, http.StatusBadRequest, "Email, password, and name are required")
		return
	}

	if err := h.users.Register(r.Context(), req.Email, req.Name, req.Password); err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"message": "Verification email sent"})
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeFailure(w, http.StatusBadRequest, "Verification token is required")
		return
	}

	user, err := h.users.VerifyEmail(r.Context(), token)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeFailure(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, models.LoginResponse{AccessToken: token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	email, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.users.Logout(r.Context(), email); err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	email, ok := principal(w, r)
	if !ok {
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Note == "" {
		writeFailure(w, http.StatusBadRequest, "Task's note is required")
		return
	}

	task, err := h.tasks.Create(r.Context(), email, req.Note)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, task)
}

func (h *Handler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	email, ok := principal(w, r)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(r.Context(), email)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *Handler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	email, ok := principal(w, r)
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), email, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	if task == nil {
		writeFailure(w, http.StatusNotFound, "Not found")
		return
	}
	writeSuccess(w, http.StatusOK, task)
}

func (h *Handler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	email, ok := principal(w, r)
	if !ok {
		return
	}

	var update models.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.Note == nil && update.IsChecked == nil {
		writeFailure(w, http.StatusBadRequest, "Not enough param and/or update body")
		return
	}

	task, err := h.tasks.Update(r.Context(), email, mux.Vars(r)["id"], update)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, task)
}

func (h *Handler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	email, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), email, mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

func (h *Handler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	email, ok := principal(w, r)
	if !ok {
		return
	}

	checked, err := strconv.ParseBool(r.URL.Query().Get("isChecked"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "isChecked must be true or false")
		return
	}

	tasks, err := h.tasks.SearchByNote(r.Context(), email, checked, r.URL.Query().Get("note"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	email, ok := principal(w, r)
	if !ok {
		return
	}

	report, err := h.tasks.Report(r.Context(), email)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}

func (h *Handler) ImportTasks(w http.ResponseWriter, r *http.Request) {
	email, ok := principal(w, r)
	if !ok {
		return
	}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "text/") {
		h.fail(w, fmt.Errorf("%w: payload must be plain text", ErrInvalidData))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Failed to read import payload")
		return
	}

	count, err := h.tasks.Import(r.Context(), email, string(body))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int{"count": count})
}

func (h *Handler) GraphQL(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Failed to read query")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:        h.schema,
		RequestString: string(body),
		Context:       r.Context(),
	})
	if len(result.Errors) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"errors":  result.Errors,
		})
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"data": result.Data})
}

// Routes registers every endpoint. Authenticated routes sit behind the
// authorizer middleware; registration, verification and login do not.
func (h *Handler) Routes(router *mux.Router, authorizer *middleware.Authorizer) {
	router.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	router.HandleFunc("/verify", h.VerifyEmail).Methods(http.MethodGet)
	router.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	authed := router.NewRoute().Subrouter()
	authed.Use(middleware.Auth(authorizer))
	authed.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	authed.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	authed.HandleFunc("/tasks", h.GetAllTasks).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/search", h.SearchTasks).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/import", h.ImportTasks).Methods(http.MethodPost)
	authed.HandleFunc("/tasks/{id}", h.GetTaskByID).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{id}", h.UpdateTaskByID).Methods(http.MethodPut)
	authed.HandleFunc("/tasks/{id}", h.DeleteTaskByID).Methods(http.MethodDelete)
	authed.HandleFunc("/report", h.Report).Methods(http.MethodGet)
	authed.HandleFunc("/graphql", h.GraphQL).Methods(http.MethodPost)
}
