package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/logger"
	"github.com/benvon/smart-reminders/internal/validation"
)

// TaskHandler handles to-do list changes
type TaskHandler struct {
	tasks  database.TaskRepositoryInterface
	logger *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(tasks database.TaskRepositoryInterface, logger *zap.Logger) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{tasks: tasks, logger: logger}
}

// RegisterRoutes registers task routes on the given router
// The router should already have the /tasks prefix
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.RemoveTask).Methods("DELETE")
}

// CreateTask adds a task to a person's list, the caller's when no name is given
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req validation.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Sanitize()
	if err := validation.Struct(req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	owner, err := resolveName(r, req.Name)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	task, err := h.tasks.Create(r.Context(), owner, req.Content, req.Deadline)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	h.logger.Info("task_created",
		zap.Int("task_id", task.ID),
		zap.String("owner", logger.SanitizeName(task.OwnerName)),
		zap.String("deadline", task.Deadline),
	)
	respondJSON(w, http.StatusCreated, task)
}

// RemoveTask marks a task as completed, removing its linked reminders
func (h *TaskHandler) RemoveTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.Remove(r.Context(), id)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	h.logger.Info("task_removed",
		zap.Int("task_id", task.ID),
		zap.String("owner", logger.SanitizeName(task.OwnerName)),
	)
	respondJSON(w, http.StatusOK, task)
}
