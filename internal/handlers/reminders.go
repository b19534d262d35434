package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/timeutil"
	"github.com/benvon/smart-reminders/internal/validation"
)

// ReminderHandler handles reminder scheduling
type ReminderHandler struct {
	reminders database.ReminderRepositoryInterface
	clock     *timeutil.Clock
	logger    *zap.Logger
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(reminders database.ReminderRepositoryInterface, clock *timeutil.Clock, logger *zap.Logger) *ReminderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderHandler{reminders: reminders, clock: clock, logger: logger}
}

// RegisterRoutes registers reminder routes on the given router
// The router should already have the /reminders prefix
func (h *ReminderHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.CreateReminder).Methods("POST")
	r.HandleFunc("/{id}", h.RemoveReminder).Methods("DELETE")
}

// ReminderResponse is a reminder together with its fire time as Unix
// seconds, for relative-time display by clients
type ReminderResponse struct {
	*models.Reminder
	Epoch int64 `json:"epoch"`
}

func newReminderResponse(clock *timeutil.Clock, reminder *models.Reminder) (*ReminderResponse, error) {
	epoch, err := clock.EpochSeconds(reminder.FireTime)
	if err != nil {
		return nil, fmt.Errorf("failed to convert fire time of reminder %d: %w", reminder.ID, err)
	}
	return &ReminderResponse{Reminder: reminder, Epoch: epoch}, nil
}

// newReminderResponses converts a listing. A record whose fire time cannot
// be read is logged and left out rather than failing the whole list.
func newReminderResponses(clock *timeutil.Clock, reminders []*models.Reminder, logger *zap.Logger) []*ReminderResponse {
	views := make([]*ReminderResponse, 0, len(reminders))
	for _, reminder := range reminders {
		view, err := newReminderResponse(clock, reminder)
		if err != nil {
			logger.Error("reminder_listing_record_skipped",
				zap.Int("reminder_id", reminder.ID),
				zap.String("fire_time", reminder.FireTime),
				zap.Error(err),
			)
			continue
		}
		views = append(views, view)
	}
	return views
}

// CreateReminder schedules a reminder. Without names or a linked task the
// caller is the only recipient.
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req validation.CreateReminderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Sanitize()
	if err := validation.Struct(req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	names := models.NormalizeNames(req.Names)
	if len(names) == 0 && req.TaskID == nil {
		self, err := resolveName(r, "")
		if err != nil {
			respondError(w, r, err, h.logger)
			return
		}
		names = []string{self}
	}

	reminder, err := h.reminders.Create(r.Context(), models.NewReminder{
		Time:       req.Time,
		Names:      names,
		Recurrence: req.Recurring,
		Content:    req.Content,
		TaskID:     req.TaskID,
	})
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	view, err := newReminderResponse(h.clock, reminder)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	h.logger.Info("reminder_created",
		zap.Int("reminder_id", reminder.ID),
		zap.String("fire_time", reminder.FireTime),
		zap.Strings("recipients", reminder.RecipientNames),
		zap.String("recurrence", string(reminder.Recurrence)),
	)
	respondJSON(w, http.StatusCreated, view)
}

// RemoveReminder deletes a reminder
func (h *ReminderHandler) RemoveReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	reminder, err := h.reminders.Remove(r.Context(), id)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	view, err := newReminderResponse(h.clock, reminder)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	h.logger.Info("reminder_removed", zap.Int("reminder_id", reminder.ID))
	respondJSON(w, http.StatusOK, view)
}
