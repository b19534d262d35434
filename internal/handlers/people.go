package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/logger"
	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/request"
	"github.com/benvon/smart-reminders/internal/timeutil"
	"github.com/benvon/smart-reminders/internal/validation"
)

// PeopleHandler handles person registration and per-person listings
type PeopleHandler struct {
	people database.PersonRepositoryInterface
	clock  *timeutil.Clock
	logger *zap.Logger
}

// NewPeopleHandler creates a new people handler
func NewPeopleHandler(people database.PersonRepositoryInterface, clock *timeutil.Clock, logger *zap.Logger) *PeopleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeopleHandler{people: people, clock: clock, logger: logger}
}

// RegisterRoutes registers people routes on the given router
// The router should already have the /people prefix
func (h *PeopleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListPeople).Methods("GET")
	r.HandleFunc("", h.RegisterPerson).Methods("POST")
	r.HandleFunc("/{name}", h.RemovePerson).Methods("DELETE")
	r.HandleFunc("/{name}/tasks", h.ListTasks).Methods("GET")
	r.HandleFunc("/{name}/reminders", h.ListReminders).Methods("GET")
}

// TaskListResponse is a person's to-do list
type TaskListResponse struct {
	Person  *models.Person `json:"person"`
	Tasks   []*models.Task `json:"tasks"`
	Message string         `json:"message,omitempty"`
}

// ReminderListResponse lists every reminder naming a person, including
// reminders shared with other people
type ReminderListResponse struct {
	Person    *models.Person      `json:"person"`
	Reminders []*ReminderResponse `json:"reminders"`
	Message   string              `json:"message,omitempty"`
}

// ListPeople lists every registered person
func (h *PeopleHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.people.List(r.Context())
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	respondJSON(w, http.StatusOK, people)
}

// RegisterPerson adds a person. Without an external_id the caller
// registers themselves, which is refused when they are already known.
func (h *PeopleHandler) RegisterPerson(w http.ResponseWriter, r *http.Request) {
	var req validation.RegisterPersonRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Sanitize()
	if err := validation.Struct(req); err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	externalID := req.ExternalID
	if externalID == "" {
		caller := request.CallerFromContext(r)
		if caller == nil || caller.ExternalID == "" {
			respondError(w, r, &validation.FieldError{
				Field:   "external_id",
				Message: fmt.Sprintf("Provide an `external_id` or send the `%s` header to register yourself.", request.CallerHeader),
			}, h.logger)
			return
		}
		if caller.Known() {
			respondError(w, r, &database.Error{
				Kind: database.KindDuplicateExternalID,
				Message: fmt.Sprintf("Your id (`%s`) is already known under the name %s (`%s`), please provide a specific id for another person.",
					caller.ExternalID, caller.Person.DisplayName, caller.Person.Name),
			}, h.logger)
			return
		}
		externalID = caller.ExternalID
	}

	person, err := h.people.Register(r.Context(), req.Name, req.DisplayName, externalID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	h.logger.Info("person_registered",
		zap.Int("person_id", person.ID),
		zap.String("name", logger.SanitizeName(person.Name)),
		zap.String("external_id", logger.SanitizeExternalID(person.ExternalID)),
	)
	respondJSON(w, http.StatusCreated, person)
}

// RemovePerson removes a person with their tasks and reminders
func (h *PeopleHandler) RemovePerson(w http.ResponseWriter, r *http.Request) {
	name, err := resolveName(r, mux.Vars(r)["name"])
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	person, err := h.people.Remove(r.Context(), name)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	h.logger.Info("person_removed",
		zap.Int("person_id", person.ID),
		zap.String("name", logger.SanitizeName(person.Name)),
	)
	respondJSON(w, http.StatusOK, person)
}

// ListTasks returns a person's to-do list; "me" is the caller
func (h *PeopleHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	person, ok := h.person(w, r)
	if !ok {
		return
	}
	tasks, err := h.people.ListTasks(r.Context(), person.Name)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	resp := TaskListResponse{Person: person, Tasks: tasks}
	if len(tasks) == 0 {
		resp.Message = EmptyListMessage
	}
	respondJSON(w, http.StatusOK, resp)
}

// ListReminders returns every reminder naming a person; "me" is the caller
func (h *PeopleHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	person, ok := h.person(w, r)
	if !ok {
		return
	}
	reminders, err := h.people.ListReminders(r.Context(), person.Name)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}
	views := newReminderResponses(h.clock, reminders, h.logger)

	resp := ReminderListResponse{Person: person, Reminders: views}
	if len(views) == 0 {
		resp.Message = EmptyListMessage
	}
	respondJSON(w, http.StatusOK, resp)
}

// person resolves the {name} route variable to a registered person
func (h *PeopleHandler) person(w http.ResponseWriter, r *http.Request) (*models.Person, bool) {
	name, err := resolveName(r, mux.Vars(r)["name"])
	if err != nil {
		respondError(w, r, err, h.logger)
		return nil, false
	}
	person, err := h.people.GetByName(r.Context(), name)
	if err != nil {
		respondError(w, r, err, h.logger)
		return nil, false
	}
	return person, true
}
