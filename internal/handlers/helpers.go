package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/logger"
	"github.com/benvon/smart-reminders/internal/middleware"
	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/request"
	"github.com/benvon/smart-reminders/internal/validation"
)

// EmptyListMessage accompanies an empty task or reminder listing
const EmptyListMessage = "Wow, such empty..."

// Error kinds produced by the handlers themselves
const (
	ErrorKindUnknownCaller = "unknown_caller"
	ErrorKindValidation    = "validation_error"
)

// UnknownCallerMessage is shown when a command needs the caller's own
// person and the caller has not registered
const UnknownCallerMessage = "You are not yet known to the system. Use `POST /api/v1/people` to get started."

var errUnknownCaller = errors.New("caller is not registered")

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   logger.SanitizeString(message, logger.MaxErrorMessageLength),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError maps err to a response. User-facing errors are shown as-is;
// anything else is logged and replaced by a generic message.
func respondError(w http.ResponseWriter, r *http.Request, err error, log *zap.Logger) {
	var fieldErr *validation.FieldError
	switch {
	case errors.Is(err, errUnknownCaller):
		respondJSONError(w, http.StatusForbidden, ErrorKindUnknownCaller, UnknownCallerMessage)
	case errors.As(err, &fieldErr):
		respondJSONError(w, http.StatusBadRequest, ErrorKindValidation, fieldErr.Message)
	case database.IsUserFacing(err):
		kind := database.KindOf(err)
		respondJSONError(w, statusForKind(kind), string(kind), err.Error())
	default:
		log.Error("command_failed",
			zap.String("method", r.Method),
			zap.String("path", logger.SanitizePath(r.URL.Path)),
			zap.String("request_id", request.RequestIDFromContext(r.Context())),
			zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, middleware.ErrorKindInternal, middleware.InternalErrorMessage)
	}
}

func statusForKind(kind database.Kind) int {
	switch kind {
	case database.KindDuplicateName, database.KindDuplicateExternalID:
		return http.StatusConflict
	case database.KindNotFound, database.KindTaskNotFound:
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

// decodeJSON decodes the request body into dst and writes the error
// response itself when that fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, middleware.ErrorKindTooLarge,
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, middleware.ErrorKindBadRequest, "Invalid request body")
		return false
	}
	return true
}

// pathID parses the {id} route variable
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		respondJSONError(w, http.StatusBadRequest, middleware.ErrorKindBadRequest, "The id must be a positive number")
		return 0, false
	}
	return id, true
}

// resolveName maps the {name} route variable to a person name. An empty
// name or "me" refers to the caller, who must be registered.
func resolveName(r *http.Request, name string) (string, error) {
	if name != "" && name != "me" {
		return models.NormalizeName(name), nil
	}
	caller := request.CallerFromContext(r)
	if !caller.Known() {
		return "", errUnknownCaller
	}
	return caller.Person.Name, nil
}
