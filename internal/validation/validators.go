package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/benvon/smart-reminders/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()
	Validate.RegisterTagNameFunc(jsonFieldName)

	if err := Validate.RegisterValidation("recurrence", validateRecurrence); err != nil {
		panic(fmt.Sprintf("failed to register recurrence validator: %v", err))
	}
}

// RegisterPersonRequest is the body of POST /api/v1/people
type RegisterPersonRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	DisplayName string `json:"display_name" validate:"required,max=128"`
	ExternalID  string `json:"external_id" validate:"max=128"`
}

// CreateTaskRequest is the body of POST /api/v1/tasks. An empty name
// means the caller.
type CreateTaskRequest struct {
	Name     string `json:"name" validate:"max=64"`
	Content  string `json:"content" validate:"required,max=2000"`
	Deadline string `json:"deadline" validate:"max=64"`
}

// CreateReminderRequest is the body of POST /api/v1/reminders. Every
// field is optional; gaps are filled from the linked task.
type CreateReminderRequest struct {
	Time      string   `json:"time" validate:"max=64"`
	Names     []string `json:"names" validate:"max=32,dive,max=64"`
	Recurring string   `json:"recurring" validate:"recurrence"`
	Content   string   `json:"content" validate:"max=2000"`
	TaskID    *int     `json:"task_id" validate:"omitempty,min=1"`
}

// Sanitize cleans the free-text fields in place
func (r *CreateTaskRequest) Sanitize() {
	r.Name = SanitizeText(r.Name)
	r.Content = SanitizeText(r.Content)
	r.Deadline = SanitizeText(r.Deadline)
}

// Sanitize cleans the free-text fields in place
func (r *CreateReminderRequest) Sanitize() {
	r.Time = SanitizeText(r.Time)
	r.Content = SanitizeText(r.Content)
	for i, name := range r.Names {
		r.Names[i] = SanitizeText(name)
	}
}

// Sanitize cleans the free-text fields in place
func (r *RegisterPersonRequest) Sanitize() {
	r.Name = SanitizeText(r.Name)
	r.DisplayName = SanitizeText(r.DisplayName)
	r.ExternalID = strings.TrimSpace(r.ExternalID)
}

// FieldError is a validation failure whose message can be shown to the caller
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// Struct validates v and reports the first failing field as a *FieldError
func Struct(v any) error {
	err := Validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}
	fe := validationErrors[0]
	return &FieldError{Field: fe.Field(), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "recurrence":
		return models.RecurrenceHelp
	case "required":
		return fmt.Sprintf("The value for `%s` is required.", fe.Field())
	case "max":
		return fmt.Sprintf("The value for `%s` is too long (maximum %s).", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("The value for `%s` must be at least %s.", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("The value for `%s` is invalid.", fe.Field())
	}
}

// validateRecurrence accepts the empty string and the recurring options
func validateRecurrence(fl validator.FieldLevel) bool {
	_, ok := models.ParseRecurrence(fl.Field().String())
	return ok
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
