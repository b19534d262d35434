package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/benvon/smart-reminders/internal/models"
)

func TestStruct_CreateReminderRequest(t *testing.T) {
	t.Parallel()

	taskID := 3
	zero := 0

	tests := []struct {
		name      string
		req       CreateReminderRequest
		wantField string
		wantMsg   string
	}{
		{name: "empty request is structurally valid", req: CreateReminderRequest{}},
		{name: "daily", req: CreateReminderRequest{Recurring: "daily", Content: "x"}},
		{name: "mixed case recurrence", req: CreateReminderRequest{Recurring: "Weekly"}},
		{name: "linked task", req: CreateReminderRequest{TaskID: &taskID}},
		{name: "hourly is rejected", req: CreateReminderRequest{Recurring: "hourly"}, wantField: "recurring", wantMsg: models.RecurrenceHelp},
		{name: "off is rejected", req: CreateReminderRequest{Recurring: "off"}, wantField: "recurring", wantMsg: models.RecurrenceHelp},
		{name: "task id zero", req: CreateReminderRequest{TaskID: &zero}, wantField: "task_id"},
		{name: "content too long", req: CreateReminderRequest{Content: strings.Repeat("a", 2001)}, wantField: "content"},
		{name: "name too long", req: CreateReminderRequest{Names: []string{strings.Repeat("a", 65)}}, wantField: "names[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() unexpected error: %v", err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) {
				t.Fatalf("Struct() error = %v, want *FieldError", err)
			}
			if fe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", fe.Field, tt.wantField)
			}
			if tt.wantMsg != "" && fe.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", fe.Message, tt.wantMsg)
			}
		})
	}
}

func TestStruct_RequiredFields(t *testing.T) {
	t.Parallel()

	err := Struct(RegisterPersonRequest{DisplayName: "Alice"})
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "name" {
		t.Fatalf("Expected name field error, got %v", err)
	}
	if !strings.Contains(fe.Message, "`name` is required") {
		t.Errorf("Unexpected message %q", fe.Message)
	}

	err = Struct(CreateTaskRequest{Name: "alice"})
	if !errors.As(err, &fe) || fe.Field != "content" {
		t.Fatalf("Expected content field error, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	req := CreateReminderRequest{
		Time:    "  tomorrow 9:00 ",
		Names:   []string{" bob\x00 "},
		Content: "call\x07 mom\n",
	}
	req.Sanitize()
	if req.Time != "tomorrow 9:00" {
		t.Errorf("Time = %q", req.Time)
	}
	if req.Names[0] != "bob" {
		t.Errorf("Names[0] = %q", req.Names[0])
	}
	if req.Content != "call mom" {
		t.Errorf("Content = %q", req.Content)
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"  hello  ", "hello"},
		{"line\nbreak\ttab", "line\nbreak\ttab"},
		{"bell\x07", "bell"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeText(tt.input); got != tt.want {
			t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
