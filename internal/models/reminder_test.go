package models

import (
	"testing"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already normalized", "alice", "alice"},
		{"upper case", "Alice", "alice"},
		{"surrounding whitespace", "  Bob  ", "bob"},
		{"inner spaces", "Mary Jane Watson", "mary_jane_watson"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeNames_DropsEmpty(t *testing.T) {
	t.Parallel()

	got := NormalizeNames([]string{"Alice", "", "  ", "Bob Smith"})
	want := []string{"alice", "bob_smith"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %q at %d, got %q", want[i], i, got[i])
		}
	}
}

func TestParseRecurrence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		want   Recurrence
		wantOK bool
	}{
		{"", RecurrenceOff, true},
		{"daily", RecurrenceDaily, true},
		{"Weekly", RecurrenceWeekly, true},
		{" MONTHLY ", RecurrenceMonthly, true},
		{"yearly", RecurrenceYearly, true},
		{"off", "", false},
		{"hourly", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseRecurrence(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseRecurrence(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestReminder_Clone(t *testing.T) {
	t.Parallel()

	taskID := 4
	r := &Reminder{ID: 1, RecipientNames: []string{"alice"}, LinkedTaskID: &taskID}
	c := r.Clone()
	c.RecipientNames[0] = "bob"
	*c.LinkedTaskID = 9

	if r.RecipientNames[0] != "alice" {
		t.Errorf("Clone shares recipient slice with original")
	}
	if *r.LinkedTaskID != 4 {
		t.Errorf("Clone shares linked task id with original")
	}
}

func TestReminder_String(t *testing.T) {
	t.Parallel()

	taskID := 3
	r := &Reminder{
		ID:           7,
		FireTime:     "2024-06-01 10:00:00",
		Recurrence:   RecurrenceWeekly,
		Content:      "water plants",
		LinkedTaskID: &taskID,
	}
	want := "[7] water plants (at 2024-06-01 10:00:00) (recurring weekly) (see task [3])"
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
