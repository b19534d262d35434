package models

import (
	"fmt"
	"slices"
	"strings"
)

// Recurrence determines what happens to a reminder after it fires
type Recurrence string

const (
	RecurrenceOff     Recurrence = "off"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// RecurringOptions lists the recurrences a user may request
var RecurringOptions = []Recurrence{
	RecurrenceDaily,
	RecurrenceWeekly,
	RecurrenceMonthly,
	RecurrenceYearly,
}

// RecurrenceHelp is shown when a requested recurrence is not recognised
const RecurrenceHelp = "The value for `recurring` must be 'daily', 'weekly', 'monthly' or 'yearly' (leave empty for non-recurring)."

// ParseRecurrence maps user input to a Recurrence. Empty input means off;
// anything else must case-insensitively match one of RecurringOptions.
func ParseRecurrence(s string) (Recurrence, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return RecurrenceOff, true
	}
	r := Recurrence(s)
	if slices.Contains(RecurringOptions, r) {
		return r, true
	}
	return "", false
}

// IsRecurring reports whether the reminder is rescheduled after firing
func (r Recurrence) IsRecurring() bool {
	return slices.Contains(RecurringOptions, r)
}

// Reminder represents a scheduled notification for one or more people
type Reminder struct {
	ID int `json:"id"`
	// FireTime is the canonical yyyy-mm-dd HH:MM:SS instant in the service timezone
	FireTime       string     `json:"fire_time"`
	RecipientNames []string   `json:"recipient_names"`
	Recurrence     Recurrence `json:"recurrence"`
	Content        string     `json:"content"`
	LinkedTaskID   *int       `json:"linked_task_id,omitempty"`
	// AnchorDay is the day of month monthly and yearly repeats aim for
	// once a shorter month has clamped FireTime
	AnchorDay int `json:"anchor_day,omitempty"`
}

// HasRecipient reports whether name is among the reminder's recipients
func (r *Reminder) HasRecipient(name string) bool {
	return slices.Contains(r.RecipientNames, NormalizeName(name))
}

// Clone returns a deep copy, used to snapshot a reminder before it is rescheduled
func (r *Reminder) Clone() *Reminder {
	c := *r
	c.RecipientNames = slices.Clone(r.RecipientNames)
	if r.LinkedTaskID != nil {
		id := *r.LinkedTaskID
		c.LinkedTaskID = &id
	}
	return &c
}

// String renders the reminder for logs and plain-text output
func (r *Reminder) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s (at %s)", r.ID, r.Content, r.FireTime)
	if r.Recurrence.IsRecurring() {
		fmt.Fprintf(&b, " (recurring %s)", r.Recurrence)
	}
	if r.LinkedTaskID != nil {
		fmt.Fprintf(&b, " (see task [%d])", *r.LinkedTaskID)
	}
	return b.String()
}

// NewReminder holds the loosely-typed input for creating a reminder. Every
// field is optional; missing values may be inferred from the linked task.
type NewReminder struct {
	Time       string
	Names      []string
	Recurrence string
	Content    string
	TaskID     *int
}
