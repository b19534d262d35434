package models

import "fmt"

// Task represents an item on a person's to-do list
type Task struct {
	ID        int    `json:"id"`
	OwnerName string `json:"owner_name"`
	Content   string `json:"content"`
	// Deadline is a yyyy-mm-dd date, empty when the task has none
	Deadline string `json:"deadline,omitempty"`
}

// HasDeadline reports whether the task carries a deadline
func (t *Task) HasDeadline() bool {
	return t.Deadline != ""
}

// String renders the task for logs and plain-text output
func (t *Task) String() string {
	if t.HasDeadline() {
		return fmt.Sprintf("[%d] %s (deadline: %s)", t.ID, t.Content, t.Deadline)
	}
	return fmt.Sprintf("[%d] %s", t.ID, t.Content)
}
