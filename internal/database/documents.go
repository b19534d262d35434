package database

import (
	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/store"
)

// Document field names
const (
	fieldName        = "name"
	fieldDisplayName = "display_name"
	fieldExternalID  = "external_id"

	fieldOwnerName = "owner_name"
	fieldContent   = "content"
	fieldDeadline  = "deadline"

	fieldFireTime       = "fire_time"
	fieldRecipientNames = "recipient_names"
	fieldRecurrence     = "recurrence"
	fieldLinkedTaskID   = "linked_task_id"
	fieldAnchorDay      = "anchor_day"
)

func personFromDocument(doc store.Document) *models.Person {
	return &models.Person{
		ID:          doc.ID,
		Name:        doc.Fields.String(fieldName),
		DisplayName: doc.Fields.String(fieldDisplayName),
		ExternalID:  doc.Fields.String(fieldExternalID),
	}
}

func taskFromDocument(doc store.Document) *models.Task {
	return &models.Task{
		ID:        doc.ID,
		OwnerName: doc.Fields.String(fieldOwnerName),
		Content:   doc.Fields.String(fieldContent),
		Deadline:  doc.Fields.String(fieldDeadline),
	}
}

func taskFields(t *models.Task) store.Fields {
	f := store.Fields{
		fieldOwnerName: t.OwnerName,
		fieldContent:   t.Content,
	}
	if t.Deadline != "" {
		f[fieldDeadline] = t.Deadline
	}
	return f
}

func reminderFromDocument(doc store.Document) *models.Reminder {
	r := &models.Reminder{
		ID:             doc.ID,
		FireTime:       doc.Fields.String(fieldFireTime),
		RecipientNames: doc.Fields.Strings(fieldRecipientNames),
		Recurrence:     models.Recurrence(doc.Fields.String(fieldRecurrence)),
		Content:        doc.Fields.String(fieldContent),
	}
	if r.RecipientNames == nil {
		r.RecipientNames = []string{}
	}
	if id, ok := doc.Fields.Int(fieldLinkedTaskID); ok {
		r.LinkedTaskID = &id
	}
	if day, ok := doc.Fields.Int(fieldAnchorDay); ok {
		r.AnchorDay = day
	}
	return r
}

func reminderFields(r *models.Reminder) store.Fields {
	f := store.Fields{
		fieldFireTime:       r.FireTime,
		fieldRecipientNames: r.RecipientNames,
		fieldRecurrence:     string(r.Recurrence),
		fieldContent:        r.Content,
	}
	if r.LinkedTaskID != nil {
		f[fieldLinkedTaskID] = *r.LinkedTaskID
	}
	if r.AnchorDay > 0 {
		f[fieldAnchorDay] = r.AnchorDay
	}
	return f
}

func personFields(p *models.Person) store.Fields {
	return store.Fields{
		fieldName:        p.Name,
		fieldDisplayName: p.DisplayName,
		fieldExternalID:  p.ExternalID,
	}
}
