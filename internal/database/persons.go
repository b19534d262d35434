package database

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/store"
)

// PersonRepository handles person persistence and the removal cascade
type PersonRepository struct {
	db *DB
}

// NewPersonRepository creates a new person repository
func NewPersonRepository(db *DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// GetByName retrieves a person by name, normalizing it first
func (r *PersonRepository) GetByName(ctx context.Context, name string) (*models.Person, error) {
	r.db.peopleMu.RLock()
	defer r.db.peopleMu.RUnlock()
	return r.getByName(ctx, models.NormalizeName(name))
}

// GetByExternalID retrieves a person by their chat platform id
func (r *PersonRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Person, error) {
	r.db.peopleMu.RLock()
	defer r.db.peopleMu.RUnlock()

	doc, err := r.db.people.GetOne(ctx, fieldExternalID, externalID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "No person with id `%s` is known.", externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person by external id: %w", err)
	}
	return personFromDocument(doc), nil
}

// GetByID retrieves a person by store id
func (r *PersonRepository) GetByID(ctx context.Context, id int) (*models.Person, error) {
	r.db.peopleMu.RLock()
	defer r.db.peopleMu.RUnlock()

	doc, err := r.db.people.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "There is no person with id `%d`.", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return personFromDocument(doc), nil
}

// List returns every registered person in store order
func (r *PersonRepository) List(ctx context.Context) ([]*models.Person, error) {
	r.db.peopleMu.RLock()
	defer r.db.peopleMu.RUnlock()

	docs, err := r.db.people.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	people := make([]*models.Person, 0, len(docs))
	for _, doc := range docs {
		people = append(people, personFromDocument(doc))
	}
	return people, nil
}

// Register adds a new person. Names and external ids are unique; an empty
// external id is allowed and never collides.
func (r *PersonRepository) Register(ctx context.Context, name, displayName, externalID string) (*models.Person, error) {
	name = models.NormalizeName(name)
	if name == "" {
		return nil, newError(KindEmptyContent, "Cannot register a person with an empty name.")
	}

	r.db.peopleMu.Lock()
	defer r.db.peopleMu.Unlock()

	if _, err := r.db.people.GetOne(ctx, fieldName, name); err == nil {
		return nil, newError(KindDuplicateName, "A person with name `%s` already exists.", name)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check person name: %w", err)
	}

	if externalID != "" {
		if _, err := r.db.people.GetOne(ctx, fieldExternalID, externalID); err == nil {
			return nil, newError(KindDuplicateExternalID, "A person with id `%s` already exists.", externalID)
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to check person external id: %w", err)
		}
	}

	person := &models.Person{Name: name, DisplayName: displayName, ExternalID: externalID}
	id, err := r.db.people.Insert(ctx, personFields(person))
	if err != nil {
		return nil, fmt.Errorf("failed to create person: %w", err)
	}
	person.ID = id
	return person, nil
}

// Remove deletes a person together with everything that depends on them.
// Tasks owned by the person go with their linked reminders. Reminders for
// the person alone are deleted; shared reminders just lose the name.
func (r *PersonRepository) Remove(ctx context.Context, name string) (*models.Person, error) {
	name = models.NormalizeName(name)

	r.db.peopleMu.Lock()
	defer r.db.peopleMu.Unlock()
	r.db.tasksMu.Lock()
	defer r.db.tasksMu.Unlock()
	r.db.remindersMu.Lock()
	defer r.db.remindersMu.Unlock()

	person, err := r.getByName(ctx, name)
	if err != nil {
		return nil, err
	}

	tasks, err := r.db.tasks.Search(ctx, fieldOwnerName, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks of %s: %w", name, err)
	}
	for _, task := range tasks {
		if err := removeTaskLocked(ctx, r.db, task.ID); err != nil {
			return nil, err
		}
	}

	reminders, err := r.db.reminders.Search(ctx, fieldRecipientNames, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find reminders of %s: %w", name, err)
	}
	for _, doc := range reminders {
		remaining := slices.DeleteFunc(doc.Fields.Strings(fieldRecipientNames), func(n string) bool { return n == name })
		if len(remaining) == 0 {
			if err := r.db.reminders.Remove(ctx, doc.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("failed to remove reminder %d: %w", doc.ID, err)
			}
			continue
		}
		if err := r.db.reminders.Update(ctx, doc.ID, store.Fields{fieldRecipientNames: remaining}); err != nil {
			return nil, fmt.Errorf("failed to update reminder %d: %w", doc.ID, err)
		}
	}

	if err := r.db.people.Remove(ctx, person.ID); err != nil {
		return nil, fmt.Errorf("failed to remove person: %w", err)
	}
	return person, nil
}

// ListTasks returns the person's tasks in store order
func (r *PersonRepository) ListTasks(ctx context.Context, name string) ([]*models.Task, error) {
	name = models.NormalizeName(name)

	r.db.peopleMu.RLock()
	defer r.db.peopleMu.RUnlock()
	r.db.tasksMu.RLock()
	defer r.db.tasksMu.RUnlock()

	if _, err := r.getByName(ctx, name); err != nil {
		return nil, err
	}
	docs, err := r.db.tasks.Search(ctx, fieldOwnerName, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := make([]*models.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, taskFromDocument(doc))
	}
	return tasks, nil
}

// ListReminders returns every reminder naming the person, in store order
func (r *PersonRepository) ListReminders(ctx context.Context, name string) ([]*models.Reminder, error) {
	name = models.NormalizeName(name)

	r.db.peopleMu.RLock()
	defer r.db.peopleMu.RUnlock()
	r.db.remindersMu.RLock()
	defer r.db.remindersMu.RUnlock()

	if _, err := r.getByName(ctx, name); err != nil {
		return nil, err
	}
	docs, err := r.db.reminders.Search(ctx, fieldRecipientNames, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	reminders := make([]*models.Reminder, 0, len(docs))
	for _, doc := range docs {
		reminders = append(reminders, reminderFromDocument(doc))
	}
	return reminders, nil
}

// getByName expects a normalized name. Callers hold the people lock.
func (r *PersonRepository) getByName(ctx context.Context, name string) (*models.Person, error) {
	return lookupPerson(ctx, r.db, name)
}

func lookupPerson(ctx context.Context, db *DB, name string) (*models.Person, error) {
	doc, err := db.people.GetOne(ctx, fieldName, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotFound, "No person with name `%s` is known. Register them first.", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get person: %w", err)
	}
	return personFromDocument(doc), nil
}
