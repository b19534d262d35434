package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/queue"
	"github.com/benvon/smart-reminders/internal/services/notify"
)

// mockReminderRepository is a mock implementation of ReminderRepositoryInterface
type mockReminderRepository struct {
	listFunc       func(ctx context.Context) ([]*models.Reminder, error)
	deleteFunc     func(ctx context.Context, id int) error
	rescheduleFunc func(ctx context.Context, id int, fireTime time.Time) error
	recipientsFunc func(ctx context.Context, r *models.Reminder) ([]*models.Person, []string, error)
}

func (m *mockReminderRepository) GetByID(ctx context.Context, id int) (*models.Reminder, error) {
	return nil, errors.New("not implemented")
}

func (m *mockReminderRepository) List(ctx context.Context) ([]*models.Reminder, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockReminderRepository) Create(ctx context.Context, in models.NewReminder) (*models.Reminder, error) {
	return nil, errors.New("not implemented")
}

func (m *mockReminderRepository) Remove(ctx context.Context, id int) (*models.Reminder, error) {
	return nil, errors.New("not implemented")
}

func (m *mockReminderRepository) Delete(ctx context.Context, id int) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockReminderRepository) Reschedule(ctx context.Context, id int, fireTime time.Time) error {
	if m.rescheduleFunc != nil {
		return m.rescheduleFunc(ctx, id, fireTime)
	}
	return nil
}

func (m *mockReminderRepository) Recipients(ctx context.Context, r *models.Reminder) ([]*models.Person, []string, error) {
	if m.recipientsFunc != nil {
		return m.recipientsFunc(ctx, r)
	}
	people := make([]*models.Person, 0, len(r.RecipientNames))
	for _, name := range r.RecipientNames {
		people = append(people, &models.Person{Name: name, ExternalID: "ext-" + name})
	}
	return people, nil, nil
}

// mockNotifier records notifications and fails for configured recipients
type mockNotifier struct {
	mu   sync.Mutex
	got  []*notify.Notification
	fail map[string]error
}

func (m *mockNotifier) Notify(ctx context.Context, n *notify.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail[n.Recipient]; err != nil {
		return err
	}
	m.got = append(m.got, n)
	return nil
}

func (m *mockNotifier) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.got))
	for _, n := range m.got {
		out = append(out, n.Recipient)
	}
	return out
}

// mockDispatcher records dispatched reminder ids
type mockDispatcher struct {
	mu  sync.Mutex
	ids []int
	err error
}

func (m *mockDispatcher) Dispatch(ctx context.Context, r *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, r.ID)
	return m.err
}

// mockJobQueue is a mock implementation of JobQueue
type mockJobQueue struct {
	enqueueFunc func(ctx context.Context, job *queue.Job) error
	consumeFunc func(ctx context.Context, prefetch int) (<-chan queue.MessageInterface, <-chan error, error)
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		return m.enqueueFunc(ctx, job)
	}
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetch int) (<-chan queue.MessageInterface, <-chan error, error) {
	if m.consumeFunc != nil {
		return m.consumeFunc(ctx, prefetch)
	}
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error {
	return nil
}

func (m *mockJobQueue) HealthCheck(ctx context.Context) error {
	return nil
}

// mockMessage is a mock implementation of MessageInterface
type mockMessage struct {
	job      *queue.Job
	mu       sync.Mutex
	acked    bool
	nacked   bool
	requeued bool
}

func (m *mockMessage) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = true
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nacked = true
	m.requeued = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

func (m *mockMessage) state() (acked, nacked, requeued bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked, m.nacked, m.requeued
}
