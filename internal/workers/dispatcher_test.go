package workers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/queue"
)

func testReminder() *models.Reminder {
	taskID := 3
	return &models.Reminder{
		ID:             7,
		FireTime:       "2024-06-15 10:00:00",
		RecipientNames: []string{"alice", "bob"},
		Recurrence:     models.RecurrenceDaily,
		Content:        "water plants",
		LinkedTaskID:   &taskID,
	}
}

func TestDirectDispatcher_NotifiesEveryRecipient(t *testing.T) {
	clock, _ := testClock(t)
	notifier := &mockNotifier{}
	d := NewDirectDispatcher(&mockReminderRepository{}, notifier, clock, zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), testReminder()))
	require.Equal(t, []string{"alice", "bob"}, notifier.recipients())

	n := notifier.got[0]
	require.Equal(t, "ext-alice", n.ExternalID)
	require.Equal(t, 7, n.ReminderID)
	require.Equal(t, "[7] water plants (recurring daily) (see task [3])", n.Render())

	epoch, err := clock.EpochSeconds("2024-06-15 10:00:00")
	require.NoError(t, err)
	require.Equal(t, epoch, n.Epoch)
}

func TestDirectDispatcher_ContinuesPastFailures(t *testing.T) {
	clock, _ := testClock(t)
	errDown := errors.New("endpoint down")
	notifier := &mockNotifier{fail: map[string]error{"alice": errDown}}
	d := NewDirectDispatcher(&mockReminderRepository{}, notifier, clock, zap.NewNop())

	err := d.Dispatch(context.Background(), testReminder())
	require.ErrorIs(t, err, errDown)
	require.Equal(t, []string{"bob"}, notifier.recipients())
}

func TestDirectDispatcher_DropsUnknownRecipients(t *testing.T) {
	clock, _ := testClock(t)
	repo := &mockReminderRepository{
		recipientsFunc: func(ctx context.Context, r *models.Reminder) ([]*models.Person, []string, error) {
			return []*models.Person{{Name: "bob"}}, []string{"alice"}, nil
		},
	}
	notifier := &mockNotifier{}
	d := NewDirectDispatcher(repo, notifier, clock, zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), testReminder()))
	require.Equal(t, []string{"bob"}, notifier.recipients())
}

func TestDirectDispatcher_BadFireTime(t *testing.T) {
	clock, _ := testClock(t)
	notifier := &mockNotifier{}
	d := NewDirectDispatcher(&mockReminderRepository{}, notifier, clock, zap.NewNop())

	r := testReminder()
	r.FireTime = "whenever"
	require.Error(t, d.Dispatch(context.Background(), r))
	require.Empty(t, notifier.recipients())
}

func TestQueueDispatcher_EnqueuesOneJobPerRecipient(t *testing.T) {
	clock, _ := testClock(t)

	var (
		mu   sync.Mutex
		jobs []*queue.Job
	)
	q := &mockJobQueue{
		enqueueFunc: func(ctx context.Context, job *queue.Job) error {
			mu.Lock()
			defer mu.Unlock()
			jobs = append(jobs, job)
			return nil
		},
	}
	d := NewQueueDispatcher(&mockReminderRepository{}, q, clock, zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), testReminder()))
	require.Len(t, jobs, 2)
	for i, name := range []string{"alice", "bob"} {
		require.Equal(t, queue.JobTypeDeliverReminder, jobs[i].Type)
		require.Equal(t, name, jobs[i].Notification.Recipient)
		require.NotNil(t, jobs[i].NotAfter)
	}
	require.NotEqual(t, jobs[0].ID, jobs[1].ID)
}

func TestQueueDispatcher_EnqueueFailure(t *testing.T) {
	clock, _ := testClock(t)
	errBroker := errors.New("broker unreachable")

	calls := 0
	q := &mockJobQueue{
		enqueueFunc: func(ctx context.Context, job *queue.Job) error {
			calls++
			if job.Notification.Recipient == "alice" {
				return errBroker
			}
			return nil
		},
	}
	d := NewQueueDispatcher(&mockReminderRepository{}, q, clock, zap.NewNop())

	err := d.Dispatch(context.Background(), testReminder())
	require.ErrorIs(t, err, errBroker)
	require.Equal(t, 2, calls)
}
