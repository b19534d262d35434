package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/store/filestore"
	"github.com/benvon/smart-reminders/internal/timeutil"
)

type cliFixture struct {
	app   *App
	out   *bytes.Buffer
	err   *bytes.Buffer
	db    *database.DB
	clock *timeutil.Clock
	now   *time.Time
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()
	loc, err := time.LoadLocation(timeutil.DefaultZone)
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, loc)
	f := &cliFixture{out: &bytes.Buffer{}, err: &bytes.Buffer{}, now: &now}
	f.clock = timeutil.NewWithNow(loc, func() time.Time { return *f.now })
	f.db = database.New(filestore.NewMemory(), f.clock)
	f.app = &App{
		Out:    f.out,
		Err:    f.err,
		Open:   func() (*database.DB, error) { return f.db, nil },
		Logger: zap.NewNop(),
	}
	return f
}

func (f *cliFixture) exec(t *testing.T, args ...string) error {
	t.Helper()
	f.out.Reset()
	f.err.Reset()
	root := NewRootCmd(f.app)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (f *cliFixture) mustExec(t *testing.T, args ...string) string {
	t.Helper()
	if err := f.exec(t, args...); err != nil {
		t.Fatalf("%v: error = %v, stderr = %q", args, err, f.err.String())
	}
	return f.out.String()
}

func TestPersonCommands(t *testing.T) {
	f := newCLIFixture(t)

	out := f.mustExec(t, "person", "list")
	if !strings.Contains(out, emptyList) {
		t.Errorf("empty list output = %q", out)
	}

	out = f.mustExec(t, "person", "add", "Alice", "Alice A.", "--id", "u1")
	if !strings.Contains(out, "Successfully initialized user Alice A. (u1)") || !strings.Contains(out, "`alice`") {
		t.Errorf("add output = %q", out)
	}

	err := f.exec(t, "person", "add", "alice", "Other", "--id", "u9")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("duplicate add error = %v, want ErrReported", err)
	}
	if !strings.Contains(f.err.String(), "`alice`") {
		t.Errorf("duplicate add stderr = %q", f.err.String())
	}

	out = f.mustExec(t, "person", "list")
	if !strings.Contains(out, "Alice A. (`alice`) id=u1") {
		t.Errorf("list output = %q", out)
	}

	f.mustExec(t, "person", "remove", "alice")
	out = f.mustExec(t, "person", "list")
	if !strings.Contains(out, emptyList) {
		t.Errorf("list after remove = %q", out)
	}
}

func TestTaskCommands(t *testing.T) {
	f := newCLIFixture(t)
	f.mustExec(t, "person", "add", "alice", "Alice", "--id", "u1")

	out := f.mustExec(t, "task", "add", "buy milk", "--owner", "alice", "--deadline", "2024-06-01")
	if !strings.Contains(out, "task for Alice") || !strings.Contains(out, "[1] buy milk (deadline: 2024-06-01)") {
		t.Errorf("add output = %q", out)
	}

	out = f.mustExec(t, "task", "list", "alice")
	if !strings.Contains(out, "Alice's to-do's") || !strings.Contains(out, "[1] buy milk") {
		t.Errorf("list output = %q", out)
	}

	out = f.mustExec(t, "task", "remove", "[1]")
	if !strings.Contains(out, "Marked the following task as completed") {
		t.Errorf("remove output = %q", out)
	}

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown owner", args: []string{"task", "add", "x", "--owner", "carol"}},
		{name: "unknown task", args: []string{"task", "remove", "1"}},
		{name: "bad id", args: []string{"task", "remove", "abc"}},
		{name: "bad deadline", args: []string{"task", "add", "x", "--owner", "alice", "--deadline", "someday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.exec(t, tt.args...)
			if !errors.Is(err, ErrReported) {
				t.Fatalf("error = %v, want ErrReported", err)
			}
			if strings.Contains(f.err.String(), "Command failed for unknown reason.") {
				t.Errorf("stderr = %q, want a user-facing message", f.err.String())
			}
		})
	}
}

func TestReminderCommandsAndPoll(t *testing.T) {
	f := newCLIFixture(t)
	f.mustExec(t, "person", "add", "alice", "Alice", "--id", "u1")
	f.mustExec(t, "person", "add", "bob", "Bob", "--id", "u2")

	out := f.mustExec(t, "reminder", "add", "--time", "2024-05-20 13:00", "--names", "alice,bob", "--content", "standup", "--recurring", "daily")
	if !strings.Contains(out, "reminder for Alice, Bob") {
		t.Errorf("add output = %q", out)
	}

	out = f.mustExec(t, "reminder", "list", "bob")
	if !strings.Contains(out, "standup") {
		t.Errorf("list output = %q", out)
	}

	out = f.mustExec(t, "poll")
	if !strings.Contains(out, "Nothing is due.") {
		t.Errorf("poll before fire time = %q", out)
	}

	later := f.now.Add(2 * time.Hour)
	f.now = &later
	out = f.mustExec(t, "poll")
	if !strings.Contains(out, "Reminder") || !strings.Contains(out, "standup") {
		t.Errorf("poll after fire time = %q", out)
	}

	// daily reminders survive the poll
	reminders, err := database.NewReminderRepository(f.db).List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(reminders) != 1 || reminders[0].FireTime != "2024-05-21 13:00:00" {
		t.Fatalf("reminders after poll = %+v", reminders)
	}

	if err := f.exec(t, "reminder", "add", "--time", "tomorrow", "--recurring", "hourly", "--content", "x", "--names", "alice"); !errors.Is(err, ErrReported) {
		t.Fatalf("bad recurrence error = %v", err)
	}

	f.mustExec(t, "reminder", "remove", "1")
	out = f.mustExec(t, "reminder", "list", "alice")
	if !strings.Contains(out, emptyList) {
		t.Errorf("list after remove = %q", out)
	}
}

func TestPrintError_HidesInternalErrors(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	var stderr bytes.Buffer
	app := &App{Out: &bytes.Buffer{}, Err: &stderr, Logger: zap.New(core)}

	app.PrintError(errors.New("disk on fire"))

	if strings.Contains(stderr.String(), "disk on fire") {
		t.Errorf("stderr leaked internal error: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "Command failed for unknown reason.") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if logs.FilterMessage("command_failed").Len() != 1 {
		t.Errorf("expected command_failed log entry")
	}
}

func TestOpenFailureIsReported(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	app := &App{
		Out:    &bytes.Buffer{},
		Err:    &stderr,
		Open:   func() (*database.DB, error) { return nil, errors.New("no store") },
		Logger: zap.NewNop(),
	}
	root := NewRootCmd(app)
	root.SetArgs([]string{"person", "list"})
	if err := root.Execute(); !errors.Is(err, ErrReported) {
		t.Fatalf("Execute() error = %v, want ErrReported", err)
	}
}
