package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/config"
	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/logger"
	"github.com/benvon/smart-reminders/internal/middleware"
	"github.com/benvon/smart-reminders/internal/services/notify"
	"github.com/benvon/smart-reminders/internal/timeutil"
)

var (
	successColor  = rgb(notify.ColorSuccess)
	reminderColor = rgb(notify.ColorReminder)
	errorColor    = rgb(notify.ColorError)
)

func rgb(hex int) *color.Color {
	return color.RGB(hex>>16&0xff, hex>>8&0xff, hex&0xff)
}

// App carries what every command needs. Open is called once per command.
type App struct {
	Out    io.Writer
	Err    io.Writer
	Open   func() (*database.DB, error)
	Logger *zap.Logger
}

// NewApp returns an App that opens the store configured in the environment
func NewApp() *App {
	return &App{
		Out:  os.Stdout,
		Err:  os.Stderr,
		Open: openFromEnv,
	}
}

func openFromEnv() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	clock, err := timeutil.Load(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.StoreOptions(), clock)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return db, nil
}

func (a *App) logger() *zap.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	l, err := logger.NewConsoleLogger(false)
	if err != nil {
		return zap.NewNop()
	}
	a.Logger = l
	return l
}

// withDB opens the store for the duration of fn
func (a *App) withDB(ctx context.Context, fn func(ctx context.Context, db *database.DB) error) error {
	db, err := a.Open()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(a.Err, "Warning: failed to close store: %v\n", err)
		}
	}()
	return fn(ctx, db)
}

func (a *App) success(title, body string) {
	successColor.Fprintln(a.Out, "✅ "+title)
	fmt.Fprintln(a.Out, body)
}

func (a *App) listing(title, body string) {
	successColor.Fprintln(a.Out, title)
	fmt.Fprintln(a.Out, body)
}

func (a *App) reminder(body string) {
	reminderColor.Fprintln(a.Out, "Reminder")
	fmt.Fprintln(a.Out, body)
}

// PrintError reports a failed command. Only user-facing messages are
// shown; anything else is replaced by a generic line.
func (a *App) PrintError(err error) {
	msg := middleware.InternalErrorMessage
	if database.IsUserFacing(err) {
		msg = err.Error()
	}
	errorColor.Fprintln(a.Err, "Error")
	fmt.Fprintln(a.Err, "❌ "+msg)
	if !database.IsUserFacing(err) {
		a.logger().Error("command_failed", zap.String("error", logger.SanitizeError(err)))
	}
}
