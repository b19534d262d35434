package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-reminders/internal/database"
)

// ErrReported is returned by commands that already printed their failure
var ErrReported = errors.New("command failed")

type runFunc func(ctx context.Context, db *database.DB, args []string) error

// NewRootCmd builds the remindctl command tree
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "remindctl",
		Short:         "Admin tool for Smart Reminders",
		Long:          "Manage people, tasks and reminders directly against the configured store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)

	root.AddCommand(newPersonCmd(app))
	root.AddCommand(newTaskCmd(app))
	root.AddCommand(newReminderCmd(app))
	root.AddCommand(newPollCmd(app))
	return root
}

// run adapts fn into a cobra RunE that opens the store and reports
// failures in colour
func (a *App) run(fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		err := a.withDB(ctx, func(ctx context.Context, db *database.DB) error {
			return fn(ctx, db, args)
		})
		if err != nil {
			a.PrintError(err)
			return ErrReported
		}
		return nil
	}
}
