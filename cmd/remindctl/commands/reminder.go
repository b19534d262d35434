package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/models"
	"github.com/benvon/smart-reminders/internal/workers"
)

func newReminderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminder",
		Short: "Manage reminders",
	}

	var (
		when, recurring, content string
		names                    []string
		taskID                   int
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Schedule a reminder",
		Args:  cobra.NoArgs,
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			in := models.NewReminder{
				Time:       when,
				Names:      names,
				Recurrence: recurring,
				Content:    content,
			}
			if taskID > 0 {
				in.TaskID = &taskID
			}
			reminders := database.NewReminderRepository(db)
			reminder, err := reminders.Create(ctx, in)
			if err != nil {
				return err
			}
			recipients, err := recipientNames(ctx, reminders, reminder)
			if err != nil {
				return err
			}
			app.success("Added reminder", fmt.Sprintf("Successfully created the following reminder for %s:\n---\n%s", recipients, reminder))
			return nil
		}),
	}
	add.Flags().StringVar(&when, "time", "", "The date and/or time of the reminder")
	add.Flags().StringSliceVar(&names, "names", nil, "Comma-separated people to remind")
	add.Flags().StringVar(&recurring, "recurring", "", "daily, weekly, monthly or yearly (empty for non-recurring)")
	add.Flags().StringVar(&content, "content", "", "The content of the reminder (defaults to the linked task)")
	add.Flags().IntVar(&taskID, "task", 0, "The task linked to the reminder")

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			reminder, err := database.NewReminderRepository(db).Remove(ctx, id)
			if err != nil {
				return err
			}
			app.success("Removed reminder", fmt.Sprintf("Removed the following reminder for %s:\n---\n%s",
				strings.Join(reminder.RecipientNames, ", "), reminder))
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list NAME",
		Short: "List reminders naming a person",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			people := database.NewPersonRepository(db)
			person, err := people.GetByName(ctx, args[0])
			if err != nil {
				return err
			}
			reminders, err := people.ListReminders(ctx, person.Name)
			if err != nil {
				return err
			}
			app.listing(person.DisplayName+"'s reminders (some may be shared with other people)", renderReminders(reminders))
			return nil
		}),
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func newPollCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Run one scheduler cycle and print what came due",
		Long:  "Retires or reschedules every due reminder and prints it. Nothing is delivered.",
		Args:  cobra.NoArgs,
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			scheduler := workers.NewScheduler(database.NewReminderRepository(db), db.Clock(), nil, 0, app.logger())
			due, err := scheduler.Poll(ctx, db.Clock().Now())
			for _, r := range due {
				app.reminder(r.String())
			}
			if err != nil {
				return err
			}
			if len(due) == 0 {
				fmt.Fprintln(app.Out, "Nothing is due.")
			}
			return nil
		}),
	}
}

func recipientNames(ctx context.Context, reminders *database.ReminderRepository, reminder *models.Reminder) (string, error) {
	people, missing, err := reminders.Recipients(ctx, reminder)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(people)+len(missing))
	for _, p := range people {
		names = append(names, p.DisplayName)
	}
	names = append(names, missing...)
	return strings.Join(names, ", "), nil
}

func renderReminders(reminders []*models.Reminder) string {
	if len(reminders) == 0 {
		return emptyList
	}
	lines := make([]string, 0, len(reminders))
	for _, r := range reminders {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}
