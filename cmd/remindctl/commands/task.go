package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/models"
)

const emptyList = "Wow, such empty..."

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage to-do lists",
	}

	var owner, deadline string
	add := &cobra.Command{
		Use:   "add CONTENT",
		Short: "Add a task to someone's to-do list",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			task, err := database.NewTaskRepository(db).Create(ctx, owner, args[0], deadline)
			if err != nil {
				return err
			}
			person, err := database.NewPersonRepository(db).GetByName(ctx, task.OwnerName)
			if err != nil {
				return err
			}
			app.success("Added task", fmt.Sprintf("Successfully added the following task for %s:\n---\n%s", person.DisplayName, task))
			return nil
		}),
	}
	add.Flags().StringVar(&owner, "owner", "", "Name of the person whose list to add to")
	add.Flags().StringVar(&deadline, "deadline", "", "The task's deadline")
	_ = add.MarkFlagRequired("owner")

	remove := &cobra.Command{
		Use:   "remove ID",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := database.NewTaskRepository(db).Remove(ctx, id)
			if err != nil {
				return err
			}
			app.success("Removed task", fmt.Sprintf("Marked the following task as completed (owned by %s):\n---\n%s", task.OwnerName, task))
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list NAME",
		Short: "List a person's to-do list",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			people := database.NewPersonRepository(db)
			person, err := people.GetByName(ctx, args[0])
			if err != nil {
				return err
			}
			tasks, err := people.ListTasks(ctx, person.Name)
			if err != nil {
				return err
			}
			app.listing(person.DisplayName+"'s to-do's", renderTasks(tasks))
			return nil
		}),
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func renderTasks(tasks []*models.Task) string {
	if len(tasks) == 0 {
		return emptyList
	}
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, t.String())
	}
	return strings.Join(lines, "\n")
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.Trim(strings.TrimSpace(s), "[]"))
	if err != nil || id < 1 {
		return 0, &database.Error{Kind: database.KindNotFound, Message: fmt.Sprintf("`%s` is not a valid id.", s)}
	}
	return id, nil
}
