package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/models"
)

func newPersonCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "person",
		Short: "Manage registered people",
	}

	var externalID string
	add := &cobra.Command{
		Use:   "add NAME DISPLAY_NAME",
		Short: "Register a person",
		Args:  cobra.ExactArgs(2),
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			person, err := database.NewPersonRepository(db).Register(ctx, args[0], args[1], externalID)
			if err != nil {
				return err
			}
			app.success("Created user", fmt.Sprintf("Successfully initialized user %s (%s)\nto refer to this user in commands, use `%s`",
				person.DisplayName, person.ExternalID, person.Name))
			return nil
		}),
	}
	add.Flags().StringVar(&externalID, "id", "", "External chat platform id of the person")

	remove := &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a person with their tasks and reminders",
		Args:  cobra.ExactArgs(1),
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			person, err := database.NewPersonRepository(db).Remove(ctx, args[0])
			if err != nil {
				return err
			}
			app.success("Removed user", fmt.Sprintf("Removed %s (`%s`) together with their tasks and reminders", person.DisplayName, person.Name))
			return nil
		}),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List registered people",
		Args:  cobra.NoArgs,
		RunE: app.run(func(ctx context.Context, db *database.DB, args []string) error {
			people, err := database.NewPersonRepository(db).List(ctx)
			if err != nil {
				return err
			}
			app.listing("People", renderPeople(people))
			return nil
		}),
	}

	cmd.AddCommand(add, remove, list)
	return cmd
}

func renderPeople(people []*models.Person) string {
	if len(people) == 0 {
		return emptyList
	}
	lines := make([]string, 0, len(people))
	for _, p := range people {
		lines = append(lines, fmt.Sprintf("%s (`%s`) id=%s", p.DisplayName, p.Name, p.ExternalID))
	}
	return strings.Join(lines, "\n")
}
