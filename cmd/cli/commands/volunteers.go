package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/db"
)

// VolunteersCmd creates the volunteers command
func VolunteersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "volunteers [query]",
		Short: "Search volunteers by name (recent logins when no query)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			app.State.Search = query

			volunteers, err := app.Database.ListVolunteers(app.Ctx)
			if err != nil {
				return fmt.Errorf("failed to list volunteers: %w", err)
			}

			matches := schedule.Search(query, volunteers)
			if query == "" {
				fmt.Printf("\nRecent logins (%d):\n\n", len(matches))
			} else {
				fmt.Printf("\nFound %d volunteers matching %q:\n\n", len(matches), query)
			}
			for _, v := range matches {
				lastSeen := "never"
				if v.LastConnection != nil {
					lastSeen = v.LastConnection.In(app.Cfg.Location()).Format("02/01/2006 15:04")
				}
				fmt.Printf("- %s (%s) - last login %s\n", v.Name, v.ID, lastSeen)
			}

			if query != "" && !schedule.ExactMatchExists(query, volunteers) {
				fmt.Printf("\nNo volunteer is named %q; use createVolunteer to add them\n", query)
			}
			fmt.Println()
			return nil
		},
	}
}

// LoginCmd creates the login command
func LoginCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <name>",
		Short: "Log in as a volunteer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			create, _ := cmd.Flags().GetBool("create")
			volunteer, err := loginByName(app, strings.Join(args, " "), create)
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Logged in as %s\n\n", volunteer.Name)
			return nil
		},
	}

	cmd.Flags().Bool("create", false, "Create the volunteer when the name is unknown")
	return cmd
}

// LoginAs logs in an existing volunteer by exact name
func LoginAs(app *AppContext, name string) (*db.Volunteer, error) {
	return loginByName(app, name, false)
}

// loginByName logs in the volunteer with this exact name, optionally creating them
func loginByName(app *AppContext, name string, create bool) (*db.Volunteer, error) {
	name = strings.TrimSpace(name)
	existing, err := app.Database.FindVolunteerByName(app.Ctx, name, "")
	if err != nil {
		return nil, fmt.Errorf("failed to look up volunteer: %w", err)
	}

	var volunteer *db.Volunteer
	switch {
	case existing != nil:
		loggedIn := services.Login(app.Ctx, app.Database, app.Logger, *existing)
		volunteer = &loggedIn
	case create:
		volunteer, err = services.CreateAndLogin(app.Ctx, app.Database, app.Logger, name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("volunteer %q: %w", name, db.ErrNotFound)
	}

	app.State.Volunteer = volunteer
	app.State.Search = ""
	return volunteer, nil
}

// LogoutCmd creates the logout command
func LogoutCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out the current volunteer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.State.Volunteer = nil
			fmt.Println("✓ Logged out")
			return nil
		},
	}
}

// CreateVolunteerCmd creates the createVolunteer command
func CreateVolunteerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "createVolunteer <name>",
		Short: "Add a volunteer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteer, err := services.CreateVolunteer(app.Ctx, app.Database, app.Logger, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Volunteer %s created (%s)\n\n", volunteer.Name, volunteer.ID)
			return nil
		},
	}
}

// RenameVolunteerCmd creates the renameVolunteer command
func RenameVolunteerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "renameVolunteer <volunteer_id> <name>",
		Short: "Rename a volunteer",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[1:], " ")
			if err := services.RenameVolunteer(app.Ctx, app.Database, app.Logger, args[0], name); err != nil {
				return err
			}
			if app.State.Volunteer != nil && app.State.Volunteer.ID == args[0] {
				app.State.Volunteer.Name = strings.TrimSpace(name)
			}
			fmt.Printf("\n✓ Volunteer renamed to %s\n\n", strings.TrimSpace(name))
			return nil
		},
	}
}

// DeleteVolunteerCmd creates the deleteVolunteer command
func DeleteVolunteerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteVolunteer <volunteer_id>",
		Short: "Delete a volunteer and all their registrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.DeleteVolunteer(app.Ctx, app.Database, app.Logger, args[0]); err != nil {
				return err
			}
			if app.State.Volunteer != nil && app.State.Volunteer.ID == args[0] {
				app.State.Volunteer = nil
			}
			fmt.Printf("\n✓ Volunteer %s deleted\n\n", args[0])
			return nil
		},
	}
}

// ImportVolunteersCmd creates the importVolunteers command
func ImportVolunteersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "importVolunteers",
		Short: "Create volunteers listed in the configured spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Sheets == nil || app.Cfg.Sheets.VolunteersRange == "" {
				return fmt.Errorf("sheets.spreadsheetID and sheets.volunteersRange must be configured")
			}

			started := time.Now()
			names, err := app.Sheets.ListVolunteerNames(app.Ctx, app.Cfg.Sheets.SpreadsheetID, app.Cfg.Sheets.VolunteersRange)
			if err != nil {
				return err
			}

			result := services.ImportVolunteers(app.Ctx, app.Database, app.Logger, names)

			fmt.Printf("\n✓ Import completed in %s\n\n", time.Since(started).Round(time.Millisecond))
			fmt.Printf("Created: %d, already known: %d\n", len(result.Created), len(result.Existing))
			for _, v := range result.Created {
				fmt.Printf("  ✓ %s\n", v.Name)
			}
			if len(result.Failed) > 0 {
				fmt.Printf("\n⚠️  Failed to import %d volunteers:\n", len(result.Failed))
				for name, err := range result.Failed {
					fmt.Printf("  ✗ %s: %v\n", name, err)
				}
			}
			fmt.Println()
			return nil
		},
	}
}
