package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ressourcerie/planning/pkg/core/schedule"
)

// ScheduleCmd creates the schedule command
func ScheduleCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show the visible week with its slots and volunteers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.State.Refresh(app.Ctx)
			if err != nil {
				return err
			}

			volunteerID := ""
			if app.State.Volunteer != nil {
				volunteerID = app.State.Volunteer.ID
			}
			printWeek(snap, app.Cfg.Location(), volunteerID)

			if volunteerID != "" {
				mine := schedule.CurrentUserSlots(snap.DisplaySlots(), volunteerID, snap.Window)
				fmt.Printf("%s is registered on %d slots this week\n\n", app.State.Volunteer.Name, len(mine))
			}
			return nil
		},
	}
}

// WeekCmd creates the week command
func WeekCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "week [next|prev|today|YYYY-MM-DD]",
		Short: "Change the visible week and show it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "today"
			if len(args) > 0 {
				target = args[0]
			}
			if err := app.State.Navigate(target); err != nil {
				return err
			}
			return ScheduleCmd(app).RunE(cmd, nil)
		},
	}
}
