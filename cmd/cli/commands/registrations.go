package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/core/services"
)

// SubscribeCmd creates the subscribe command
func SubscribeCmd(app *AppContext) *cobra.Command {
	return batchCmd(app, model.ActionAdd, "subscribe <slot>...", "Register the logged-in volunteer on slots")
}

// UnsubscribeCmd creates the unsubscribe command
func UnsubscribeCmd(app *AppContext) *cobra.Command {
	return batchCmd(app, model.ActionRemove, "unsubscribe <slot>...", "Remove the logged-in volunteer from slots")
}

func batchCmd(app *AppContext, action model.Action, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteer, err := app.State.RequireVolunteer()
			if err != nil {
				return err
			}

			snap, err := app.State.Refresh(app.Ctx)
			if err != nil {
				return err
			}
			ids, err := resolveSlotRefs(snap, args)
			if err != nil {
				return err
			}

			result, err := services.ApplyBatch(app.Ctx, app.Database, app.Logger, snap, volunteer.ID, action, ids, app.State.Refresh, services.BatchOptions{})
			if err != nil {
				return err
			}
			printBatch(result)
			return nil
		},
	}
}

// RemoveVolunteerCmd creates the removeVolunteer command
func RemoveVolunteerCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "removeVolunteer <slot> <volunteer_id>",
		Short: "Remove any volunteer from a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.State.Refresh(app.Ctx)
			if err != nil {
				return err
			}
			ids, err := resolveSlotRefs(snap, args[:1])
			if err != nil {
				return err
			}

			removed, err := services.Unsubscribe(app.Ctx, app.Database, app.Logger, args[1], ids[0])
			if err != nil {
				return err
			}
			if !removed {
				fmt.Println("Volunteer was not registered on this slot")
				return nil
			}
			fmt.Printf("\n✓ Volunteer %s removed from slot %s\n\n", args[1], ids[0])
			return nil
		},
	}
}
