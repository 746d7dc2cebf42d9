package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/core/week"
)

// CreateSlotCmd creates the createSlot command
func CreateSlotCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "createSlot <YYYY-MM-DD> <HH:MM> <HH:MM> [title]",
		Short: "Create a slot (title defaults to " + services.DefaultSlotTitle + ")",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args[3:], " ")
			slot, err := services.CreateSlotOnDate(app.Ctx, app.Database, app.Logger, app.Cfg.Location(), args[0], args[1], args[2], title)
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Slot created: %s (%s)\n\n", formatSlot(*slot, app.Cfg.Location()), slot.ID)
			return nil
		},
	}
}

// EditSlotCmd creates the editSlot command
func EditSlotCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "editSlot <slot> <HH:MM> <HH:MM> [title]",
		Short: "Change a slot's times and title, keeping its day",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.State.Refresh(app.Ctx)
			if err != nil {
				return err
			}
			current, err := findSlot(snap, args[0])
			if err != nil {
				return err
			}

			slot, err := services.RetimeSlot(app.Ctx, app.Database, app.Logger, app.Cfg.Location(), *current, args[1], args[2], strings.Join(args[3:], " "))
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Slot updated: %s\n\n", formatSlot(*slot, app.Cfg.Location()))
			return nil
		},
	}
}

// DeleteSlotCmd creates the deleteSlot command
func DeleteSlotCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteSlot <slot>",
		Short: "Delete a slot and its registrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := app.State.Refresh(app.Ctx)
			if err != nil {
				return err
			}
			ids, err := resolveSlotRefs(snap, args)
			if err != nil {
				return err
			}

			if err := services.DeleteSlot(app.Ctx, app.Database, app.Logger, ids[0]); err != nil {
				return err
			}
			fmt.Printf("\n✓ Slot %s deleted\n\n", ids[0])
			return nil
		},
	}
}

// DuplicateSlotsCmd creates the duplicateSlots command
func DuplicateSlotsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicateSlots <source YYYY-MM-DD> <target YYYY-MM-DD>...",
		Short: "Copy every slot of a day onto other days",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := app.Cfg.Location()
			dates, err := parseDates(args, loc)
			if err != nil {
				return err
			}
			source := dates[0]

			slots, err := app.Database.ListSlots(app.Ctx, week.StartOfDay(source), week.EndOfDay(source))
			if err != nil {
				return fmt.Errorf("failed to list slots: %w", err)
			}

			result, err := services.DuplicateSlots(app.Ctx, app.Database, app.Logger, loc, slots, source, dates[1:])
			if err != nil {
				return err
			}
			printCreation(result, loc)
			return nil
		},
	}
}

// GenerateSlotsCmd creates the generateSlots command
func GenerateSlotsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "generateSlots <start YYYY-MM-DD> <end YYYY-MM-DD> <instruction>",
		Short: "Generate slots from a plain-language description",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := app.Cfg.Location()
			dates, err := parseDates(args[:2], loc)
			if err != nil {
				return err
			}

			result, err := services.GenerateSlots(app.Ctx, app.Database, app.GenAI, app.Logger, dates[0], dates[1], strings.Join(args[2:], " "))
			if err != nil {
				return err
			}
			printCreation(result, loc)
			return nil
		},
	}
}

func parseDates(values []string, loc *time.Location) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(values))
	for _, value := range values {
		d, err := week.ParseDate(value, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
