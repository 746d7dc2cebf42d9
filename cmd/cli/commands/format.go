package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/ressourcerie/planning/pkg/core/model"
	"github.com/ressourcerie/planning/pkg/core/schedule"
	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/db"
)

func formatSlot(s db.Slot, loc *time.Location) string {
	start := s.Start.In(loc)
	return fmt.Sprintf("%s %s-%s  %s",
		start.Format("Mon 02/01"),
		start.Format("15:04"),
		s.End.In(loc).Format("15:04"),
		s.Title)
}

func volunteerNames(volunteers []db.Volunteer) string {
	if len(volunteers) == 0 {
		return "-"
	}
	names := make([]string, 0, len(volunteers))
	for _, v := range volunteers {
		names = append(names, v.Name)
	}
	return strings.Join(names, ", ")
}

func printCreation(result *services.CreationResult, loc *time.Location) {
	fmt.Printf("\n✓ %d of %d slots created\n\n", len(result.Created), result.Planned)
	for _, s := range result.Created {
		fmt.Printf("  ✓ %s\n", formatSlot(s, loc))
	}
	if len(result.Failed) > 0 {
		fmt.Printf("\n⚠️  Failed to create %d slots:\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("  ✗ %s: %v\n", formatSlot(db.Slot{Start: f.Spec.Start, End: f.Spec.End, Title: f.Spec.Title}, loc), f.Err)
		}
	}
	fmt.Println()
}

func printBatch(result *services.BatchResult) {
	verb := "registered"
	if result.Action == model.ActionRemove {
		verb = "unregistered"
	}
	fmt.Printf("\n✓ %d %s, %d skipped, %d failed\n", result.Applied, verb, result.Skipped, result.Failed)
	for _, item := range result.Items {
		if item.Status == services.ItemFailed {
			fmt.Printf("  ✗ %s: %v\n", item.SlotID, item.Err)
		}
	}
	if result.RefreshErr != nil {
		fmt.Printf("⚠️  Schedule not reloaded: %v\n", result.RefreshErr)
	}
	fmt.Println()
}

// printWeek prints the week day by day with a running slot number per visible slot
func printWeek(snap *schedule.Snapshot, loc *time.Location, volunteerID string) {
	fmt.Printf("\nWeek %s - %s\n", snap.Window.Start.Format("Mon 02 Jan 2006"), snap.Window.End.Format("Mon 02 Jan 2006"))

	n := 0
	for _, day := range schedule.ByDay(snap.DisplaySlots(), snap.Window) {
		fmt.Printf("\n%s\n", day.Date.In(loc).Format("Monday 02/01"))
		if len(day.Slots) == 0 {
			fmt.Println("  (no slots)")
			continue
		}
		for _, d := range day.Slots {
			n++
			mark := " "
			if volunteerID != "" && d.HasVolunteer(volunteerID) {
				mark = "★"
			}
			fmt.Printf("  %s %2d. %s-%s  %-16s %s\n", mark, n,
				d.Start.In(loc).Format("15:04"),
				d.End.In(loc).Format("15:04"),
				d.Title,
				volunteerNames(d.Volunteers))
		}
	}
	fmt.Println()
}
