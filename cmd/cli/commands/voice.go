package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ressourcerie/planning/pkg/core/services"
)

// VoiceCmd creates the voice command
func VoiceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voice <transcript>",
		Short: "Interpret a spoken registration request and apply it after confirmation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteer, err := app.State.RequireVolunteer()
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")

			snap, err := app.State.Refresh(app.Ctx)
			if err != nil {
				return err
			}

			interpretation, err := services.InterpretVoiceCommand(app.Ctx, app.GenAI, app.Logger, snap, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Printf("\n%s\n", interpretation.ConfirmationMessage)
			if len(interpretation.MatchedSlotIDs) == 0 {
				fmt.Println()
				return nil
			}
			for _, id := range interpretation.MatchedSlotIDs {
				for _, s := range snap.Slots {
					if s.ID == id {
						fmt.Printf("  %s %s\n", interpretation.Action, formatSlot(s, app.Cfg.Location()))
					}
				}
			}

			if !yes && !confirm("Apply? [y/N] ") {
				fmt.Println("Cancelled")
				return nil
			}

			result, err := services.ApplyInterpretation(app.Ctx, app.Database, app.Logger, snap, volunteer.ID, interpretation, app.State.Refresh, services.BatchOptions{})
			if err != nil {
				return err
			}
			printBatch(result)
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "Apply without asking for confirmation")
	return cmd
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes" || answer == "o" || answer == "oui"
}
