package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ressourcerie/planning/pkg/clients/sheetsclient"
	"github.com/ressourcerie/planning/pkg/core/services"
	"github.com/ressourcerie/planning/pkg/export"
)

// ExportCmd creates the export command
func ExportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [start YYYY-MM-DD] [end YYYY-MM-DD]",
		Short: "Export registrations to an xlsx file (defaults to the visible week)",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			publish, _ := cmd.Flags().GetBool("publish")
			loc := app.Cfg.Location()

			start, end := app.State.Window.Start, app.State.Window.End
			if len(args) > 0 {
				dates, err := parseDates(args, loc)
				if err != nil {
					return err
				}
				start, end = dates[0], dates[0]
				if len(dates) > 1 {
					end = dates[1]
				}
			}

			registrations, err := services.ExportRegistrations(app.Ctx, app.Database, app.Logger, start, end)
			if err != nil {
				return err
			}
			rows := export.Rows(registrations, loc)

			if dir == "" {
				dir = app.Cfg.Export.Directory
			}
			if dir == "" {
				dir = "."
			}
			path, err := export.WriteFile(dir, time.Now(), rows)
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ %d registrations exported to %s\n", len(rows), path)

			if publish {
				if app.Sheets == nil {
					return fmt.Errorf("sheets.spreadsheetID must be configured to publish")
				}
				published := &sheetsclient.PublishedExport{Start: start, End: end, Header: export.Header}
				for _, row := range rows {
					published.Rows = append(published.Rows, row.Values())
				}
				tab, err := app.Sheets.PublishExport(app.Ctx, app.Cfg.Sheets.SpreadsheetID, published)
				if err != nil {
					return err
				}
				fmt.Printf("✓ Published to tab %q\n", tab)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("dir", "", "Output directory (defaults to export.directory or the current directory)")
	cmd.Flags().Bool("publish", false, "Also publish the export to the configured spreadsheet")
	return cmd
}
