package sheetsclient

import (
	"context"
	"fmt"
	"time"
)

// PublishedExport is a registration export to write to its own tab
type PublishedExport struct {
	Start  time.Time
	End    time.Time
	Header []string
	Rows   [][]string
}

// PublishExport writes an export to the tab named after its date range, creating the tab
// when missing and replacing its contents otherwise. It returns the tab title.
func (c *Client) PublishExport(ctx context.Context, spreadsheetID string, export *PublishedExport) (string, error) {
	tabTitle := generateTabTitle(export.Start, export.End)

	exists, err := c.SheetExists(ctx, spreadsheetID, tabTitle)
	if err != nil {
		return "", err
	}

	if exists {
		if err := c.ClearValues(ctx, spreadsheetID, quoteTab(tabTitle)); err != nil {
			return "", fmt.Errorf("failed to clear tab %q: %w", tabTitle, err)
		}
	} else {
		if _, err := c.CreateSheet(ctx, spreadsheetID, tabTitle); err != nil {
			return "", fmt.Errorf("failed to create tab %q: %w", tabTitle, err)
		}
	}

	if err := c.UpdateValues(ctx, spreadsheetID, quoteTab(tabTitle)+"!A1", exportValues(export)); err != nil {
		return "", fmt.Errorf("failed to write tab %q: %w", tabTitle, err)
	}

	return tabTitle, nil
}

// generateTabTitle creates a tab title in the format "Inscriptions Mon Mar 03 2025 - Sun Mar 09 2025"
func generateTabTitle(start, end time.Time) string {
	return fmt.Sprintf("Inscriptions %s - %s",
		start.Format("Mon Jan 02 2006"),
		end.Format("Mon Jan 02 2006"),
	)
}

// quoteTab quotes a tab title for A1 notation
func quoteTab(title string) string {
	return "'" + title + "'"
}

func exportValues(export *PublishedExport) [][]interface{} {
	values := make([][]interface{}, 0, len(export.Rows)+1)
	values = append(values, toCells(export.Header))
	for _, row := range export.Rows {
		values = append(values, toCells(row))
	}
	return values
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}
