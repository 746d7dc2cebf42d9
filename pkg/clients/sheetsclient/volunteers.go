package sheetsclient

import (
	"context"
	"fmt"
	"strings"
)

// Accepted header names for the volunteer name column
var nameColumns = []string{"Name", "Nom"}

// ListVolunteerNames reads volunteer names from the name column of a sheet range
func (c *Client) ListVolunteerNames(ctx context.Context, spreadsheetID, sheetRange string) ([]string, error) {
	values, err := c.GetValues(ctx, spreadsheetID, sheetRange)
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	names, err := parseVolunteerNames(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse volunteers: %w", err)
	}

	return names, nil
}

// parseVolunteerNames extracts trimmed, non-empty names below the header row.
// Names repeated with a different case are kept once.
func parseVolunteerNames(raw [][]interface{}) ([]string, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	column := -1
	for i, cell := range raw[0] {
		header, _ := cell.(string)
		for _, name := range nameColumns {
			if strings.EqualFold(strings.TrimSpace(header), name) {
				column = i
			}
		}
		if column != -1 {
			break
		}
	}
	if column == -1 {
		return nil, fmt.Errorf("missing name column in header (expected one of %s)", strings.Join(nameColumns, ", "))
	}

	seen := make(map[string]bool)
	names := make([]string, 0, len(raw)-1)
	for _, row := range raw[1:] {
		if column >= len(row) {
			continue
		}
		name, _ := row[column].(string)
		name = strings.TrimSpace(name)
		// Skip empty rows
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		names = append(names, name)
	}

	return names, nil
}
