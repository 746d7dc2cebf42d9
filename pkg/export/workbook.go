// Package export writes registration exports as xlsx workbooks.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ressourcerie/planning/pkg/db"
)

// SheetName is the single sheet of an export workbook
const SheetName = "Inscriptions"

// Header is the first row of the export sheet
var Header = []string{"Date", "StartTime", "EndTime", "Title", "VolunteerName"}

var columnWidths = []float64{12, 10, 10, 24, 28}

// Row is one exported registration, formatted for display
type Row struct {
	Date          string
	StartTime     string
	EndTime       string
	Title         string
	VolunteerName string
}

// Values returns the row cells in header order
func (r Row) Values() []string {
	return []string{r.Date, r.StartTime, r.EndTime, r.Title, r.VolunteerName}
}

// Rows formats detailed registrations in loc
func Rows(registrations []db.DetailedRegistration, loc *time.Location) []Row {
	rows := make([]Row, 0, len(registrations))
	for _, r := range registrations {
		start := r.SlotStart.In(loc)
		name := r.VolunteerName
		if name == "" {
			name = db.UnknownVolunteerName
		}
		rows = append(rows, Row{
			Date:          start.Format("02/01/2006"),
			StartTime:     start.Format("15:04"),
			EndTime:       r.SlotEnd.In(loc).Format("15:04"),
			Title:         r.SlotTitle,
			VolunteerName: name,
		})
	}
	return rows
}

// FileName returns the export file name for now, using its UTC timestamp
func FileName(now time.Time) string {
	return fmt.Sprintf("Export_Planning_%s.xlsx", now.UTC().Format("20060102150405"))
}

// Workbook renders rows into an xlsx document
func Workbook(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, 1, Header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", fmt.Sprintf("%s1", lastColumn()), headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}

	for i, row := range rows {
		if err := writeRow(f, i+2, row.Values()); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, rowNumber int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNumber)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNumber, err)
	}
	return nil
}

func lastColumn() string {
	col, _ := excelize.ColumnNumberToName(len(Header))
	return col
}

// WriteFile renders rows and stores the workbook in dir under FileName(now)
func WriteFile(dir string, now time.Time, rows []Row) (string, error) {
	data, err := Workbook(rows)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
