package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/ideamans/go-sheetrows"
)

// Adapter writes sheet snapshots to an Excel workbook and reads rows from
// one. It implements sheetrows.Exporter and sheetrows.RowSource.
type Adapter struct {
	config *Config
	mu     sync.RWMutex
}

var (
	_ sheetrows.Exporter  = (*Adapter)(nil)
	_ sheetrows.RowSource = (*Adapter)(nil)
)

// New creates a new Excel adapter with the given configuration
func New(config *Config) (*Adapter, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create a copy of config to avoid external modifications
	configCopy := *config

	return &Adapter{
		config: &configCopy,
	}, nil
}

// Export replaces the worksheet with a header row of column titles followed
// by one line per row in sheet order.
func (a *Adapter) Export(ctx context.Context, sheet *sheetrows.Sheet) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if sheet == nil {
		return fmt.Errorf("sheet is required")
	}
	name := a.config.worksheet(sheet.Name)

	// Create directory if it doesn't exist
	dir := filepath.Dir(a.config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, created, err := a.openOrCreate()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := prepareWorksheet(f, name, created); err != nil {
		return err
	}

	header := make([]interface{}, len(sheet.Columns))
	for i, col := range sheet.Columns {
		header[i] = col.Title
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range sheet.Rows {
		values := make([]interface{}, len(sheet.Columns))
		for j, col := range sheet.Columns {
			values[j] = row.Value(col.ID).Interface()
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row.ID, err)
		}
	}

	// Save the file
	if err := f.SaveAs(a.config.FilePath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	return nil
}

// LoadRows reads the worksheet and maps its header titles onto columns.
// Empty cells stay unset and blank lines are skipped.
func (a *Adapter) LoadRows(ctx context.Context, columns []*sheetrows.Column) ([]*sheetrows.Row, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := excelize.OpenFile(a.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing to import
			return []*sheetrows.Row{}, nil
		}
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	// Without a configured name, read the worksheet the last export made active
	name := a.config.worksheet(f.GetSheetName(f.GetActiveSheetIndex()))
	sheetIndex, err := f.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet index: %w", err)
	}
	if sheetIndex == -1 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}

	lines, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(lines) == 0 {
		return []*sheetrows.Row{}, nil
	}

	targets, err := mapHeader(lines[0], columns)
	if err != nil {
		return nil, err
	}

	rows := make([]*sheetrows.Row, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		row := &sheetrows.Row{}
		for j, raw := range lines[i] {
			if j >= len(targets) || targets[j] == nil || raw == "" {
				continue
			}
			row.SetCell(targets[j].ID, sheetrows.Value(parseValue(raw)))
		}
		if len(row.Cells) == 0 {
			continue // Skip empty rows
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func (a *Adapter) openOrCreate() (*excelize.File, bool, error) {
	if _, err := os.Stat(a.config.FilePath); err == nil {
		f, err := excelize.OpenFile(a.config.FilePath)
		if err != nil {
			return nil, false, fmt.Errorf("failed to open Excel file: %w", err)
		}
		return f, false, nil
	}
	return excelize.NewFile(), true, nil
}

// prepareWorksheet makes name an empty, active worksheet of f.
func prepareWorksheet(f *excelize.File, name string, created bool) error {
	sheetIndex, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("failed to get sheet index: %w", err)
	}

	if sheetIndex == -1 {
		index, err := f.NewSheet(name)
		if err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
		f.SetActiveSheet(index)

		// A new workbook starts with a default sheet we don't want
		if defaultSheet := f.GetSheetName(0); created && defaultSheet != name {
			_ = f.DeleteSheet(defaultSheet)
			if index, err := f.GetSheetIndex(name); err == nil && index >= 0 {
				f.SetActiveSheet(index)
			}
		}
		return nil
	}

	lines, err := f.GetRows(name)
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}
	for r := len(lines); r >= 1; r-- {
		if err := f.RemoveRow(name, r); err != nil {
			return fmt.Errorf("failed to clear row %d: %w", r, err)
		}
	}
	f.SetActiveSheet(sheetIndex)
	return nil
}

// mapHeader resolves each header title to its column; blank titles map to
// nil and are ignored.
func mapHeader(header []string, columns []*sheetrows.Column) ([]*sheetrows.Column, error) {
	byTitle := make(map[string]*sheetrows.Column, len(columns))
	for _, col := range columns {
		byTitle[col.Title] = col
	}

	targets := make([]*sheetrows.Column, len(header))
	for i, title := range header {
		if title == "" {
			continue
		}
		col, ok := byTitle[title]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, title)
		}
		targets[i] = col
	}
	return targets, nil
}

// parseValue converts a formatted cell back to a typed value
func parseValue(raw string) interface{} {
	if raw == "true" || raw == "false" || raw == "TRUE" || raw == "FALSE" {
		return raw == "true" || raw == "TRUE"
	}
	// Try to parse as number first
	if floatVal, err := strconv.ParseFloat(raw, 64); err == nil {
		// Check if it's an integer
		if intVal := int64(floatVal); float64(intVal) == floatVal {
			return intVal
		}
		return floatVal
	}
	return raw
}
