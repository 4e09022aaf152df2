package googlesheets

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ideamans/go-sheetrows"
)

// Adapter mirrors sheet snapshots into a Google Sheets tab and reads rows
// back from one. It implements sheetrows.Exporter and sheetrows.RowSource.
type Adapter struct {
	service *sheets.Service
	config  Config
}

var (
	_ sheetrows.Exporter  = (*Adapter)(nil)
	_ sheetrows.RowSource = (*Adapter)(nil)
)

// New creates a new Google Sheets adapter with provided options
func New(ctx context.Context, config Config, opts ...option.ClientOption) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Adapter{
		service: service,
		config:  config,
	}, nil
}

// Export replaces the tab with a header row of column titles followed by
// one line per row in sheet order.
func (a *Adapter) Export(ctx context.Context, sheet *sheetrows.Sheet) error {
	if sheet == nil {
		return fmt.Errorf("sheet is required")
	}

	values := make([][]interface{}, 0, len(sheet.Rows)+1)

	header := make([]interface{}, len(sheet.Columns))
	for i, col := range sheet.Columns {
		header[i] = col.Title
	}
	values = append(values, header)

	for _, row := range sheet.Rows {
		line := make([]interface{}, len(sheet.Columns))
		for i, col := range sheet.Columns {
			line[i] = convertToSheetValue(row.Value(col.ID).Interface())
		}
		values = append(values, line)
	}

	// Clear the entire tab first
	_, err := a.service.Spreadsheets.Values.Clear(a.config.SpreadsheetID, a.config.a1("A:ZZ"), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	vr := &sheets.ValueRange{
		Values: values,
	}
	_, err = a.service.Spreadsheets.Values.Update(a.config.SpreadsheetID, a.config.a1("A1"), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}

	return nil
}

// LoadRows reads the tab and maps its header titles onto columns. Empty
// cells stay unset and blank lines are skipped.
func (a *Adapter) LoadRows(ctx context.Context, columns []*sheetrows.Column) ([]*sheetrows.Row, error) {
	resp, err := a.service.Spreadsheets.Values.Get(a.config.SpreadsheetID, a.config.a1("A:ZZ")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet data: %w", err)
	}

	if len(resp.Values) == 0 {
		return []*sheetrows.Row{}, nil
	}

	byTitle := make(map[string]*sheetrows.Column, len(columns))
	for _, col := range columns {
		byTitle[col.Title] = col
	}

	// First line is the header
	targets := make([]*sheetrows.Column, len(resp.Values[0]))
	for i, cell := range resp.Values[0] {
		title, _ := cell.(string)
		if title == "" {
			continue
		}
		col, ok := byTitle[title]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, title)
		}
		targets[i] = col
	}

	rows := make([]*sheetrows.Row, 0, len(resp.Values)-1)
	for _, line := range resp.Values[1:] {
		row := &sheetrows.Row{}
		for j, cell := range line {
			if j >= len(targets) || targets[j] == nil || cell == nil || cell == "" {
				continue
			}
			row.SetCell(targets[j].ID, sheetrows.Value(convertCellValue(cell)))
		}
		if len(row.Cells) == 0 {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// convertCellValue converts a Google Sheets cell value to Go type
func convertCellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		// Try to parse as number
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		// Try to parse as bool
		if val == "true" || val == "TRUE" {
			return true
		}
		if val == "false" || val == "FALSE" {
			return false
		}
		return val
	case float64:
		// Check if it's actually an integer
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// convertToSheetValue converts a cell value to a RAW Google Sheets value
func convertToSheetValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}
