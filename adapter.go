package sheetrows

import (
	"context"
	"fmt"
)

// Exporter writes a fetched sheet snapshot to another spreadsheet backend
type Exporter interface {
	// Export replaces the target's contents with the sheet's columns and rows
	Export(ctx context.Context, sheet *Sheet) error
}

// RowSource produces rows to insert into a sheet from another backend
type RowSource interface {
	// LoadRows reads rows and maps them onto the given columns
	LoadRows(ctx context.Context, columns []*Column) ([]*Row, error)
}

// ExportSheet fetches a sheet and hands it to exp.
func (c *Client) ExportSheet(ctx context.Context, sheetID int64, exp Exporter) (*Sheet, error) {
	sheet, _, err := c.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if err := exp.Export(ctx, sheet); err != nil {
		return nil, fmt.Errorf("exporting sheet %d: %w", sheetID, err)
	}
	return sheet, nil
}

// ImportRows loads rows from src and adds them to the sheet with partial
// success, so one bad source row does not block the rest.
func (c *Client) ImportRows(ctx context.Context, sheetID int64, src RowSource) (*BulkItemResult, *Response, error) {
	sheet, _, err := c.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := src.LoadRows(ctx, sheet.Columns)
	if err != nil {
		return nil, nil, fmt.Errorf("loading rows: %w", err)
	}
	if len(rows) == 0 {
		return &BulkItemResult{Result: Result{Message: MessageSuccess}}, nil, nil
	}

	return c.AddRowsWithPartialSuccess(ctx, sheetID, rows...)
}
