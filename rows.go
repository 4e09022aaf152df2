package sheetrows

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// AddRows inserts rows into a sheet. Every row must reference existing
// columns; any invalid row fails the whole request.
func (c *Client) AddRows(ctx context.Context, sheetID int64, rows ...*Row) (*RowsResult, *Response, error) {
	if err := validateRows(rows, false); err != nil {
		return nil, nil, err
	}

	var result RowsResult
	resp, err := c.do(ctx, http.MethodPost, rowsPath(sheetID), rows, &result)
	if err != nil {
		return nil, resp, fmt.Errorf("adding rows: %w", err)
	}
	return &result, resp, nil
}

// AddRowsWithPartialSuccess inserts rows, letting valid rows through when
// others fail. Inspect Items on the result for per-row outcomes.
func (c *Client) AddRowsWithPartialSuccess(ctx context.Context, sheetID int64, rows ...*Row) (*BulkItemResult, *Response, error) {
	if err := validateRows(rows, false); err != nil {
		return nil, nil, err
	}

	var result BulkItemResult
	path := withQuery(rowsPath(sheetID), url.Values{"allowPartialSuccess": {"true"}})
	resp, err := c.do(ctx, http.MethodPost, path, rows, &result)
	if err != nil {
		return nil, resp, fmt.Errorf("adding rows: %w", err)
	}
	result.resolve(len(rows))
	return &result, resp, nil
}

// UpdateRows applies cell updates to existing rows. Cells holding an
// explicit null are cleared and cells not listed are left as they are.
func (c *Client) UpdateRows(ctx context.Context, sheetID int64, rows ...*Row) (*RowsResult, *Response, error) {
	if err := validateRows(rows, true); err != nil {
		return nil, nil, err
	}

	var result RowsResult
	resp, err := c.do(ctx, http.MethodPut, rowsPath(sheetID), rows, &result)
	if err != nil {
		return nil, resp, fmt.Errorf("updating rows: %w", err)
	}
	return &result, resp, nil
}

// UpdateRowsWithPartialSuccess is the partial-success variant of UpdateRows.
func (c *Client) UpdateRowsWithPartialSuccess(ctx context.Context, sheetID int64, rows ...*Row) (*BulkItemResult, *Response, error) {
	if err := validateRows(rows, true); err != nil {
		return nil, nil, err
	}

	var result BulkItemResult
	path := withQuery(rowsPath(sheetID), url.Values{"allowPartialSuccess": {"true"}})
	resp, err := c.do(ctx, http.MethodPut, path, rows, &result)
	if err != nil {
		return nil, resp, fmt.Errorf("updating rows: %w", err)
	}
	result.resolve(len(rows))
	return &result, resp, nil
}

// DeleteRows removes rows from a sheet. All ids must exist on the sheet.
func (c *Client) DeleteRows(ctx context.Context, sheetID int64, rowIDs ...int64) (*DeleteRowsResult, *Response, error) {
	if len(rowIDs) == 0 {
		return nil, nil, fmt.Errorf("%w: no row ids given", ErrInvalidRequest)
	}

	var result DeleteRowsResult
	path := withQuery(rowsPath(sheetID), url.Values{"ids": {joinIDs(rowIDs)}})
	resp, err := c.do(ctx, http.MethodDelete, path, nil, &result)
	if err != nil {
		return nil, resp, fmt.Errorf("deleting rows: %w", err)
	}
	return &result, resp, nil
}

// GetRow fetches one row with its current cell values.
func (c *Client) GetRow(ctx context.Context, sheetID, rowID int64) (*Row, *Response, error) {
	var row Row
	resp, err := c.do(ctx, http.MethodGet, rowPath(sheetID, rowID), nil, &row)
	if err != nil {
		return nil, resp, fmt.Errorf("getting row %d: %w", rowID, err)
	}
	return &row, resp, nil
}

// CopyRows duplicates rows into the directive's destination sheet.
func (c *Client) CopyRows(ctx context.Context, sheetID int64, directive CopyOrMoveRowDirective) (*CopyOrMoveRowResult, *Response, error) {
	return c.copyOrMove(ctx, copyRowsPath(sheetID), directive, "copying")
}

// MoveRows relocates rows into the directive's destination sheet.
func (c *Client) MoveRows(ctx context.Context, sheetID int64, directive CopyOrMoveRowDirective) (*CopyOrMoveRowResult, *Response, error) {
	return c.copyOrMove(ctx, moveRowsPath(sheetID), directive, "moving")
}

func (c *Client) copyOrMove(ctx context.Context, path string, directive CopyOrMoveRowDirective, verb string) (*CopyOrMoveRowResult, *Response, error) {
	if err := validate.Struct(directive); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var result CopyOrMoveRowResult
	resp, err := c.do(ctx, http.MethodPost, path, directive, &result)
	if err != nil {
		return nil, resp, fmt.Errorf("%s rows: %w", verb, err)
	}
	return &result, resp, nil
}

// GetCellHistory returns the history of one cell, newest entry first.
func (c *Client) GetCellHistory(ctx context.Context, sheetID, rowID, columnID int64) (*CellHistoryPage, *Response, error) {
	var page CellHistoryPage
	resp, err := c.do(ctx, http.MethodGet, cellHistoryPath(sheetID, rowID, columnID), nil, &page)
	if err != nil {
		return nil, resp, fmt.Errorf("getting cell history: %w", err)
	}
	return &page, resp, nil
}

// SendRows emails the listed rows and columns. The response carries no
// result payload.
func (c *Client) SendRows(ctx context.Context, sheetID int64, email MultiRowEmail) (*Result, *Response, error) {
	if err := validate.Struct(email); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var result Result
	resp, err := c.do(ctx, http.MethodPost, rowEmailsPath(sheetID), email, &result)
	if err != nil {
		return nil, resp, fmt.Errorf("sending rows: %w", err)
	}
	return &result, resp, nil
}

// validateRows rejects malformed payloads before anything is sent. Updates
// must name their row, inserts must not.
func validateRows(rows []*Row, update bool) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: no rows given", ErrInvalidRequest)
	}
	for i, row := range rows {
		if row == nil {
			return fmt.Errorf("%w: row %d is nil", ErrInvalidRequest, i)
		}
		if update && row.ID == 0 {
			return fmt.Errorf("%w: row %d has no id", ErrInvalidRequest, i)
		}
		if !update && row.ID != 0 {
			return fmt.Errorf("%w: row %d already has id %d", ErrInvalidRequest, i, row.ID)
		}
		if err := validate.Struct(row); err != nil {
			return fmt.Errorf("%w: row %d: %v", ErrInvalidRequest, i, err)
		}
	}
	return nil
}
