package sheetrows

import (
	"context"
	"fmt"
	"net/http"
)

// GetSheet fetches a sheet with its columns and rows.
func (c *Client) GetSheet(ctx context.Context, sheetID int64) (*Sheet, *Response, error) {
	var sheet Sheet
	resp, err := c.do(ctx, http.MethodGet, sheetPath(sheetID), nil, &sheet)
	if err != nil {
		return nil, resp, fmt.Errorf("getting sheet %d: %w", sheetID, err)
	}
	return &sheet, resp, nil
}

// CreateSheet creates a sheet from a name and column definitions. Exactly
// one column must be primary.
func (c *Client) CreateSheet(ctx context.Context, spec *Sheet) (*Sheet, *Response, error) {
	if spec == nil {
		return nil, nil, fmt.Errorf("%w: sheet is required", ErrInvalidRequest)
	}
	if err := validate.Struct(spec); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	primaries := 0
	for _, col := range spec.Columns {
		if col.Primary {
			primaries++
		}
	}
	if primaries != 1 {
		return nil, nil, fmt.Errorf("%w: sheet needs exactly one primary column, got %d", ErrInvalidRequest, primaries)
	}

	var result struct {
		Result
		Sheet *Sheet `json:"result"`
	}
	resp, err := c.do(ctx, http.MethodPost, sheetsPath(), spec, &result)
	if err != nil {
		return nil, resp, fmt.Errorf("creating sheet: %w", err)
	}
	if result.Sheet == nil {
		return nil, resp, fmt.Errorf("creating sheet: empty result")
	}
	return result.Sheet, resp, nil
}

// DeleteSheet deletes a sheet and all of its rows.
func (c *Client) DeleteSheet(ctx context.Context, sheetID int64) (*Result, *Response, error) {
	var result Result
	resp, err := c.do(ctx, http.MethodDelete, sheetPath(sheetID), nil, &result)
	if err != nil {
		return nil, resp, fmt.Errorf("deleting sheet %d: %w", sheetID, err)
	}
	return &result, resp, nil
}
