package googlesheets

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSpreadsheetID is returned when no spreadsheet is configured
	ErrMissingSpreadsheetID = errors.New("spreadsheet id is required")

	// ErrMissingSheetName is returned when no sheet tab is configured
	ErrMissingSheetName = errors.New("sheet name is required")

	// ErrUnknownColumn is returned when a header cell matches no column title
	ErrUnknownColumn = errors.New("unknown column")
)

// Config represents configuration specific to Google Sheets adapter
type Config struct {
	SpreadsheetID string
	SheetName     string // tab that receives exports and feeds imports
}

// Validate checks if the configuration is valid
func (c Config) Validate() error {
	if c.SpreadsheetID == "" {
		return ErrMissingSpreadsheetID
	}
	if c.SheetName == "" {
		return ErrMissingSheetName
	}
	return nil
}

// a1 builds an A1 notation range on the configured tab. Tab names that are
// not plain identifiers are quoted.
func (c Config) a1(cells string) string {
	name := c.SheetName
	plain := true
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z') {
			plain = false
			break
		}
	}
	if !plain {
		name = "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return fmt.Sprintf("%s!%s", name, cells)
}
