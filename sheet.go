package sheetrows

import (
	"fmt"
	"time"
)

// Column types understood by the service.
const (
	ColumnTypeTextNumber  = "TEXT_NUMBER"
	ColumnTypeCheckbox    = "CHECKBOX"
	ColumnTypeDate        = "DATE"
	ColumnTypePicklist    = "PICKLIST"
	ColumnTypeContactList = "CONTACT_LIST"
)

// Column is a column definition. The primary column cannot be removed.
type Column struct {
	ID      int64  `json:"id,omitempty"`
	Index   int    `json:"index"`
	Title   string `json:"title" validate:"required"`
	Type    string `json:"type,omitempty"`
	Primary bool   `json:"primary,omitempty"`
}

// Sheet is a sheet with its columns and, when fetched, its rows.
type Sheet struct {
	ID            int64     `json:"id,omitempty"`
	Name          string    `json:"name" validate:"required"`
	Columns       []*Column `json:"columns,omitempty" validate:"dive"`
	Rows          []*Row    `json:"rows,omitempty"`
	TotalRowCount int       `json:"totalRowCount"`
	Version       int64     `json:"version,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	ModifiedAt    time.Time `json:"modifiedAt,omitzero"`
}

// PrimaryColumn returns the sheet's primary column, or nil when the sheet
// was fetched without columns.
func (s *Sheet) PrimaryColumn() *Column {
	for _, col := range s.Columns {
		if col.Primary {
			return col
		}
	}
	return nil
}

// Column returns the column with the given id, or nil.
func (s *Sheet) Column(id int64) *Column {
	for _, col := range s.Columns {
		if col.ID == id {
			return col
		}
	}
	return nil
}

// ColumnByTitle returns the first column with the given title, or nil.
func (s *Sheet) ColumnByTitle(title string) *Column {
	for _, col := range s.Columns {
		if col.Title == title {
			return col
		}
	}
	return nil
}

// Row returns the row with the given id, or nil.
func (s *Sheet) Row(id int64) *Row {
	for _, row := range s.Rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

// RowIDs returns the ids of all rows in sheet order.
func (s *Sheet) RowIDs() []int64 {
	ids := make([]int64, 0, len(s.Rows))
	for _, row := range s.Rows {
		ids = append(ids, row.ID)
	}
	return ids
}

// ColumnIDs returns the ids of all columns in index order.
func (s *Sheet) ColumnIDs() []int64 {
	ids := make([]int64, 0, len(s.Columns))
	for _, col := range s.Columns {
		ids = append(ids, col.ID)
	}
	return ids
}

// FindRows validates q and filters the fetched rows with it.
func (s *Sheet) FindRows(q Query) ([]*Row, error) {
	if err := ValidateQuery(q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return ApplyQuery(s.Rows, q), nil
}

// Row is a row of a sheet. ToTop and ToBottom are mutually exclusive and
// only apply to add and update requests.
type Row struct {
	ID         int64     `json:"id,omitempty"`
	SheetID    int64     `json:"sheetId,omitempty"`
	RowNumber  int       `json:"rowNumber,omitempty"`
	ToTop      bool      `json:"toTop,omitempty" validate:"excluded_with=ToBottom"`
	ToBottom   bool      `json:"toBottom,omitempty"`
	Cells      []*Cell   `json:"cells,omitempty" validate:"dive,required"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
	ModifiedAt time.Time `json:"modifiedAt,omitzero"`
}

// NewRow returns a row with the given cells and no placement.
func NewRow(cells ...*Cell) *Row {
	return &Row{Cells: cells}
}

// PlaceAtTop asks the server to insert or move the row to the top.
func (r *Row) PlaceAtTop() *Row {
	r.ToTop, r.ToBottom = true, false
	return r
}

// PlaceAtBottom asks the server to insert or move the row to the bottom.
func (r *Row) PlaceAtBottom() *Row {
	r.ToTop, r.ToBottom = false, true
	return r
}

// Cell returns the row's cell for columnID, or nil.
func (r *Row) Cell(columnID int64) *Cell {
	for _, cell := range r.Cells {
		if cell.ColumnID == columnID {
			return cell
		}
	}
	return nil
}

// SetCell replaces or appends the cell for columnID.
func (r *Row) SetCell(columnID int64, value CellValue) *Row {
	if cell := r.Cell(columnID); cell != nil {
		cell.Value = value
		cell.DisplayValue = ""
		return r
	}
	r.Cells = append(r.Cells, &Cell{ColumnID: columnID, Value: value})
	return r
}

// Value returns the value held for columnID; unset when the row has no
// such cell.
func (r *Row) Value(columnID int64) CellValue {
	if cell := r.Cell(columnID); cell != nil {
		return cell.Value
	}
	return CellValue{}
}
