package sheetrowstest

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	sheetrows "github.com/ideamans/go-sheetrows"
)

// firstID keeps generated ids well away from small literals such as 123
// that tests use for ids that do not exist.
const firstID int64 = 1_000_000

type apiError struct {
	status int
	detail sheetrows.ErrorDetail
}

func (e *apiError) Error() string {
	return fmt.Sprintf("status %d: %s", e.status, e.detail.Message)
}

func notFound(format string, args ...interface{}) *apiError {
	return &apiError{
		status: http.StatusNotFound,
		detail: sheetrows.ErrorDetail{ErrorCode: sheetrows.ErrorCodeNotFound, Message: fmt.Sprintf(format, args...)},
	}
}

func badRequest(code int, format string, args ...interface{}) *apiError {
	return &apiError{
		status: http.StatusBadRequest,
		detail: sheetrows.ErrorDetail{ErrorCode: code, Message: fmt.Sprintf(format, args...)},
	}
}

type rowState struct {
	id         int64
	createdAt  time.Time
	modifiedAt time.Time
	values     map[int64]interface{}
	// history per column, oldest entry first
	history map[int64][]sheetrows.CellHistory
}

type sheetState struct {
	id         int64
	name       string
	version    int64
	createdAt  time.Time
	modifiedAt time.Time
	columns    []*sheetrows.Column
	rows       []*rowState
}

func (s *sheetState) column(id int64) *sheetrows.Column {
	for _, col := range s.columns {
		if col.ID == id {
			return col
		}
	}
	return nil
}

func (s *sheetState) rowIndex(id int64) int {
	for i, row := range s.rows {
		if row.id == id {
			return i
		}
	}
	return -1
}

func (s *sheetState) removeRow(id int64) {
	if i := s.rowIndex(id); i >= 0 {
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
	}
}

// store is the in-memory state behind Server.
type store struct {
	mu     sync.Mutex
	nextID int64
	last   time.Time
	editor sheetrows.User
	sheets map[int64]*sheetState
	outbox []sheetrows.MultiRowEmail
}

func newStore(editor sheetrows.User) *store {
	return &store{
		nextID: firstID,
		editor: editor,
		sheets: make(map[int64]*sheetState),
	}
}

func (st *store) newID() int64 {
	st.nextID++
	return st.nextID
}

// now is strictly increasing so history order is total.
func (st *store) now() time.Time {
	t := time.Now().UTC().Truncate(time.Millisecond)
	if !t.After(st.last) {
		t = st.last.Add(time.Millisecond)
	}
	st.last = t
	return t
}

func (st *store) sheet(id int64) (*sheetState, *apiError) {
	sh, ok := st.sheets[id]
	if !ok {
		return nil, notFound("Sheet %d not found", id)
	}
	return sh, nil
}

func (st *store) createSheet(spec *sheetrows.Sheet) (*sheetrows.Sheet, *apiError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if spec.Name == "" {
		return nil, badRequest(sheetrows.ErrorCodeMissingAttribute, "Required object attribute(s) are missing from your request: sheet.name")
	}
	if len(spec.Columns) == 0 {
		return nil, badRequest(sheetrows.ErrorCodeMissingAttribute, "Required object attribute(s) are missing from your request: sheet.columns")
	}
	primaries := 0
	for _, col := range spec.Columns {
		if col.Primary {
			primaries++
		}
	}
	if primaries != 1 {
		return nil, badRequest(sheetrows.ErrorCodeMissingAttribute, "A sheet must have exactly one primary column")
	}

	now := st.now()
	sh := &sheetState{
		id:         st.newID(),
		name:       spec.Name,
		version:    1,
		createdAt:  now,
		modifiedAt: now,
	}
	for i, col := range spec.Columns {
		typ := col.Type
		if typ == "" {
			typ = sheetrows.ColumnTypeTextNumber
		}
		sh.columns = append(sh.columns, &sheetrows.Column{
			ID:      st.newID(),
			Index:   i,
			Title:   col.Title,
			Type:    typ,
			Primary: col.Primary,
		})
	}
	st.sheets[sh.id] = sh

	return st.renderSheet(sh), nil
}

func (st *store) getSheet(id int64) (*sheetrows.Sheet, *apiError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sh, err := st.sheet(id)
	if err != nil {
		return nil, err
	}
	return st.renderSheet(sh), nil
}

func (st *store) deleteSheet(id int64) *apiError {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, err := st.sheet(id); err != nil {
		return err
	}
	delete(st.sheets, id)
	return nil
}

// checkCells verifies every cell targets a column of sh.
func checkCells(sh *sheetState, row *sheetrows.Row) *apiError {
	if row.ToTop && row.ToBottom {
		return badRequest(sheetrows.ErrorCodeInvalidPlacement, "Invalid row location: toTop and toBottom are both set")
	}
	for _, cell := range row.Cells {
		if cell == nil {
			return badRequest(sheetrows.ErrorCodeUnparseable, "Unable to parse request: null cell")
		}
		if sh.column(cell.ColumnID) == nil {
			return badRequest(sheetrows.ErrorCodeInvalidColumn, "The columnId %d is invalid", cell.ColumnID)
		}
	}
	return nil
}

// bulk runs check over rows and applies the ones that pass. In strict mode
// the first failure rejects the request; in partial mode the request is
// rejected only when nothing would be applied.
func bulk(rows []*sheetrows.Row, partial bool, check func(*sheetrows.Row) *apiError, apply func(*sheetrows.Row)) ([]sheetrows.BulkItemFailure, *apiError) {
	var failures []sheetrows.BulkItemFailure
	var firstErr *apiError
	for i, row := range rows {
		if err := check(row); err != nil {
			if !partial {
				return nil, err
			}
			if firstErr == nil {
				firstErr = err
			}
			failures = append(failures, sheetrows.BulkItemFailure{Index: i, RowID: row.ID, Error: err.detail})
		}
	}
	if len(failures) == len(rows) && firstErr != nil {
		return nil, &apiError{status: http.StatusBadRequest, detail: firstErr.detail}
	}

	failed := make(map[int]bool, len(failures))
	for _, f := range failures {
		failed[f.Index] = true
	}
	for i, row := range rows {
		if !failed[i] {
			apply(row)
		}
	}
	return failures, nil
}

func (st *store) addRows(sheetID int64, rows []*sheetrows.Row, partial bool) ([]*sheetrows.Row, []sheetrows.BulkItemFailure, int64, *apiError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sh, err := st.sheet(sheetID)
	if err != nil {
		return nil, nil, 0, err
	}

	check := func(row *sheetrows.Row) *apiError {
		if row.ID != 0 {
			return badRequest(sheetrows.ErrorCodeUnparseable, "Unable to parse request: row.id must not be set on insert")
		}
		return checkCells(sh, row)
	}

	var added []*rowState
	top := 0
	apply := func(row *sheetrows.Row) {
		now := st.now()
		rs := &rowState{
			id:         st.newID(),
			createdAt:  now,
			modifiedAt: now,
			values:     make(map[int64]interface{}),
			history:    make(map[int64][]sheetrows.CellHistory),
		}
		for _, cell := range row.Cells {
			if cell.Value.HasValue() {
				st.setValue(rs, cell.ColumnID, cell.Value, now)
			}
		}
		if row.ToTop {
			sh.rows = append(sh.rows[:top], append([]*rowState{rs}, sh.rows[top:]...)...)
			top++
		} else {
			sh.rows = append(sh.rows, rs)
		}
		added = append(added, rs)
	}

	failures, err := bulk(rows, partial, check, apply)
	if err != nil {
		return nil, nil, 0, err
	}
	st.touch(sh)

	out := make([]*sheetrows.Row, 0, len(added))
	for _, rs := range added {
		out = append(out, st.renderRow(sh, rs))
	}
	return out, failures, sh.version, nil
}

func (st *store) updateRows(sheetID int64, rows []*sheetrows.Row, partial bool) ([]*sheetrows.Row, []sheetrows.BulkItemFailure, int64, *apiError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sh, err := st.sheet(sheetID)
	if err != nil {
		return nil, nil, 0, err
	}

	check := func(row *sheetrows.Row) *apiError {
		if sh.rowIndex(row.ID) < 0 {
			return notFound("Row %d not found", row.ID)
		}
		return checkCells(sh, row)
	}

	var updated []*rowState
	top := 0
	apply := func(row *sheetrows.Row) {
		now := st.now()
		rs := sh.rows[sh.rowIndex(row.ID)]
		for _, cell := range row.Cells {
			switch {
			case cell.Value.HasValue():
				st.setValue(rs, cell.ColumnID, cell.Value, now)
			case cell.Value.IsNull():
				st.clearValue(rs, cell.ColumnID, now)
			}
		}
		rs.modifiedAt = now

		switch {
		case row.ToTop:
			// rows moved to the top keep their submission order
			if sh.rowIndex(rs.id) < top {
				top--
			}
			sh.removeRow(rs.id)
			sh.rows = append(sh.rows[:top], append([]*rowState{rs}, sh.rows[top:]...)...)
			top++
		case row.ToBottom:
			sh.removeRow(rs.id)
			sh.rows = append(sh.rows, rs)
		}
		updated = append(updated, rs)
	}

	failures, err := bulk(rows, partial, check, apply)
	if err != nil {
		return nil, nil, 0, err
	}
	st.touch(sh)

	out := make([]*sheetrows.Row, 0, len(updated))
	for _, rs := range updated {
		out = append(out, st.renderRow(sh, rs))
	}
	return out, failures, sh.version, nil
}

func (st *store) deleteRows(sheetID int64, ids []int64) ([]int64, int64, *apiError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sh, err := st.sheet(sheetID)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return nil, 0, badRequest(sheetrows.ErrorCodeMissingAttribute, "Required query parameter is missing: ids")
	}
	for _, id := range ids {
		if sh.rowIndex(id) < 0 {
			return nil, 0, notFound("Row %d not found", id)
		}
	}
	for _, id := range ids {
		sh.removeRow(id)
	}
	st.touch(sh)
	return ids, sh.version, nil
}

func (st *store) getRow(sheetID, rowID int64) (*sheetrows.Row, *apiError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sh, err := st.sheet(sheetID)
	if err != nil {
		return nil, err
	}
	i := sh.rowIndex(rowID)
	if i < 0 {
		return nil, notFound("Row %d not found", rowID)
	}
	return st.renderRow(sh, sh.rows[i]), nil
}

// copyOrMove appends copies of the rows to the destination sheet. A value
// is carried over when the destination has a column of the same type at
// the same index.
func (st *store) copyOrMove(sheetID int64, directive sheetrows.CopyOrMoveRowDirective, move bool) (*sheetrows.CopyOrMoveRowResult, *apiError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	src, err := st.sheet(sheetID)
	if err != nil {
		return nil, err
	}
	dst, err := st.sheet(directive.To.SheetID)
	if err != nil {
		return nil, err
	}
	if len(directive.RowIDs) == 0 {
		return nil, badRequest(sheetrows.ErrorCodeMissingAttribute, "Required object attribute(s) are missing from your request: rowIds")
	}
	if move && src.id == dst.id {
		return nil, badRequest(sheetrows.ErrorCodeUnparseable, "Rows cannot be moved onto the sheet they are on")
	}
	for _, id := range directive.RowIDs {
		if src.rowIndex(id) < 0 {
			return nil, notFound("Row %d not found", id)
		}
	}

	result := &sheetrows.CopyOrMoveRowResult{DestinationSheetID: dst.id}
	for _, id := range directive.RowIDs {
		from := src.rows[src.rowIndex(id)]
		now := st.now()
		rs := &rowState{
			id:         st.newID(),
			createdAt:  now,
			modifiedAt: now,
			values:     make(map[int64]interface{}),
			history:    make(map[int64][]sheetrows.CellHistory),
		}
		for _, srcCol := range src.columns {
			v, ok := from.values[srcCol.ID]
			if !ok || srcCol.Index >= len(dst.columns) {
				continue
			}
			dstCol := dst.columns[srcCol.Index]
			if dstCol.Type != srcCol.Type {
				continue
			}
			st.setValue(rs, dstCol.ID, sheetrows.Value(v), now)
		}
		dst.rows = append(dst.rows, rs)
		result.RowMappings = append(result.RowMappings, sheetrows.RowMapping{From: from.id, To: rs.id})
	}

	if move {
		for _, id := range directive.RowIDs {
			src.removeRow(id)
		}
		st.touch(src)
	}
	st.touch(dst)
	return result, nil
}

// cellHistory returns entries newest first.
func (st *store) cellHistory(sheetID, rowID, columnID int64) ([]sheetrows.CellHistory, *apiError) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sh, err := st.sheet(sheetID)
	if err != nil {
		return nil, err
	}
	i := sh.rowIndex(rowID)
	if i < 0 {
		return nil, notFound("Row %d not found", rowID)
	}
	if sh.column(columnID) == nil {
		return nil, notFound("Column %d not found", columnID)
	}

	entries := sh.rows[i].history[columnID]
	out := make([]sheetrows.CellHistory, len(entries))
	for j, entry := range entries {
		out[len(entries)-1-j] = entry
	}
	return out, nil
}

func (st *store) sendRows(sheetID int64, email sheetrows.MultiRowEmail) *apiError {
	st.mu.Lock()
	defer st.mu.Unlock()

	sh, err := st.sheet(sheetID)
	if err != nil {
		return err
	}
	if len(email.SendTo) == 0 {
		return badRequest(sheetrows.ErrorCodeMissingAttribute, "Required object attribute(s) are missing from your request: sendTo")
	}
	if len(email.RowIDs) == 0 {
		return badRequest(sheetrows.ErrorCodeMissingAttribute, "Required object attribute(s) are missing from your request: rowIds")
	}
	for _, id := range email.RowIDs {
		if sh.rowIndex(id) < 0 {
			return notFound("Row %d not found", id)
		}
	}
	for _, id := range email.ColumnIDs {
		if sh.column(id) == nil {
			return badRequest(sheetrows.ErrorCodeInvalidColumn, "The columnId %d is invalid", id)
		}
	}
	st.outbox = append(st.outbox, email)
	return nil
}

func (st *store) sentEmails() []sheetrows.MultiRowEmail {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]sheetrows.MultiRowEmail, len(st.outbox))
	copy(out, st.outbox)
	return out
}

func (st *store) setValue(rs *rowState, columnID int64, value sheetrows.CellValue, at time.Time) {
	rs.values[columnID] = value.Interface()
	rs.history[columnID] = append(rs.history[columnID], sheetrows.CellHistory{
		ColumnID:     columnID,
		Value:        value,
		DisplayValue: value.AsString(""),
		ModifiedAt:   at,
		ModifiedBy:   &st.editor,
	})
}

func (st *store) clearValue(rs *rowState, columnID int64, at time.Time) {
	delete(rs.values, columnID)
	rs.history[columnID] = append(rs.history[columnID], sheetrows.CellHistory{
		ColumnID:   columnID,
		Value:      sheetrows.ExplicitNull(),
		ModifiedAt: at,
		ModifiedBy: &st.editor,
	})
}

func (st *store) touch(sh *sheetState) {
	sh.version++
	sh.modifiedAt = st.now()
}

func (st *store) renderRow(sh *sheetState, rs *rowState) *sheetrows.Row {
	row := &sheetrows.Row{
		ID:         rs.id,
		SheetID:    sh.id,
		RowNumber:  sh.rowIndex(rs.id) + 1,
		CreatedAt:  rs.createdAt,
		ModifiedAt: rs.modifiedAt,
	}
	for _, col := range sh.columns {
		cell := &sheetrows.Cell{ColumnID: col.ID}
		if v, ok := rs.values[col.ID]; ok {
			cell.Value = sheetrows.Value(v)
			cell.DisplayValue = cell.Value.AsString("")
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}

func (st *store) renderSheet(sh *sheetState) *sheetrows.Sheet {
	sheet := &sheetrows.Sheet{
		ID:            sh.id,
		Name:          sh.name,
		TotalRowCount: len(sh.rows),
		Version:       sh.version,
		CreatedAt:     sh.createdAt,
		ModifiedAt:    sh.modifiedAt,
	}
	for _, col := range sh.columns {
		c := *col
		sheet.Columns = append(sheet.Columns, &c)
	}
	for _, rs := range sh.rows {
		sheet.Rows = append(sheet.Rows, st.renderRow(sh, rs))
	}
	return sheet
}
