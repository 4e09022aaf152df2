package sheetrows

import (
	"net/http"
	"time"
)

// Result messages and codes of the response envelope.
const (
	MessageSuccess        = "SUCCESS"
	MessagePartialSuccess = "PARTIAL_SUCCESS"

	ResultCodeSuccess        = 0
	ResultCodePartialSuccess = 3
)

// Response carries transport metadata of a completed call.
type Response struct {
	StatusCode int
	RequestID  string
	Header     http.Header
}

// Result is the envelope shared by mutation responses.
type Result struct {
	Message    string `json:"message"`
	ResultCode int    `json:"resultCode"`
	Version    int64  `json:"version,omitempty"`
}

// IsSuccess reports whether every item was applied.
func (r Result) IsSuccess() bool { return r.Message == MessageSuccess }

// IsPartialSuccess reports whether only some items were applied.
func (r Result) IsPartialSuccess() bool { return r.Message == MessagePartialSuccess }

// RowsResult is returned by strict add and update calls.
type RowsResult struct {
	Result
	Rows []*Row `json:"result"`
}

// BulkItemFailure describes one item rejected by a partial-success request.
type BulkItemFailure struct {
	Index int         `json:"index"`
	RowID int64       `json:"rowId,omitempty"`
	Error ErrorDetail `json:"error"`
}

// ItemOutcome is the outcome of one submitted row: either Row is set or Err
// is set.
type ItemOutcome struct {
	Index int
	Row   *Row
	Err   *ErrorDetail
}

// Succeeded reports whether the item was applied.
func (o ItemOutcome) Succeeded() bool { return o.Err == nil }

// BulkItemResult is returned by the partial-success variants.
type BulkItemResult struct {
	Result
	Rows        []*Row            `json:"result"`
	FailedItems []BulkItemFailure `json:"failedItems,omitempty"`

	// Items lists one outcome per submitted row in submission order.
	Items []ItemOutcome `json:"-"`
}

// resolve pairs succeeded rows and failures back to submission indexes.
// Succeeded rows arrive in submission order with the failed indexes removed.
func (r *BulkItemResult) resolve(submitted int) {
	failed := make(map[int]BulkItemFailure, len(r.FailedItems))
	for _, f := range r.FailedItems {
		failed[f.Index] = f
	}

	r.Items = make([]ItemOutcome, 0, submitted)
	next := 0
	for i := 0; i < submitted; i++ {
		if f, ok := failed[i]; ok {
			detail := f.Error
			r.Items = append(r.Items, ItemOutcome{Index: i, Err: &detail})
			continue
		}
		outcome := ItemOutcome{Index: i}
		if next < len(r.Rows) {
			outcome.Row = r.Rows[next]
			next++
		}
		r.Items = append(r.Items, outcome)
	}
}

// Successes returns the outcomes that were applied.
func (r *BulkItemResult) Successes() []ItemOutcome {
	var out []ItemOutcome
	for _, item := range r.Items {
		if item.Succeeded() {
			out = append(out, item)
		}
	}
	return out
}

// Failures returns the outcomes that were rejected.
func (r *BulkItemResult) Failures() []ItemOutcome {
	var out []ItemOutcome
	for _, item := range r.Items {
		if !item.Succeeded() {
			out = append(out, item)
		}
	}
	return out
}

// DeleteRowsResult lists the ids of the deleted rows.
type DeleteRowsResult struct {
	Result
	RowIDs []int64 `json:"result"`
}

// CopyOrMoveRowDestination names the sheet rows are copied or moved to.
type CopyOrMoveRowDestination struct {
	SheetID int64 `json:"sheetId" validate:"required"`
}

// CopyOrMoveRowDirective selects the rows to copy or move and their destination.
type CopyOrMoveRowDirective struct {
	RowIDs []int64                  `json:"rowIds" validate:"required,min=1,dive,required"`
	To     CopyOrMoveRowDestination `json:"to"`
}

// RowMapping links a source row to the row created in the destination.
type RowMapping struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// CopyOrMoveRowResult maps each source row to its destination row.
type CopyOrMoveRowResult struct {
	DestinationSheetID int64        `json:"destinationSheetId"`
	RowMappings        []RowMapping `json:"rowMappings"`
}

// User identifies who made a change.
type User struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// CellHistory is one historical value of a cell.
type CellHistory struct {
	ColumnID     int64     `json:"columnId"`
	Value        CellValue `json:"value,omitzero"`
	DisplayValue string    `json:"displayValue,omitempty"`
	ModifiedAt   time.Time `json:"modifiedAt"`
	ModifiedBy   *User     `json:"modifiedBy,omitempty"`
}

// CellHistoryPage holds cell history, newest entry first.
type CellHistoryPage struct {
	PageNumber int           `json:"pageNumber"`
	PageSize   int           `json:"pageSize,omitempty"`
	TotalPages int           `json:"totalPages"`
	TotalCount int           `json:"totalCount"`
	Data       []CellHistory `json:"data"`
}

// Recipient is addressed either by email or by group id.
type Recipient struct {
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	GroupID int64  `json:"groupId,omitempty" validate:"required_without=Email"`
}

// MultiRowEmail sends the listed rows and columns to recipients.
type MultiRowEmail struct {
	SendTo             []Recipient `json:"sendTo" validate:"required,min=1,dive"`
	Subject            string      `json:"subject,omitempty"`
	Message            string      `json:"message,omitempty"`
	CcMe               bool        `json:"ccMe"`
	RowIDs             []int64     `json:"rowIds" validate:"required,min=1"`
	ColumnIDs          []int64     `json:"columnIds,omitempty"`
	IncludeAttachments bool        `json:"includeAttachments"`
	IncludeDiscussions bool        `json:"includeDiscussions"`
}
