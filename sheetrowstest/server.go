// Package sheetrowstest provides an in-process sheet API backend for tests,
// in the spirit of net/http/httptest.
//
// The server keeps sheets, rows and cell history in memory and implements
// the row endpoints used by the sheetrows client: bulk add and update with
// optional partial success, delete, get, copy, move, cell history and row
// emails. Emails are not delivered; they are kept in an outbox that tests
// can inspect.
package sheetrowstest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	sheetrows "github.com/ideamans/go-sheetrows"
)

// RecordedRequest is a request the server received.
type RecordedRequest struct {
	Method    string
	Path      string
	RawQuery  string
	RequestID string
}

// Option configures a Server.
type Option func(*Server)

// WithAccessToken makes the server require "Authorization: Bearer token".
func WithAccessToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithUnavailable makes the first n requests fail with 503.
func WithUnavailable(n int) Option {
	return func(s *Server) { s.unavailable.Store(int32(n)) }
}

// WithEditor sets the user recorded as author of cell changes.
func WithEditor(user sheetrows.User) Option {
	return func(s *Server) { s.editor = user }
}

// Server is a fake sheet API listening on a loopback address.
type Server struct {
	URL string

	httpServer  *httptest.Server
	store       *store
	token       string
	editor      sheetrows.User
	unavailable atomic.Int32

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewServer starts a server. Callers must Close it.
func NewServer(opts ...Option) *Server {
	s := &Server{
		editor: sheetrows.User{Name: "Test Automation", Email: "automation@example.com"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = newStore(s.editor)
	s.httpServer = httptest.NewServer(s.routes())
	s.URL = s.httpServer.URL
	return s
}

// Close shuts the server down.
func (s *Server) Close() {
	s.httpServer.Close()
}

// ClientConfig returns a client configuration pointed at the server with
// short retry intervals.
func (s *Server) ClientConfig() *sheetrows.Config {
	return &sheetrows.Config{
		BaseURL:        s.URL,
		AccessToken:    s.token,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     3,
		RetryInterval:  5 * time.Millisecond,
		LogLevel:       "error",
	}
}

// Outbox returns the row emails accepted so far.
func (s *Server) Outbox() []sheetrows.MultiRowEmail {
	return s.store.sentEmails()
}

// Requests returns every request received so far, in arrival order.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.failUnavailable)
	r.Use(s.authenticate)

	r.Route("/sheets", func(r chi.Router) {
		r.Post("/", s.handleCreateSheet)
		r.Route("/{sheetId}", func(r chi.Router) {
			r.Get("/", s.handleGetSheet)
			r.Delete("/", s.handleDeleteSheet)
			r.Post("/rows", s.handleAddRows)
			r.Put("/rows", s.handleUpdateRows)
			r.Delete("/rows", s.handleDeleteRows)
			r.Post("/rows/copy", s.handleCopyRows)
			r.Post("/rows/move", s.handleMoveRows)
			r.Post("/rows/emails", s.handleSendRows)
			r.Get("/rows/{rowId}", s.handleGetRow)
			r.Get("/rows/{rowId}/columns/{columnId}/history", s.handleCellHistory)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, notFound("Not Found: %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, &apiError{
			status: http.StatusMethodNotAllowed,
			detail: sheetrows.ErrorDetail{ErrorCode: sheetrows.ErrorCodeUnparseable, Message: "Method not allowed"},
		})
	})

	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := middleware.GetReqID(r.Context())
		w.Header().Set(sheetrows.RequestIDHeader, id)

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			RawQuery:  r.URL.RawQuery,
			RequestID: id,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) failUnavailable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.unavailable.Add(-1) >= 0 {
			writeError(w, &apiError{
				status: http.StatusServiceUnavailable,
				detail: sheetrows.ErrorDetail{ErrorCode: sheetrows.ErrorCodeUnavailable, Message: "Service Unavailable"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, &apiError{
				status: http.StatusUnauthorized,
				detail: sheetrows.ErrorDetail{ErrorCode: sheetrows.ErrorCodeNotAuthorized, Message: "Your Access Token is invalid."},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleCreateSheet(w http.ResponseWriter, r *http.Request) {
	var spec sheetrows.Sheet
	if err := decodeBody(r, &spec); err != nil {
		writeError(w, err)
		return
	}
	sheet, err := s.store.createSheet(&spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, sheet, sheet.Version)
}

func (s *Server) handleGetSheet(w http.ResponseWriter, r *http.Request) {
	sheetID, err := pathID(r, "sheetId")
	if err != nil {
		writeError(w, err)
		return
	}
	sheet, err := s.store.getSheet(sheetID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sheet)
}

func (s *Server) handleDeleteSheet(w http.ResponseWriter, r *http.Request) {
	sheetID, err := pathID(r, "sheetId")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.deleteSheet(sheetID); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, nil, 0)
}

func (s *Server) handleAddRows(w http.ResponseWriter, r *http.Request) {
	s.handleBulk(w, r, s.store.addRows)
}

func (s *Server) handleUpdateRows(w http.ResponseWriter, r *http.Request) {
	s.handleBulk(w, r, s.store.updateRows)
}

type bulkFunc func(sheetID int64, rows []*sheetrows.Row, partial bool) ([]*sheetrows.Row, []sheetrows.BulkItemFailure, int64, *apiError)

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request, fn bulkFunc) {
	sheetID, err := pathID(r, "sheetId")
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := decodeRows(r)
	if err != nil {
		writeError(w, err)
		return
	}
	partial := r.URL.Query().Get("allowPartialSuccess") == "true"

	out, failures, version, err := fn(sheetID, rows, partial)
	if err != nil {
		writeError(w, err)
		return
	}

	result := sheetrows.BulkItemResult{
		Result: sheetrows.Result{
			Message:    sheetrows.MessageSuccess,
			ResultCode: sheetrows.ResultCodeSuccess,
			Version:    version,
		},
		Rows:        out,
		FailedItems: failures,
	}
	if len(failures) > 0 {
		result.Message = sheetrows.MessagePartialSuccess
		result.ResultCode = sheetrows.ResultCodePartialSuccess
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	sheetID, err := pathID(r, "sheetId")
	if err != nil {
		writeError(w, err)
		return
	}
	ids, perr := sheetrows.ParseIDs(r.URL.Query().Get("ids"))
	if perr != nil {
		writeError(w, badRequest(sheetrows.ErrorCodeUnparseable, "Unable to parse request: %v", perr))
		return
	}
	deleted, version, err := s.store.deleteRows(sheetID, ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, deleted, version)
}

func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	sheetID, err := pathID(r, "sheetId")
	if err != nil {
		writeError(w, err)
		return
	}
	rowID, err := pathID(r, "rowId")
	if err != nil {
		writeError(w, err)
		return
	}
	row, err := s.store.getRow(sheetID, rowID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleCopyRows(w http.ResponseWriter, r *http.Request) {
	s.handleCopyOrMove(w, r, false)
}

func (s *Server) handleMoveRows(w http.ResponseWriter, r *http.Request) {
	s.handleCopyOrMove(w, r, true)
}

func (s *Server) handleCopyOrMove(w http.ResponseWriter, r *http.Request, move bool) {
	sheetID, err := pathID(r, "sheetId")
	if err != nil {
		writeError(w, err)
		return
	}
	var directive sheetrows.CopyOrMoveRowDirective
	if err := decodeBody(r, &directive); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.store.copyOrMove(sheetID, directive, move)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSendRows(w http.ResponseWriter, r *http.Request) {
	sheetID, err := pathID(r, "sheetId")
	if err != nil {
		writeError(w, err)
		return
	}
	var email sheetrows.MultiRowEmail
	if err := decodeBody(r, &email); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.sendRows(sheetID, email); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, nil, 0)
}

func (s *Server) handleCellHistory(w http.ResponseWriter, r *http.Request) {
	ids := make([]int64, 0, 3)
	for _, key := range []string{"sheetId", "rowId", "columnId"} {
		id, err := pathID(r, key)
		if err != nil {
			writeError(w, err)
			return
		}
		ids = append(ids, id)
	}
	entries, err := s.store.cellHistory(ids[0], ids[1], ids[2])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sheetrows.CellHistoryPage{
		PageNumber: 1,
		PageSize:   len(entries),
		TotalPages: 1,
		TotalCount: len(entries),
		Data:       entries,
	})
}

func pathID(r *http.Request, key string) (int64, *apiError) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, notFound("Not Found: %s %q", key, raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, v interface{}) *apiError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest(sheetrows.ErrorCodeUnparseable, "Unable to parse request: %v", err)
	}
	return nil
}

// decodeRows accepts a single row object or an array of rows.
func decodeRows(r *http.Request) ([]*sheetrows.Row, *apiError) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, badRequest(sheetrows.ErrorCodeUnparseable, "Unable to parse request: %v", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, badRequest(sheetrows.ErrorCodeUnparseable, "Unable to parse request: empty body")
	}

	var rows []*sheetrows.Row
	if body[0] == '{' {
		var row sheetrows.Row
		err = json.Unmarshal(body, &row)
		rows = []*sheetrows.Row{&row}
	} else {
		err = json.Unmarshal(body, &rows)
	}
	if err != nil {
		return nil, badRequest(sheetrows.ErrorCodeUnparseable, "Unable to parse request: %v", err)
	}
	if len(rows) == 0 {
		return nil, badRequest(sheetrows.ErrorCodeMissingAttribute, "Required object attribute(s) are missing from your request: rows")
	}
	for _, row := range rows {
		if row == nil {
			return nil, badRequest(sheetrows.ErrorCodeUnparseable, "Unable to parse request: null row")
		}
	}
	return rows, nil
}

func writeResult(w http.ResponseWriter, result interface{}, version int64) {
	body := struct {
		sheetrows.Result
		Payload interface{} `json:"result,omitempty"`
	}{
		Result:  sheetrows.Result{Message: sheetrows.MessageSuccess, ResultCode: sheetrows.ResultCodeSuccess, Version: version},
		Payload: result,
	}
	writeJSON(w, http.StatusOK, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		apiErr = &apiError{
			status: http.StatusInternalServerError,
			detail: sheetrows.ErrorDetail{ErrorCode: sheetrows.ErrorCodeUnavailable, Message: err.Error()},
		}
	}
	detail := apiErr.detail
	if detail.RefID == "" {
		detail.RefID = strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	writeJSON(w, apiErr.status, detail)
}
