package http

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"tracker/internal/core"
	applog "tracker/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := core.ParseListFilter(r.URL.Query())

	txs, err := s.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, applog.OpList, err)
		return
	}

	NewJSONResponse().Body(toTransactionsJSON(txs)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	patch, err := parseTransactionPayload(r, false)
	if err != nil {
		s.logRejected(r, applog.OpCreate, err)
		writeError(w, r, applog.OpCreate, err)
		return
	}

	t, err := s.svc.Create(r.Context(), patch)
	if err != nil {
		s.logRejected(r, applog.OpCreate, err)
		writeError(w, r, applog.OpCreate, err)
		return
	}
	atomic.AddInt64(&s.metrics.created, 1)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", fmt.Sprintf("/api/transactions/%d/", t.ID)).
		Body(toTransactionJSON(t)).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		NotFoundError().Write(w)
		return
	}

	t, err := s.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	NewJSONResponse().Body(toTransactionJSON(t)).Write(w)
}

// handleReplaceTransaction requires every writable field.
func (s *Server) handleReplaceTransaction(w http.ResponseWriter, r *http.Request) {
	s.updateTransaction(w, r, false)
}

// handlePatchTransaction validates and changes only the supplied fields.
func (s *Server) handlePatchTransaction(w http.ResponseWriter, r *http.Request) {
	s.updateTransaction(w, r, true)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, partial bool) {
	id, ok := parseID(r)
	if !ok {
		NotFoundError().Write(w)
		return
	}

	// Unknown ids answer 404 even when the body is invalid.
	if _, err := s.svc.Get(r.Context(), id); err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	patch, err := parseTransactionPayload(r, partial)
	if err != nil {
		s.logRejected(r, applog.OpUpdate, err)
		writeError(w, r, applog.OpUpdate, err)
		return
	}

	t, err := s.svc.Update(r.Context(), id, patch)
	if err != nil {
		s.logRejected(r, applog.OpUpdate, err)
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	atomic.AddInt64(&s.metrics.updated, 1)

	NewJSONResponse().Body(toTransactionJSON(t)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		NotFoundError().Write(w)
		return
	}

	if err := s.svc.Delete(r.Context(), id); err != nil {
		writeError(w, r, applog.OpDelete, err)
		return
	}
	atomic.AddInt64(&s.metrics.deleted, 1)

	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// logRejected records client errors on writes at info level. Server errors
// are logged by writeError.
func (s *Server) logRejected(r *http.Request, operation string, err error) {
	var (
		verr *core.ValidationError
		berr *badRequestError
	)
	errorType := ""
	switch {
	case errors.As(err, &verr):
		errorType = applog.ErrorTypeValidation
	case errors.As(err, &berr):
		errorType = applog.ErrorTypeBadRequest
	default:
		return
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentAPI).InfoContext(r.Context(),
		"Write rejected",
		applog.FieldOperation, operation,
		applog.FieldErrorType, errorType,
		applog.FieldError, err.Error())
}
