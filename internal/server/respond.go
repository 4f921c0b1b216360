package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-splitter/internal/ledger"
	"gitlab.com/yelinaung/expense-splitter/internal/logger"
	"gitlab.com/yelinaung/expense-splitter/internal/report"
	"gitlab.com/yelinaung/expense-splitter/internal/service"
)

const maxBodyBytes = 1 << 20

func init() {
	// Monetary values go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type errorResponse struct {
	Error  string              `json:"error"`
	Errors []ledger.FieldError `json:"errors,omitempty"`
	Detail string              `json:"detail,omitempty"`
}

// badRequestError is a malformed request that never reached the service.
type badRequestError struct {
	msg string
}

func (e badRequestError) Error() string {
	return e.msg
}

// notFoundErrors are reported as 404 with their own message.
var notFoundErrors = []error{
	ledger.ErrNotFoundOrSettled,
	ledger.ErrSplitNotFound,
	ledger.ErrSplitAlreadyPaid,
	ledger.ErrNotFound,
	report.ErrNoData,
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps err to a status code and a JSON body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: "validation failed", Errors: verr.Fields})
		return
	}

	var bad badRequestError
	if errors.As(err, &bad) {
		writeJSON(ctx, w, http.StatusBadRequest, errorResponse{Error: bad.msg})
		return
	}

	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			writeJSON(ctx, w, http.StatusNotFound, errorResponse{Error: target.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, ledger.ErrForbidden):
		writeJSON(ctx, w, http.StatusForbidden, errorResponse{Error: ledger.ErrForbidden.Error()})
		return
	case errors.Is(err, service.ErrSuggestionsDisabled):
		writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{Error: service.ErrSuggestionsDisabled.Error()})
		return
	case errors.Is(err, service.ErrSuggestionFailed):
		logger.FromContext(ctx).Warn().Err(err).Msg("Category suggestion failed")
		writeJSON(ctx, w, http.StatusBadGateway, errorResponse{Error: service.ErrSuggestionFailed.Error()})
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(ctx, w, http.StatusGatewayTimeout, errorResponse{Error: "request timed out"})
		return
	}

	logger.FromContext(ctx).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Unhandled error")

	resp := errorResponse{Error: "internal server error"}
	if s.opts.Development {
		resp.Detail = err.Error()
	}
	writeJSON(ctx, w, http.StatusInternalServerError, resp)
}

// decodeJSON reads the request body into v. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequestError{msg: "invalid JSON body"}
	}
	return nil
}
