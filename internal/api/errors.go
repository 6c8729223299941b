package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zero-day-ai/lakelore/internal/store"
)

const (
	codeInternal   = "INTERNAL"
	codeBadRequest = "BAD_REQUEST"
	codeNotFound   = "NOT_FOUND"
	codeCancelled  = "CANCELLED"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// statusFor maps a store failure to an HTTP status and error code.
// Connection failures are 503, failed or undecodable queries 502.
func statusFor(err error) (int, string) {
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		switch storeErr.Code {
		case store.ErrCodeConnectionFailed:
			return http.StatusServiceUnavailable, string(storeErr.Code)
		case store.ErrCodeQueryFailed, store.ErrCodeDecodeFailed:
			return http.StatusBadGateway, string(storeErr.Code)
		case store.ErrCodeCacheCleared:
			return http.StatusConflict, string(storeErr.Code)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, codeCancelled
	}
	return http.StatusInternalServerError, codeInternal
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
