package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/distancia360/agroanalytics/internal/app"
	"github.com/distancia360/agroanalytics/internal/catalog"
	"github.com/distancia360/agroanalytics/internal/engine"
	"github.com/distancia360/agroanalytics/internal/model"
)

type errorBody struct {
	Error      string          `json:"error"`
	Candidates []catalog.Match `json:"candidates,omitempty"`
}

// errBadRequest marks malformed query parameters.
var errBadRequest = errors.New("api: bad request")

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var idErr *model.IdentifierError
	var ambiguous *catalog.AmbiguousError
	switch {
	case errors.Is(err, errBadRequest), errors.As(err, &idErr):
		return http.StatusBadRequest
	case errors.As(err, &ambiguous):
		return http.StatusConflict
	case app.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNotComparable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}

	var ambiguous *catalog.AmbiguousError
	if errors.As(err, &ambiguous) {
		body.Candidates = ambiguous.Candidates
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("api: request error",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
