package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dinerhq/pos-api/internal/apperr"
	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/middleware"
	"github.com/dinerhq/pos-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// overrideRequest is a manager co-sign sent along with a gated request.
type overrideRequest struct {
	ApproverID string `json:"approver_id"`
	PIN        string `json:"pin"`
}

func (o *overrideRequest) toOverride() (*approval.Override, error) {
	if o == nil {
		return nil, nil
	}
	id, err := uuid.Parse(o.ApproverID)
	if err != nil {
		return nil, errors.New("invalid approver_id")
	}
	return &approval.Override{ApproverID: id, PIN: o.PIN}, nil
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeError maps an error kind to its HTTP status. Anything unclassified
// is logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidState),
		errors.Is(err, apperr.ErrIllegalTransition),
		errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrApprovalRequired):
		writeJSON(w, log, http.StatusForbidden, map[string]interface{}{
			"error":             err.Error(),
			"approval_required": true,
		})
		return
	case errors.Is(err, apperr.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Error(op,
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("branch_id", chi.URLParam(r, "bid")),
		)
		writeJSON(w, log, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, log, status, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, log *zap.Logger, msg string) {
	writeJSON(w, log, http.StatusBadRequest, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// actorOrAbort fetches the branch-scoped actor; routes are always mounted
// behind middleware.RequireBranch.
func actorOrAbort(w http.ResponseWriter, r *http.Request, log *zap.Logger) (service.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeJSON(w, log, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	}
	return actor, ok
}

func pathUUID(w http.ResponseWriter, r *http.Request, log *zap.Logger, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		badRequest(w, log, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// parseDecimal parses an optional money field; an empty string is zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
