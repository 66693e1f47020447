package handler

import (
	"context"
	"net/http"

	"github.com/dinerhq/pos-api/internal/service"
	"github.com/dinerhq/pos-api/internal/shift"
	"github.com/dinerhq/pos-api/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShiftServicer is satisfied by *service.ShiftService.
type ShiftServicer interface {
	Open(ctx context.Context, actor service.Actor, req service.OpenShiftRequest) (*shift.Shift, error)
	Current(ctx context.Context, actor service.Actor) (*shift.Shift, error)
	Get(ctx context.Context, actor service.Actor, id uuid.UUID) (*shift.Shift, error)
	Close(ctx context.Context, actor service.Actor, id uuid.UUID, counted decimal.Decimal) (*shift.Shift, error)
	ForceClose(ctx context.Context, actor service.Actor, id uuid.UUID, reason string) (*shift.Shift, error)
}

// ShiftHandler handles cashier shift endpoints.
type ShiftHandler struct {
	svc ShiftServicer
	log *zap.Logger
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(svc ShiftServicer, log *zap.Logger) *ShiftHandler {
	return &ShiftHandler{svc: svc, log: log}
}

// RegisterRoutes registers shift endpoints. Mounted at /branches/{bid}/shifts
func (h *ShiftHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Open)
	r.Get("/current", h.Current)
	r.Get("/{sid}", h.Get)
	r.Post("/{sid}/close", h.Close)
	r.Post("/{sid}/force-close", h.ForceClose)
}

type openShiftRequest struct {
	Currency    string `json:"currency"`
	OpeningCash string `json:"opening_cash"`
}

type closeShiftRequest struct {
	CountedCash string `json:"counted_cash"`
}

type forceCloseRequest struct {
	Reason string `json:"reason"`
}

// Open handles POST /branches/{bid}/shifts.
func (h *ShiftHandler) Open(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	var req openShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	cash, err := parseDecimal(req.OpeningCash)
	if err != nil {
		badRequest(w, h.log, "invalid opening_cash")
		return
	}
	sh, err := h.svc.Open(r.Context(), actor, service.OpenShiftRequest{Currency: req.Currency, OpeningCash: cash})
	if err != nil {
		writeError(w, r, h.log, "open shift", err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, view.FromShift(sh))
}

// Current handles GET /branches/{bid}/shifts/current.
func (h *ShiftHandler) Current(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	sh, err := h.svc.Current(r.Context(), actor)
	h.respond(w, r, "current shift", sh, err)
}

// Get handles GET /branches/{bid}/shifts/{sid}.
func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "sid")
	if !ok {
		return
	}
	sh, err := h.svc.Get(r.Context(), actor, id)
	h.respond(w, r, "get shift", sh, err)
}

// Close handles POST /branches/{bid}/shifts/{sid}/close.
func (h *ShiftHandler) Close(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "sid")
	if !ok {
		return
	}
	var req closeShiftRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	counted, err := decimal.NewFromString(req.CountedCash)
	if err != nil {
		badRequest(w, h.log, "invalid counted_cash")
		return
	}
	sh, err := h.svc.Close(r.Context(), actor, id, counted)
	h.respond(w, r, "close shift", sh, err)
}

// ForceClose handles POST /branches/{bid}/shifts/{sid}/force-close.
func (h *ShiftHandler) ForceClose(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "sid")
	if !ok {
		return
	}
	var req forceCloseRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	sh, err := h.svc.ForceClose(r.Context(), actor, id, req.Reason)
	h.respond(w, r, "force close shift", sh, err)
}

func (h *ShiftHandler) respond(w http.ResponseWriter, r *http.Request, op string, sh *shift.Shift, err error) {
	if err != nil {
		writeError(w, r, h.log, op, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, view.FromShift(sh))
}
