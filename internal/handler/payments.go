package handler

import (
	"context"
	"net/http"

	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/order"
	"github.com/dinerhq/pos-api/internal/service"
	"github.com/dinerhq/pos-api/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentServicer defines the settlement methods needed by payment handlers.
// Satisfied by *service.OrderService.
type PaymentServicer interface {
	ApplyPayment(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.PaymentRequest) (*order.Order, order.Payment, error)
	RefundPayment(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.RefundRequest) (*order.Order, order.Payment, error)
	VerifyGiftCard(ctx context.Context, actor service.Actor, cardID uuid.UUID) (decimal.Decimal, error)
	VerifyLoyalty(ctx context.Context, actor service.Actor, accountID uuid.UUID) (int64, error)
}

// PaymentHandler handles payment and ledger endpoints.
type PaymentHandler struct {
	svc PaymentServicer
	log *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted at /branches/{bid}/orders/{id}/payments
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Add)
	r.Post("/{pid}/refund", h.Refund)
}

// RegisterLedgerRoutes registers the ledger verification endpoints under
// /branches/{bid}.
func (h *PaymentHandler) RegisterLedgerRoutes(r chi.Router) {
	r.Get("/gift-cards/{cid}/verify", h.VerifyGiftCard)
	r.Get("/loyalty-accounts/{aid}/verify", h.VerifyLoyalty)
}

// --- Request / Response types ---

type addPaymentRequest struct {
	PaymentMethod    string `json:"payment_method"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
	AmountReceived   string `json:"amount_received"`
	ReferenceNumber  string `json:"reference_number"`
	GiftCardID       string `json:"gift_card_id"`
	LoyaltyAccountID string `json:"loyalty_account_id"`
	LoyaltyPoints    int64  `json:"loyalty_points"`
}

type refundRequest struct {
	Amount   string           `json:"amount"`
	Reason   string           `json:"reason"`
	Override *overrideRequest `json:"override"`
}

type paymentResultResponse struct {
	Order   view.Order   `json:"order"`
	Payment view.Payment `json:"payment"`
}

type ledgerVerifyResponse struct {
	ID      uuid.UUID `json:"id"`
	Balance string    `json:"balance"`
	Valid   bool      `json:"valid"`
}

// --- Handlers ---

// Add handles POST /branches/{bid}/orders/{id}/payments.
func (h *PaymentHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}

	var req addPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	method := enum.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		badRequest(w, h.log, "invalid payment_method")
		return
	}

	in := service.PaymentRequest{
		Method:        method,
		Currency:      req.Currency,
		Reference:     req.ReferenceNumber,
		LoyaltyPoints: req.LoyaltyPoints,
	}
	// Loyalty tenders are priced from the points, not a client amount.
	if method != enum.PaymentMethodLoyaltyPoints {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			badRequest(w, h.log, "invalid amount")
			return
		}
		in.Amount = amount
	}
	if req.AmountReceived != "" {
		received, err := decimal.NewFromString(req.AmountReceived)
		if err != nil {
			badRequest(w, h.log, "invalid amount_received")
			return
		}
		in.AmountReceived = &received
	}
	var err error
	if in.GiftCardID, err = parseOptionalUUID(req.GiftCardID); err != nil {
		badRequest(w, h.log, "invalid gift_card_id")
		return
	}
	if in.LoyaltyAccountID, err = parseOptionalUUID(req.LoyaltyAccountID); err != nil {
		badRequest(w, h.log, "invalid loyalty_account_id")
		return
	}

	o, p, err := h.svc.ApplyPayment(r.Context(), actor, id, in)
	if err != nil {
		writeError(w, r, h.log, "apply payment", err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, paymentResultResponse{Order: view.FromOrder(o), Payment: view.FromPayment(p)})
}

// Refund handles POST /branches/{bid}/orders/{id}/payments/{pid}/refund.
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	paymentID, ok := pathUUID(w, r, h.log, "pid")
	if !ok {
		return
	}

	var req refundRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		badRequest(w, h.log, "invalid amount")
		return
	}
	override, err := req.Override.toOverride()
	if err != nil {
		badRequest(w, h.log, err.Error())
		return
	}

	o, p, err := h.svc.RefundPayment(r.Context(), actor, id, service.RefundRequest{
		PaymentID: paymentID,
		Amount:    amount,
		Reason:    req.Reason,
		Override:  override,
	})
	if err != nil {
		writeError(w, r, h.log, "refund payment", err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, paymentResultResponse{Order: view.FromOrder(o), Payment: view.FromPayment(p)})
}

// VerifyGiftCard handles GET /branches/{bid}/gift-cards/{cid}/verify.
func (h *PaymentHandler) VerifyGiftCard(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "cid")
	if !ok {
		return
	}
	balance, err := h.svc.VerifyGiftCard(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, h.log, "verify gift card", err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, ledgerVerifyResponse{ID: id, Balance: balance.String(), Valid: true})
}

// VerifyLoyalty handles GET /branches/{bid}/loyalty-accounts/{aid}/verify.
func (h *PaymentHandler) VerifyLoyalty(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "aid")
	if !ok {
		return
	}
	points, err := h.svc.VerifyLoyalty(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, h.log, "verify loyalty", err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, ledgerVerifyResponse{ID: id, Balance: decimal.NewFromInt(points).String(), Valid: true})
}
