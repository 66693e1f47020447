package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dinerhq/pos-api/internal/approval"
	"github.com/dinerhq/pos-api/internal/enum"
	"github.com/dinerhq/pos-api/internal/order"
	"github.com/dinerhq/pos-api/internal/pricing"
	"github.com/dinerhq/pos-api/internal/service"
	"github.com/dinerhq/pos-api/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, actor service.Actor, req service.CreateOrderRequest) (*order.Order, error)
	GetOrder(ctx context.Context, actor service.Actor, id uuid.UUID) (*order.Order, error)
	AddLine(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.LineRequest, override *approval.Override) (*order.Order, error)
	UpdateLine(ctx context.Context, actor service.Actor, orderID, lineID uuid.UUID, req service.UpdateLineRequest) (*order.Order, error)
	RemoveLine(ctx context.Context, actor service.Actor, orderID, lineID uuid.UUID, override *approval.Override) (*order.Order, error)
	SendToKitchen(ctx context.Context, actor service.Actor, orderID uuid.UUID) (*order.Order, error)
	SetLineStatus(ctx context.Context, actor service.Actor, orderID, lineID uuid.UUID, status enum.LineStatus) (*order.Order, error)
	Transition(ctx context.Context, actor service.Actor, orderID uuid.UUID, to enum.OrderStatus) (*order.Order, error)
	RequestDiscount(ctx context.Context, actor service.Actor, orderID uuid.UUID, req service.DiscountRequest) (*order.Order, error)
	SetFees(ctx context.Context, actor service.Actor, orderID uuid.UUID, deliveryFee, tips decimal.Decimal) (*order.Order, error)
	VoidOrder(ctx context.Context, actor service.Actor, orderID uuid.UUID, reason string, override *approval.Override) (*order.Order, error)
	RedeemLoyalty(ctx context.Context, actor service.Actor, orderID, accountID uuid.UUID, points int64) (*order.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc OrderServicer
	log *zap.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, log *zap.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, log: log}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/orders
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/lines", h.AddLine)
	r.Patch("/{id}/lines/{lid}", h.UpdateLine)
	r.Delete("/{id}/lines/{lid}", h.RemoveLine)
	r.Patch("/{id}/lines/{lid}/status", h.SetLineStatus)
	r.Post("/{id}/send", h.SendToKitchen)
	r.Patch("/{id}/status", h.Transition)
	r.Put("/{id}/discount", h.RequestDiscount)
	r.Put("/{id}/fees", h.SetFees)
	r.Post("/{id}/void", h.Void)
	r.Post("/{id}/loyalty", h.RedeemLoyalty)
}

// --- Request types ---

type createOrderRequest struct {
	OrderType        string           `json:"order_type"`
	Currency         string           `json:"currency"`
	ShiftID          string           `json:"shift_id"`
	TableNumber      string           `json:"table_number"`
	DeliveryAddress  string           `json:"delivery_address"`
	DeliveryFee      string           `json:"delivery_fee"`
	Notes            string           `json:"notes"`
	LoyaltyAccountID string           `json:"loyalty_account_id"`
	Lines            []lineRequest    `json:"lines"`
	Override         *overrideRequest `json:"override"`
}

type lineRequest struct {
	ItemID        string            `json:"item_id"`
	SizeID        string            `json:"size_id"`
	Quantity      int32             `json:"quantity"`
	Notes         string            `json:"notes"`
	DiscountType  string            `json:"discount_type"`
	DiscountValue string            `json:"discount_value"`
	Modifiers     []modifierRequest `json:"modifiers"`
	Override      *overrideRequest  `json:"override"`
}

type modifierRequest struct {
	ModifierID string `json:"modifier_id"`
	Quantity   int32  `json:"quantity"`
}

type updateLineRequest struct {
	Quantity  *int32           `json:"quantity"`
	UnitPrice *string          `json:"unit_price"`
	Notes     *string          `json:"notes"`
	Override  *overrideRequest `json:"override"`
}

type removeLineRequest struct {
	Override *overrideRequest `json:"override"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type discountRequest struct {
	LineID        string           `json:"line_id"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue string           `json:"discount_value"`
	Override      *overrideRequest `json:"override"`
}

type feesRequest struct {
	DeliveryFee string `json:"delivery_fee"`
	Tips        string `json:"tips"`
}

type voidRequest struct {
	Reason   string           `json:"reason"`
	Override *overrideRequest `json:"override"`
}

type redeemLoyaltyRequest struct {
	LoyaltyAccountID string `json:"loyalty_account_id"`
	Points           int64  `json:"points"`
}

func formatLineError(index int, msg string) string {
	return fmt.Sprintf("lines[%d]: %s", index, msg)
}

func (l lineRequest) toService() (service.LineRequest, error) {
	itemID, err := uuid.Parse(l.ItemID)
	if err != nil {
		return service.LineRequest{}, fmt.Errorf("invalid item_id")
	}
	sizeID, err := parseOptionalUUID(l.SizeID)
	if err != nil {
		return service.LineRequest{}, fmt.Errorf("invalid size_id")
	}
	disc, err := toDiscount(l.DiscountType, l.DiscountValue)
	if err != nil {
		return service.LineRequest{}, err
	}
	mods := make([]service.ModifierRequest, len(l.Modifiers))
	for i, m := range l.Modifiers {
		id, err := uuid.Parse(m.ModifierID)
		if err != nil {
			return service.LineRequest{}, fmt.Errorf("modifiers[%d]: invalid modifier_id", i)
		}
		mods[i] = service.ModifierRequest{ModifierID: id, Quantity: m.Quantity}
	}
	return service.LineRequest{
		ItemID:    itemID,
		SizeID:    sizeID,
		Quantity:  l.Quantity,
		Notes:     l.Notes,
		Discount:  disc,
		Modifiers: mods,
	}, nil
}

// toDiscount builds a discount; an empty type clears it.
func toDiscount(typ, value string) (pricing.Discount, error) {
	if typ == "" {
		return pricing.Discount{}, nil
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return pricing.Discount{}, fmt.Errorf("invalid discount_value")
	}
	return pricing.Discount{Type: enum.DiscountType(typ), Value: v}, nil
}

// --- Handlers ---

// Create handles POST /branches/{bid}/orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	if req.OrderType == "" {
		badRequest(w, h.log, "order_type is required")
		return
	}

	lines := make([]service.LineRequest, len(req.Lines))
	for i, l := range req.Lines {
		sl, err := l.toService()
		if err != nil {
			badRequest(w, h.log, formatLineError(i, err.Error()))
			return
		}
		lines[i] = sl
	}
	fee, err := parseDecimal(req.DeliveryFee)
	if err != nil {
		badRequest(w, h.log, "invalid delivery_fee")
		return
	}
	account, err := parseOptionalUUID(req.LoyaltyAccountID)
	if err != nil {
		badRequest(w, h.log, "invalid loyalty_account_id")
		return
	}
	shiftID, err := parseOptionalUUID(req.ShiftID)
	if err != nil {
		badRequest(w, h.log, "invalid shift_id")
		return
	}
	override, err := req.Override.toOverride()
	if err != nil {
		badRequest(w, h.log, err.Error())
		return
	}

	o, err := h.svc.CreateOrder(r.Context(), actor, service.CreateOrderRequest{
		Type:             enum.OrderType(req.OrderType),
		Currency:         req.Currency,
		ShiftID:          shiftID,
		TableNumber:      req.TableNumber,
		DeliveryAddress:  req.DeliveryAddress,
		Notes:            req.Notes,
		LoyaltyAccountID: account,
		DeliveryFee:      fee,
		Lines:            lines,
		Override:         override,
	})
	if err != nil {
		writeError(w, r, h.log, "create order", err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, view.FromOrder(o))
}

// Get handles GET /branches/{bid}/orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	o, err := h.svc.GetOrder(r.Context(), actor, id)
	h.respond(w, r, "get order", o, err)
}

// AddLine handles POST /branches/{bid}/orders/{id}/lines.
func (h *OrderHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	var req lineRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	line, err := req.toService()
	if err != nil {
		badRequest(w, h.log, err.Error())
		return
	}
	override, err := req.Override.toOverride()
	if err != nil {
		badRequest(w, h.log, err.Error())
		return
	}
	o, err := h.svc.AddLine(r.Context(), actor, id, line, override)
	h.respond(w, r, "add line", o, err)
}

// UpdateLine handles PATCH /branches/{bid}/orders/{id}/lines/{lid}.
func (h *OrderHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	lineID, ok := pathUUID(w, r, h.log, "lid")
	if !ok {
		return
	}
	var req updateLineRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	upd := service.UpdateLineRequest{Quantity: req.Quantity, Notes: req.Notes}
	if req.UnitPrice != nil {
		p, err := decimal.NewFromString(*req.UnitPrice)
		if err != nil {
			badRequest(w, h.log, "invalid unit_price")
			return
		}
		upd.UnitPrice = &p
	}
	override, err := req.Override.toOverride()
	if err != nil {
		badRequest(w, h.log, err.Error())
		return
	}
	upd.Override = override

	o, err := h.svc.UpdateLine(r.Context(), actor, id, lineID, upd)
	h.respond(w, r, "update line", o, err)
}

// RemoveLine handles DELETE /branches/{bid}/orders/{id}/lines/{lid}. The
// body is optional and only carries a manager override.
func (h *OrderHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	lineID, ok := pathUUID(w, r, h.log, "lid")
	if !ok {
		return
	}
	var req removeLineRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, h.log, "invalid request body")
		return
	}
	override, err := req.Override.toOverride()
	if err != nil {
		badRequest(w, h.log, err.Error())
		return
	}
	o, err := h.svc.RemoveLine(r.Context(), actor, id, lineID, override)
	h.respond(w, r, "remove line", o, err)
}

// SetLineStatus handles PATCH /branches/{bid}/orders/{id}/lines/{lid}/status.
// Used by the kitchen display.
func (h *OrderHandler) SetLineStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	lineID, ok := pathUUID(w, r, h.log, "lid")
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	status := enum.LineStatus(req.Status)
	if !status.Valid() {
		badRequest(w, h.log, "invalid status")
		return
	}
	o, err := h.svc.SetLineStatus(r.Context(), actor, id, lineID, status)
	h.respond(w, r, "set line status", o, err)
}

// SendToKitchen handles POST /branches/{bid}/orders/{id}/send.
func (h *OrderHandler) SendToKitchen(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	o, err := h.svc.SendToKitchen(r.Context(), actor, id)
	h.respond(w, r, "send to kitchen", o, err)
}

// Transition handles PATCH /branches/{bid}/orders/{id}/status.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	status := enum.OrderStatus(req.Status)
	if !status.Valid() {
		badRequest(w, h.log, "invalid status")
		return
	}
	o, err := h.svc.Transition(r.Context(), actor, id, status)
	h.respond(w, r, "transition order", o, err)
}

// RequestDiscount handles PUT /branches/{bid}/orders/{id}/discount. An empty
// discount_type clears the discount.
func (h *OrderHandler) RequestDiscount(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	var req discountRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	lineID, err := parseOptionalUUID(req.LineID)
	if err != nil {
		badRequest(w, h.log, "invalid line_id")
		return
	}
	disc, err := toDiscount(req.DiscountType, req.DiscountValue)
	if err != nil {
		badRequest(w, h.log, err.Error())
		return
	}
	override, err := req.Override.toOverride()
	if err != nil {
		badRequest(w, h.log, err.Error())
		return
	}
	o, err := h.svc.RequestDiscount(r.Context(), actor, id, service.DiscountRequest{
		LineID:   lineID,
		Discount: disc,
		Override: override,
	})
	h.respond(w, r, "request discount", o, err)
}

// SetFees handles PUT /branches/{bid}/orders/{id}/fees.
func (h *OrderHandler) SetFees(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	var req feesRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	fee, err := parseDecimal(req.DeliveryFee)
	if err != nil {
		badRequest(w, h.log, "invalid delivery_fee")
		return
	}
	tips, err := parseDecimal(req.Tips)
	if err != nil {
		badRequest(w, h.log, "invalid tips")
		return
	}
	o, err := h.svc.SetFees(r.Context(), actor, id, fee, tips)
	h.respond(w, r, "set fees", o, err)
}

// Void handles POST /branches/{bid}/orders/{id}/void.
func (h *OrderHandler) Void(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	var req voidRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	if req.Reason == "" {
		badRequest(w, h.log, "reason is required")
		return
	}
	override, err := req.Override.toOverride()
	if err != nil {
		badRequest(w, h.log, err.Error())
		return
	}
	o, err := h.svc.VoidOrder(r.Context(), actor, id, req.Reason, override)
	h.respond(w, r, "void order", o, err)
}

// RedeemLoyalty handles POST /branches/{bid}/orders/{id}/loyalty.
func (h *OrderHandler) RedeemLoyalty(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOrAbort(w, r, h.log)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, h.log, "id")
	if !ok {
		return
	}
	var req redeemLoyaltyRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, h.log, "invalid request body")
		return
	}
	account, err := uuid.Parse(req.LoyaltyAccountID)
	if err != nil {
		badRequest(w, h.log, "invalid loyalty_account_id")
		return
	}
	o, err := h.svc.RedeemLoyalty(r.Context(), actor, id, account, req.Points)
	h.respond(w, r, "redeem loyalty", o, err)
}

func (h *OrderHandler) respond(w http.ResponseWriter, r *http.Request, op string, o *order.Order, err error) {
	if err != nil {
		writeError(w, r, h.log, op, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, view.FromOrder(o))
}
