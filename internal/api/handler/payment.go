package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/questforge/pigateway/internal/api/apierr"
	"github.com/questforge/pigateway/internal/api/middleware"
	"github.com/questforge/pigateway/internal/api/request"
	"github.com/questforge/pigateway/internal/api/response"
	"github.com/questforge/pigateway/internal/gateway"
	"github.com/questforge/pigateway/internal/model"
	"github.com/questforge/pigateway/internal/services/payment"
)

// PaymentHandler handles payment lifecycle endpoints
type PaymentHandler struct {
	gateway *gateway.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(gw *gateway.Service) *PaymentHandler {
	return &PaymentHandler{
		gateway: gw,
	}
}

// Create handles POST /api/v1/payments
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("amount must be a decimal string"))
		return
	}

	record, err := h.gateway.CreatePayment(r.Context(), player.ID, payment.CreateRequest{
		Amount:   amount,
		Memo:     req.Memo,
		Metadata: req.Metadata,
		LocalID:  model.LocalID(req.IdempotencyKey),
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PaymentFromModel(record))
}

// Approve handles POST /api/v1/payments/{id}/approve
func (h *PaymentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	record, err := h.gateway.ApprovePayment(r.Context(), player.ID, paymentID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PaymentFromModel(record))
}

// Submit handles POST /api/v1/payments/{id}/submit
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	txid, err := h.gateway.SubmitPayment(r.Context(), player.ID, paymentID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SubmitResponse{TxID: txid})
}

// Complete handles POST /api/v1/payments/{id}/complete
func (h *PaymentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CompletePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	record, err := h.gateway.CompletePayment(r.Context(), player.ID, paymentID(r), req.TxID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PaymentFromModel(record))
}

// Cancel handles POST /api/v1/payments/{id}/cancel
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	record, err := h.gateway.CancelPayment(r.Context(), player.ID, paymentID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PaymentFromModel(record))
}

// Get handles GET /api/v1/payments/{id}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	record, err := h.gateway.GetPayment(r.Context(), player.ID, paymentID(r))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PaymentFromModel(record))
}

func paymentID(r *http.Request) model.PaymentID {
	return model.PaymentID(mux.Vars(r)["id"])
}
