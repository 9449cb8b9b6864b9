package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/fasthttp/router"
	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/internal/services"
	xhttp "github.com/shivamprakash2909/loan-app/pkg/http"
	"github.com/shopspring/decimal"
)

type PaymentService interface {
	Process(ctx context.Context, req model.PaymentRequest) (*model.PaymentResult, error)
	History(ctx context.Context, accountNumber string, f model.PaymentFilter) ([]*model.Payment, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func RegisterPaymentRoutes(e *router.Group, h *PaymentHandler) {
	e.POST("/payments", h.CreatePayment)
	e.GET("/payments/{account_number}", h.ListPayments)
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type createPaymentRequest struct {
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"payment_amount"`
}

type paymentReceipt struct {
	AccountNumber string          `json:"account_number"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	Status        string          `json:"status"`
}

type accountBalance struct {
	AccountNumber string          `json:"account_number"`
	PreviousDue   decimal.Decimal `json:"previous_due"`
	NewDue        decimal.Decimal `json:"new_due"`
}

type createPaymentResponse struct {
	Message string         `json:"message"`
	Payment paymentReceipt `json:"payment"`
	Account accountBalance `json:"account"`
}

func (h *PaymentHandler) CreatePayment(ctx *xhttp.RequestCtx) {
	var req createPaymentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	result, err := h.svc.Process(ctx, model.PaymentRequest{
		AccountNumber: req.AccountNumber,
		Amount:        req.Amount,
	})
	if err != nil {
		var exceeds *services.AmountExceedsDueError
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			writeError(ctx, 404, err.Error())
		case errors.Is(err, services.ErrInvalidAmount):
			writeError(ctx, 400, err.Error())
		case errors.As(err, &exceeds):
			writeError(ctx, 400, err.Error())
		default:
			writeError(ctx, 503, "payment could not be processed, please retry")
		}
		return
	}

	writeJSON(ctx, 201, createPaymentResponse{
		Message: "payment successful",
		Payment: paymentReceipt{
			AccountNumber: result.AccountNumber,
			PaidAmount:    result.Payment.PaymentAmount,
			PaymentDate:   result.Payment.PaymentDate,
			Status:        result.Payment.Status,
		},
		Account: accountBalance{
			AccountNumber: result.AccountNumber,
			PreviousDue:   result.PreviousDue,
			NewDue:        result.NewDue,
		},
	})
}

func (h *PaymentHandler) ListPayments(ctx *xhttp.RequestCtx) {
	number := param(ctx, "account_number")

	var f model.PaymentFilter
	if n, ok := queryInt(ctx, "limit"); ok {
		f.Limit = n
	}
	if n, ok := queryInt(ctx, "offset"); ok {
		f.Offset = n
	}

	payments, err := h.svc.History(ctx, number, f)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	if payments == nil {
		payments = []*model.Payment{}
	}
	writeJSON(ctx, 200, payments)
}
