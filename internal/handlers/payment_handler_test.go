package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Process(ctx context.Context, req model.PaymentRequest) (*model.PaymentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentResult), args.Error(1)
}

func (m *MockPaymentService) History(ctx context.Context, accountNumber string, f model.PaymentFilter) ([]*model.Payment, error) {
	args := m.Called(ctx, accountNumber, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func TestPaymentHandler_CreatePayment(t *testing.T) {
	paidAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("successful payment", func(t *testing.T) {
		svc := new(MockPaymentService)
		handler := NewPaymentHandler(svc)

		svc.On("Process", mock.Anything, mock.MatchedBy(func(r model.PaymentRequest) bool {
			return r.AccountNumber == "ACC123" && r.Amount.Equal(decimal.RequireFromString("200.00"))
		})).Return(&model.PaymentResult{
			Payment: &model.Payment{
				ID:            7,
				AccountID:     42,
				PaymentAmount: decimal.RequireFromString("200.00"),
				PaymentDate:   paidAt,
				Status:        model.PaymentStatusSuccess,
			},
			AccountNumber: "ACC123",
			PreviousDue:   decimal.RequireFromString("500.00"),
			NewDue:        decimal.RequireFromString("300.00"),
		}, nil)

		body, _ := json.Marshal(map[string]any{
			"account_number": "ACC123",
			"payment_amount": "200.00",
		})
		ctx := setupTestContext("POST", "/api/v1/payments", body)
		handler.CreatePayment(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())

		var response createPaymentResponse
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Equal(t, "payment successful", response.Message)
		assert.Equal(t, "ACC123", response.Payment.AccountNumber)
		assert.Equal(t, model.PaymentStatusSuccess, response.Payment.Status)
		assert.True(t, response.Account.PreviousDue.Equal(decimal.RequireFromString("500.00")))
		assert.True(t, response.Account.NewDue.Equal(decimal.RequireFromString("300.00")))
		svc.AssertExpectations(t)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc := new(MockPaymentService)
		handler := NewPaymentHandler(svc)

		svc.On("Process", mock.Anything, mock.Anything).Return(nil, services.ErrAccountNotFound)

		body, _ := json.Marshal(map[string]any{"account_number": "MISSING", "payment_amount": "10"})
		ctx := setupTestContext("POST", "/api/v1/payments", body)
		handler.CreatePayment(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("amount exceeds due", func(t *testing.T) {
		svc := new(MockPaymentService)
		handler := NewPaymentHandler(svc)

		svc.On("Process", mock.Anything, mock.Anything).Return(nil, &services.AmountExceedsDueError{
			Amount: decimal.RequireFromString("500.01"),
			Due:    decimal.RequireFromString("500.00"),
		})

		body, _ := json.Marshal(map[string]any{"account_number": "ACC123", "payment_amount": "500.01"})
		ctx := setupTestContext("POST", "/api/v1/payments", body)
		handler.CreatePayment(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())

		var response map[string]string
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Contains(t, response["error"], "500.01")
		assert.Contains(t, response["error"], "500.00")
	})

	t.Run("non-positive amount", func(t *testing.T) {
		svc := new(MockPaymentService)
		handler := NewPaymentHandler(svc)

		svc.On("Process", mock.Anything, mock.Anything).Return(nil, services.ErrInvalidAmount)

		body, _ := json.Marshal(map[string]any{"account_number": "ACC123", "payment_amount": "0"})
		ctx := setupTestContext("POST", "/api/v1/payments", body)
		handler.CreatePayment(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("storage failure maps to 503", func(t *testing.T) {
		svc := new(MockPaymentService)
		handler := NewPaymentHandler(svc)

		svc.On("Process", mock.Anything, mock.Anything).Return(nil, errors.New("record payment: connection reset"))

		body, _ := json.Marshal(map[string]any{"account_number": "ACC123", "payment_amount": "10"})
		ctx := setupTestContext("POST", "/api/v1/payments", body)
		handler.CreatePayment(ctx)

		assert.Equal(t, 503, ctx.Response.StatusCode())
	})

	t.Run("invalid JSON", func(t *testing.T) {
		handler := NewPaymentHandler(new(MockPaymentService))

		ctx := setupTestContext("POST", "/api/v1/payments", []byte("{"))
		handler.CreatePayment(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestPaymentHandler_ListPayments(t *testing.T) {
	t.Run("returns payment history", func(t *testing.T) {
		svc := new(MockPaymentService)
		handler := NewPaymentHandler(svc)

		svc.On("History", mock.Anything, "ACC123", model.PaymentFilter{Limit: 2, Offset: 1}).
			Return([]*model.Payment{{ID: 2}, {ID: 1}}, nil)

		ctx := setupTestContext("GET", "/api/v1/payments/ACC123?limit=2&offset=1", nil)
		ctx.SetUserValue("account_number", "ACC123")
		handler.ListPayments(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response []*model.Payment
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Len(t, response, 2)
	})

	t.Run("unknown account", func(t *testing.T) {
		svc := new(MockPaymentService)
		handler := NewPaymentHandler(svc)

		svc.On("History", mock.Anything, "MISSING", mock.Anything).Return(nil, services.ErrAccountNotFound)

		ctx := setupTestContext("GET", "/api/v1/payments/MISSING", nil)
		ctx.SetUserValue("account_number", "MISSING")
		handler.ListPayments(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("no payments yet is an empty array", func(t *testing.T) {
		svc := new(MockPaymentService)
		handler := NewPaymentHandler(svc)

		svc.On("History", mock.Anything, "ACC123", mock.Anything).Return([]*model.Payment{}, nil)

		ctx := setupTestContext("GET", "/api/v1/payments/ACC123", nil)
		ctx.SetUserValue("account_number", "ACC123")
		handler.ListPayments(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Equal(t, "[]", string(ctx.Response.Body()))
	})
}
