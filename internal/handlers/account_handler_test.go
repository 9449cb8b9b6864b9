package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/internal/services"
	xhttp "github.com/shivamprakash2909/loan-app/pkg/http"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Create(ctx context.Context, req model.AccountCreateRequest) (*model.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountService) Get(ctx context.Context, accountNumber string) (*model.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountService) List(ctx context.Context) ([]*model.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Account), args.Error(1)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("successful account creation", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewAccountHandler(svc)

		body, _ := json.Marshal(map[string]any{
			"account_number": "ACC123",
			"customer_name":  "Jordan Lee",
			"issue_date":     "2024-01-15",
			"interest_rate":  "8.50",
			"tenure":         24,
			"emi_due":        "5000.00",
		})

		svc.On("Create", mock.Anything, mock.MatchedBy(func(r model.AccountCreateRequest) bool {
			return r.AccountNumber == "ACC123" && r.Tenure == 24
		})).Return(&model.Account{
			ID:            1,
			AccountNumber: "ACC123",
			CustomerName:  "Jordan Lee",
			IssueDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			InterestRate:  decimal.RequireFromString("8.50"),
			Tenure:        24,
			EmiDue:        decimal.RequireFromString("5000.00"),
		}, nil)

		ctx := setupTestContext("POST", "/api/v1/accounts", body)
		handler.CreateAccount(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())

		var response model.Account
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Equal(t, "ACC123", response.AccountNumber)
		svc.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		handler := NewAccountHandler(new(MockAccountService))

		ctx := setupTestContext("POST", "/api/v1/accounts", []byte("not json"))
		handler.CreateAccount(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("duplicate account number", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewAccountHandler(svc)

		svc.On("Create", mock.Anything, mock.Anything).Return(nil, services.ErrDuplicateAccount)

		body, _ := json.Marshal(map[string]any{"account_number": "ACC123"})
		ctx := setupTestContext("POST", "/api/v1/accounts", body)
		handler.CreateAccount(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("validation failure", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewAccountHandler(svc)

		svc.On("Create", mock.Anything, mock.Anything).Return(nil, model.ErrEmiDueNotPositive)

		body, _ := json.Marshal(map[string]any{"account_number": "ACC123"})
		ctx := setupTestContext("POST", "/api/v1/accounts", body)
		handler.CreateAccount(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestAccountHandler_GetAccount(t *testing.T) {
	t.Run("existing account", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewAccountHandler(svc)

		svc.On("Get", mock.Anything, "ACC123").Return(&model.Account{ID: 1, AccountNumber: "ACC123"}, nil)

		ctx := setupTestContext("GET", "/api/v1/accounts/ACC123", nil)
		ctx.SetUserValue("account_number", "ACC123")
		handler.GetAccount(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("missing account", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewAccountHandler(svc)

		svc.On("Get", mock.Anything, "MISSING").Return(nil, services.ErrAccountNotFound)

		ctx := setupTestContext("GET", "/api/v1/accounts/MISSING", nil)
		ctx.SetUserValue("account_number", "MISSING")
		handler.GetAccount(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})
}

func TestAccountHandler_ListAccounts(t *testing.T) {
	t.Run("returns accounts as a bare array", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewAccountHandler(svc)

		svc.On("List", mock.Anything).Return([]*model.Account{
			{ID: 1, AccountNumber: "ACC001"},
			{ID: 2, AccountNumber: "ACC002"},
		}, nil)

		ctx := setupTestContext("GET", "/api/v1/accounts", nil)
		handler.ListAccounts(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response []*model.Account
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &response))
		assert.Len(t, response, 2)
	})

	t.Run("empty store yields empty array not null", func(t *testing.T) {
		svc := new(MockAccountService)
		handler := NewAccountHandler(svc)

		svc.On("List", mock.Anything).Return([]*model.Account(nil), nil)

		ctx := setupTestContext("GET", "/api/v1/accounts", nil)
		handler.ListAccounts(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Equal(t, "[]", string(ctx.Response.Body()))
	})
}
