package services

import (
	"context"
	"testing"
	"time"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() model.AccountCreateRequest {
	return model.AccountCreateRequest{
		AccountNumber: "ACC123",
		CustomerName:  "Jordan Lee",
		IssueDate:     "2024-01-15",
		InterestRate:  decimal.RequireFromString("8.50"),
		Tenure:        24,
		EmiDue:        decimal.RequireFromString("5000.00"),
	}
}

func TestAccountService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("successful create", func(t *testing.T) {
		repo := new(MockAccountRepository)
		repo.On("Create", ctx, mock.MatchedBy(func(a *model.Account) bool {
			return a.AccountNumber == "ACC123" &&
				a.CustomerName == "Jordan Lee" &&
				a.IssueDate.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) &&
				a.EmiDue.Equal(decimal.RequireFromString("5000.00"))
		})).Return(&model.Account{ID: 1, AccountNumber: "ACC123"}, nil)

		svc := NewAccountService(repo)
		created, err := svc.Create(ctx, validCreateRequest())
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.ID)
		repo.AssertExpectations(t)
	})

	t.Run("empty customer name defaults", func(t *testing.T) {
		repo := new(MockAccountRepository)
		repo.On("Create", ctx, mock.MatchedBy(func(a *model.Account) bool {
			return a.CustomerName == model.DefaultCustomerName
		})).Return(&model.Account{ID: 2, CustomerName: model.DefaultCustomerName}, nil)

		req := validCreateRequest()
		req.CustomerName = ""

		svc := NewAccountService(repo)
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate account number", func(t *testing.T) {
		repo := new(MockAccountRepository)
		repo.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicateAccount)

		svc := NewAccountService(repo)
		_, err := svc.Create(ctx, validCreateRequest())
		assert.ErrorIs(t, err, ErrDuplicateAccount)
	})

	t.Run("validation failures never reach the repository", func(t *testing.T) {
		repo := new(MockAccountRepository)
		svc := NewAccountService(repo)

		bad := []func(*model.AccountCreateRequest){
			func(r *model.AccountCreateRequest) { r.AccountNumber = "" },
			func(r *model.AccountCreateRequest) { r.IssueDate = "15-01-2024" },
			func(r *model.AccountCreateRequest) { r.Tenure = 0 },
			func(r *model.AccountCreateRequest) { r.InterestRate = decimal.Zero },
			func(r *model.AccountCreateRequest) { r.EmiDue = decimal.RequireFromString("-10") },
		}
		for _, mutate := range bad {
			req := validCreateRequest()
			mutate(&req)
			_, err := svc.Create(ctx, req)
			assert.Error(t, err)
		}
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestAccountService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("existing account", func(t *testing.T) {
		repo := new(MockAccountRepository)
		repo.On("GetByAccountNumber", ctx, "ACC123").Return(&model.Account{ID: 1, AccountNumber: "ACC123"}, nil)

		svc := NewAccountService(repo)
		account, err := svc.Get(ctx, "ACC123")
		require.NoError(t, err)
		assert.Equal(t, "ACC123", account.AccountNumber)
	})

	t.Run("missing account", func(t *testing.T) {
		repo := new(MockAccountRepository)
		repo.On("GetByAccountNumber", ctx, "MISSING").Return(nil, repository.ErrAccountNotFound)

		svc := NewAccountService(repo)
		_, err := svc.Get(ctx, "MISSING")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestAccountService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAccountRepository)
	repo.On("List", ctx).Return([]*model.Account{{ID: 1}, {ID: 2}}, nil)

	svc := NewAccountService(repo)
	accounts, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}
