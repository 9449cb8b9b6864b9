package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	accounts := NewAccountRepository(db)
	payments := NewPaymentRepository(db)
	ctx := context.Background()

	account, err := accounts.Create(ctx, &model.Account{
		AccountNumber: "ACC600",
		CustomerName:  "Test Customer",
		IssueDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		InterestRate:  decimal.RequireFromString("7.25"),
		Tenure:        36,
		EmiDue:        decimal.RequireFromString("900.00"),
	})
	require.NoError(t, err)

	created, err := payments.Create(ctx, &model.Payment{
		AccountID:     account.ID,
		PaymentAmount: decimal.RequireFromString("300.00"),
		PaymentDate:   time.Now().UTC(),
		Status:        model.PaymentStatusSuccess,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, model.PaymentStatusSuccess, created.Status)
	assert.True(t, created.PaymentAmount.Equal(decimal.RequireFromString("300.00")))
}

func TestPaymentRepository_ListByAccount(t *testing.T) {
	db := setupTestDB(t).DB
	accounts := NewAccountRepository(db)
	payments := NewPaymentRepository(db)
	ctx := context.Background()

	mkAccount := func(number string) *model.Account {
		account, err := accounts.Create(ctx, &model.Account{
			AccountNumber: number,
			CustomerName:  "Test Customer",
			IssueDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			InterestRate:  decimal.RequireFromString("7.25"),
			Tenure:        12,
			EmiDue:        decimal.RequireFromString("1200.00"),
		})
		require.NoError(t, err)
		return account
	}

	first := mkAccount("ACC700")
	second := mkAccount("ACC701")

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := payments.Create(ctx, &model.Payment{
			AccountID:     first.ID,
			PaymentAmount: decimal.NewFromInt(int64(100 * (i + 1))),
			PaymentDate:   base.Add(time.Duration(i) * time.Hour),
			Status:        model.PaymentStatusSuccess,
		})
		require.NoError(t, err)
	}
	_, err := payments.Create(ctx, &model.Payment{
		AccountID:     second.ID,
		PaymentAmount: decimal.NewFromInt(999),
		PaymentDate:   base,
		Status:        model.PaymentStatusSuccess,
	})
	require.NoError(t, err)

	t.Run("returns only the requested account, newest first", func(t *testing.T) {
		list, err := payments.ListByAccount(ctx, first.ID, model.PaymentFilter{})
		require.NoError(t, err)
		require.Len(t, list, 3)

		assert.True(t, list[0].PaymentAmount.Equal(decimal.NewFromInt(300)))
		assert.True(t, list[1].PaymentAmount.Equal(decimal.NewFromInt(200)))
		assert.True(t, list[2].PaymentAmount.Equal(decimal.NewFromInt(100)))
		for _, p := range list {
			assert.Equal(t, first.ID, p.AccountID)
		}
	})

	t.Run("respects limit and offset", func(t *testing.T) {
		list, err := payments.ListByAccount(ctx, first.ID, model.PaymentFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, list[0].PaymentAmount.Equal(decimal.NewFromInt(200)))
	})

	t.Run("no payments yields empty slice", func(t *testing.T) {
		empty := mkAccount("ACC702")
		list, err := payments.ListByAccount(ctx, empty.ID, model.PaymentFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
