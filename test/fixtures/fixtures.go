package fixtures

import (
	"time"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shopspring/decimal"
)

var (
	TestAccountActive = model.Account{
		ID:            1,
		AccountNumber: "LN-2024-0001",
		CustomerName:  "Asha Verma",
		IssueDate:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		InterestRate:  decimal.RequireFromString("8.50"),
		Tenure:        24,
		EmiDue:        decimal.RequireFromString("5000.00"),
	}

	TestAccountSmallDue = model.Account{
		ID:            2,
		AccountNumber: "LN-2024-0002",
		CustomerName:  "N/A",
		IssueDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		InterestRate:  decimal.RequireFromString("10.00"),
		Tenure:        12,
		EmiDue:        decimal.RequireFromString("0.01"),
	}

	TestAccountSettled = model.Account{
		ID:            3,
		AccountNumber: "LN-2024-0003",
		CustomerName:  "Rahul Nair",
		IssueDate:     time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		InterestRate:  decimal.RequireFromString("7.25"),
		Tenure:        36,
		EmiDue:        decimal.Zero,
	}
)

func NewTestAccountCreateRequest(accountNumber string) model.AccountCreateRequest {
	return model.AccountCreateRequest{
		AccountNumber: accountNumber,
		CustomerName:  "Test Customer",
		IssueDate:     "2024-01-15",
		InterestRate:  decimal.RequireFromString("8.50"),
		Tenure:        24,
		EmiDue:        decimal.RequireFromString("5000.00"),
	}
}

func NewTestPaymentRequest(accountNumber, amount string) model.PaymentRequest {
	return model.PaymentRequest{
		AccountNumber: accountNumber,
		Amount:        decimal.RequireFromString(amount),
	}
}

var (
	ValidPaymentAmounts = []string{
		"0.01",
		"100",
		"250.50",
		"4999.99",
	}

	InvalidPaymentAmounts = []string{
		"0",
		"-1",
		"-100.50",
	}
)
