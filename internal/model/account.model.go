package model

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DefaultCustomerName is used when an account is created without a
// customer name. Kept as a plain sentinel so older rows and new rows
// render the same way in clients.
const DefaultCustomerName = "N/A"

// Account is a loan account. EmiDue is the only field that changes after
// creation, and it only ever decreases through payments.
type Account struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"account_number"`
	CustomerName  string          `json:"customer_name"`
	IssueDate     time.Time       `json:"issue_date"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	Tenure        int             `json:"tenure"`
	EmiDue        decimal.Decimal `json:"emi_due"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (Account) TableName() string { return "accounts" }

var validate = validator.New()

// AccountCreateRequest is the input for opening a loan account.
type AccountCreateRequest struct {
	AccountNumber string          `json:"account_number" validate:"required,min=1,max=50"`
	CustomerName  string          `json:"customer_name" validate:"omitempty,min=2,max=100"`
	IssueDate     string          `json:"issue_date" validate:"required,datetime=2006-01-02"`
	InterestRate  decimal.Decimal `json:"interest_rate"`
	Tenure        int             `json:"tenure" validate:"required,gt=0"`
	EmiDue        decimal.Decimal `json:"emi_due"`
}

var (
	ErrInterestRateNotPositive = errors.New("interest_rate must be a positive number")
	ErrEmiDueNotPositive       = errors.New("emi_due must be a positive number")
)

func (p AccountCreateRequest) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	// validator tags cannot see inside decimal.Decimal
	if !p.InterestRate.IsPositive() {
		return ErrInterestRateNotPositive
	}
	if !p.EmiDue.IsPositive() {
		return ErrEmiDueNotPositive
	}
	return nil
}
