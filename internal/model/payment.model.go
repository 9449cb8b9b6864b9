package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatusSuccess is the only status ever persisted. Rejected
// attempts are not written to the ledger at all.
const PaymentStatusSuccess = "SUCCESS"

// Payment is one committed EMI payment. Rows are append-only: a payment
// is written exactly once and never updated or deleted.
type Payment struct {
	ID            int64           `json:"id"`
	AccountID     int64           `json:"account_id"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	Status        string          `json:"status"`
}

func (Payment) TableName() string { return "payments" }

// PaymentRequest is the input for processing one EMI payment.
type PaymentRequest struct {
	AccountNumber string
	Amount        decimal.Decimal
}

// PaymentResult carries the committed payment together with the due
// balance before and after, so the caller never needs a second lookup.
type PaymentResult struct {
	Payment       *Payment
	AccountNumber string
	PreviousDue   decimal.Decimal
	NewDue        decimal.Decimal
}

// PaymentFilter controls History queries.
type PaymentFilter struct {
	Limit  int // default 50
	Offset int
}

// PaymentEvent is published to the payment stream after a transaction
// commits. Consumed by the receipt notifier; never part of the commit.
type PaymentEvent struct {
	PaymentID     int64           `json:"payment_id"`
	AccountID     int64           `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	NewDue        decimal.Decimal `json:"new_due"`
	PaidAt        time.Time       `json:"paid_at"`
}
