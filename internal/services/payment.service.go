package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/internal/repository"
	"github.com/shivamprakash2909/loan-app/pkg/logger"
	"github.com/shivamprakash2909/loan-app/pkg/prom"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrInvalidAmount   = errors.New("payment amount must be a positive number")
)

// AmountExceedsDueError is returned when a payment is larger than the
// outstanding due. It keeps both figures so callers can report exactly
// what was attempted against what was owed.
type AmountExceedsDueError struct {
	Amount decimal.Decimal
	Due    decimal.Decimal
}

func (e *AmountExceedsDueError) Error() string {
	return fmt.Sprintf("payment amount %s exceeds outstanding due %s", e.Amount.StringFixed(2), e.Due.StringFixed(2))
}

type AccountLocker interface {
	GetForUpdate(ctx context.Context, number string) (*model.Account, error)
	GetByAccountNumber(ctx context.Context, number string) (*model.Account, error)
	UpdateDue(ctx context.Context, accountID int64, newDue decimal.Decimal) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type PaymentLedger interface {
	Create(ctx context.Context, p *model.Payment) (*model.Payment, error)
	ListByAccount(ctx context.Context, accountID int64, f model.PaymentFilter) ([]*model.Payment, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

type PaymentService struct {
	accountRepo AccountLocker
	paymentRepo PaymentLedger
	events      EventPublisher
}

func NewPaymentService(accountRepo AccountLocker, paymentRepo PaymentLedger, events EventPublisher) *PaymentService {
	return &PaymentService{
		accountRepo: accountRepo,
		paymentRepo: paymentRepo,
		events:      events,
	}
}

// Process settles one EMI payment. The account row is locked for the
// whole critical section, so two concurrent payments against the same
// account serialize and each one validates against the due the previous
// one left behind. The payment insert and the due update commit
// together or not at all.
func (s *PaymentService) Process(ctx context.Context, req model.PaymentRequest) (*model.PaymentResult, error) {
	if !req.Amount.IsPositive() {
		prom.IncPaymentProcessed("invalid_amount")
		return nil, ErrInvalidAmount
	}

	var result *model.PaymentResult
	err := s.accountRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		account, err := s.accountRepo.GetForUpdate(ctx, req.AccountNumber)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return ErrAccountNotFound
			}
			return fmt.Errorf("lock account: %w", err)
		}

		if req.Amount.GreaterThan(account.EmiDue) {
			return &AmountExceedsDueError{Amount: req.Amount, Due: account.EmiDue}
		}

		newDue := account.EmiDue.Sub(req.Amount)
		if newDue.IsNegative() {
			newDue = decimal.Zero
		}

		created, err := s.paymentRepo.Create(ctx, &model.Payment{
			AccountID:     account.ID,
			PaymentAmount: req.Amount,
			PaymentDate:   time.Now().UTC(),
			Status:        model.PaymentStatusSuccess,
		})
		if err != nil {
			return fmt.Errorf("record payment: %w", err)
		}

		if err := s.accountRepo.UpdateDue(ctx, account.ID, newDue); err != nil {
			// Rollback drops the payment row too, so the ledger and
			// the due balance never diverge.
			return fmt.Errorf("update due: %w", err)
		}

		result = &model.PaymentResult{
			Payment:       created,
			AccountNumber: account.AccountNumber,
			PreviousDue:   account.EmiDue,
			NewDue:        newDue,
		}
		return nil
	})
	if err != nil {
		var exceeds *AmountExceedsDueError
		switch {
		case errors.Is(err, ErrAccountNotFound):
			prom.IncPaymentProcessed("not_found")
		case errors.As(err, &exceeds):
			prom.IncPaymentProcessed("exceeds_due")
		default:
			prom.IncPaymentProcessed("storage_error")
		}
		return nil, err
	}

	prom.IncPaymentProcessed("success")
	amount, _ := req.Amount.Float64()
	prom.AddPaymentAmount(amount)

	s.publishEvent(ctx, result)
	return result, nil
}

// publishEvent notifies downstream consumers of a committed payment.
// The payment is already durable at this point; a publish failure is
// logged and swallowed, never surfaced to the payer.
func (s *PaymentService) publishEvent(ctx context.Context, result *model.PaymentResult) {
	if s.events == nil {
		return
	}
	event := model.PaymentEvent{
		PaymentID:     result.Payment.ID,
		AccountID:     result.Payment.AccountID,
		AccountNumber: result.AccountNumber,
		Amount:        result.Payment.PaymentAmount,
		NewDue:        result.NewDue,
		PaidAt:        result.Payment.PaymentDate,
	}
	if _, err := s.events.PublishJSON(ctx, event, nil); err != nil {
		logger.Warn("failed to publish payment event",
			"payment_id", event.PaymentID,
			"account_number", event.AccountNumber,
			"error", err)
	}
}

// History lists committed payments for an account, newest first. The
// account must exist; an unknown number is an error rather than an
// empty list so clients can distinguish "no payments yet" from a typo.
func (s *PaymentService) History(ctx context.Context, accountNumber string, f model.PaymentFilter) ([]*model.Payment, error) {
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return s.paymentRepo.ListByAccount(ctx, account.ID, f)
}
