package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	gateway "github.com/shivamprakash2909/loan-app/internal/gateways"
	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/internal/queue"
	"github.com/shivamprakash2909/loan-app/pkg/logger"
	"github.com/shivamprakash2909/loan-app/pkg/prom"
)

// ReceiptProcessor turns committed payment events into receipt
// notifications. Delivery is at-least-once from the stream; the
// idempotency service collapses that to effectively-once per receipt.
type ReceiptProcessor struct {
	client      *gateway.Client
	idempotency *IdempotencyService
}

func NewReceiptProcessor(client *gateway.Client, idempotency *IdempotencyService) *ReceiptProcessor {
	return &ReceiptProcessor{
		client:      client,
		idempotency: idempotency,
	}
}

func (p *ReceiptProcessor) GetType() string {
	return "receipt"
}

func (p *ReceiptProcessor) Process(ctx context.Context, queueMessage *queue.Message) error {
	var event model.PaymentEvent
	if err := json.Unmarshal(queueMessage.Data, &event); err != nil {
		logger.Error("failed to unmarshal payment event", "error", err)
		return err // malformed event goes to the DLQ
	}

	receiptID := strconv.FormatInt(event.PaymentID, 10)

	dc, err := p.idempotency.AcquireDeliveryLock(ctx, receiptID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyDelivered):
			logger.Info("receipt already delivered, skipping", "receipt_id", receiptID)
			return nil // ACK
		case errors.Is(err, ErrMaxRetriesExceeded):
			logger.Error("giving up on receipt delivery", "receipt_id", receiptID)
			return nil // ACK, DLQ already holds the raw event
		case errors.Is(err, ErrLockAcquireFailed):
			return errors.New("lock held by another consumer")
		default:
			logger.Error("failed to acquire delivery lock", "receipt_id", receiptID, "error", err)
			return err
		}
	}
	defer func() {
		if dc.lockAcquired {
			p.idempotency.ReleaseLock(ctx, dc)
		}
	}()

	logger.Info("delivering receipt",
		"receipt_id", receiptID,
		"account_number", event.AccountNumber,
		"retry_count", dc.RetryCount)

	req := &gateway.DeliverRequest{
		ReceiptID:     receiptID,
		AccountNumber: event.AccountNumber,
		Amount:        event.Amount,
		NewDue:        event.NewDue,
		PaidAt:        event.PaidAt,
	}

	res, err := p.client.Deliver(ctx, req)
	if err != nil {
		if markErr := p.idempotency.MarkFailure(ctx, dc, err); markErr != nil {
			logger.Error("failed to mark delivery failure", "receipt_id", receiptID, "error", markErr)
		}
		return err // NACK to retry from the stream
	}

	if res.Status == gateway.StatusDelivered {
		prom.AddReceiptDeliveryDuration(time.Since(event.PaidAt).Seconds(), res.ProviderID)

		if markErr := p.idempotency.MarkDelivered(ctx, dc); markErr != nil {
			// The receipt went out; a stale marker only risks one
			// duplicate on redelivery.
			logger.Error("failed to mark receipt delivered", "receipt_id", receiptID, "error", markErr)
		}
		return nil
	}

	logger.Warn("provider rejected receipt", "receipt_id", receiptID, "status", res.Status, "error_code", res.ErrorCode)
	if markErr := p.idempotency.MarkFailure(ctx, dc, errors.New("provider returned non-delivered status")); markErr != nil {
		logger.Error("failed to mark delivery failure", "receipt_id", receiptID, "error", markErr)
	}
	return errors.New("failed to deliver receipt")
}
