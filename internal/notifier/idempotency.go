package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shivamprakash2909/loan-app/pkg/logger"
	"github.com/shivamprakash2909/loan-app/pkg/redis"
)

var (
	ErrAlreadyDelivered   = errors.New("receipt already delivered")
	ErrLockAcquireFailed  = errors.New("failed to acquire delivery lock")
	ErrMaxRetriesExceeded = errors.New("maximum delivery retries exceeded")
)

// IdempotencyConfig tunes the Redis-backed dedupe for receipt delivery.
// The payment itself is already durable; these keys only stop the same
// receipt from being pushed to a provider twice.
type IdempotencyConfig struct {
	LockTTL            time.Duration
	DeliveredTTL       time.Duration
	MaxRetries         int
	RetryKeyPrefix     string
	LockKeyPrefix      string
	DeliveredKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:            30 * time.Second,
		DeliveredTTL:       24 * time.Hour,
		MaxRetries:         3,
		RetryKeyPrefix:     "receipt:retry:",
		LockKeyPrefix:      "receipt:lock:",
		DeliveredKeyPrefix: "receipt:delivered:",
	}
}

type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type DeliveryContext struct {
	ReceiptID    string
	RetryCount   int
	IsRetry      bool
	lockAcquired bool
}

// AcquireDeliveryLock claims a receipt for this consumer. It fails
// with ErrAlreadyDelivered when the receipt went out earlier, with
// ErrMaxRetriesExceeded when it keeps failing, and with
// ErrLockAcquireFailed when another consumer holds it right now.
func (s *IdempotencyService) AcquireDeliveryLock(ctx context.Context, receiptID string) (*DeliveryContext, error) {
	deliveredKey := s.config.DeliveredKeyPrefix + receiptID
	exists, err := s.redis.Exist(deliveredKey)
	if err != nil {
		// A failed check is not worth blocking delivery over; a
		// duplicate receipt beats a missing one.
		logger.Warn("failed to check delivered marker", "receipt_id", receiptID, "error", err)
	} else if exists > 0 {
		return nil, ErrAlreadyDelivered
	}

	retryKey := s.config.RetryKeyPrefix + receiptID
	retryCount := 0
	if raw, err := s.redis.Get(retryKey); err == nil && len(raw) > 0 {
		fmt.Sscanf(string(raw), "%d", &retryCount)
	}

	if retryCount >= s.config.MaxRetries {
		return nil, fmt.Errorf("%w: receipt_id=%s, retries=%d", ErrMaxRetriesExceeded, receiptID, retryCount)
	}

	lockKey := s.config.LockKeyPrefix + receiptID
	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))

	acquired, err := s.redis.SetNX(lockKey, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return nil, ErrLockAcquireFailed
	}

	return &DeliveryContext{
		ReceiptID:    receiptID,
		RetryCount:   retryCount,
		IsRetry:      retryCount > 0,
		lockAcquired: true,
	}, nil
}

// MarkDelivered sets the long-term delivered marker and drops the lock
// and retry counter.
func (s *IdempotencyService) MarkDelivered(ctx context.Context, dc *DeliveryContext) error {
	deliveredKey := s.config.DeliveredKeyPrefix + dc.ReceiptID
	if err := s.redis.Set(deliveredKey, []byte("1"), s.config.DeliveredTTL); err != nil {
		return fmt.Errorf("failed to mark receipt delivered: %w", err)
	}
	s.cleanup(dc)
	return nil
}

// MarkFailure bumps the retry counter and releases the lock so another
// attempt can claim the receipt.
func (s *IdempotencyService) MarkFailure(ctx context.Context, dc *DeliveryContext, reason error) error {
	retryKey := s.config.RetryKeyPrefix + dc.ReceiptID
	newCount := dc.RetryCount + 1
	if err := s.redis.Set(retryKey, []byte(fmt.Sprintf("%d", newCount)), s.config.DeliveredTTL); err != nil {
		logger.Error("failed to increment retry counter", "receipt_id", dc.ReceiptID, "error", err)
	}

	if err := s.redis.Del(s.config.LockKeyPrefix + dc.ReceiptID); err != nil {
		logger.Warn("failed to remove delivery lock", "receipt_id", dc.ReceiptID, "error", err)
	}

	logger.Warn("receipt delivery failed, will retry",
		"receipt_id", dc.ReceiptID,
		"retry_count", newCount,
		"max_retries", s.config.MaxRetries,
		"reason", reason)
	return nil
}

func (s *IdempotencyService) ReleaseLock(ctx context.Context, dc *DeliveryContext) error {
	if dc == nil || !dc.lockAcquired {
		return nil
	}
	if err := s.redis.Del(s.config.LockKeyPrefix + dc.ReceiptID); err != nil {
		logger.Warn("failed to release delivery lock", "receipt_id", dc.ReceiptID, "error", err)
		return err
	}
	dc.lockAcquired = false
	return nil
}

func (s *IdempotencyService) cleanup(dc *DeliveryContext) {
	if err := s.redis.Del(s.config.LockKeyPrefix + dc.ReceiptID); err != nil {
		logger.Warn("failed to cleanup delivery lock", "receipt_id", dc.ReceiptID, "error", err)
	}
	if err := s.redis.Del(s.config.RetryKeyPrefix + dc.ReceiptID); err != nil {
		logger.Warn("failed to cleanup retry counter", "receipt_id", dc.ReceiptID, "error", err)
	}
	dc.lockAcquired = false
}

func (s *IdempotencyService) GetRetryCount(ctx context.Context, receiptID string) (int, error) {
	raw, err := s.redis.Get(s.config.RetryKeyPrefix + receiptID)
	if err != nil {
		if err == redis.NilError {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	fmt.Sscanf(string(raw), "%d", &count)
	return count, nil
}

func (s *IdempotencyService) IsDelivered(ctx context.Context, receiptID string) (bool, error) {
	exists, err := s.redis.Exist(s.config.DeliveredKeyPrefix + receiptID)
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
