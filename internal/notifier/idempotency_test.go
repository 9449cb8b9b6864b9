package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shivamprakash2909/loan-app/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

type mockRedisAdapter struct {
	data map[string][]byte
	ttls map[string]time.Time
}

func newMockRedisAdapter() *mockRedisAdapter {
	return &mockRedisAdapter{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Time),
	}
}

func (m *mockRedisAdapter) SetNX(key string, value []byte, ttl time.Duration) (bool, error) {
	if _, exists := m.data[key]; exists {
		return false, nil
	}
	m.data[key] = value
	if ttl > 0 {
		m.ttls[key] = time.Now().Add(ttl)
	}
	return true, nil
}

func (m *mockRedisAdapter) Set(key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	if ttl > 0 {
		m.ttls[key] = time.Now().Add(ttl)
	}
	return nil
}

func (m *mockRedisAdapter) Get(key string) ([]byte, error) {
	if ttl, ok := m.ttls[key]; ok && time.Now().After(ttl) {
		delete(m.data, key)
		delete(m.ttls, key)
		return nil, redis.NilError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, redis.NilError
}

func (m *mockRedisAdapter) Del(key string) error {
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}

func (m *mockRedisAdapter) Exist(key string) (int64, error) {
	if ttl, ok := m.ttls[key]; ok && time.Now().After(ttl) {
		delete(m.data, key)
		delete(m.ttls, key)
		return 0, nil
	}
	if _, ok := m.data[key]; ok {
		return 1, nil
	}
	return 0, nil
}

func (m *mockRedisAdapter) Client() goredis.UniversalClient { return nil }

func (m *mockRedisAdapter) XAdd(key string, values map[string]interface{}) (string, error) {
	return "", nil
}
func (m *mockRedisAdapter) XAddWithID(key string, id string, values map[string]interface{}) (string, error) {
	return "", nil
}
func (m *mockRedisAdapter) XReadGroup(group, consumer, key, id string, count int64) ([]redis.StreamMessage, error) {
	return nil, nil
}
func (m *mockRedisAdapter) XAck(key, group string, ids ...string) error          { return nil }
func (m *mockRedisAdapter) XGroupCreateMkStream(key, group, start string) error  { return nil }
func (m *mockRedisAdapter) XLen(key string) (int64, error)                       { return 0, nil }
func (m *mockRedisAdapter) XTrimApprox(key string, maxLen int64) error           { return nil }
func (m *mockRedisAdapter) XPending(key, group string) (*goredis.XPending, error) { return nil, nil }
func (m *mockRedisAdapter) XPendingExt(key, group string, start, end string, count int64) ([]goredis.XPendingExt, error) {
	return nil, nil
}
func (m *mockRedisAdapter) XClaim(key, group, consumer string, minIdle time.Duration, ids ...string) ([]redis.StreamMessage, error) {
	return nil, nil
}

func TestIdempotency_FirstDelivery(t *testing.T) {
	svc := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	ctx := context.Background()

	dc, err := svc.AcquireDeliveryLock(ctx, "receipt-1")
	if err != nil {
		t.Fatalf("expected lock, got error: %v", err)
	}
	if dc.RetryCount != 0 || dc.IsRetry {
		t.Errorf("expected fresh delivery context, got retry_count=%d is_retry=%v", dc.RetryCount, dc.IsRetry)
	}

	if err := svc.MarkDelivered(ctx, dc); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	delivered, err := svc.IsDelivered(ctx, "receipt-1")
	if err != nil || !delivered {
		t.Errorf("expected delivered marker, got delivered=%v err=%v", delivered, err)
	}
}

func TestIdempotency_DuplicateIsRejected(t *testing.T) {
	svc := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	ctx := context.Background()

	dc, err := svc.AcquireDeliveryLock(ctx, "receipt-2")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := svc.MarkDelivered(ctx, dc); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	_, err = svc.AcquireDeliveryLock(ctx, "receipt-2")
	if !errors.Is(err, ErrAlreadyDelivered) {
		t.Errorf("expected ErrAlreadyDelivered, got %v", err)
	}
}

func TestIdempotency_ConcurrentLockIsExclusive(t *testing.T) {
	svc := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	ctx := context.Background()

	_, err := svc.AcquireDeliveryLock(ctx, "receipt-3")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	_, err = svc.AcquireDeliveryLock(ctx, "receipt-3")
	if !errors.Is(err, ErrLockAcquireFailed) {
		t.Errorf("expected ErrLockAcquireFailed, got %v", err)
	}
}

func TestIdempotency_ReleaseAllowsReacquire(t *testing.T) {
	svc := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	ctx := context.Background()

	dc, err := svc.AcquireDeliveryLock(ctx, "receipt-4")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := svc.ReleaseLock(ctx, dc); err != nil {
		t.Fatalf("release: %v", err)
	}

	if _, err := svc.AcquireDeliveryLock(ctx, "receipt-4"); err != nil {
		t.Errorf("expected reacquire after release, got %v", err)
	}
}

func TestIdempotency_MaxRetries(t *testing.T) {
	config := DefaultIdempotencyConfig()
	config.MaxRetries = 2
	svc := NewIdempotencyService(newMockRedisAdapter(), config)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		dc, err := svc.AcquireDeliveryLock(ctx, "receipt-5")
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		if err := svc.MarkFailure(ctx, dc, errors.New("provider down")); err != nil {
			t.Fatalf("mark failure %d: %v", i, err)
		}
	}

	_, err := svc.AcquireDeliveryLock(ctx, "receipt-5")
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("expected ErrMaxRetriesExceeded, got %v", err)
	}

	count, err := svc.GetRetryCount(ctx, "receipt-5")
	if err != nil || count != 2 {
		t.Errorf("expected retry count 2, got %d err=%v", count, err)
	}
}

func TestIdempotency_SuccessClearsRetryCounter(t *testing.T) {
	svc := NewIdempotencyService(newMockRedisAdapter(), DefaultIdempotencyConfig())
	ctx := context.Background()

	dc, err := svc.AcquireDeliveryLock(ctx, "receipt-6")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if err := svc.MarkFailure(ctx, dc, errors.New("transient")); err != nil {
		t.Fatalf("mark failure: %v", err)
	}

	dc, err = svc.AcquireDeliveryLock(ctx, "receipt-6")
	if err != nil {
		t.Fatalf("reacquire: %v", err)
	}
	if !dc.IsRetry || dc.RetryCount != 1 {
		t.Errorf("expected retry context, got retry_count=%d is_retry=%v", dc.RetryCount, dc.IsRetry)
	}
	if err := svc.MarkDelivered(ctx, dc); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}

	count, err := svc.GetRetryCount(ctx, "receipt-6")
	if err != nil || count != 0 {
		t.Errorf("expected retry counter cleared, got %d err=%v", count, err)
	}
}
