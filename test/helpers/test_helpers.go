package helpers

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shivamprakash2909/loan-app/internal/repository"
	"github.com/shivamprakash2909/loan-app/pkg/pg"
	"github.com/shivamprakash2909/loan-app/pkg/redis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.AccountEntity{},
		&repository.PaymentEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// unique connection name per test, the adapter caches by name
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestAccount(t *testing.T, db *pg.DB, accountNumber string, emiDue string) *repository.AccountEntity {
	ctx := context.Background()
	account := &repository.AccountEntity{
		AccountNumber: accountNumber,
		CustomerName:  "Test Customer",
		IssueDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		InterestRate:  decimal.RequireFromString("8.50"),
		Tenure:        24,
		EmiDue:        decimal.RequireFromString(emiDue),
		CreatedAt:     time.Now(),
	}
	err := db.Write(ctx).Create(account).Error
	require.NoError(t, err)
	return account
}

func CreateTestPayment(t *testing.T, db *pg.DB, accountID int64, amount string) *repository.PaymentEntity {
	ctx := context.Background()
	payment := &repository.PaymentEntity{
		AccountID:     accountID,
		PaymentAmount: decimal.RequireFromString(amount),
		PaymentDate:   time.Now().UTC(),
		Status:        "SUCCESS",
	}
	err := db.Write(ctx).Create(payment).Error
	require.NoError(t, err)
	return payment
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
