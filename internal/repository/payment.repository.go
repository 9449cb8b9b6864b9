package repository

import (
	"context"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/pkg/pg"
)

// PaymentRepository is the append-only payment ledger. Rows are inserted
// exactly once and never updated; concurrent inserts do not conflict, so
// no locking happens here.
type PaymentRepository struct {
	*pg.DB
}

func NewPaymentRepository(db *pg.DB) *PaymentRepository {
	return &PaymentRepository{
		db,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) (*model.Payment, error) {
	entity := toPaymentEntity(payment)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toPaymentModel(entity), nil
}

// ListByAccount returns an account's payments ordered by payment_date
// descending. Re-querying reflects the then-current ledger.
func (r *PaymentRepository) ListByAccount(ctx context.Context, accountID int64, f model.PaymentFilter) ([]*model.Payment, error) {
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*PaymentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("payment_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error

	if err != nil {
		return nil, err
	}

	return toPaymentModels(entities), nil
}
