package repository

import (
	"time"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shopspring/decimal"
)

type PaymentEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	AccountID     int64           `db:"account_id"     gorm:"column:account_id;not null;index"`
	PaymentAmount decimal.Decimal `db:"payment_amount" gorm:"column:payment_amount;type:decimal(12,2);not null"`
	PaymentDate   time.Time       `db:"payment_date"   gorm:"column:payment_date;not null;index"`
	Status        string          `db:"status"         gorm:"column:status;not null"`
}

func (PaymentEntity) TableName() string {
	return "payments"
}

func toPaymentEntity(m *model.Payment) *PaymentEntity {
	if m == nil {
		return nil
	}
	return &PaymentEntity{
		ID:            m.ID,
		AccountID:     m.AccountID,
		PaymentAmount: m.PaymentAmount,
		PaymentDate:   m.PaymentDate,
		Status:        m.Status,
	}
}

func toPaymentModel(e *PaymentEntity) *model.Payment {
	if e == nil {
		return nil
	}
	return &model.Payment{
		ID:            e.ID,
		AccountID:     e.AccountID,
		PaymentAmount: e.PaymentAmount,
		PaymentDate:   e.PaymentDate,
		Status:        e.Status,
	}
}

func toPaymentModels(entities []*PaymentEntity) []*model.Payment {
	if entities == nil {
		return nil
	}
	models := make([]*model.Payment, len(entities))
	for i, e := range entities {
		models[i] = toPaymentModel(e)
	}
	return models
}
