package repository

import (
	"time"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shopspring/decimal"
)

type AccountEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	AccountNumber string          `db:"account_number" gorm:"column:account_number;not null;unique"`
	CustomerName  string          `db:"customer_name"  gorm:"column:customer_name;not null;default:N/A"`
	IssueDate     time.Time       `db:"issue_date"     gorm:"column:issue_date;not null"`
	InterestRate  decimal.Decimal `db:"interest_rate"  gorm:"column:interest_rate;type:decimal(5,2);not null"`
	Tenure        int             `db:"tenure"         gorm:"column:tenure;not null"`
	EmiDue        decimal.Decimal `db:"emi_due"        gorm:"column:emi_due;type:decimal(12,2);not null"`
	CreatedAt     time.Time       `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (AccountEntity) TableName() string {
	return "accounts"
}

func toAccountEntity(m *model.Account) *AccountEntity {
	if m == nil {
		return nil
	}
	return &AccountEntity{
		ID:            m.ID,
		AccountNumber: m.AccountNumber,
		CustomerName:  m.CustomerName,
		IssueDate:     m.IssueDate,
		InterestRate:  m.InterestRate,
		Tenure:        m.Tenure,
		EmiDue:        m.EmiDue,
		CreatedAt:     m.CreatedAt,
	}
}

func toAccountModel(e *AccountEntity) *model.Account {
	if e == nil {
		return nil
	}
	return &model.Account{
		ID:            e.ID,
		AccountNumber: e.AccountNumber,
		CustomerName:  e.CustomerName,
		IssueDate:     e.IssueDate,
		InterestRate:  e.InterestRate,
		Tenure:        e.Tenure,
		EmiDue:        e.EmiDue,
		CreatedAt:     e.CreatedAt,
	}
}

func toAccountModels(entities []*AccountEntity) []*model.Account {
	if entities == nil {
		return nil
	}
	models := make([]*model.Account, len(entities))
	for i, e := range entities {
		models[i] = toAccountModel(e)
	}
	return models
}
