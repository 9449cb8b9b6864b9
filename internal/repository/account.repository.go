package repository

import (
	"context"
	"errors"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/pkg/pg"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account number already exists")
	ErrConcurrentUpdate = errors.New("concurrent update detected")
)

type AccountRepository struct {
	*pg.DB
}

func NewAccountRepository(db *pg.DB) *AccountRepository {
	return &AccountRepository{
		db,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) (*model.Account, error) {
	entity := toAccountEntity(account)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	return toAccountModel(entity), nil
}

func (r *AccountRepository) GetByAccountNumber(ctx context.Context, number string) (*model.Account, error) {
	var entity AccountEntity

	err := r.Read(ctx).WithContext(ctx).
		Where("account_number = ?", number).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return toAccountModel(&entity), nil
}

// List returns all accounts, newest first.
func (r *AccountRepository) List(ctx context.Context) ([]*model.Account, error) {
	var entities []*AccountEntity

	err := r.Read(ctx).WithContext(ctx).
		Order("created_at DESC").
		Find(&entities).
		Error

	if err != nil {
		return nil, err
	}

	return toAccountModels(entities), nil
}

// GetForUpdate resolves an account by number and takes a row-scoped
// exclusive lock (SELECT ... FOR UPDATE) on it. It must be called inside
// a WithinTransaction scope; the lock is held until that transaction
// commits or rolls back. A concurrent payment against the same account
// blocks here until the first transaction finishes.
func (r *AccountRepository) GetForUpdate(ctx context.Context, number string) (*model.Account, error) {
	var entity AccountEntity

	err := r.Write(ctx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_number = ?", number).
		First(&entity).
		Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return toAccountModel(&entity), nil
}

// UpdateDue writes the new due balance. Only safe from within the
// payment engine's critical section, after GetForUpdate on the same row.
func (r *AccountRepository) UpdateDue(ctx context.Context, accountID int64, newDue decimal.Decimal) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&AccountEntity{}).
		Where("id = ?", accountID).
		Update("emi_due", newDue)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	return nil
}
