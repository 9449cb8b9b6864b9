package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shivamprakash2909/loan-app/internal/model"
	"github.com/shivamprakash2909/loan-app/internal/repository"
)

var ErrDuplicateAccount = errors.New("account number already exists")

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) (*model.Account, error)
	GetByAccountNumber(ctx context.Context, number string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
}

type AccountService struct {
	accountRepo AccountRepository
}

func NewAccountService(accountRepo AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo}
}

func (s *AccountService) Create(ctx context.Context, req model.AccountCreateRequest) (*model.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	issueDate, err := time.Parse("2006-01-02", req.IssueDate)
	if err != nil {
		return nil, fmt.Errorf("parse issue_date: %w", err)
	}

	name := req.CustomerName
	if name == "" {
		name = model.DefaultCustomerName
	}

	account := &model.Account{
		AccountNumber: req.AccountNumber,
		CustomerName:  name,
		IssueDate:     issueDate,
		InterestRate:  req.InterestRate,
		Tenure:        req.Tenure,
		EmiDue:        req.EmiDue,
	}

	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateAccount) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return created, nil
}

func (s *AccountService) Get(ctx context.Context, accountNumber string) (*model.Account, error) {
	account, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context) ([]*model.Account, error) {
	return s.accountRepo.List(ctx)
}
