package finance

import (
	"context"
	"errors"
	"fmt"

	"finance/internal/models"
	"finance/internal/resilience"
	"finance/internal/storage"
)

// Service implements the finance record business logic. Every storage call
// goes through the resilience executor, so a struggling database surfaces as
// 503/504/502 responses instead of piled-up goroutines.
type Service struct {
	storage  storage.Storage
	executor *resilience.Executor
}

// NewService creates a finance service backed by the given storage and executor.
func NewService(store storage.Storage, executor *resilience.Executor) *Service {
	return &Service{
		storage:  store,
		executor: executor,
	}
}

// guard marks business outcomes as non-retryable so a missing record is
// neither retried nor counted against the circuit breaker.
func guard(err error) error {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrHasDependencies) {
		return resilience.NonRetryable(err)
	}
	return err
}

// ListAccounts returns all accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	accounts, err := resilience.Do(ctx, s.executor, func(ctx context.Context) ([]*models.Account, error) {
		return s.storage.Accounts(ctx)
	})
	if err != nil {
		return nil, wrapStorageError(err, "list accounts")
	}
	return accounts, nil
}

// GetAccount returns one account by its name-owner key.
func (s *Service) GetAccount(ctx context.Context, accountNameOwner string) (*models.Account, error) {
	account, err := resilience.Do(ctx, s.executor, func(ctx context.Context) (*models.Account, error) {
		account, err := s.storage.GetAccount(ctx, accountNameOwner)
		return account, guard(err)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("account '%s' not found", accountNameOwner))
		}
		return nil, wrapStorageError(err, "get account")
	}
	return account, nil
}

// SaveAccount validates and stores an account, creating or updating it.
func (s *Service) SaveAccount(ctx context.Context, account *models.Account) error {
	if err := account.Validate(); err != nil {
		return NewValidationError("invalid account", err)
	}

	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		return s.storage.SaveAccount(ctx, account)
	})
	return wrapStorageError(err, "save account")
}

// DeleteAccount removes an account. Accounts with transactions cannot be
// deleted and return a conflict.
func (s *Service) DeleteAccount(ctx context.Context, accountNameOwner string) error {
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		return guard(s.storage.DeleteAccount(ctx, accountNameOwner))
	})
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError(fmt.Sprintf("account '%s' not found", accountNameOwner))
	}
	return wrapStorageError(err, "delete account")
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := resilience.Do(ctx, s.executor, func(ctx context.Context) ([]*models.Category, error) {
		return s.storage.Categories(ctx)
	})
	if err != nil {
		return nil, wrapStorageError(err, "list categories")
	}
	return categories, nil
}

// SaveCategory validates and stores a category.
func (s *Service) SaveCategory(ctx context.Context, category *models.Category) error {
	if err := category.Validate(); err != nil {
		return NewValidationError("invalid category", err)
	}

	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		return s.storage.SaveCategory(ctx, category)
	})
	return wrapStorageError(err, "save category")
}

// DeleteCategory removes a category by name.
func (s *Service) DeleteCategory(ctx context.Context, name string) error {
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		return guard(s.storage.DeleteCategory(ctx, name))
	})
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError(fmt.Sprintf("category '%s' not found", name))
	}
	return wrapStorageError(err, "delete category")
}

// ListTransactions returns all transactions for an account, most recent first.
// The account must exist.
func (s *Service) ListTransactions(ctx context.Context, accountNameOwner string) ([]*models.Transaction, error) {
	transactions, err := resilience.Do(ctx, s.executor, func(ctx context.Context) ([]*models.Transaction, error) {
		if _, err := s.storage.GetAccount(ctx, accountNameOwner); err != nil {
			return nil, guard(err)
		}
		return s.storage.Transactions(ctx, accountNameOwner)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("account '%s' not found", accountNameOwner))
		}
		return nil, wrapStorageError(err, "list transactions")
	}
	return transactions, nil
}

// GetTransaction returns one transaction by GUID.
func (s *Service) GetTransaction(ctx context.Context, guid string) (*models.Transaction, error) {
	txn, err := resilience.Do(ctx, s.executor, func(ctx context.Context) (*models.Transaction, error) {
		txn, err := s.storage.GetTransaction(ctx, guid)
		return txn, guard(err)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, NewNotFoundError(fmt.Sprintf("transaction '%s' not found", guid))
		}
		return nil, wrapStorageError(err, "get transaction")
	}
	return txn, nil
}

// SaveTransaction validates and stores a transaction. The referenced account
// must exist, and the transaction's category is upserted so listings never
// reference a category that does not exist.
func (s *Service) SaveTransaction(ctx context.Context, txn *models.Transaction) error {
	txn.EnsureGUID()
	if err := txn.Validate(); err != nil {
		return NewValidationError("invalid transaction", err)
	}

	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		if _, err := s.storage.GetAccount(ctx, txn.AccountNameOwner); err != nil {
			return guard(err)
		}
		if txn.Category != "" {
			category := &models.Category{Name: txn.Category, Active: true}
			if err := s.storage.SaveCategory(ctx, category); err != nil {
				return err
			}
		}
		return s.storage.SaveTransaction(ctx, txn)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError(fmt.Sprintf("account '%s' not found", txn.AccountNameOwner))
	}
	return wrapStorageError(err, "save transaction")
}

// DeleteTransaction removes a transaction by GUID.
func (s *Service) DeleteTransaction(ctx context.Context, guid string) error {
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		return guard(s.storage.DeleteTransaction(ctx, guid))
	})
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError(fmt.Sprintf("transaction '%s' not found", guid))
	}
	return wrapStorageError(err, "delete transaction")
}

// ListPayments returns all payments, most recent first.
func (s *Service) ListPayments(ctx context.Context) ([]*models.Payment, error) {
	payments, err := resilience.Do(ctx, s.executor, func(ctx context.Context) ([]*models.Payment, error) {
		return s.storage.Payments(ctx)
	})
	if err != nil {
		return nil, wrapStorageError(err, "list payments")
	}
	return payments, nil
}

// SavePayment validates and stores a payment against an existing account.
func (s *Service) SavePayment(ctx context.Context, payment *models.Payment) error {
	payment.EnsureGUID()
	if err := payment.Validate(); err != nil {
		return NewValidationError("invalid payment", err)
	}

	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		if _, err := s.storage.GetAccount(ctx, payment.AccountNameOwner); err != nil {
			return guard(err)
		}
		return s.storage.SavePayment(ctx, payment)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError(fmt.Sprintf("account '%s' not found", payment.AccountNameOwner))
	}
	return wrapStorageError(err, "save payment")
}

// DeletePayment removes a payment by GUID.
func (s *Service) DeletePayment(ctx context.Context, guid string) error {
	err := s.executor.Execute(ctx, func(ctx context.Context) error {
		return guard(s.storage.DeletePayment(ctx, guid))
	})
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError(fmt.Sprintf("payment '%s' not found", guid))
	}
	return wrapStorageError(err, "delete payment")
}
