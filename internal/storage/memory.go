package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"finance/internal/models"
)

// MemoryStorage is an in-memory Storage implementation for testing and
// development. Safe for concurrent use.
type MemoryStorage struct {
	mu           sync.RWMutex
	accounts     map[string]*models.Account
	categories   map[string]*models.Category
	transactions map[string]*models.Transaction
	payments     map[string]*models.Payment
}

// NewMemoryStorage creates an empty in-memory storage instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		accounts:     make(map[string]*models.Account),
		categories:   make(map[string]*models.Category),
		transactions: make(map[string]*models.Transaction),
		payments:     make(map[string]*models.Payment),
	}
}

func (ms *MemoryStorage) Accounts(ctx context.Context) ([]*models.Account, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	accounts := make([]*models.Account, 0, len(ms.accounts))
	for _, account := range ms.accounts {
		copied := *account
		accounts = append(accounts, &copied)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountNameOwner < accounts[j].AccountNameOwner
	})
	return accounts, nil
}

func (ms *MemoryStorage) GetAccount(ctx context.Context, accountNameOwner string) (*models.Account, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	account, ok := ms.accounts[accountNameOwner]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (ms *MemoryStorage) SaveAccount(ctx context.Context, account *models.Account) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	copied := *account
	now := time.Now()
	if existing, ok := ms.accounts[account.AccountNameOwner]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.CreatedAt = now
	}
	copied.UpdatedAt = now
	ms.accounts[account.AccountNameOwner] = &copied
	return nil
}

func (ms *MemoryStorage) DeleteAccount(ctx context.Context, accountNameOwner string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.accounts[accountNameOwner]; !ok {
		return ErrNotFound
	}
	for _, txn := range ms.transactions {
		if txn.AccountNameOwner == accountNameOwner {
			return ErrHasDependencies
		}
	}
	delete(ms.accounts, accountNameOwner)
	return nil
}

func (ms *MemoryStorage) Categories(ctx context.Context) ([]*models.Category, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	categories := make([]*models.Category, 0, len(ms.categories))
	for _, category := range ms.categories {
		copied := *category
		categories = append(categories, &copied)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (ms *MemoryStorage) SaveCategory(ctx context.Context, category *models.Category) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	copied := *category
	ms.categories[category.Name] = &copied
	return nil
}

func (ms *MemoryStorage) DeleteCategory(ctx context.Context, name string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.categories[name]; !ok {
		return ErrNotFound
	}
	delete(ms.categories, name)
	return nil
}

func (ms *MemoryStorage) Transactions(ctx context.Context, accountNameOwner string) ([]*models.Transaction, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	transactions := make([]*models.Transaction, 0)
	for _, txn := range ms.transactions {
		if txn.AccountNameOwner == accountNameOwner {
			copied := *txn
			transactions = append(transactions, &copied)
		}
	}
	sort.Slice(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})
	return transactions, nil
}

func (ms *MemoryStorage) GetTransaction(ctx context.Context, guid string) (*models.Transaction, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	txn, ok := ms.transactions[guid]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *txn
	return &copied, nil
}

func (ms *MemoryStorage) SaveTransaction(ctx context.Context, txn *models.Transaction) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	copied := *txn
	now := time.Now()
	if existing, ok := ms.transactions[txn.GUID]; ok {
		copied.CreatedAt = existing.CreatedAt
	} else {
		copied.CreatedAt = now
	}
	copied.UpdatedAt = now
	ms.transactions[txn.GUID] = &copied
	return nil
}

func (ms *MemoryStorage) DeleteTransaction(ctx context.Context, guid string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.transactions[guid]; !ok {
		return ErrNotFound
	}
	delete(ms.transactions, guid)
	return nil
}

func (ms *MemoryStorage) Payments(ctx context.Context) ([]*models.Payment, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	payments := make([]*models.Payment, 0, len(ms.payments))
	for _, payment := range ms.payments {
		copied := *payment
		payments = append(payments, &copied)
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].Date.After(payments[j].Date)
	})
	return payments, nil
}

func (ms *MemoryStorage) SavePayment(ctx context.Context, payment *models.Payment) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	copied := *payment
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	ms.payments[payment.GUID] = &copied
	return nil
}

func (ms *MemoryStorage) DeletePayment(ctx context.Context, guid string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.payments[guid]; !ok {
		return ErrNotFound
	}
	delete(ms.payments, guid)
	return nil
}

func (ms *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (ms *MemoryStorage) Close() error {
	return nil
}
