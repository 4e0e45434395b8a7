package storage

import (
	"context"

	"finance/internal/models"
)

// Storage defines the interface for finance record persistence and retrieval.
// It provides a clean abstraction that can be implemented by different
// backends such as in-memory maps or relational databases.
type Storage interface {
	// Accounts returns all accounts
	Accounts(ctx context.Context) ([]*models.Account, error)

	// GetAccount retrieves an account by its name-owner key
	GetAccount(ctx context.Context, accountNameOwner string) (*models.Account, error)

	// SaveAccount stores or updates an account
	SaveAccount(ctx context.Context, account *models.Account) error

	// DeleteAccount removes an account; fails with ErrHasDependencies when
	// transactions still reference it
	DeleteAccount(ctx context.Context, accountNameOwner string) error

	// Categories returns all categories
	Categories(ctx context.Context) ([]*models.Category, error)

	// SaveCategory stores or updates a category
	SaveCategory(ctx context.Context, category *models.Category) error

	// DeleteCategory removes a category
	DeleteCategory(ctx context.Context, name string) error

	// Transactions returns all transactions for an account
	Transactions(ctx context.Context, accountNameOwner string) ([]*models.Transaction, error)

	// GetTransaction retrieves a transaction by GUID
	GetTransaction(ctx context.Context, guid string) (*models.Transaction, error)

	// SaveTransaction stores or updates a transaction
	SaveTransaction(ctx context.Context, txn *models.Transaction) error

	// DeleteTransaction removes a transaction by GUID
	DeleteTransaction(ctx context.Context, guid string) error

	// Payments returns all payments
	Payments(ctx context.Context) ([]*models.Payment, error)

	// SavePayment stores or updates a payment
	SavePayment(ctx context.Context, payment *models.Payment) error

	// DeletePayment removes a payment by GUID
	DeletePayment(ctx context.Context, guid string) error

	// Ping verifies the backend is reachable
	Ping(ctx context.Context) error

	// Close closes the storage connection and cleans up resources
	Close() error
}
