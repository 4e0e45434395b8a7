package finance

import (
	"context"

	"finance/internal/models"
)

// ServiceInterface defines the interface for finance service operations
type ServiceInterface interface {
	// ListAccounts returns all accounts
	ListAccounts(ctx context.Context) ([]*models.Account, error)

	// GetAccount returns one account by its name-owner key
	GetAccount(ctx context.Context, accountNameOwner string) (*models.Account, error)

	// SaveAccount validates and stores an account
	SaveAccount(ctx context.Context, account *models.Account) error

	// DeleteAccount removes an account without dependent transactions
	DeleteAccount(ctx context.Context, accountNameOwner string) error

	// ListCategories returns all categories
	ListCategories(ctx context.Context) ([]*models.Category, error)

	// SaveCategory validates and stores a category
	SaveCategory(ctx context.Context, category *models.Category) error

	// DeleteCategory removes a category by name
	DeleteCategory(ctx context.Context, name string) error

	// ListTransactions returns all transactions for an existing account
	ListTransactions(ctx context.Context, accountNameOwner string) ([]*models.Transaction, error)

	// GetTransaction returns one transaction by GUID
	GetTransaction(ctx context.Context, guid string) (*models.Transaction, error)

	// SaveTransaction validates and stores a transaction
	SaveTransaction(ctx context.Context, txn *models.Transaction) error

	// DeleteTransaction removes a transaction by GUID
	DeleteTransaction(ctx context.Context, guid string) error

	// ListPayments returns all payments
	ListPayments(ctx context.Context) ([]*models.Payment, error)

	// SavePayment validates and stores a payment
	SavePayment(ctx context.Context, payment *models.Payment) error

	// DeletePayment removes a payment by GUID
	DeletePayment(ctx context.Context, guid string) error
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
