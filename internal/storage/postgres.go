package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finance/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_name_owner TEXT PRIMARY KEY,
	account_type TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	moniker TEXT NOT NULL DEFAULT '',
	balance_cents BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	name TEXT PRIMARY KEY,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS transactions (
	guid UUID PRIMARY KEY,
	account_name_owner TEXT NOT NULL,
	transaction_date TIMESTAMPTZ NOT NULL,
	description TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	amount_cents BIGINT NOT NULL,
	transaction_state TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_name_owner);

CREATE TABLE IF NOT EXISTS payments (
	guid UUID PRIMARY KEY,
	account_name_owner TEXT NOT NULL,
	payment_date TIMESTAMPTZ NOT NULL,
	amount_cents BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// PostgresStorage implements Storage on top of a PostgreSQL connection pool.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage connects to PostgreSQL and bootstraps the schema.
func NewPostgresStorage(cfg models.DatabaseConfig) (Storage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DSN is required for PostgreSQL storage")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

func (ps *PostgresStorage) Accounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT account_name_owner, account_type, active, moniker, balance_cents, created_at, updated_at
		 FROM accounts ORDER BY account_name_owner`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(&account.AccountNameOwner, &account.AccountType, &account.Active,
			&account.Moniker, &account.BalanceCents, &account.CreatedAt, &account.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &account)
	}
	return accounts, rows.Err()
}

func (ps *PostgresStorage) GetAccount(ctx context.Context, accountNameOwner string) (*models.Account, error) {
	var account models.Account
	err := ps.pool.QueryRow(ctx,
		`SELECT account_name_owner, account_type, active, moniker, balance_cents, created_at, updated_at
		 FROM accounts WHERE account_name_owner = $1`, accountNameOwner).
		Scan(&account.AccountNameOwner, &account.AccountType, &account.Active,
			&account.Moniker, &account.BalanceCents, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (ps *PostgresStorage) SaveAccount(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()
	_, err := ps.pool.Exec(ctx,
		`INSERT INTO accounts (account_name_owner, account_type, active, moniker, balance_cents, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (account_name_owner) DO UPDATE SET
			account_type = EXCLUDED.account_type,
			active = EXCLUDED.active,
			moniker = EXCLUDED.moniker,
			balance_cents = EXCLUDED.balance_cents,
			updated_at = EXCLUDED.updated_at`,
		account.AccountNameOwner, account.AccountType, account.Active,
		account.Moniker, account.BalanceCents, now)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (ps *PostgresStorage) DeleteAccount(ctx context.Context, accountNameOwner string) error {
	var dependents int
	err := ps.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_name_owner = $1`, accountNameOwner).Scan(&dependents)
	if err != nil {
		return fmt.Errorf("failed to check account dependencies: %w", err)
	}
	if dependents > 0 {
		return ErrHasDependencies
	}

	tag, err := ps.pool.Exec(ctx, `DELETE FROM accounts WHERE account_name_owner = $1`, accountNameOwner)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (ps *PostgresStorage) Categories(ctx context.Context) ([]*models.Category, error) {
	rows, err := ps.pool.Query(ctx, `SELECT name, active FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.Name, &category.Active); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}

func (ps *PostgresStorage) SaveCategory(ctx context.Context, category *models.Category) error {
	_, err := ps.pool.Exec(ctx,
		`INSERT INTO categories (name, active) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET active = EXCLUDED.active`,
		category.Name, category.Active)
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (ps *PostgresStorage) DeleteCategory(ctx context.Context, name string) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM categories WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (ps *PostgresStorage) Transactions(ctx context.Context, accountNameOwner string) ([]*models.Transaction, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT guid, account_name_owner, transaction_date, description, category, amount_cents, transaction_state, notes, created_at, updated_at
		 FROM transactions WHERE account_name_owner = $1 ORDER BY transaction_date DESC`, accountNameOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		if err := rows.Scan(&txn.GUID, &txn.AccountNameOwner, &txn.Date, &txn.Description,
			&txn.Category, &txn.AmountCents, &txn.State, &txn.Notes, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &txn)
	}
	return transactions, rows.Err()
}

func (ps *PostgresStorage) GetTransaction(ctx context.Context, guid string) (*models.Transaction, error) {
	var txn models.Transaction
	err := ps.pool.QueryRow(ctx,
		`SELECT guid, account_name_owner, transaction_date, description, category, amount_cents, transaction_state, notes, created_at, updated_at
		 FROM transactions WHERE guid = $1`, guid).
		Scan(&txn.GUID, &txn.AccountNameOwner, &txn.Date, &txn.Description,
			&txn.Category, &txn.AmountCents, &txn.State, &txn.Notes, &txn.CreatedAt, &txn.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

func (ps *PostgresStorage) SaveTransaction(ctx context.Context, txn *models.Transaction) error {
	now := time.Now().UTC()
	_, err := ps.pool.Exec(ctx,
		`INSERT INTO transactions (guid, account_name_owner, transaction_date, description, category, amount_cents, transaction_state, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 ON CONFLICT (guid) DO UPDATE SET
			account_name_owner = EXCLUDED.account_name_owner,
			transaction_date = EXCLUDED.transaction_date,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			amount_cents = EXCLUDED.amount_cents,
			transaction_state = EXCLUDED.transaction_state,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at`,
		txn.GUID, txn.AccountNameOwner, txn.Date, txn.Description, txn.Category,
		txn.AmountCents, txn.State, txn.Notes, now)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (ps *PostgresStorage) DeleteTransaction(ctx context.Context, guid string) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM transactions WHERE guid = $1`, guid)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (ps *PostgresStorage) Payments(ctx context.Context) ([]*models.Payment, error) {
	rows, err := ps.pool.Query(ctx,
		`SELECT guid, account_name_owner, payment_date, amount_cents, created_at
		 FROM payments ORDER BY payment_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var payment models.Payment
		if err := rows.Scan(&payment.GUID, &payment.AccountNameOwner, &payment.Date,
			&payment.AmountCents, &payment.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &payment)
	}
	return payments, rows.Err()
}

func (ps *PostgresStorage) SavePayment(ctx context.Context, payment *models.Payment) error {
	_, err := ps.pool.Exec(ctx,
		`INSERT INTO payments (guid, account_name_owner, payment_date, amount_cents, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (guid) DO UPDATE SET
			account_name_owner = EXCLUDED.account_name_owner,
			payment_date = EXCLUDED.payment_date,
			amount_cents = EXCLUDED.amount_cents`,
		payment.GUID, payment.AccountNameOwner, payment.Date, payment.AmountCents, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (ps *PostgresStorage) DeletePayment(ctx context.Context, guid string) error {
	tag, err := ps.pool.Exec(ctx, `DELETE FROM payments WHERE guid = $1`, guid)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}
