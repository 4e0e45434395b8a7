package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"finance/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	account_name_owner TEXT PRIMARY KEY,
	account_type TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	moniker TEXT NOT NULL DEFAULT '',
	balance_cents INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	name TEXT PRIMARY KEY,
	active INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS transactions (
	guid TEXT PRIMARY KEY,
	account_name_owner TEXT NOT NULL,
	transaction_date INTEGER NOT NULL,
	description TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	amount_cents INTEGER NOT NULL,
	transaction_state TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_name_owner);

CREATE TABLE IF NOT EXISTS payments (
	guid TEXT PRIMARY KEY,
	account_name_owner TEXT NOT NULL,
	payment_date INTEGER NOT NULL,
	amount_cents INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
`

// SQLiteStorage implements Storage over a SQLite database file. The schema is
// bootstrapped on open, so a fresh DSN is immediately usable.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (and if necessary initializes) a SQLite database.
func NewSQLiteStorage(cfg models.DatabaseConfig) (Storage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("DSN is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func (ss *SQLiteStorage) Accounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT account_name_owner, account_type, active, moniker, balance_cents, created_at, updated_at
		 FROM accounts ORDER BY account_name_owner`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (ss *SQLiteStorage) GetAccount(ctx context.Context, accountNameOwner string) (*models.Account, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT account_name_owner, account_type, active, moniker, balance_cents, created_at, updated_at
		 FROM accounts WHERE account_name_owner = ?`, accountNameOwner)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return account, err
}

func (ss *SQLiteStorage) SaveAccount(ctx context.Context, account *models.Account) error {
	now := time.Now().Unix()
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO accounts (account_name_owner, account_type, active, moniker, balance_cents, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(account_name_owner) DO UPDATE SET
			account_type = excluded.account_type,
			active = excluded.active,
			moniker = excluded.moniker,
			balance_cents = excluded.balance_cents,
			updated_at = excluded.updated_at`,
		account.AccountNameOwner, account.AccountType, boolToInt(account.Active),
		account.Moniker, account.BalanceCents, now, now)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) DeleteAccount(ctx context.Context, accountNameOwner string) error {
	var dependents int
	err := ss.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_name_owner = ?`, accountNameOwner).Scan(&dependents)
	if err != nil {
		return fmt.Errorf("failed to check account dependencies: %w", err)
	}
	if dependents > 0 {
		return ErrHasDependencies
	}

	result, err := ss.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE account_name_owner = ?`, accountNameOwner)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return requireRowAffected(result)
}

func (ss *SQLiteStorage) Categories(ctx context.Context) ([]*models.Category, error) {
	rows, err := ss.db.QueryContext(ctx, `SELECT name, active FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var category models.Category
		var active int
		if err := rows.Scan(&category.Name, &active); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		category.Active = active != 0
		categories = append(categories, &category)
	}
	return categories, rows.Err()
}

func (ss *SQLiteStorage) SaveCategory(ctx context.Context, category *models.Category) error {
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO categories (name, active) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET active = excluded.active`,
		category.Name, boolToInt(category.Active))
	if err != nil {
		return fmt.Errorf("failed to save category: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) DeleteCategory(ctx context.Context, name string) error {
	result, err := ss.db.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRowAffected(result)
}

func (ss *SQLiteStorage) Transactions(ctx context.Context, accountNameOwner string) ([]*models.Transaction, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT guid, account_name_owner, transaction_date, description, category, amount_cents, transaction_state, notes, created_at, updated_at
		 FROM transactions WHERE account_name_owner = ? ORDER BY transaction_date DESC`, accountNameOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, rows.Err()
}

func (ss *SQLiteStorage) GetTransaction(ctx context.Context, guid string) (*models.Transaction, error) {
	row := ss.db.QueryRowContext(ctx,
		`SELECT guid, account_name_owner, transaction_date, description, category, amount_cents, transaction_state, notes, created_at, updated_at
		 FROM transactions WHERE guid = ?`, guid)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return txn, err
}

func (ss *SQLiteStorage) SaveTransaction(ctx context.Context, txn *models.Transaction) error {
	now := time.Now().Unix()
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO transactions (guid, account_name_owner, transaction_date, description, category, amount_cents, transaction_state, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(guid) DO UPDATE SET
			account_name_owner = excluded.account_name_owner,
			transaction_date = excluded.transaction_date,
			description = excluded.description,
			category = excluded.category,
			amount_cents = excluded.amount_cents,
			transaction_state = excluded.transaction_state,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		txn.GUID, txn.AccountNameOwner, txn.Date.Unix(), txn.Description, txn.Category,
		txn.AmountCents, txn.State, txn.Notes, now, now)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) DeleteTransaction(ctx context.Context, guid string) error {
	result, err := ss.db.ExecContext(ctx, `DELETE FROM transactions WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireRowAffected(result)
}

func (ss *SQLiteStorage) Payments(ctx context.Context) ([]*models.Payment, error) {
	rows, err := ss.db.QueryContext(ctx,
		`SELECT guid, account_name_owner, payment_date, amount_cents, created_at
		 FROM payments ORDER BY payment_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		var payment models.Payment
		var date, createdAt int64
		if err := rows.Scan(&payment.GUID, &payment.AccountNameOwner, &date, &payment.AmountCents, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payment.Date = time.Unix(date, 0).UTC()
		payment.CreatedAt = time.Unix(createdAt, 0).UTC()
		payments = append(payments, &payment)
	}
	return payments, rows.Err()
}

func (ss *SQLiteStorage) SavePayment(ctx context.Context, payment *models.Payment) error {
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO payments (guid, account_name_owner, payment_date, amount_cents, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(guid) DO UPDATE SET
			account_name_owner = excluded.account_name_owner,
			payment_date = excluded.payment_date,
			amount_cents = excluded.amount_cents`,
		payment.GUID, payment.AccountNameOwner, payment.Date.Unix(), payment.AmountCents, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (ss *SQLiteStorage) DeletePayment(ctx context.Context, guid string) error {
	result, err := ss.db.ExecContext(ctx, `DELETE FROM payments WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return requireRowAffected(result)
}

func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var active int
	var createdAt, updatedAt int64
	err := row.Scan(&account.AccountNameOwner, &account.AccountType, &active,
		&account.Moniker, &account.BalanceCents, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	account.Active = active != 0
	account.CreatedAt = time.Unix(createdAt, 0).UTC()
	account.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &account, nil
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var txn models.Transaction
	var date, createdAt, updatedAt int64
	err := row.Scan(&txn.GUID, &txn.AccountNameOwner, &date, &txn.Description,
		&txn.Category, &txn.AmountCents, &txn.State, &txn.Notes, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	txn.Date = time.Unix(date, 0).UTC()
	txn.CreatedAt = time.Unix(createdAt, 0).UTC()
	txn.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &txn, nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
