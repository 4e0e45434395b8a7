// Package models - Finance domain entities.
// This file defines the persisted record types: accounts, categories,
// transactions, and payments. Monetary amounts are stored as integer cents to
// avoid floating point drift in balances.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account type constants
const (
	AccountTypeCredit = "credit"
	AccountTypeDebit  = "debit"
)

// Transaction state constants
const (
	TransactionStateOutstanding = "outstanding"
	TransactionStateCleared     = "cleared"
	TransactionStateFuture      = "future"
)

// Account is a bank or card account owned by a user. AccountNameOwner is the
// natural key (e.g. "checking_brian").
type Account struct {
	AccountNameOwner string    `json:"account_name_owner" yaml:"account_name_owner"`
	AccountType      string    `json:"account_type" yaml:"account_type"`
	Active           bool      `json:"active" yaml:"active"`
	Moniker          string    `json:"moniker,omitempty" yaml:"moniker,omitempty"`
	BalanceCents     int64     `json:"balance_cents" yaml:"balance_cents"`
	CreatedAt        time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Validate checks account fields for persistence.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.AccountNameOwner) == "" {
		return fmt.Errorf("account_name_owner is required")
	}
	if a.AccountType != AccountTypeCredit && a.AccountType != AccountTypeDebit {
		return fmt.Errorf("account_type must be %q or %q, got %q", AccountTypeCredit, AccountTypeDebit, a.AccountType)
	}
	return nil
}

// Category labels transactions for reporting.
type Category struct {
	Name   string `json:"name" yaml:"name"`
	Active bool   `json:"active" yaml:"active"`
}

// Validate checks category fields for persistence.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category name is required")
	}
	return nil
}

// Transaction is a single ledger entry against an account. GUID is the
// client-supplied or generated unique identifier used for idempotent inserts.
type Transaction struct {
	GUID             string    `json:"guid" yaml:"guid"`
	AccountNameOwner string    `json:"account_name_owner" yaml:"account_name_owner"`
	Date             time.Time `json:"transaction_date" yaml:"transaction_date"`
	Description      string    `json:"description" yaml:"description"`
	Category         string    `json:"category,omitempty" yaml:"category,omitempty"`
	AmountCents      int64     `json:"amount_cents" yaml:"amount_cents"`
	State            string    `json:"transaction_state" yaml:"transaction_state"`
	Notes            string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// EnsureGUID assigns a fresh identifier when the client did not supply one.
func (t *Transaction) EnsureGUID() {
	if t.GUID == "" {
		t.GUID = uuid.New().String()
	}
}

// Validate checks transaction fields for persistence.
func (t *Transaction) Validate() error {
	if t.GUID != "" {
		if _, err := uuid.Parse(t.GUID); err != nil {
			return fmt.Errorf("guid must be a valid UUID: %w", err)
		}
	}
	if strings.TrimSpace(t.AccountNameOwner) == "" {
		return fmt.Errorf("account_name_owner is required")
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction_date is required")
	}
	switch t.State {
	case TransactionStateOutstanding, TransactionStateCleared, TransactionStateFuture:
	default:
		return fmt.Errorf("transaction_state must be one of outstanding, cleared, future; got %q", t.State)
	}
	return nil
}

// Payment records a transfer toward a credit account.
type Payment struct {
	GUID             string    `json:"guid" yaml:"guid"`
	AccountNameOwner string    `json:"account_name_owner" yaml:"account_name_owner"`
	Date             time.Time `json:"payment_date" yaml:"payment_date"`
	AmountCents      int64     `json:"amount_cents" yaml:"amount_cents"`
	CreatedAt        time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// EnsureGUID assigns a fresh identifier when the client did not supply one.
func (p *Payment) EnsureGUID() {
	if p.GUID == "" {
		p.GUID = uuid.New().String()
	}
}

// Validate checks payment fields for persistence.
func (p *Payment) Validate() error {
	if p.GUID != "" {
		if _, err := uuid.Parse(p.GUID); err != nil {
			return fmt.Errorf("guid must be a valid UUID: %w", err)
		}
	}
	if strings.TrimSpace(p.AccountNameOwner) == "" {
		return fmt.Errorf("account_name_owner is required")
	}
	if p.Date.IsZero() {
		return fmt.Errorf("payment_date is required")
	}
	if p.AmountCents <= 0 {
		return fmt.Errorf("amount_cents must be positive, got %d", p.AmountCents)
	}
	return nil
}
