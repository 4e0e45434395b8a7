package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTransaction() Transaction {
	return Transaction{
		AccountNameOwner: "checking_brian",
		Date:             time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Description:      "grocery store",
		Category:         "groceries",
		AmountCents:      -4250,
		State:            TransactionStateOutstanding,
	}
}

func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		wantErr string
	}{
		{
			name:    "valid debit",
			account: Account{AccountNameOwner: "checking_brian", AccountType: AccountTypeDebit},
		},
		{
			name:    "valid credit",
			account: Account{AccountNameOwner: "visa_brian", AccountType: AccountTypeCredit, Active: true},
		},
		{
			name:    "missing name",
			account: Account{AccountType: AccountTypeDebit},
			wantErr: "account_name_owner",
		},
		{
			name:    "whitespace name",
			account: Account{AccountNameOwner: "   ", AccountType: AccountTypeDebit},
			wantErr: "account_name_owner",
		},
		{
			name:    "unknown type",
			account: Account{AccountNameOwner: "checking_brian", AccountType: "savings"},
			wantErr: "account_type",
		},
		{
			name:    "empty type",
			account: Account{AccountNameOwner: "checking_brian"},
			wantErr: "account_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCategory_Validate(t *testing.T) {
	assert.NoError(t, (&Category{Name: "groceries", Active: true}).Validate())
	assert.Error(t, (&Category{}).Validate())
	assert.Error(t, (&Category{Name: "  "}).Validate())
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr string
	}{
		{
			name:   "valid without guid",
			mutate: func(tr *Transaction) {},
		},
		{
			name:   "valid with guid",
			mutate: func(tr *Transaction) { tr.GUID = uuid.New().String() },
		},
		{
			name:   "valid cleared",
			mutate: func(tr *Transaction) { tr.State = TransactionStateCleared },
		},
		{
			name:   "valid future",
			mutate: func(tr *Transaction) { tr.State = TransactionStateFuture },
		},
		{
			name:   "category optional",
			mutate: func(tr *Transaction) { tr.Category = "" },
		},
		{
			name:    "malformed guid",
			mutate:  func(tr *Transaction) { tr.GUID = "not-a-uuid" },
			wantErr: "guid",
		},
		{
			name:    "missing account",
			mutate:  func(tr *Transaction) { tr.AccountNameOwner = "" },
			wantErr: "account_name_owner",
		},
		{
			name:    "missing description",
			mutate:  func(tr *Transaction) { tr.Description = "  " },
			wantErr: "description",
		},
		{
			name:    "zero date",
			mutate:  func(tr *Transaction) { tr.Date = time.Time{} },
			wantErr: "transaction_date",
		},
		{
			name:    "unknown state",
			mutate:  func(tr *Transaction) { tr.State = "pending" },
			wantErr: "transaction_state",
		},
		{
			name:    "empty state",
			mutate:  func(tr *Transaction) { tr.State = "" },
			wantErr: "transaction_state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTransaction()
			tt.mutate(&tr)
			err := tr.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestTransaction_EnsureGUID(t *testing.T) {
	tr := validTransaction()
	tr.EnsureGUID()
	_, err := uuid.Parse(tr.GUID)
	assert.NoError(t, err)

	// An existing GUID is never replaced.
	existing := tr.GUID
	tr.EnsureGUID()
	assert.Equal(t, existing, tr.GUID)
}

func TestPayment_Validate(t *testing.T) {
	valid := Payment{
		AccountNameOwner: "visa_brian",
		Date:             time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		AmountCents:      10000,
	}

	tests := []struct {
		name    string
		mutate  func(*Payment)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(p *Payment) {},
		},
		{
			name:    "malformed guid",
			mutate:  func(p *Payment) { p.GUID = "nope" },
			wantErr: "guid",
		},
		{
			name:    "missing account",
			mutate:  func(p *Payment) { p.AccountNameOwner = "" },
			wantErr: "account_name_owner",
		},
		{
			name:    "zero date",
			mutate:  func(p *Payment) { p.Date = time.Time{} },
			wantErr: "payment_date",
		},
		{
			name:    "zero amount",
			mutate:  func(p *Payment) { p.AmountCents = 0 },
			wantErr: "amount_cents",
		},
		{
			name:    "negative amount",
			mutate:  func(p *Payment) { p.AmountCents = -500 },
			wantErr: "amount_cents",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPayment_EnsureGUID(t *testing.T) {
	p := Payment{AccountNameOwner: "visa_brian"}
	p.EnsureGUID()
	_, err := uuid.Parse(p.GUID)
	assert.NoError(t, err)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("Account not found", ErrorCodeNotFound)
	assert.Equal(t, "error", resp.Error)
	assert.Equal(t, "Account not found", resp.Message)
	assert.Equal(t, ErrorCodeNotFound, resp.Code)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestHealthCheckResponse_AddComponent(t *testing.T) {
	resp := NewHealthCheckResponse(StatusHealthy)
	resp.AddComponent("database", StatusHealthy, "breaker CLOSED")

	require.Contains(t, resp.Components, "database")
	assert.Equal(t, StatusHealthy, resp.Components["database"].Status)
	assert.Equal(t, "breaker CLOSED", resp.Components["database"].Message)
}
