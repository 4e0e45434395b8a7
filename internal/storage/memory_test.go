package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance/internal/models"
)

func testAccount(name string) *models.Account {
	return &models.Account{
		AccountNameOwner: name,
		AccountType:      models.AccountTypeDebit,
		Active:           true,
		BalanceCents:     125000,
	}
}

func testTransaction(account string, date time.Time) *models.Transaction {
	return &models.Transaction{
		GUID:             uuid.New().String(),
		AccountNameOwner: account,
		Date:             date,
		Description:      "grocery store",
		Category:         "groceries",
		AmountCents:      -4250,
		State:            models.TransactionStateOutstanding,
	}
}

func TestMemoryStorage_AccountCRUD(t *testing.T) {
	ms := NewMemoryStorage()
	ctx := context.Background()

	_, err := ms.GetAccount(ctx, "checking_brian")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ms.SaveAccount(ctx, testAccount("checking_brian")))

	got, err := ms.GetAccount(ctx, "checking_brian")
	require.NoError(t, err)
	assert.Equal(t, "checking_brian", got.AccountNameOwner)
	assert.Equal(t, int64(125000), got.BalanceCents)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, ms.DeleteAccount(ctx, "checking_brian"))
	_, err = ms.GetAccount(ctx, "checking_brian")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, ms.DeleteAccount(ctx, "checking_brian"), ErrNotFound)
}

func TestMemoryStorage_SaveAccountPreservesCreatedAt(t *testing.T) {
	ms := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, ms.SaveAccount(ctx, testAccount("checking_brian")))
	first, err := ms.GetAccount(ctx, "checking_brian")
	require.NoError(t, err)

	updated := testAccount("checking_brian")
	updated.BalanceCents = 99000
	require.NoError(t, ms.SaveAccount(ctx, updated))

	second, err := ms.GetAccount(ctx, "checking_brian")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, int64(99000), second.BalanceCents)
}

func TestMemoryStorage_AccountsSorted(t *testing.T) {
	ms := NewMemoryStorage()
	ctx := context.Background()

	for _, name := range []string{"visa_brian", "checking_brian", "savings_brian"} {
		require.NoError(t, ms.SaveAccount(ctx, testAccount(name)))
	}

	accounts, err := ms.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, "checking_brian", accounts[0].AccountNameOwner)
	assert.Equal(t, "savings_brian", accounts[1].AccountNameOwner)
	assert.Equal(t, "visa_brian", accounts[2].AccountNameOwner)
}

func TestMemoryStorage_DeleteAccountWithTransactions(t *testing.T) {
	ms := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, ms.SaveAccount(ctx, testAccount("checking_brian")))
	require.NoError(t, ms.SaveTransaction(ctx, testTransaction("checking_brian", time.Now())))

	assert.ErrorIs(t, ms.DeleteAccount(ctx, "checking_brian"), ErrHasDependencies)

	// The account survives a refused delete.
	_, err := ms.GetAccount(ctx, "checking_brian")
	assert.NoError(t, err)
}

func TestMemoryStorage_CopyOnRead(t *testing.T) {
	ms := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, ms.SaveAccount(ctx, testAccount("checking_brian")))

	got, err := ms.GetAccount(ctx, "checking_brian")
	require.NoError(t, err)
	got.BalanceCents = -1

	// Mutating the returned copy must not touch the stored record.
	again, err := ms.GetAccount(ctx, "checking_brian")
	require.NoError(t, err)
	assert.Equal(t, int64(125000), again.BalanceCents)
}

func TestMemoryStorage_CategoryCRUD(t *testing.T) {
	ms := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, ms.SaveCategory(ctx, &models.Category{Name: "groceries", Active: true}))
	require.NoError(t, ms.SaveCategory(ctx, &models.Category{Name: "fuel", Active: true}))

	categories, err := ms.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "fuel", categories[0].Name)
	assert.Equal(t, "groceries", categories[1].Name)

	// Upsert flips the active flag in place.
	require.NoError(t, ms.SaveCategory(ctx, &models.Category{Name: "fuel", Active: false}))
	categories, err = ms.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.False(t, categories[0].Active)

	require.NoError(t, ms.DeleteCategory(ctx, "fuel"))
	assert.ErrorIs(t, ms.DeleteCategory(ctx, "fuel"), ErrNotFound)
}

func TestMemoryStorage_TransactionCRUD(t *testing.T) {
	ms := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	txn := testTransaction("checking_brian", base)
	require.NoError(t, ms.SaveTransaction(ctx, txn))

	got, err := ms.GetTransaction(ctx, txn.GUID)
	require.NoError(t, err)
	assert.Equal(t, "grocery store", got.Description)
	assert.Equal(t, int64(-4250), got.AmountCents)

	_, err = ms.GetTransaction(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ms.DeleteTransaction(ctx, txn.GUID))
	assert.ErrorIs(t, ms.DeleteTransaction(ctx, txn.GUID), ErrNotFound)
}

func TestMemoryStorage_TransactionsFilteredAndSorted(t *testing.T) {
	ms := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	oldest := testTransaction("checking_brian", base)
	newest := testTransaction("checking_brian", base.AddDate(0, 0, 5))
	other := testTransaction("visa_brian", base.AddDate(0, 0, 2))
	for _, txn := range []*models.Transaction{oldest, newest, other} {
		require.NoError(t, ms.SaveTransaction(ctx, txn))
	}

	txns, err := ms.Transactions(ctx, "checking_brian")
	require.NoError(t, err)
	require.Len(t, txns, 2)
	// Newest first.
	assert.Equal(t, newest.GUID, txns[0].GUID)
	assert.Equal(t, oldest.GUID, txns[1].GUID)

	empty, err := ms.Transactions(ctx, "nonexistent_account")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStorage_PaymentCRUD(t *testing.T) {
	ms := NewMemoryStorage()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	early := &models.Payment{GUID: uuid.New().String(), AccountNameOwner: "visa_brian", Date: base, AmountCents: 10000}
	late := &models.Payment{GUID: uuid.New().String(), AccountNameOwner: "visa_brian", Date: base.AddDate(0, 1, 0), AmountCents: 20000}
	require.NoError(t, ms.SavePayment(ctx, early))
	require.NoError(t, ms.SavePayment(ctx, late))

	payments, err := ms.Payments(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, late.GUID, payments[0].GUID)
	assert.False(t, payments[0].CreatedAt.IsZero())

	require.NoError(t, ms.DeletePayment(ctx, early.GUID))
	assert.ErrorIs(t, ms.DeletePayment(ctx, early.GUID), ErrNotFound)
}

func TestMemoryStorage_PingAndClose(t *testing.T) {
	ms := NewMemoryStorage()
	assert.NoError(t, ms.Ping(context.Background()))
	assert.NoError(t, ms.Close())
}
