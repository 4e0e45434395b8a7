package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance/internal/models"
	"finance/internal/storage"
	"finance/internal/version"
)

func setupTestProvider(t *testing.T) *Provider {
	t.Helper()
	metrics := models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090}
	obs := models.ObservabilityConfig{
		ServiceName: "test",
		Tracing: models.TracingConfig{
			Enabled:    true,
			Exporter:   "stdout",
			SampleRate: 1.0,
		},
	}
	provider, err := Setup(metrics, obs, version.Info{})
	require.NoError(t, err)
	t.Cleanup(func() { provider.Shutdown(context.Background()) })
	return provider
}

func TestNewInstrumentedStorage(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedStorage(storage.NewMemoryStorage())
	require.NoError(t, err)
	assert.NotNil(t, instrumented)
}

func TestInstrumentedStorage_Ping(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedStorage(storage.NewMemoryStorage())
	require.NoError(t, err)

	err = instrumented.Ping(context.Background())
	assert.NoError(t, err)
}

func TestInstrumentedStorage_AccountOperations(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedStorage(storage.NewMemoryStorage())
	require.NoError(t, err)

	ctx := context.Background()

	account := &models.Account{
		AccountNameOwner: "checking_john",
		AccountType:      models.AccountTypeDebit,
		Active:           true,
	}
	err = instrumented.SaveAccount(ctx, account)
	assert.NoError(t, err)

	result, err := instrumented.GetAccount(ctx, "checking_john")
	assert.NoError(t, err)
	assert.Equal(t, "checking_john", result.AccountNameOwner)

	accounts, err := instrumented.Accounts(ctx)
	assert.NoError(t, err)
	assert.Len(t, accounts, 1)

	err = instrumented.DeleteAccount(ctx, "checking_john")
	assert.NoError(t, err)

	_, err = instrumented.GetAccount(ctx, "checking_john")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInstrumentedStorage_TransactionOperations(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedStorage(storage.NewMemoryStorage())
	require.NoError(t, err)

	ctx := context.Background()

	txn := &models.Transaction{
		AccountNameOwner: "checking_john",
		Date:             time.Now(),
		Description:      "grocery run",
		Category:         "groceries",
		AmountCents:      -4325,
		State:            models.TransactionStateCleared,
	}
	txn.EnsureGUID()

	err = instrumented.SaveTransaction(ctx, txn)
	assert.NoError(t, err)

	result, err := instrumented.GetTransaction(ctx, txn.GUID)
	assert.NoError(t, err)
	assert.Equal(t, "grocery run", result.Description)

	transactions, err := instrumented.Transactions(ctx, "checking_john")
	assert.NoError(t, err)
	assert.Len(t, transactions, 1)

	err = instrumented.DeleteTransaction(ctx, txn.GUID)
	assert.NoError(t, err)
}

func TestInstrumentedStorage_CategoryAndPaymentOperations(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedStorage(storage.NewMemoryStorage())
	require.NoError(t, err)

	ctx := context.Background()

	err = instrumented.SaveCategory(ctx, &models.Category{Name: "utilities", Active: true})
	assert.NoError(t, err)

	categories, err := instrumented.Categories(ctx)
	assert.NoError(t, err)
	assert.Len(t, categories, 1)

	err = instrumented.DeleteCategory(ctx, "utilities")
	assert.NoError(t, err)

	payment := &models.Payment{
		AccountNameOwner: "visa_john",
		Date:             time.Now(),
		AmountCents:      10000,
	}
	payment.EnsureGUID()

	err = instrumented.SavePayment(ctx, payment)
	assert.NoError(t, err)

	payments, err := instrumented.Payments(ctx)
	assert.NoError(t, err)
	assert.Len(t, payments, 1)

	err = instrumented.DeletePayment(ctx, payment.GUID)
	assert.NoError(t, err)
}

func TestInstrumentedStorage_ErrorRecording(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedStorage(storage.NewMemoryStorage())
	require.NoError(t, err)

	// Missing account should record an error span and propagate unchanged.
	_, err = instrumented.GetAccount(context.Background(), "non-existent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInstrumentedStorage_Close(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedStorage(storage.NewMemoryStorage())
	require.NoError(t, err)

	err = instrumented.Close()
	assert.NoError(t, err)
}

func TestInstrumentedStorage_ImplementsInterface(t *testing.T) {
	_ = setupTestProvider(t)

	instrumented, err := NewInstrumentedStorage(storage.NewMemoryStorage())
	require.NoError(t, err)

	var _ storage.Storage = instrumented
}
