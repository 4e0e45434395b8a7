package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"finance/internal/models"
	"finance/internal/storage"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
func NewInstrumentedStorage(inner storage.Storage) (*InstrumentedStorage, error) {
	tracer := otel.Tracer("finance/storage")
	meter := otel.Meter("finance/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStorage) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (s *InstrumentedStorage) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (s *InstrumentedStorage) Accounts(ctx context.Context) ([]*models.Account, error) {
	ctx, span := s.startSpan(ctx, "Accounts")
	start := time.Now()
	result, err := s.inner.Accounts(ctx)
	s.record(ctx, span, "Accounts", start, err)
	return result, err
}

func (s *InstrumentedStorage) GetAccount(ctx context.Context, accountNameOwner string) (*models.Account, error) {
	ctx, span := s.startSpan(ctx, "GetAccount", attribute.String("account", accountNameOwner))
	start := time.Now()
	result, err := s.inner.GetAccount(ctx, accountNameOwner)
	s.record(ctx, span, "GetAccount", start, err)
	return result, err
}

func (s *InstrumentedStorage) SaveAccount(ctx context.Context, account *models.Account) error {
	ctx, span := s.startSpan(ctx, "SaveAccount", attribute.String("account", account.AccountNameOwner))
	start := time.Now()
	err := s.inner.SaveAccount(ctx, account)
	s.record(ctx, span, "SaveAccount", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteAccount(ctx context.Context, accountNameOwner string) error {
	ctx, span := s.startSpan(ctx, "DeleteAccount", attribute.String("account", accountNameOwner))
	start := time.Now()
	err := s.inner.DeleteAccount(ctx, accountNameOwner)
	s.record(ctx, span, "DeleteAccount", start, err)
	return err
}

func (s *InstrumentedStorage) Categories(ctx context.Context) ([]*models.Category, error) {
	ctx, span := s.startSpan(ctx, "Categories")
	start := time.Now()
	result, err := s.inner.Categories(ctx)
	s.record(ctx, span, "Categories", start, err)
	return result, err
}

func (s *InstrumentedStorage) SaveCategory(ctx context.Context, category *models.Category) error {
	ctx, span := s.startSpan(ctx, "SaveCategory", attribute.String("category", category.Name))
	start := time.Now()
	err := s.inner.SaveCategory(ctx, category)
	s.record(ctx, span, "SaveCategory", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteCategory(ctx context.Context, name string) error {
	ctx, span := s.startSpan(ctx, "DeleteCategory", attribute.String("category", name))
	start := time.Now()
	err := s.inner.DeleteCategory(ctx, name)
	s.record(ctx, span, "DeleteCategory", start, err)
	return err
}

func (s *InstrumentedStorage) Transactions(ctx context.Context, accountNameOwner string) ([]*models.Transaction, error) {
	ctx, span := s.startSpan(ctx, "Transactions", attribute.String("account", accountNameOwner))
	start := time.Now()
	result, err := s.inner.Transactions(ctx, accountNameOwner)
	s.record(ctx, span, "Transactions", start, err)
	return result, err
}

func (s *InstrumentedStorage) GetTransaction(ctx context.Context, guid string) (*models.Transaction, error) {
	ctx, span := s.startSpan(ctx, "GetTransaction", attribute.String("guid", guid))
	start := time.Now()
	result, err := s.inner.GetTransaction(ctx, guid)
	s.record(ctx, span, "GetTransaction", start, err)
	return result, err
}

func (s *InstrumentedStorage) SaveTransaction(ctx context.Context, txn *models.Transaction) error {
	ctx, span := s.startSpan(ctx, "SaveTransaction",
		attribute.String("guid", txn.GUID),
		attribute.String("account", txn.AccountNameOwner),
	)
	start := time.Now()
	err := s.inner.SaveTransaction(ctx, txn)
	s.record(ctx, span, "SaveTransaction", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteTransaction(ctx context.Context, guid string) error {
	ctx, span := s.startSpan(ctx, "DeleteTransaction", attribute.String("guid", guid))
	start := time.Now()
	err := s.inner.DeleteTransaction(ctx, guid)
	s.record(ctx, span, "DeleteTransaction", start, err)
	return err
}

func (s *InstrumentedStorage) Payments(ctx context.Context) ([]*models.Payment, error) {
	ctx, span := s.startSpan(ctx, "Payments")
	start := time.Now()
	result, err := s.inner.Payments(ctx)
	s.record(ctx, span, "Payments", start, err)
	return result, err
}

func (s *InstrumentedStorage) SavePayment(ctx context.Context, payment *models.Payment) error {
	ctx, span := s.startSpan(ctx, "SavePayment",
		attribute.String("guid", payment.GUID),
		attribute.String("account", payment.AccountNameOwner),
	)
	start := time.Now()
	err := s.inner.SavePayment(ctx, payment)
	s.record(ctx, span, "SavePayment", start, err)
	return err
}

func (s *InstrumentedStorage) DeletePayment(ctx context.Context, guid string) error {
	ctx, span := s.startSpan(ctx, "DeletePayment", attribute.String("guid", guid))
	start := time.Now()
	err := s.inner.DeletePayment(ctx, guid)
	s.record(ctx, span, "DeletePayment", start, err)
	return err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
