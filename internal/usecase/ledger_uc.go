// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/adapter"
	"telecom-ledger/internal/domain/ports/repository"
	"telecom-ledger/internal/infra/metrics"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase is the transaction ledger & reporting engine. Every read
// works on a snapshot of the store; Refund (and invoice tracking, when
// enabled) is the only path that writes.
type LedgerUseCase interface {
	Query(ctx context.Context, params model.QueryParams) (*model.PaginatedResult, error)
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	Stats(ctx context.Context) (*model.PaymentStats, error)
	PaymentMethodStats(ctx context.Context) ([]model.PaymentMethodStats, error)
	RevenueByPeriod(ctx context.Context, days int) ([]model.PeriodBucket, error)
	GenerateInvoice(ctx context.Context, paymentID string) (*model.Invoice, error)
	Refund(ctx context.Context, req model.RefundRequest) (*model.Payment, error)
}

// TaskSubmitter runs fire-and-forget work off the request path (worker.Pool).
type TaskSubmitter interface {
	Submit(task func(ctx context.Context) error) error
}

type LedgerOptions struct {
	TaxRate       decimal.Decimal
	Location      *time.Location // day boundaries for RevenueByPeriod
	TrackInvoices bool           // record generated invoice numbers on the payment
	Dev           bool           // log PII unredacted
	Now           func() time.Time

	Notifier adapter.RefundNotifier
	Tasks    TaskSubmitter // nil notifies inline
}

// DefaultLedgerOptions returns a 10% tax rate, UTC day buckets and the wall clock.
func DefaultLedgerOptions() LedgerOptions {
	return LedgerOptions{
		TaxRate:  decimal.NewFromFloat(0.10),
		Location: time.UTC,
		Now:      time.Now,
	}
}

type ledgerUC struct {
	store repository.PaymentStore
	opts  LedgerOptions

	log *zerolog.Logger
}

func NewLedgerUseCase(store repository.PaymentStore, opts LedgerOptions, logger *zerolog.Logger) *ledgerUC {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &ledgerUC{store: store, opts: opts, log: logger}
}

func (u *ledgerUC) GetByID(ctx context.Context, id string) (p *model.Payment, err error) {
	defer u.observe("get", time.Now(), &err)
	return u.store.Get(ctx, repository.NoTX, id)
}

// snapshot reads the full record set once per call.
func (u *ledgerUC) snapshot(ctx context.Context) ([]*model.Payment, error) {
	return u.store.All(ctx, repository.NoTX)
}

// observe records operation latency; client errors count as successful calls.
func (u *ledgerUC) observe(op string, start time.Time, err *error) {
	ok := *err == nil || isClientError(*err)
	metrics.ObserveLedgerOp(op, ok, float64(time.Since(start).Microseconds())/1000)
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidState) ||
		errors.Is(err, domain.ErrInvalidAmount)
}
