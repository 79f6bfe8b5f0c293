//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/adapter"
	"telecom-ledger/internal/domain/ports/repository"
	"telecom-ledger/internal/usecase"
)

// -----------------------------
// Payment store
// -----------------------------

// MockPaymentStore keeps records in insertion order. Func fields override
// the default in-memory behaviour when set.
type MockPaymentStore struct {
	mu    sync.Mutex
	order []string
	data  map[string]*model.Payment

	GetFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
	AllFunc   func(ctx context.Context, tx repository.Tx) ([]*model.Payment, error)
	ApplyFunc func(ctx context.Context, id string, mutate repository.Mutator) (*model.Payment, error)

	AllCalls int
}

var _ repository.PaymentStore = (*MockPaymentStore)(nil)

func NewMockPaymentStore(ps ...*model.Payment) *MockPaymentStore {
	m := &MockPaymentStore{data: map[string]*model.Payment{}}
	for _, p := range ps {
		m.order = append(m.order, p.ID)
		m.data[p.ID] = p.Clone()
	}
	return m
}

func (m *MockPaymentStore) Get(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, domain.ErrNotFound)
	}
	return p.Clone(), nil
}

func (m *MockPaymentStore) All(ctx context.Context, tx repository.Tx) ([]*model.Payment, error) {
	m.mu.Lock()
	m.AllCalls++
	m.mu.Unlock()
	if m.AllFunc != nil {
		return m.AllFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Payment, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.data[id].Clone())
	}
	return out, nil
}

func (m *MockPaymentStore) Apply(ctx context.Context, id string, mutate repository.Mutator) (*model.Payment, error) {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, id, mutate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, domain.ErrNotFound)
	}
	next := p.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.Version++
	m.data[id] = next
	return next.Clone(), nil
}

func (m *MockPaymentStore) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[p.ID]; ok {
		return domain.ErrAlreadyExists
	}
	m.order = append(m.order, p.ID)
	m.data[p.ID] = p.Clone()
	return nil
}

// -----------------------------
// Notifier and task runner
// -----------------------------

type MockRefundNotifier struct {
	mu     sync.Mutex
	Events []model.RefundIssued

	RefundIssuedFunc func(ctx context.Context, ev model.RefundIssued) error
}

var _ adapter.RefundNotifier = (*MockRefundNotifier)(nil)

func (m *MockRefundNotifier) RefundIssued(ctx context.Context, ev model.RefundIssued) error {
	m.mu.Lock()
	m.Events = append(m.Events, ev)
	m.mu.Unlock()
	if m.RefundIssuedFunc != nil {
		return m.RefundIssuedFunc(ctx, ev)
	}
	return nil
}

// MockSubmitter queues tasks so tests decide when they run.
type MockSubmitter struct {
	Tasks      []func(ctx context.Context) error
	SubmitFunc func(task func(ctx context.Context) error) error
}

func (m *MockSubmitter) Submit(task func(ctx context.Context) error) error {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(task)
	}
	m.Tasks = append(m.Tasks, task)
	return nil
}

// -----------------------------
// Fixtures
// -----------------------------

// fixedNow is 2024-03-15 12:00 UTC.
var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// newPayment builds a valid payment; amount is in minor units.
func newPayment(id string, amount model.Money, status model.PaymentStatus, method model.PaymentMethod, createdAt time.Time) *model.Payment {
	p := &model.Payment{
		ID:            id,
		TransactionID: "TXN-" + id,
		UserID:        "user-" + id,
		UserName:      "User " + id,
		UserEmail:     id + "@example.com",
		PlanID:        "plan-basic",
		PlanName:      "Basic eSIM 5GB",
		Amount:        amount,
		Currency:      "USD",
		PaymentMethod: method,
		Status:        status,
		CreatedAt:     createdAt,
		Metadata:      model.Metadata{},
	}
	switch status {
	case model.PaymentStatusCompleted, model.PaymentStatusCancelled:
		at := createdAt.Add(time.Minute)
		p.CompletedAt = &at
	case model.PaymentStatusFailed:
		at := createdAt.Add(time.Minute)
		reason := "card declined"
		p.FailedAt = &at
		p.FailureReason = &reason
	case model.PaymentStatusRefunded:
		at := createdAt.Add(time.Minute)
		rat := createdAt.Add(time.Hour)
		reason := "customer request"
		amt := amount
		p.CompletedAt = &at
		p.RefundedAt = &rat
		p.RefundReason = &reason
		p.RefundAmount = &amt
	}
	return p
}

// newLedger wires a use case on a frozen clock with default options.
func newLedger(store repository.PaymentStore, tweak ...func(*usecase.LedgerOptions)) usecase.LedgerUseCase {
	opts := usecase.DefaultLedgerOptions()
	opts.Now = func() time.Time { return fixedNow }
	for _, fn := range tweak {
		fn(&opts)
	}
	return usecase.NewLedgerUseCase(store, opts, newTestLogger())
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
