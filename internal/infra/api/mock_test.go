//go:build !integration

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/infra/db/memory"
	"telecom-ledger/internal/usecase"
)

const testSecret = "test-admin-jwt-secret-please-change"

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// mockLedger lets a test force any use case outcome.
type mockLedger struct {
	QueryFunc              func(ctx context.Context, params model.QueryParams) (*model.PaginatedResult, error)
	GetByIDFunc            func(ctx context.Context, id string) (*model.Payment, error)
	StatsFunc              func(ctx context.Context) (*model.PaymentStats, error)
	PaymentMethodStatsFunc func(ctx context.Context) ([]model.PaymentMethodStats, error)
	RevenueByPeriodFunc    func(ctx context.Context, days int) ([]model.PeriodBucket, error)
	GenerateInvoiceFunc    func(ctx context.Context, paymentID string) (*model.Invoice, error)
	RefundFunc             func(ctx context.Context, req model.RefundRequest) (*model.Payment, error)
}

var _ usecase.LedgerUseCase = (*mockLedger)(nil)

func (m *mockLedger) Query(ctx context.Context, params model.QueryParams) (*model.PaginatedResult, error) {
	return m.QueryFunc(ctx, params)
}
func (m *mockLedger) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	return m.GetByIDFunc(ctx, id)
}
func (m *mockLedger) Stats(ctx context.Context) (*model.PaymentStats, error) {
	return m.StatsFunc(ctx)
}
func (m *mockLedger) PaymentMethodStats(ctx context.Context) ([]model.PaymentMethodStats, error) {
	return m.PaymentMethodStatsFunc(ctx)
}
func (m *mockLedger) RevenueByPeriod(ctx context.Context, days int) ([]model.PeriodBucket, error) {
	return m.RevenueByPeriodFunc(ctx, days)
}
func (m *mockLedger) GenerateInvoice(ctx context.Context, paymentID string) (*model.Invoice, error) {
	return m.GenerateInvoiceFunc(ctx, paymentID)
}
func (m *mockLedger) Refund(ctx context.Context, req model.RefundRequest) (*model.Payment, error) {
	return m.RefundFunc(ctx, req)
}

// mockLimiter answers from AllowFunc and remembers the keys it saw.
type mockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Keys      []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.Keys = append(m.Keys, key)
	return m.AllowFunc(ctx, key, limit, window)
}

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func completedPayment(id string, amount model.Money, method model.PaymentMethod, created time.Time) *model.Payment {
	done := created.Add(time.Minute)
	return &model.Payment{
		ID:            id,
		TransactionID: "TXN-" + id,
		UserID:        "user-" + id,
		UserName:      "User " + id,
		UserEmail:     id + "@example.com",
		PlanID:        "plan-esim-5",
		PlanName:      "eSIM 5GB",
		Amount:        amount,
		Currency:      "USD",
		PaymentMethod: method,
		Status:        model.PaymentStatusCompleted,
		CreatedAt:     created,
		CompletedAt:   &done,
		Metadata:      model.Metadata{},
	}
}

// newStack wires the real use case over an in-memory store.
func newStack(t *testing.T, ps ...*model.Payment) (*Server, *memory.PaymentStore) {
	t.Helper()
	store := memory.NewPaymentStore()
	for _, p := range ps {
		if err := store.Save(context.Background(), nil, p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	opts := usecase.DefaultLedgerOptions()
	opts.Now = func() time.Time { return testNow }
	uc := usecase.NewLedgerUseCase(store, opts, newTestLogger())
	srv := NewServer(uc, NewAuthManager(testSecret, false, time.Minute), nil,
		Options{APIKey: "test-admin-key", MaxPeriodDays: 365}, newTestLogger())
	return srv, store
}

func newMockServer(l *mockLedger) *Server {
	return NewServer(l, NewAuthManager(testSecret, false, time.Minute), nil,
		Options{APIKey: "test-admin-key", MaxPeriodDays: 365}, newTestLogger())
}

// bearer mints a valid admin token for requests in tests.
func bearer(t *testing.T, s *Server) string {
	t.Helper()
	tok, _, err := s.auth.Mint(httptest.NewRecorder(), "ops@example.com")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return "Bearer " + tok
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
