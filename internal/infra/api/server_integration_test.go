//go:build integration

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/repository"
	"telecom-ledger/internal/infra/db/postgres"
	"telecom-ledger/internal/usecase"
)

// cleanup truncates the payments table for this test package.
func cleanup(t *testing.T) {
	t.Helper()
	if _, err := testPool.Exec(context.Background(), `TRUNCATE payments RESTART IDENTITY`); err != nil {
		t.Fatalf("Failed to clean up database: %v", err)
	}
}

func TestLedgerAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	// 1. Setup
	defer cleanup(t)
	cleanup(t)
	ctx := context.Background()
	logger := zerolog.Nop()
	const apiKey = "integration-test-key"

	store := postgres.NewPaymentStore(testPool, postgres.NewTxManager(testPool))
	opts := usecase.DefaultLedgerOptions()
	opts.TrackInvoices = true
	uc := usecase.NewLedgerUseCase(store, opts, &logger)
	srv := NewServer(uc, NewAuthManager("integration-jwt-secret-0123456789", false, time.Minute), nil,
		Options{APIKey: apiKey, MaxPeriodDays: 365}, &logger)
	h := srv.Handler()

	// Seed Data
	now := time.Now().UTC().Truncate(time.Second)
	var ids []string
	for i, status := range []model.PaymentStatus{model.PaymentStatusCompleted, model.PaymentStatusCompleted, model.PaymentStatusFailed} {
		id := uuid.NewString()
		p := &model.Payment{
			ID:            id,
			TransactionID: "TXN-" + id[:8],
			UserID:        "user-1",
			UserName:      "Ada Lovelace",
			UserEmail:     "ada@example.com",
			PlanID:        "esim-eu-5",
			PlanName:      "Europe eSIM 5GB",
			Amount:        model.Money(1000 * (i + 1)),
			Currency:      "USD",
			PaymentMethod: model.PaymentMethodCard,
			Status:        model.PaymentStatusPending,
			CreatedAt:     now.Add(-time.Duration(i) * time.Hour),
		}
		if status == model.PaymentStatusCompleted {
			_ = p.Complete(p.CreatedAt.Add(time.Minute))
		} else {
			_ = p.Fail("card declined", p.CreatedAt.Add(time.Minute))
		}
		if err := store.Save(ctx, repository.NoTX, p); err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, id)
	}

	// 2. Obtain a token
	tokReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
	tokReq.Header.Set("X-Admin-Key", apiKey)
	tokRec := httptest.NewRecorder()
	h.ServeHTTP(tokRec, tokReq)
	if tokRec.Code != http.StatusOK {
		t.Fatalf("token: expected 200, got %d", tokRec.Code)
	}
	var tok tokenResponse
	_ = json.NewDecoder(tokRec.Body).Decode(&tok)
	auth := "Bearer " + tok.Token

	t.Run("stats reflect the stored payments", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/stats", nil)
		req.Header.Set("Authorization", auth)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var st struct {
			TotalRevenue       float64 `json:"totalRevenue"`
			SuccessfulPayments int     `json:"successfulPayments"`
			FailedPayments     int     `json:"failedPayments"`
		}
		_ = json.NewDecoder(rec.Body).Decode(&st)
		if st.TotalRevenue != 30 || st.SuccessfulPayments != 2 || st.FailedPayments != 1 {
			t.Errorf("unexpected stats %+v", st)
		}
	})

	t.Run("failed filter returns only the failed payment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments?status=failed", nil)
		req.Header.Set("Authorization", auth)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		var page struct {
			Data  []model.Payment `json:"data"`
			Total int             `json:"total"`
		}
		_ = json.NewDecoder(rec.Body).Decode(&page)
		if page.Total != 1 || len(page.Data) != 1 || page.Data[0].ID != ids[2] {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("invoice number is recorded on the payment", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+ids[0]+"/invoice", nil)
		req.Header.Set("Authorization", auth)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		var inv model.Invoice
		_ = json.NewDecoder(rec.Body).Decode(&inv)
		got, _ := store.Get(ctx, repository.NoTX, ids[0])
		if got.InvoiceID == nil || *got.InvoiceID != inv.InvoiceNumber {
			t.Errorf("expected invoiceId %s, got %v", inv.InvoiceNumber, got.InvoiceID)
		}
	})

	t.Run("concurrent refunds over HTTP have a single winner", func(t *testing.T) {
		const n = 6
		codes := make(chan int, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/"+ids[1]+"/refund",
					bytes.NewBufferString(`{"amount":20.00,"reason":"duplicate charge"}`))
				req.Header.Set("Authorization", auth)
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				codes <- rec.Code
			}()
		}
		wg.Wait()
		close(codes)

		ok := 0
		for c := range codes {
			switch c {
			case http.StatusOK:
				ok++
			case http.StatusConflict:
			default:
				t.Errorf("unexpected status %d", c)
			}
		}
		if ok != 1 {
			t.Errorf("expected exactly one successful refund, got %d", ok)
		}
	})
}
