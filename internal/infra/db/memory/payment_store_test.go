//go:build !integration

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/repository"
)

func completedPayment(id string) *model.Payment {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	done := created.Add(time.Minute)
	return &model.Payment{
		ID:            id,
		TransactionID: "TXN-" + id,
		UserID:        "user-" + id,
		Amount:        5000,
		Currency:      "USD",
		PaymentMethod: model.PaymentMethodCard,
		Status:        model.PaymentStatusCompleted,
		CreatedAt:     created,
		CompletedAt:   &done,
	}
}

func TestPaymentStore_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("should store and return copies in insertion order", func(t *testing.T) {
		// Arrange
		s := NewPaymentStore()
		for _, id := range []string{"b", "a", "c"} {
			if err := s.Save(ctx, repository.NoTX, completedPayment(id)); err != nil {
				t.Fatalf("save %s: %v", id, err)
			}
		}

		// Act
		all, err := s.All(ctx, repository.NoTX)

		// Assert
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		if len(all) != 3 || all[0].ID != "b" || all[1].ID != "a" || all[2].ID != "c" {
			t.Errorf("unexpected order: %v", all)
		}
		all[0].Amount = 1
		again, _ := s.Get(ctx, repository.NoTX, "b")
		if again.Amount != 5000 {
			t.Error("caller mutation leaked into the store")
		}
	})

	t.Run("should reject duplicate ids and transaction ids", func(t *testing.T) {
		s := NewPaymentStore()
		_ = s.Save(ctx, repository.NoTX, completedPayment("a"))

		dupTxn := completedPayment("z")
		dupTxn.TransactionID = "TXN-a"

		if err := s.Save(ctx, repository.NoTX, completedPayment("a")); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists for id, got %v", err)
		}
		if err := s.Save(ctx, repository.NoTX, dupTxn); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists for transaction id, got %v", err)
		}
		if s.Len() != 1 {
			t.Errorf("expected 1 payment, got %d", s.Len())
		}
	})

	t.Run("should reject invalid payments", func(t *testing.T) {
		s := NewPaymentStore()
		p := completedPayment("a")
		p.Currency = "dollars"
		if err := s.Save(ctx, repository.NoTX, p); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})
}

func TestPaymentStore_Apply(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("should replace the record and bump the version", func(t *testing.T) {
		s := NewPaymentStore()
		_ = s.Save(ctx, repository.NoTX, completedPayment("a"))

		p, err := s.Apply(ctx, "a", func(p *model.Payment) error { return p.Refund(5000, "dup", at) })

		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		stored, _ := s.Get(ctx, repository.NoTX, "a")
		if stored.Status != model.PaymentStatusRefunded || stored.Version != 2 || p.Version != 2 {
			t.Errorf("unexpected stored payment %+v", stored)
		}
	})

	t.Run("should keep the old record when the mutator fails", func(t *testing.T) {
		s := NewPaymentStore()
		_ = s.Save(ctx, repository.NoTX, completedPayment("a"))

		_, err := s.Apply(ctx, "a", func(p *model.Payment) error {
			p.Amount = 1
			return domain.ErrInvalidAmount
		})

		if !errors.Is(err, domain.ErrInvalidAmount) {
			t.Fatalf("expected mutator error, got %v", err)
		}
		if stored, _ := s.Get(ctx, repository.NoTX, "a"); stored.Amount != 5000 || stored.Version != 1 {
			t.Errorf("failed mutation leaked: %+v", stored)
		}
	})

	t.Run("should refuse results that break invariants or identity", func(t *testing.T) {
		s := NewPaymentStore()
		_ = s.Save(ctx, repository.NoTX, completedPayment("a"))

		_, errInvalid := s.Apply(ctx, "a", func(p *model.Payment) error { p.Currency = ""; return nil })
		_, errIdentity := s.Apply(ctx, "a", func(p *model.Payment) error { p.ID = "b"; return nil })

		if !errors.Is(errInvalid, domain.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", errInvalid)
		}
		if !errors.Is(errIdentity, domain.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", errIdentity)
		}
	})

	t.Run("should fail with not found for an unknown id", func(t *testing.T) {
		s := NewPaymentStore()
		if _, err := s.Apply(ctx, "nope", func(*model.Payment) error { return nil }); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should serialize concurrent refunds", func(t *testing.T) {
		// Arrange
		s := NewPaymentStore()
		_ = s.Save(ctx, repository.NoTX, completedPayment("a"))
		const n = 32
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0

		// Act
		for range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Apply(ctx, "a", func(p *model.Payment) error { return p.Refund(5000, "race", at) })
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
			// readers run alongside the writers
			go func() { _, _ = s.All(ctx, repository.NoTX) }()
		}
		wg.Wait()

		// Assert
		if wins != 1 {
			t.Errorf("expected exactly one refund to win, got %d", wins)
		}
	})
}
