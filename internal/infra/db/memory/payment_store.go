package memory

import (
	"context"
	"fmt"
	"sync"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.PaymentStore = (*PaymentStore)(nil)

// PaymentStore keeps payments in process memory. A single RWMutex gives
// readers a consistent snapshot and serializes Apply.
type PaymentStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*model.Payment
	byTxn map[string]string
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		byID:  make(map[string]*model.Payment),
		byTxn: make(map[string]string),
	}
}

// The tx argument is ignored; the store has no transactions of its own.
func (s *PaymentStore) Get(ctx context.Context, _ repository.Tx, id string) (*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, domain.ErrNotFound)
	}
	return p.Clone(), nil
}

// All returns every payment in insertion order.
func (s *PaymentStore) All(ctx context.Context, _ repository.Tx) ([]*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Payment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out, nil
}

func (s *PaymentStore) Apply(ctx context.Context, id string, mutate repository.Mutator) (*model.Payment, error) {
	if mutate == nil {
		return nil, domain.ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, domain.ErrNotFound)
	}
	next := cur.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if next.ID != cur.ID || next.TransactionID != cur.TransactionID {
		return nil, fmt.Errorf("%w: payment identity cannot change", domain.ErrConflict)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.Version = cur.Version + 1
	s.byID[id] = next
	return next.Clone(), nil
}

func (s *PaymentStore) Save(ctx context.Context, _ repository.Tx, p *model.Payment) error {
	if p == nil {
		return domain.ErrInvalidArgument
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[p.ID]; ok {
		return fmt.Errorf("payment %s: %w", p.ID, domain.ErrAlreadyExists)
	}
	if _, ok := s.byTxn[p.TransactionID]; ok {
		return fmt.Errorf("transaction %s: %w", p.TransactionID, domain.ErrAlreadyExists)
	}
	cp := p.Clone()
	cp.Version = 1
	s.byID[cp.ID] = cp
	s.byTxn[cp.TransactionID] = cp.ID
	s.order = append(s.order, cp.ID)
	return nil
}

// Len reports the number of stored payments.
func (s *PaymentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
