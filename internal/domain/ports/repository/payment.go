package repository

import (
	"context"

	"telecom-ledger/internal/domain/model"
)

// -----------------------------
// Payments (transaction store)
// -----------------------------

// Mutator edits a private copy of a payment. Returning an error discards the copy.
type Mutator func(p *model.Payment) error

// PaymentStore is the sole owner of Payment records.
//
// Get and All return copies; callers may read them freely but changes never
// reach the store. Apply is the only update path: the mutator runs against a
// locked copy of the record and the result replaces the stored record in one
// step, so readers see either the old or the new version and never a mix.
type PaymentStore interface {
	Get(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	All(ctx context.Context, tx Tx) ([]*model.Payment, error)
	Apply(ctx context.Context, id string, mutate Mutator) (*model.Payment, error)
	// Save inserts a new payment (initiation flow, seeding). Duplicate ids or
	// transaction ids fail with domain.ErrAlreadyExists.
	Save(ctx context.Context, tx Tx, p *model.Payment) error
}
