package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/repository"
)

var _ repository.PaymentStore = (*paymentStore)(nil)

const pgUniqueViolation = "23505"

const paymentColumns = `id, transaction_id, user_id, user_name, user_email, plan_id, plan_name, esim_id,
  amount, currency, payment_method, status, created_at, completed_at, failed_at, refunded_at,
  refund_reason, refund_amount, failure_reason, invoice_id, metadata, version`

type paymentStore struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewPaymentStore(pool *pgxpool.Pool, tm repository.TransactionManager) *paymentStore {
	return &paymentStore{pool: pool, tm: tm}
}

// Get locks the row when called inside a transaction.
func (s *paymentStore) Get(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, s.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// All reads every payment in insertion order within a single statement,
// which Postgres serves from one snapshot.
func (s *paymentStore) All(ctx context.Context, tx repository.Tx) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, s.pool, tx, `SELECT `+paymentColumns+` FROM payments ORDER BY seq;`)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: list payments: %v", domain.ErrOperationFailed, err)
	}
	defer rows.Close()

	out := make([]*model.Payment, 0, 64)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list payments: %v", domain.ErrOperationFailed, err)
	}
	return out, nil
}

// Apply runs mutate under a row lock. The UPDATE also checks the version it
// read, so a writer that bypassed the lock still cannot be overwritten.
func (s *paymentStore) Apply(ctx context.Context, id string, mutate repository.Mutator) (*model.Payment, error) {
	if mutate == nil {
		return nil, domain.ErrInvalidArgument
	}
	var out *model.Payment
	err := s.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		cur, err := s.Get(ctx, tx, id)
		if err != nil {
			return err
		}
		next := cur.Clone()
		if err := mutate(next); err != nil {
			return err
		}
		if next.ID != cur.ID || next.TransactionID != cur.TransactionID {
			return fmt.Errorf("%w: payment identity cannot change", domain.ErrConflict)
		}
		if err := next.Validate(); err != nil {
			return err
		}
		meta, err := encodeMetadata(next.Metadata)
		if err != nil {
			return err
		}

		const q = `
UPDATE payments SET
  user_id=$3, user_name=$4, user_email=$5, plan_id=$6, plan_name=$7, esim_id=$8,
  amount=$9, currency=$10, payment_method=$11, status=$12,
  completed_at=$13, failed_at=$14, refunded_at=$15, refund_reason=$16, refund_amount=$17,
  failure_reason=$18, invoice_id=$19, metadata=$20, version=version+1
WHERE id=$1 AND version=$2;`
		tag, err := execSQL(ctx, s.pool, tx, q,
			next.ID, cur.Version,
			next.UserID, next.UserName, next.UserEmail, next.PlanID, next.PlanName, next.ESIMID,
			int64(next.Amount), next.Currency, string(next.PaymentMethod), string(next.Status),
			next.CompletedAt, next.FailedAt, next.RefundedAt, next.RefundReason, moneyPtr(next.RefundAmount),
			next.FailureReason, next.InvoiceID, meta,
		)
		if err != nil {
			return fmt.Errorf("%w: update payment: %v", domain.ErrOperationFailed, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: payment %s changed concurrently", domain.ErrConflict, id)
		}
		next.Version = cur.Version + 1
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *paymentStore) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if p == nil {
		return domain.ErrInvalidArgument
	}
	if err := p.Validate(); err != nil {
		return err
	}
	meta, err := encodeMetadata(p.Metadata)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO payments (` + paymentColumns + `) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,1
);`
	_, err = execSQL(ctx, s.pool, tx, q,
		p.ID, p.TransactionID, p.UserID, p.UserName, p.UserEmail, p.PlanID, p.PlanName, p.ESIMID,
		int64(p.Amount), p.Currency, string(p.PaymentMethod), string(p.Status),
		p.CreatedAt, p.CompletedAt, p.FailedAt, p.RefundedAt,
		p.RefundReason, moneyPtr(p.RefundAmount), p.FailureReason, p.InvoiceID, meta,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("payment %s: %w", p.ID, domain.ErrAlreadyExists)
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return fmt.Errorf("%w: insert payment: %v", domain.ErrOperationFailed, err)
		}
	}
	p.Version = 1
	return nil
}

// Count is used by the seeder to skip populated databases.
func (s *paymentStore) Count(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, s.pool, tx, `SELECT COUNT(*) FROM payments;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

// Reset empties the table and restarts the insertion sequence.
func (s *paymentStore) Reset(ctx context.Context) error {
	if _, err := execSQL(ctx, s.pool, repository.NoTX, `TRUNCATE payments RESTART IDENTITY;`); err != nil {
		return fmt.Errorf("%w: truncate payments: %v", domain.ErrOperationFailed, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	var (
		p            model.Payment
		amount       int64
		refundAmount *int64
		method       string
		status       string
		meta         []byte
		createdAt    time.Time
	)
	err := row.Scan(
		&p.ID, &p.TransactionID, &p.UserID, &p.UserName, &p.UserEmail, &p.PlanID, &p.PlanName, &p.ESIMID,
		&amount, &p.Currency, &method, &status, &createdAt, &p.CompletedAt, &p.FailedAt, &p.RefundedAt,
		&p.RefundReason, &refundAmount, &p.FailureReason, &p.InvoiceID, &meta, &p.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}

	p.Amount = model.Money(amount)
	p.PaymentMethod = model.PaymentMethod(method)
	p.Status = model.PaymentStatus(status)
	p.CreatedAt = createdAt.UTC()
	if refundAmount != nil {
		m := model.Money(*refundAmount)
		p.RefundAmount = &m
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &p, nil
}

func encodeMetadata(m model.Metadata) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("%w: metadata: %v", domain.ErrValidation, err)
	}
	return string(b), nil
}

func moneyPtr(m *model.Money) *int64 {
	if m == nil {
		return nil
	}
	v := int64(*m)
	return &v
}
