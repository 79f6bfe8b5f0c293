package usecase

import (
	"context"
	"errors"
	"time"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/infra/logging"
	"telecom-ledger/internal/infra/metrics"
)

// Refund flips a completed payment to refunded in one atomic store step.
// Concurrent refunds of the same payment: exactly one wins, the rest see
// ErrInvalidState.
func (u *ledgerUC) Refund(ctx context.Context, req model.RefundRequest) (p *model.Payment, err error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Refund")()
	defer u.observe("refund", time.Now(), &err)

	now := u.opts.Now().UTC()
	p, err = u.store.Apply(ctx, req.PaymentID, func(rec *model.Payment) error {
		return rec.Refund(req.Amount, req.Reason, now)
	})
	metrics.IncRefund(refundResult(err))

	log := logging.With(logging.WithPaymentID(ctx, req.PaymentID), u.log)
	if err != nil {
		if isClientError(err) {
			log.Warn().Err(err).Msg("refund rejected")
		} else {
			log.Error().Err(err).Msg("refund failed")
		}
		return nil, err
	}

	metrics.AddRefundedAmount(p.Currency, int64(req.Amount))
	log.Info().
		Str("user_email", logging.Redact(p.UserEmail, u.opts.Dev)).
		Str("amount", req.Amount.String()).
		Str("currency", p.Currency).
		Str("refunded_by", req.RefundedBy).
		Msg("payment refunded")

	u.notifyRefund(ctx, model.RefundIssued{
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		UserID:        p.UserID,
		Amount:        req.Amount,
		Currency:      p.Currency,
		Reason:        req.Reason,
		RefundedBy:    req.RefundedBy,
		RefundedAt:    now,
	})
	return p, nil
}

// notifyRefund never fails the refund; delivery problems are only logged.
func (u *ledgerUC) notifyRefund(ctx context.Context, ev model.RefundIssued) {
	if u.opts.Notifier == nil {
		return
	}
	log := logging.With(logging.WithPaymentID(ctx, ev.PaymentID), u.log)
	send := func(ctx context.Context) error {
		if err := u.opts.Notifier.RefundIssued(ctx, ev); err != nil {
			log.Error().Err(err).Msg("refund notification failed")
			return err
		}
		return nil
	}

	if u.opts.Tasks == nil {
		_ = send(ctx)
		return
	}
	if err := u.opts.Tasks.Submit(send); err != nil {
		log.Warn().Err(err).Msg("refund notification dropped")
	}
}

func refundResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "error"
	}
}
