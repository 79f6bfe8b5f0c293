package notify

import (
	"context"

	"github.com/rs/zerolog"

	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/adapter"
	"telecom-ledger/internal/infra/logging"
)

var _ adapter.RefundNotifier = (*LogNotifier)(nil)

// LogNotifier implements adapter.RefundNotifier by writing one structured
// log line per refund. It stands in until a real delivery channel exists.
type LogNotifier struct {
	log *zerolog.Logger
	dev bool
}

func NewLogNotifier(logger *zerolog.Logger, dev bool) *LogNotifier {
	if logger == nil {
		logger = logging.Nop()
	}
	return &LogNotifier{log: logger, dev: dev}
}

func (n *LogNotifier) RefundIssued(ctx context.Context, ev model.RefundIssued) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logging.With(logging.WithPaymentID(ctx, ev.PaymentID), n.log).Info().
		Str("event", "refund_issued").
		Str("transaction_id", ev.TransactionID).
		Str("user_id", logging.Redact(ev.UserID, n.dev)).
		Str("amount", ev.Amount.String()).
		Str("currency", ev.Currency).
		Str("reason", ev.Reason).
		Str("refunded_by", ev.RefundedBy).
		Time("refunded_at", ev.RefundedAt).
		Msg("refund notification")
	return nil
}
