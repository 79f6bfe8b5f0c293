package adapter

import (
	"context"

	"telecom-ledger/internal/domain/model"
)

// RefundNotifier tells an external system about completed refunds.
type RefundNotifier interface {
	RefundIssued(ctx context.Context, ev model.RefundIssued) error
}
