package usecase

import (
	"context"
	"fmt"
	"time"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/infra/logging"
)

const periodLayout = "2006-01-02"

// RevenueByPeriod returns one bucket per calendar day, oldest first, ending
// with today in the configured location. Empty days are zero buckets.
func (u *ledgerUC) RevenueByPeriod(ctx context.Context, days int) (out []model.PeriodBucket, err error) {
	defer logging.TraceDuration(u.log, "LedgerUC.RevenueByPeriod")()
	defer u.observe("revenue", time.Now(), &err)

	if days < 0 {
		return nil, fmt.Errorf("%w: days must not be negative, got %d", domain.ErrValidation, days)
	}
	out = make([]model.PeriodBucket, days)
	if days == 0 {
		return out, nil
	}

	all, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	loc := u.opts.Location
	now := u.opts.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	index := make(map[string]int, days)
	for i := range days {
		// AddDate keeps calendar days intact across DST shifts.
		key := today.AddDate(0, 0, i-days+1).Format(periodLayout)
		out[i].Period = key
		index[key] = i
	}

	for _, p := range all {
		if p.Status != model.PaymentStatusCompleted {
			continue
		}
		i, ok := index[p.CreatedAt.In(loc).Format(periodLayout)]
		if !ok {
			continue
		}
		out[i].Revenue += p.Amount
		out[i].Transactions++
	}
	for i := range out {
		out[i].AverageValue = out[i].Revenue.DivRound(out[i].Transactions)
	}
	return out, nil
}
