package usecase

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/infra/logging"
)

func (u *ledgerUC) Stats(ctx context.Context) (stats *model.PaymentStats, err error) {
	defer logging.TraceDuration(u.log, "LedgerUC.Stats")()
	defer u.observe("stats", time.Now(), &err)

	all, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return computeStats(all), nil
}

// PaymentMethodStats flattens the completed-payment breakdown, most used method first.
func (u *ledgerUC) PaymentMethodStats(ctx context.Context) (out []model.PaymentMethodStats, err error) {
	defer logging.TraceDuration(u.log, "LedgerUC.PaymentMethodStats")()
	defer u.observe("method_stats", time.Now(), &err)

	all, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	stats := computeStats(all)

	out = make([]model.PaymentMethodStats, 0, len(stats.PaymentMethodBreakdown))
	for m, b := range stats.PaymentMethodBreakdown {
		out = append(out, model.PaymentMethodStats{
			Method:     m,
			Count:      b.Count,
			Amount:     b.Amount,
			Percentage: b.Percentage,
		})
	}
	slices.SortFunc(out, func(a, b model.PaymentMethodStats) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Amount, a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Method, b.Method)
	})
	return out, nil
}

func computeStats(all []*model.Payment) *model.PaymentStats {
	st := &model.PaymentStats{
		TotalTransactions:      len(all),
		PaymentMethodBreakdown: map[model.PaymentMethod]model.MethodBreakdown{},
		StatusCounts:           make(map[model.PaymentStatus]int, len(model.PaymentStatuses())),
	}
	for _, s := range model.PaymentStatuses() {
		st.StatusCounts[s] = 0
	}

	for _, p := range all {
		st.StatusCounts[p.Status]++
		switch p.Status {
		case model.PaymentStatusCompleted:
			st.SuccessfulPayments++
			st.TotalRevenue += p.Amount
			b := st.PaymentMethodBreakdown[p.PaymentMethod]
			b.Count++
			b.Amount += p.Amount
			st.PaymentMethodBreakdown[p.PaymentMethod] = b
		case model.PaymentStatusFailed:
			st.FailedPayments++
		case model.PaymentStatusRefunded:
			st.RefundedPayments++
			if p.RefundAmount != nil {
				st.RefundedAmount += *p.RefundAmount
			}
		}
	}

	st.SuccessRate = percent(st.SuccessfulPayments, st.TotalTransactions)
	st.AverageTransactionValue = st.TotalRevenue.DivRound(st.SuccessfulPayments)
	for m, b := range st.PaymentMethodBreakdown {
		b.Percentage = percent(b.Count, st.SuccessfulPayments)
		st.PaymentMethodBreakdown[m] = b
	}
	return st
}

// percent returns part/whole*100 rounded to two places, 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}
