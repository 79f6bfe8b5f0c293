package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/infra/metrics"
)

// StatsSource is satisfied by usecase.LedgerUseCase.
type StatsSource interface {
	Stats(ctx context.Context) (*model.PaymentStats, error)
}

// StatsReporter periodically exports ledger aggregates as Prometheus gauges.
// Probes are extra gauge refreshers (DB pool, worker pool) run on the same tick.
type StatsReporter struct {
	interval time.Duration
	src      StatsSource
	probes   []func()
	log      *zerolog.Logger
}

func NewStatsReporter(interval time.Duration, src StatsSource, logger *zerolog.Logger, probes ...func()) *StatsReporter {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "StatsReporter").Logger()
	return &StatsReporter{interval: interval, src: src, probes: probes, log: &l}
}

// Run reports once immediately, then on every tick until ctx is done.
func (r *StatsReporter) Run(ctx context.Context) error {
	r.log.Info().Dur("interval", r.interval).Msg("Starting stats reporter")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Stopping stats reporter")
			return ctx.Err()
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

func (r *StatsReporter) Tick(ctx context.Context) {
	for _, probe := range r.probes {
		probe()
	}

	st, err := r.src.Stats(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("stats reporter: compute stats")
		return
	}
	counts := make(map[string]int, len(st.StatusCounts))
	for s, n := range st.StatusCounts {
		counts[string(s)] = n
	}
	metrics.SetLedgerSnapshot(metrics.LedgerSnapshot{
		StatusCounts:  counts,
		SuccessRate:   st.SuccessRate,
		RevenueMinor:  int64(st.TotalRevenue),
		RefundedMinor: int64(st.RefundedAmount),
	})
	r.log.Debug().
		Int("transactions", st.TotalTransactions).
		Float64("success_rate", st.SuccessRate).
		Str("revenue", st.TotalRevenue.String()).
		Msg("ledger stats exported")
}
