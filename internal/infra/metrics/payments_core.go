package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		refundsTotal,
		refundedAmountTotal,
		invoicesGeneratedTotal,
		ledgerOpDurationMs,
		paymentsByStatus,
		paymentsSuccessRate,
		paymentsRevenue,
		paymentsRefunded,
	)
}

var (
	refundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_refunds_total",
			Help: "Refund attempts by result (ok/not_found/invalid_state/invalid_amount/error).",
		},
		[]string{"result"},
	)

	refundedAmountTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_refunded_amount_minor_total",
			Help: "Sum of refunded amounts in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	invoicesGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_invoices_generated_total",
			Help: "Invoices generated, labeled by invoice status.",
		},
		[]string{"status"},
	)

	ledgerOpDurationMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_ms",
			Help:    "Ledger operation latency in milliseconds.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 1000},
		},
		[]string{"operation", "success"},
	)

	paymentsByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_payments",
			Help: "Number of stored payments by status, as of the last stats report.",
		},
		[]string{"status"},
	)

	paymentsSuccessRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_success_rate_percent",
		Help: "Completed payments as a percentage of all payments.",
	})

	paymentsRevenue = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_revenue_minor",
		Help: "Total completed revenue in minor units.",
	})

	paymentsRefunded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ledger_refunded_minor",
		Help: "Total refunded amount in minor units.",
	})
)

func IncRefund(result string) {
	refundsTotal.WithLabelValues(norm(result)).Inc()
}

func AddRefundedAmount(currency string, minor int64) {
	refundedAmountTotal.WithLabelValues(norm(currency)).Add(float64(minor))
}

func IncInvoice(status string) {
	invoicesGeneratedTotal.WithLabelValues(norm(status)).Inc()
}

func ObserveLedgerOp(op string, success bool, ms float64) {
	s := "false"
	if success {
		s = "true"
	}
	ledgerOpDurationMs.WithLabelValues(norm(op), s).Observe(ms)
}

// LedgerSnapshot is the subset of PaymentStats exported as gauges.
type LedgerSnapshot struct {
	StatusCounts  map[string]int
	SuccessRate   float64
	RevenueMinor  int64
	RefundedMinor int64
}

func SetLedgerSnapshot(s LedgerSnapshot) {
	for status, n := range s.StatusCounts {
		paymentsByStatus.WithLabelValues(norm(status)).Set(float64(n))
	}
	paymentsSuccessRate.Set(s.SuccessRate)
	paymentsRevenue.Set(float64(s.RevenueMinor))
	paymentsRefunded.Set(float64(s.RefundedMinor))
}
