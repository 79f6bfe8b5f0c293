package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telecom-ledger/internal/config"
	"telecom-ledger/internal/usecase"
)

const defaultRevenueDays = 30

type Options struct {
	APIKey         string // empty disables token issuance
	RequestTimeout time.Duration
	MaxPeriodDays  int
	RateLimit      config.RateLimitConfig
}

// OptionsFromConfig copies the transport settings out of the http section.
func OptionsFromConfig(c config.HTTPConfig) Options {
	return Options{
		APIKey:         c.APIKey,
		RequestTimeout: c.RequestTimeout,
		MaxPeriodDays:  c.MaxPeriodDays,
		RateLimit:      c.RateLimit,
	}
}

// Server exposes LedgerUseCase over REST under /api/v1.
type Server struct {
	ledger  usecase.LedgerUseCase
	auth    *AuthManager
	limiter Limiter
	opts    Options
	log     *zerolog.Logger
}

// NewServer wires the transport. limiter may be nil.
func NewServer(ledger usecase.LedgerUseCase, auth *AuthManager, limiter Limiter, opts Options, logger *zerolog.Logger) *Server {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	if opts.MaxPeriodDays <= 0 {
		opts.MaxPeriodDays = 3650
	}
	return &Server{ledger: ledger, auth: auth, limiter: limiter, opts: opts, log: logger}
}

// Handler builds the full chi router: middleware, probes and the v1 API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		Recover(s.log),
		TraceID(),
		RequestLog(s.log),
		Timeout(s.opts.RequestTimeout),
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", s.issueToken)

		r.Group(func(r chi.Router) {
			r.Use(s.auth.Require, RateLimit(s.limiter, s.opts.RateLimit, s.log))

			r.Get("/payments", s.listPayments)
			r.Get("/payments/stats", s.paymentStats)
			r.Get("/payments/methods", s.methodStats)
			r.Get("/payments/revenue", s.revenueByPeriod)
			r.Get("/payments/{id}", s.getPayment)
			r.Post("/payments/{id}/invoice", s.generateInvoice)
			r.Post("/payments/{id}/refund", s.refund)
		})
	})
	return r
}

// NewHTTPServer wraps h with the configured port and conservative timeouts.
func NewHTTPServer(port int, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
