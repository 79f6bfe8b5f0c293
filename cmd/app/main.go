// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"telecom-ledger/internal/config"
	"telecom-ledger/internal/domain/ports/repository"
	"telecom-ledger/internal/infra/adapters/notify"
	"telecom-ledger/internal/infra/api"
	"telecom-ledger/internal/infra/db/memory"
	pg "telecom-ledger/internal/infra/db/postgres"
	"telecom-ledger/internal/infra/logging"
	"telecom-ledger/internal/infra/metrics"
	red "telecom-ledger/internal/infra/redis"
	"telecom-ledger/internal/infra/sched"
	"telecom-ledger/internal/infra/seed"
	"telecom-ledger/internal/infra/worker"
	"telecom-ledger/internal/usecase"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs, unredacted PII")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("ledger service stopped")
	}
	logger.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	// ---- Store ----
	store, probes, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// ---- Notifications ----
	pool := worker.NewPool(cfg.Notify.Workers, logger)
	pool.Start(context.Background())
	defer pool.Stop()
	probes = append(probes, func() {
		st := pool.Stats()
		metrics.SetWorkerPoolStats(st.Queued, st.Done, st.Failed, st.Dropped)
	})

	// ---- Use case ----
	opts := usecase.DefaultLedgerOptions()
	opts.TaxRate = cfg.Ledger.TaxRateDecimal()
	opts.Location = cfg.Ledger.Location()
	opts.TrackInvoices = cfg.Ledger.TrackInvoices
	opts.Dev = cfg.Runtime.Dev
	opts.Notifier = notify.NewLogNotifier(logger, cfg.Runtime.Dev)
	opts.Tasks = pool
	ledger := usecase.NewLedgerUseCase(store, opts, logger)

	// ---- Rate limiter (optional) ----
	var limiter api.Limiter
	if cfg.Redis.URL != "" && cfg.HTTP.RateLimit.Requests > 0 {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		limiter = red.NewRateLimiter(rc)
	}

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.HTTP.JWTSecret, cfg.HTTP.SecureCookie, cfg.HTTP.TokenTTL)
	srv := api.NewServer(ledger, auth, limiter, api.OptionsFromConfig(cfg.HTTP), logger)
	httpServer := api.NewHTTPServer(cfg.HTTP.Port, srv.Handler())

	reporter := sched.NewStatsReporter(cfg.Scheduler.StatsInterval, ledger, logger, probes...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := reporter.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}

// openStore picks Postgres when a database URL is configured (with the Redis
// read-through cache when Redis is configured too), else the in-memory store,
// optionally filled with generated sample payments.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (repository.PaymentStore, []func(), func(), error) {
	if cfg.Database.URL == "" {
		mem := memory.NewPaymentStore()
		if n := cfg.Ledger.SeedPayments; n > 0 {
			ps, err := seed.Generate(n, time.Now(), rand.New(rand.NewSource(time.Now().UnixNano())))
			if err != nil {
				return nil, nil, nil, err
			}
			for _, p := range ps {
				if err := mem.Save(ctx, repository.NoTX, p); err != nil {
					return nil, nil, nil, err
				}
			}
			logger.Info().Int("payments", mem.Len()).Msg("in-memory store seeded")
		} else {
			logger.Warn().Msg("no database configured; using an empty in-memory store")
		}
		return mem, nil, func() {}, nil
	}

	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	var store repository.PaymentStore = pg.NewPaymentStore(pool, pg.NewTxManager(pool))
	closers := []func(){pool.Close}
	probes := []func(){func() { pg.ReportPoolStats(pool) }}

	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		store = pg.NewPaymentStoreCacheDecorator(store, rc, cfg.Redis.TTL, logger)
		closers = append(closers, func() { _ = rc.Close() })
		logger.Info().Dur("ttl", cfg.Redis.TTL).Msg("payment cache enabled")
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	logger.Info().Int32("max_conns", pool.Config().MaxConns).Msg("postgres connected")
	return store, probes, cleanup, nil
}
