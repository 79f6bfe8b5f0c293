package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v4"

	"telecom-ledger/internal/config"
	"telecom-ledger/internal/domain/ports/repository"
	pg "telecom-ledger/internal/infra/db/postgres"
	red "telecom-ledger/internal/infra/redis"
	"telecom-ledger/internal/infra/seed"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	n := flag.Int("n", 250, "number of payments to generate")
	seedVal := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	reset := flag.Bool("reset", false, "wipe payments (and the Redis cache) before seeding, for a predictable e2e state")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatalf("database.url is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Connect Postgres
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	tm := pg.NewTxManager(pool)
	store := pg.NewPaymentStore(pool, tm)

	if *reset {
		log.Println("--- Resetting ledger state ---")
		if cfg.Redis.URL != "" {
			rc, err := red.NewClient(ctx, &cfg.Redis)
			if err != nil {
				log.Fatalf("redis connection failed: %v", err)
			}
			if err := rc.FlushDB(ctx); err != nil {
				log.Fatalf("failed to flush redis: %v", err)
			}
			_ = rc.Close()
			log.Println("Redis cache wiped")
		}
		if err := store.Reset(ctx); err != nil {
			log.Fatalf("failed to truncate payments: %v", err)
		}
		log.Println("payments table truncated")
	}

	// If payments already exist, do nothing
	count, err := store.Count(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("count payments: %v", err)
	}
	if count > 0 {
		fmt.Printf("%d payments already present. No changes.\n", count)
		return
	}

	payments, err := seed.Generate(*n, time.Now(), rand.New(rand.NewSource(*seedVal)))
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	// One transaction, so a failed run leaves the table empty and can be retried.
	err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, p := range payments {
			if err := store.Save(ctx, tx, p); err != nil {
				return fmt.Errorf("insert %s: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("Seeded %d payments (seed=%d).\n", len(payments), *seedVal)
}
