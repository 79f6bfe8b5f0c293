package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"telecom-ledger/internal/domain"
	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/repository"
	"telecom-ledger/internal/infra/metrics"
	red "telecom-ledger/internal/infra/redis"
)

var _ repository.PaymentStore = (*paymentStoreCacheDecorator)(nil)

// paymentStoreCacheDecorator serves Get from Redis. All always hits the
// inner store so snapshots stay consistent.
type paymentStoreCacheDecorator struct {
	inner repository.PaymentStore
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewPaymentStoreCacheDecorator(inner repository.PaymentStore, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.PaymentStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	return &paymentStoreCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func paymentKey(id string) string { return "payment:" + id }

// cachedPayment carries the version, which the JSON form of Payment omits.
type cachedPayment struct {
	Payment *model.Payment `json:"payment"`
	Version int64          `json:"version"`
}

func (d *paymentStoreCacheDecorator) Get(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	// Reads inside a transaction need the row lock, so they skip the cache.
	if tx != nil {
		metrics.IncCacheRequest("payment", "bypass")
		return d.inner.Get(ctx, tx, id)
	}

	key := paymentKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var c cachedPayment
		if json.Unmarshal([]byte(val), &c) == nil && c.Payment != nil {
			metrics.IncCacheRequest("payment", "hit")
			c.Payment.Version = c.Version
			return c.Payment, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("payment cache read failed")
	}

	metrics.IncCacheRequest("payment", "miss")
	p, err := d.inner.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(cachedPayment{Payment: p, Version: p.Version}); err == nil {
		if err := d.cache.Set(ctx, key, b, d.ttl); err == nil {
			d.verifyFill(ctx, key, id, p.Version)
		}
	}
	return p, nil
}

// verifyFill drops a fill that lost the race with Apply: an update that
// committed after our load may already have run its invalidation, so the
// entry is checked against the store once it is in place.
func (d *paymentStoreCacheDecorator) verifyFill(ctx context.Context, key, id string, version int64) {
	cur, err := d.inner.Get(ctx, repository.NoTX, id)
	if err == nil && cur.Version == version {
		return
	}
	metrics.IncCacheRequest("payment", "stale_fill")
	if delErr := d.cache.Del(ctx, key); delErr != nil {
		d.log.Warn().Err(delErr).Str("key", key).Msg("payment cache stale fill not removed")
	}
}

func (d *paymentStoreCacheDecorator) All(ctx context.Context, tx repository.Tx) ([]*model.Payment, error) {
	return d.inner.All(ctx, tx)
}

// Apply invalidates before and after the write. A reader that loaded the
// old row and fills after the second Del is caught by verifyFill.
func (d *paymentStoreCacheDecorator) Apply(ctx context.Context, id string, mutate repository.Mutator) (*model.Payment, error) {
	key := paymentKey(id)
	_ = d.cache.Del(ctx, key)
	p, err := d.inner.Apply(ctx, id, mutate)
	if delErr := d.cache.Del(ctx, key); delErr != nil {
		d.log.Warn().Err(delErr).Str("key", key).Msg("payment cache invalidation failed")
	}
	return p, err
}

func (d *paymentStoreCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if p == nil {
		return domain.ErrInvalidArgument
	}
	_ = d.cache.Del(ctx, paymentKey(p.ID))
	return d.inner.Save(ctx, tx, p)
}
