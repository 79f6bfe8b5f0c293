//go:build !integration

package postgres

import (
	"context"
	"time"

	"telecom-ledger/internal/domain/model"
	"telecom-ledger/internal/domain/ports/repository"
	red "telecom-ledger/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerPaymentStore mocks the database store that the decorator wraps.
type mockInnerPaymentStore struct {
	GetFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
	AllFunc   func(ctx context.Context, tx repository.Tx) ([]*model.Payment, error)
	ApplyFunc func(ctx context.Context, id string, mutate repository.Mutator) (*model.Payment, error)
	SaveFunc  func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

func (m *mockInnerPaymentStore) Get(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return m.GetFunc(ctx, tx, id)
}
func (m *mockInnerPaymentStore) All(ctx context.Context, tx repository.Tx) ([]*model.Payment, error) {
	return m.AllFunc(ctx, tx)
}
func (m *mockInnerPaymentStore) Apply(ctx context.Context, id string, mutate repository.Mutator) (*model.Payment, error) {
	return m.ApplyFunc(ctx, id, mutate)
}
func (m *mockInnerPaymentStore) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	return m.SaveFunc(ctx, tx, p)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	FlushFunc  func(ctx context.Context) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) FlushDB(ctx context.Context) error { return m.FlushFunc(ctx) }
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
