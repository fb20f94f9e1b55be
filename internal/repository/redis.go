package repository

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/vadimoyt/atlas-bot/internal/config"
)

const (
	checksKey  = "atlas:checks"
	matchesKey = "atlas:matches"
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// Stats счетчики проверок и найденных совпадений для команды /stats.
// При недоступном Redis (client == nil) ведет счет в памяти.
type Stats struct {
	client     *redis.Client
	memChecks  atomic.Int64
	memMatches atomic.Int64
}

func NewStats(client *redis.Client) *Stats {
	return &Stats{client: client}
}

// IncrCheck учитывает одну выполненную проверку
func (s *Stats) IncrCheck(ctx context.Context, found bool) {
	if s.client != nil {
		s.client.Incr(ctx, checksKey)
		if found {
			s.client.Incr(ctx, matchesKey)
		}
		return
	}
	s.memChecks.Add(1)
	if found {
		s.memMatches.Add(1)
	}
}

// Totals возвращает суммарные числа проверок и совпадений
func (s *Stats) Totals(ctx context.Context) (checks, matches int64) {
	if s.client != nil {
		checks, _ = s.client.Get(ctx, checksKey).Int64()
		matches, _ = s.client.Get(ctx, matchesKey).Int64()
		return checks, matches
	}
	return s.memChecks.Load(), s.memMatches.Load()
}
