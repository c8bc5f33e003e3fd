package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/pkg/constants"
)

// NewClient builds a go-redis client from configuration and checks connectivity.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}
	return rdb, nil
}

// ExternalIDStore reserves X-EXTERNAL-ID values, which must be unique per
// partner per calendar day.
type ExternalIDStore struct {
	rdb       redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewExternalIDStore creates a new ExternalIDStore.
func NewExternalIDStore(rdb redis.UniversalClient, prefix string) *ExternalIDStore {
	if prefix == "" {
		prefix = "paytrust"
	}
	return &ExternalIDStore{
		rdb:       rdb,
		prefix:    prefix,
		retention: constants.ExternalIDRetention,
		now:       time.Now,
	}
}

func (s *ExternalIDStore) key(partnerID, externalID string, day time.Time) string {
	return fmt.Sprintf("%s:extid:%s:%s:%s", s.prefix, partnerID, day.Format("20060102"), externalID)
}

// Reserve atomically claims externalID for partnerID today. It returns false
// when the id was already used.
func (s *ExternalIDStore) Reserve(ctx context.Context, partnerID, externalID string) (bool, error) {
	return s.rdb.SetNX(ctx, s.key(partnerID, externalID, s.now()), "1", s.retention).Result()
}

// Release frees today's reservation of externalID so a rejected request can be retried.
func (s *ExternalIDStore) Release(ctx context.Context, partnerID, externalID string) error {
	return s.rdb.Del(ctx, s.key(partnerID, externalID, s.now())).Err()
}
