package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/covertrack/coc-verification-backend/internal/domain/errors"
	"github.com/covertrack/coc-verification-backend/internal/service/verification"
)

// OutcomeKeyPrefix namespaces cached verification results.
const OutcomeKeyPrefix = "coc:verification:outcome:"

// DefaultOutcomeTTL bounds how long a verdict is served without re-running
// the engines; policy validity is clock-dependent, so entries stay short.
const DefaultOutcomeTTL = 15 * time.Minute

// OutcomeCache is a cache-aside store of verification results. The caller
// supplies the key, which must cover the full evaluation context of the
// verdict. It degrades gracefully: every error is surfaced to the caller as a
// miss-shaped error, never as a hard failure.
type OutcomeCache struct {
	client    *redis.Client
	logger    *zap.Logger
	ttl       time.Duration
	ttlJitter time.Duration
}

// OutcomeCacheConfig holds the cache tuning knobs.
type OutcomeCacheConfig struct {
	TTL       time.Duration
	TTLJitter time.Duration
}

// NewOutcomeCache creates a verification outcome cache
func NewOutcomeCache(client *redis.Client, logger *zap.Logger, cfg *OutcomeCacheConfig) (*OutcomeCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	cache := &OutcomeCache{
		client:    client,
		logger:    logger,
		ttl:       DefaultOutcomeTTL,
		ttlJitter: 30 * time.Second,
	}
	if cfg != nil {
		if cfg.TTL > 0 {
			cache.ttl = cfg.TTL
		}
		if cfg.TTLJitter > 0 {
			cache.ttlJitter = cfg.TTLJitter
		}
	}
	return cache, nil
}

// Get returns the cached result for a verification key
func (c *OutcomeCache) Get(ctx context.Context, key string) (*verification.VerificationResult, error) {
	data, err := c.client.Get(ctx, c.redisKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.ErrVerificationNotFound
		}
		c.logger.Warn("outcome cache read failed",
			zap.String("cache_key", key),
			zap.Error(err))
		return nil, errors.NewInternalError("failed to read outcome cache").WithCause(err)
	}

	var result verification.VerificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("outcome cache entry corrupt, evicting",
			zap.String("cache_key", key),
			zap.Error(err))
		c.client.Del(ctx, c.redisKey(key))
		return nil, errors.ErrVerificationNotFound
	}

	return &result, nil
}

// Set stores a result under a verification key
func (c *OutcomeCache) Set(ctx context.Context, key string, result *verification.VerificationResult) error {
	if key == "" {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return errors.NewInternalError("failed to marshal verification result").WithCause(err)
	}

	if err := c.client.Set(ctx, c.redisKey(key), data, c.jitteredTTL()).Err(); err != nil {
		c.logger.Warn("outcome cache write failed",
			zap.String("cache_key", key),
			zap.Error(err))
		return errors.NewInternalError("failed to write outcome cache").WithCause(err)
	}
	return nil
}

// Invalidate removes the entry for a verification key
func (c *OutcomeCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.redisKey(key)).Err()
}

func (c *OutcomeCache) redisKey(key string) string {
	return OutcomeKeyPrefix + key
}

// jitteredTTL spreads expiries to avoid synchronized re-verification bursts.
func (c *OutcomeCache) jitteredTTL() time.Duration {
	if c.ttlJitter <= 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(rand.Int63n(int64(c.ttlJitter)))
}
