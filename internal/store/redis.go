package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seenimoa/newspulse/pkg/models"
)

// Redis key layout.
const (
	reportKeyPrefix = "newspulse:report:"
	reportIndexKey  = "newspulse:reports"
)

// redisClient is the subset of *redis.Client the store calls.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	SRem(ctx context.Context, key string, members ...any) *redis.IntCmd
	Close() error
}

// RedisStore keeps reports as JSON strings with a TTL, plus a set of keys
// for listing.
type RedisStore struct {
	rdb redisClient
	ttl time.Duration
}

// NewRedisStore connects to rawURL. Plain host:port values are accepted
// as well as redis:// URLs.
func NewRedisStore(ctx context.Context, rawURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		opt = &redis.Options{Addr: rawURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("store: redis ping %s: %w", opt.Addr, err)
	}
	return newRedisStore(rdb, ttl), nil
}

func newRedisStore(rdb redisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttlOrForever(ttl)}
}

func (s *RedisStore) Get(ctx context.Context, company string) (*models.ComparativeReport, error) {
	key, err := Key(company)
	if err != nil {
		return nil, err
	}
	data, err := s.rdb.Get(ctx, reportKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: redis get %s: %w", key, err)
	}
	var rep models.ComparativeReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return &rep, nil
}

func (s *RedisStore) Put(ctx context.Context, report *models.ComparativeReport) error {
	key, err := Key(report.Subject)
	if err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, reportKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store: redis set %s: %w", key, err)
	}
	if err := s.rdb.SAdd(ctx, reportIndexKey, key).Err(); err != nil {
		return fmt.Errorf("store: redis index %s: %w", key, err)
	}
	return nil
}

// List returns the indexed keys whose report has not expired. Expired keys
// are pruned from the index.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, reportIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("store: redis list: %w", err)
	}
	keys := make([]string, 0, len(members))
	for _, k := range members {
		n, err := s.rdb.Exists(ctx, reportKeyPrefix+k).Result()
		if err != nil {
			return nil, fmt.Errorf("store: redis exists %s: %w", k, err)
		}
		if n == 0 {
			s.rdb.SRem(ctx, reportIndexKey, k)
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
