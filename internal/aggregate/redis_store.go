package aggregate

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each namespace in one sorted set: ZCARD for counts,
// ZRANGE by rank for random access. All members share score 0 so the
// set orders lexicographically; rank draws only need stable ordering,
// not a meaningful score.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed aggregate store.
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (s *redisStore) key(ns Namespace) string {
	if ns.Node == "" {
		return fmt.Sprintf("agg:%s:%s", ns.Name, ns.Tenant)
	}
	return fmt.Sprintf("agg:%s:%s:%s", ns.Name, ns.Tenant, ns.Node)
}

func (s *redisStore) Insert(ctx context.Context, ns Namespace, member string) error {
	return s.client.ZAdd(ctx, s.key(ns), redis.Z{Score: 0, Member: member}).Err()
}

func (s *redisStore) Delete(ctx context.Context, ns Namespace, member string) error {
	// ZRem of an absent member returns 0 removed, which is exactly the
	// tolerated no-op the contract asks for.
	return s.client.ZRem(ctx, s.key(ns), member).Err()
}

func (s *redisStore) Count(ctx context.Context, ns Namespace) (int64, error) {
	return s.client.ZCard(ctx, s.key(ns)).Result()
}

func (s *redisStore) RandomDraw(ctx context.Context, ns Namespace, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	key := s.key(ns)

	total, err := s.client.ZCard(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}
	if int64(n) >= total {
		return s.client.ZRange(ctx, key, 0, -1).Result()
	}

	ranks := make(map[int64]struct{}, n)
	for len(ranks) < n {
		ranks[rand.Int63n(total)] = struct{}{}
	}

	members := make([]string, 0, n)
	for rank := range ranks {
		vals, err := s.client.ZRange(ctx, key, rank, rank).Result()
		if err != nil {
			return nil, err
		}
		// A concurrent delete can shrink the set under us; the draw is
		// an approximate snapshot, so a vanished rank is just skipped.
		if len(vals) == 1 {
			members = append(members, vals[0])
		}
	}
	return members, nil
}
