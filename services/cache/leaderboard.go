package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/blogclass/core"
	"github.com/trezcool/blogclass/core/points"
)

const (
	boardOrderKey   = "leaderboard:order"   // ZSET: student id scored by position
	boardInfoKey    = "leaderboard:info"    // HASH: student id -> JSON standing
	boardReadyKey   = "leaderboard:stored"  // set once the board is complete
	boardVersionKey = "leaderboard:version" // bumped on every invalidation

	DefaultLeaderboardTTL = 10 * time.Minute
)

// NewClient returns a redis client for conf, or nil when no address is configured.
func NewClient(conf *core.Config) *redis.Client {
	if conf.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// Leaderboard caches ranked standings in redis.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

var _ points.Leaderboard = (*Leaderboard)(nil)

func NewLeaderboard(client *redis.Client, ttl time.Duration) *Leaderboard {
	if ttl <= 0 {
		ttl = DefaultLeaderboardTTL
	}
	return &Leaderboard{client: client, ttl: ttl}
}

func (lb *Leaderboard) stored(ctx context.Context) error {
	n, err := lb.client.Exists(ctx, boardReadyKey).Result()
	if err != nil {
		return errors.Wrap(err, "checking leaderboard")
	}
	if n == 0 {
		return points.ErrCacheMiss
	}
	return nil
}

func (lb *Leaderboard) Top(ctx context.Context, n int) ([]points.Standing, error) {
	if err := lb.stored(ctx); err != nil {
		return nil, err
	}
	ids, err := lb.client.ZRange(ctx, boardOrderKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading leaderboard order")
	}
	if len(ids) == 0 {
		return []points.Standing{}, nil
	}

	values, err := lb.client.HMGet(ctx, boardInfoKey, ids...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading leaderboard standings")
	}
	standings := make([]points.Standing, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			// expired or invalidated while reading
			return nil, points.ErrCacheMiss
		}
		var st points.Standing
		if err := json.Unmarshal([]byte(s), &st); err != nil {
			return nil, errors.Wrap(err, "decoding standing")
		}
		standings = append(standings, st)
	}
	return standings, nil
}

func (lb *Leaderboard) Get(ctx context.Context, studentID string) (points.Standing, error) {
	if err := lb.stored(ctx); err != nil {
		return points.Standing{}, err
	}
	s, err := lb.client.HGet(ctx, boardInfoKey, studentID).Result()
	if err != nil {
		if err == redis.Nil {
			return points.Standing{}, points.ErrStudentNotFound
		}
		return points.Standing{}, errors.Wrap(err, "reading standing")
	}
	var st points.Standing
	if err := json.Unmarshal([]byte(s), &st); err != nil {
		return points.Standing{}, errors.Wrap(err, "decoding standing")
	}
	return st, nil
}

func (lb *Leaderboard) Version(ctx context.Context) (int64, error) {
	v, err := lb.client.Get(ctx, boardVersionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, errors.Wrap(err, "reading leaderboard version")
}

// Store replaces the cached board with standings, in their order.
// Nothing is stored if the board was invalidated after version was read.
func (lb *Leaderboard) Store(ctx context.Context, version int64, standings []points.Standing) error {
	err := lb.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, boardVersionKey).Int64()
		if err != nil && err != redis.Nil {
			return errors.Wrap(err, "reading leaderboard version")
		}
		if current != version {
			return points.ErrStaleStandings
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, boardOrderKey, boardInfoKey, boardReadyKey)
			for i, st := range standings {
				data, err := json.Marshal(st)
				if err != nil {
					return errors.Wrap(err, "encoding standing")
				}
				pipe.ZAdd(ctx, boardOrderKey, &redis.Z{Score: float64(i), Member: st.StudentID})
				pipe.HSet(ctx, boardInfoKey, st.StudentID, data)
			}
			pipe.Expire(ctx, boardOrderKey, lb.ttl)
			pipe.Expire(ctx, boardInfoKey, lb.ttl)
			pipe.Set(ctx, boardReadyKey, time.Now().Unix(), lb.ttl)
			return nil
		})
		return err
	}, boardVersionKey)

	if err == redis.TxFailedErr {
		return points.ErrStaleStandings
	}
	return errors.Wrap(err, "storing leaderboard")
}

func (lb *Leaderboard) Invalidate(ctx context.Context) error {
	_, err := lb.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, boardVersionKey)
		pipe.Del(ctx, boardReadyKey, boardOrderKey, boardInfoKey)
		return nil
	})
	return errors.Wrap(err, "invalidating leaderboard")
}
