package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/blogclass/core/points"
)

func newTestLeaderboard(t *testing.T) (*Leaderboard, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLeaderboard(client, time.Minute), mr
}

func testStandings() []points.Standing {
	return points.Rank([]points.Standing{
		{StudentID: "s1", Name: "김하나", Cohort: 3, Points: 220},
		{StudentID: "s2", Name: "이두리", Cohort: 3, Points: 180},
		{StudentID: "s3", Name: "박세찬", Cohort: 2, Points: 180},
		{StudentID: "s4", Name: "최네모", Cohort: 2, Points: 40},
	})
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("miss before store", func(t *testing.T) {
		lb, _ := newTestLeaderboard(t)

		_, err := lb.Top(ctx, 10)
		assert.Equal(t, points.ErrCacheMiss, errors.Cause(err))
		_, err = lb.Get(ctx, "s1")
		assert.Equal(t, points.ErrCacheMiss, errors.Cause(err))
	})

	t.Run("store then read", func(t *testing.T) {
		lb, _ := newTestLeaderboard(t)
		require.NoError(t, lb.Store(ctx, 0, testStandings()))

		top, err := lb.Top(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, testStandings()[:3], top)

		all, err := lb.Top(ctx, 100)
		require.NoError(t, err)
		if assert.Len(t, all, 4) {
			assert.Equal(t, 2, all[2].Rank)
			assert.Equal(t, 4, all[3].Rank)
		}

		st, err := lb.Get(ctx, "s3")
		require.NoError(t, err)
		assert.Equal(t, 2, st.Rank)
		assert.Equal(t, "박세찬", st.Name)

		_, err = lb.Get(ctx, "unknown")
		assert.Equal(t, points.ErrStudentNotFound, errors.Cause(err))
	})

	t.Run("empty board is stored", func(t *testing.T) {
		lb, _ := newTestLeaderboard(t)
		require.NoError(t, lb.Store(ctx, 0, []points.Standing{}))

		top, err := lb.Top(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, top)
	})

	t.Run("invalidate", func(t *testing.T) {
		lb, _ := newTestLeaderboard(t)
		require.NoError(t, lb.Store(ctx, 0, testStandings()))
		require.NoError(t, lb.Invalidate(ctx))

		_, err := lb.Top(ctx, 10)
		assert.Equal(t, points.ErrCacheMiss, errors.Cause(err))

		v, err := lb.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), v)
	})

	t.Run("standings read before an invalidation are not stored", func(t *testing.T) {
		lb, _ := newTestLeaderboard(t)
		v, err := lb.Version(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), v)

		require.NoError(t, lb.Invalidate(ctx))
		err = lb.Store(ctx, v, testStandings())
		assert.Equal(t, points.ErrStaleStandings, errors.Cause(err))
		_, err = lb.Top(ctx, 10)
		assert.Equal(t, points.ErrCacheMiss, errors.Cause(err))

		v, err = lb.Version(ctx)
		require.NoError(t, err)
		require.NoError(t, lb.Store(ctx, v, testStandings()))
		top, err := lb.Top(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, top, 4)
	})

	t.Run("expires", func(t *testing.T) {
		lb, mr := newTestLeaderboard(t)
		require.NoError(t, lb.Store(ctx, 0, testStandings()))
		mr.FastForward(2 * time.Minute)

		_, err := lb.Top(ctx, 10)
		assert.Equal(t, points.ErrCacheMiss, errors.Cause(err))
	})
}
