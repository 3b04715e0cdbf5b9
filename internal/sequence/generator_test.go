// internal/sequence/generator_test.go
package sequence

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"paperless-analytics/internal/common/clock"
	apperrors "paperless-analytics/internal/common/errors"
	"paperless-analytics/internal/common/logger"
	"paperless-analytics/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) (*Generator, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	loc, err := time.LoadLocation("Africa/Addis_Ababa")
	require.NoError(t, err)

	clk := clock.Fixed(time.Date(2024, 1, 10, 9, 30, 0, 0, loc))
	gen := NewGenerator(rdb, clk, loc, 48*time.Hour, logger.NewNoOpLogger())
	return gen, mr
}

func TestNext_StartsAtOneAndIncrements(t *testing.T) {
	gen, _ := newTestGenerator(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := gen.Next(ctx, "B1", models.ChannelBranch)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNext_ConcurrentCallersGetDistinctGaplessNumbers(t *testing.T) {
	gen, _ := newTestGenerator(t)
	ctx := context.Background()

	const n = 100
	results := make([]int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			num, err := gen.Next(ctx, "B1", models.ChannelQR)
			assert.NoError(t, err)
			results[idx] = num
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i := 0; i < n; i++ {
		assert.Equal(t, int64(i+1), results[i], "expected exactly {1..%d} with no gaps or duplicates", n)
	}
}

func TestNext_ChannelGroupsShareAndSplitCounters(t *testing.T) {
	gen, _ := newTestGenerator(t)
	ctx := context.Background()

	// branch and qr share the branch_or_qr counter
	n1, err := gen.Next(ctx, "B1", models.ChannelBranch)
	require.NoError(t, err)
	n2, err := gen.Next(ctx, "B1", models.ChannelQR)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)

	// mobile runs its own sequence
	m1, err := gen.Next(ctx, "B1", models.ChannelMobile)
	require.NoError(t, err)
	assert.Equal(t, int64(1), m1)

	// and a different branch starts fresh
	o1, err := gen.Next(ctx, "B2", models.ChannelBranch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), o1)
}

func TestNext_RejectsUnknownChannel(t *testing.T) {
	gen, _ := newTestGenerator(t)

	_, err := gen.Next(context.Background(), "B1", models.Channel("fax"))
	assert.Error(t, err)
}

func TestNext_SetsCounterExpiry(t *testing.T) {
	gen, mr := newTestGenerator(t)
	ctx := context.Background()

	_, err := gen.Next(ctx, "B1", models.ChannelMobile)
	require.NoError(t, err)

	key := counterKey("B1", models.GroupMobile, "2024-01-10")
	assert.Greater(t, mr.TTL(key), time.Duration(0))
}

func TestNext_ExhaustedRetriesReturnConflict(t *testing.T) {
	gen, mr := newTestGenerator(t)

	// A non-integer value makes every INCR fail until retries run out.
	require.NoError(t, mr.Set(counterKey("B1", models.GroupBranchOrQR, "2024-01-10"), "garbled"))

	_, err := gen.Next(context.Background(), "B1", models.ChannelBranch)
	require.Error(t, err)

	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.ErrCodeCounterConflict, se.Code)
	assert.True(t, se.Retryable)
}

func TestNext_CancelledContextIsUnavailable(t *testing.T) {
	gen, _ := newTestGenerator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Next(ctx, "B1", models.ChannelMobile)
	require.Error(t, err)

	var se *apperrors.StandardError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.ErrCodeCounterUnavailable, se.Code)
}
