// internal/sequence/generator.go
package sequence

import (
	"context"
	"fmt"
	"time"

	"paperless-analytics/internal/common/clock"
	apperrors "paperless-analytics/internal/common/errors"
	"paperless-analytics/internal/common/logger"
	"paperless-analytics/internal/common/metrics"
	"paperless-analytics/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "queue:counter"

// Generator issues gapless queue numbers per (branch, channel group, day).
// The counter lives in Redis; INCR is the single indivisible
// increment-and-read the live request path depends on.
type Generator struct {
	redis      *redis.Client
	clock      clock.Clock
	location   *time.Location
	counterTTL time.Duration
	maxRetries int
	logger     logger.Logger
}

func NewGenerator(rdb *redis.Client, clk clock.Clock, loc *time.Location, counterTTL time.Duration, log logger.Logger) *Generator {
	return &Generator{
		redis:      rdb,
		clock:      clk,
		location:   loc,
		counterTTL: counterTTL,
		maxRetries: 3,
		logger:     log.WithFields(map[string]interface{}{"component": "sequence"}),
	}
}

// Next returns the next queue number for the branch and channel on the current
// calendar day in the configured timezone. Numbers for a given
// (branch, channelGroup, date) key are a strictly increasing sequence starting
// at 1 with no gaps or duplicates, regardless of caller concurrency.
func (g *Generator) Next(ctx context.Context, branchID string, channel models.Channel) (int64, error) {
	if !models.ValidChannel(channel) {
		return 0, apperrors.NewInvalidChannelError(string(channel))
	}

	group := models.GroupForChannel(channel)
	date := g.clock.Now().In(g.location).Format("2006-01-02")
	key := counterKey(branchID, group, date)

	var lastErr error
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		n, err := g.redis.Incr(ctx, key).Result()
		if err == nil {
			if n == 1 {
				// First issuance of the day creates the key; bound its lifetime so
				// stale day counters do not accumulate.
				g.redis.Expire(ctx, key, g.counterTTL)
			}
			metrics.QueueNumbersIssued.WithLabelValues(branchID, string(group)).Inc()
			return n, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return 0, apperrors.NewCounterUnavailableError(lastErr)
		}
		metrics.QueueCounterRetries.Inc()
		g.logger.Warn("queue counter increment failed, retrying", map[string]interface{}{
			"key":     key,
			"attempt": attempt + 1,
			"error":   err,
		})
	}

	return 0, apperrors.NewCounterConflictError(key, lastErr)
}

func counterKey(branchID string, group models.ChannelGroup, date string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, branchID, group, date)
}
