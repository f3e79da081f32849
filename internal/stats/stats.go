// Package stats keeps daily pipeline counters in Redis hashes, one hash per
// UTC day, expiring after five weeks.
package stats

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix = "stats:"
	retention = 35 * 24 * time.Hour
)

// Counter names recorded per day.
const (
	MessagesReceived  = "messages_received"
	OffersExtracted   = "offers_extracted"
	ExtractionsFailed = "extractions_failed"
	SendsOK           = "sends_ok"
	SendsFailed       = "sends_failed"
	BroadcastsOK      = "broadcasts_ok"
)

// Recorder increments daily counters. With a nil Redis client every method
// is a no-op, so the pipeline runs without a store in dev and in tests.
type Recorder struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewRecorder builds a recorder over rdb, which may be nil.
func NewRecorder(rdb *redis.Client, logger *zap.Logger) *Recorder {
	return &Recorder{rdb: rdb, logger: logger}
}

// Incr adds n to the named counter for today. Failures are logged, never
// surfaced: statistics must not affect message processing.
func (r *Recorder) Incr(ctx context.Context, name string, n int64) {
	if r == nil || r.rdb == nil {
		return
	}
	key := dayKey(time.Now())
	if err := r.rdb.HIncrBy(ctx, key, name, n).Err(); err != nil {
		r.logger.Debug("stats incr failed", zap.String("counter", name), zap.Error(err))
		return
	}
	if err := r.rdb.Expire(ctx, key, retention).Err(); err != nil {
		r.logger.Debug("stats expire failed", zap.String("key", key), zap.Error(err))
	}
}

// Today returns today's counters.
func (r *Recorder) Today(ctx context.Context) (map[string]int64, error) {
	if r == nil || r.rdb == nil {
		return map[string]int64{}, nil
	}
	vals, err := r.rdb.HGetAll(ctx, dayKey(time.Now())).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(vals))
	for name, raw := range vals {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[name] = n
	}
	return out, nil
}

func dayKey(t time.Time) string {
	return keyPrefix + t.UTC().Format("2006-01-02")
}
