package control

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const feedChannel = "relay:status"

// Feed is the status publisher the pipeline reports through. Every event
// reaches the operator hub; when Redis is configured the event is also
// published on the relay:status channel for external consoles. Publishing
// never blocks or fails the pipeline.
type Feed struct {
	hub    *Hub
	rdb    *redis.Client
	logger *zap.Logger
}

// NewFeed builds a feed over hub. rdb may be nil.
func NewFeed(hub *Hub, rdb *redis.Client, logger *zap.Logger) *Feed {
	return &Feed{hub: hub, rdb: rdb, logger: logger}
}

// Publish fans one event out.
func (f *Feed) Publish(ctx context.Context, ev StatusEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	f.hub.Broadcast(ev)

	if f.rdb != nil {
		if payload, err := json.Marshal(ev); err == nil {
			if err := f.rdb.Publish(ctx, feedChannel, payload).Err(); err != nil {
				f.logger.Debug("status publish failed", zap.Error(err))
			}
		}
	}

	f.logger.Debug("status event",
		zap.String("kind", ev.Kind),
		zap.String("message", ev.MessageID),
		zap.String("detail", ev.Detail))
}
