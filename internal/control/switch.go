// Package control is the operator surface: the automation switch gating the
// pipeline, the live status feed, and the HTTP/WebSocket API serving both.
package control

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const switchKey = "automation:enabled"

// Switch is the automation gate. The pipeline reads it once per inbound
// message and never writes it; only the operator API flips it. The state is
// mirrored to Redis when a client is configured so it survives restarts.
type Switch struct {
	enabled atomic.Bool
	rdb     *redis.Client
	logger  *zap.Logger
}

// NewSwitch builds the gate, restoring persisted state when available and
// falling back to initial otherwise.
func NewSwitch(ctx context.Context, rdb *redis.Client, initial bool, logger *zap.Logger) *Switch {
	s := &Switch{rdb: rdb, logger: logger}
	s.enabled.Store(initial)
	if rdb != nil {
		val, err := rdb.Get(ctx, switchKey).Result()
		switch {
		case err == nil:
			s.enabled.Store(val == "1")
		case !errors.Is(err, redis.Nil):
			logger.Warn("automation state read failed", zap.Error(err))
		}
	}
	return s
}

// Enabled reports the current gate state.
func (s *Switch) Enabled() bool {
	return s.enabled.Load()
}

// Set flips the gate and persists the new state.
func (s *Switch) Set(ctx context.Context, on bool) {
	s.enabled.Store(on)
	if s.rdb != nil {
		val := "0"
		if on {
			val = "1"
		}
		if err := s.rdb.Set(ctx, switchKey, val, 0).Err(); err != nil {
			s.logger.Warn("automation state write failed", zap.Error(err))
		}
	}
	s.logger.Info("automation switch set", zap.Bool("enabled", on))
}
