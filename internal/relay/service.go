package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mandilink/offer-relay/internal/control"
	"github.com/mandilink/offer-relay/internal/extract"
	"github.com/mandilink/offer-relay/internal/stats"
	"github.com/mandilink/offer-relay/internal/transport"
)

const (
	defaultCycleTimeout = 5 * time.Minute
	processedKeyTTL     = 24 * time.Hour
)

// Extractor turns a raw message body into validated offers.
type Extractor interface {
	ExtractOffers(ctx context.Context, body string) ([]extract.Offer, extract.Outcome, error)
}

// Dispatcher routes one message's offers to their destination channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, messageID string, offers []extract.Offer)
}

// ServiceConfig holds the admission settings for inbound messages.
type ServiceConfig struct {
	// SourceChannels are the only channels whose messages are processed.
	SourceChannels []string
	// CycleTimeout bounds one full pipeline cycle.
	CycleTimeout time.Duration
}

// Service admits inbound messages and runs one pipeline cycle per message.
// Cycles for the same source channel run one at a time in arrival order;
// different channels proceed in parallel.
type Service struct {
	sources   map[string]bool
	timeout   time.Duration
	sw        *control.Switch
	feed      *control.Feed
	stats     *stats.Recorder
	extractor Extractor
	router    Dispatcher
	rdb       *redis.Client
	logger    *zap.Logger

	base context.Context
	wg   sync.WaitGroup

	mu    sync.Mutex
	tails map[string]chan struct{}
}

// NewService wires the pipeline. base outlives individual requests and is
// the parent of every cycle context. rdb may be nil, which disables the
// duplicate-message guard.
func NewService(base context.Context, cfg ServiceConfig, sw *control.Switch, feed *control.Feed, rec *stats.Recorder, x Extractor, d Dispatcher, rdb *redis.Client, logger *zap.Logger) *Service {
	if base == nil {
		base = context.Background()
	}
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = defaultCycleTimeout
	}
	sources := make(map[string]bool, len(cfg.SourceChannels))
	for _, id := range cfg.SourceChannels {
		sources[id] = true
	}
	return &Service{
		sources:   sources,
		timeout:   cfg.CycleTimeout,
		sw:        sw,
		feed:      feed,
		stats:     rec,
		extractor: x,
		router:    d,
		rdb:       rdb,
		logger:    logger,
		base:      base,
		tails:     make(map[string]chan struct{}),
	}
}

// HandleInbound accepts one message and returns immediately. Each message
// waits for the previous message from the same channel to finish before its
// own cycle starts, which keeps per-channel ordering exact.
func (s *Service) HandleInbound(msg transport.InboundMessage) {
	s.mu.Lock()
	prev := s.tails[msg.ChannelID]
	done := make(chan struct{})
	s.tails[msg.ChannelID] = done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		s.process(msg)
	}()
}

// Drain blocks until every in-flight cycle has finished.
func (s *Service) Drain() {
	s.wg.Wait()
}

func (s *Service) process(msg transport.InboundMessage) {
	ctx, cancel := context.WithTimeout(s.base, s.timeout)
	defer cancel()

	log := s.logger.With(
		zap.String("message", msg.MessageID),
		zap.String("channel", msg.ChannelID))

	if !s.sources[msg.ChannelID] {
		log.Debug("channel not eligible, ignoring")
		return
	}
	if !s.sw.Enabled() {
		log.Info("automation disabled, skipping message")
		s.feed.Publish(ctx, control.StatusEvent{
			Kind: control.EventCycleSkipped, MessageID: msg.MessageID,
			Channel: msg.ChannelID, Detail: "automation disabled",
		})
		return
	}
	if s.alreadyProcessed(ctx, msg.MessageID) {
		log.Info("message already processed, skipping")
		s.feed.Publish(ctx, control.StatusEvent{
			Kind: control.EventCycleSkipped, MessageID: msg.MessageID,
			Channel: msg.ChannelID, Detail: "already processed",
		})
		return
	}

	s.stats.Incr(ctx, stats.MessagesReceived, 1)
	s.feed.Publish(ctx, control.StatusEvent{
		Kind: control.EventMessageReceived, MessageID: msg.MessageID, Channel: msg.ChannelID,
	})

	offers, outcome, err := s.extractor.ExtractOffers(ctx, msg.Body)
	if err != nil {
		log.Error("extraction failed", zap.Error(err))
		s.stats.Incr(ctx, stats.ExtractionsFailed, 1)
		s.feed.Publish(ctx, control.StatusEvent{
			Kind: control.EventExtractionFailed, MessageID: msg.MessageID,
			Channel: msg.ChannelID, Detail: err.Error(),
		})
		return
	}
	s.stats.Incr(ctx, stats.OffersExtracted, int64(len(offers)))

	if len(offers) > 0 {
		s.router.Dispatch(ctx, msg.MessageID, offers)
	}

	log.Info("cycle done",
		zap.Int("offers", len(offers)),
		zap.Stringer("parse", outcome))
	s.feed.Publish(ctx, control.StatusEvent{
		Kind: control.EventCycleDone, MessageID: msg.MessageID,
		Channel: msg.ChannelID, Detail: fmt.Sprintf("%d offers, parse %s", len(offers), outcome),
	})
}

// alreadyProcessed claims the message's idempotency key. The claim happens
// before processing, so a crash mid-cycle will not replay the message. Guard
// failures log and let the message through.
func (s *Service) alreadyProcessed(ctx context.Context, messageID string) bool {
	if s.rdb == nil {
		return false
	}
	key := fmt.Sprintf("relay:cycle:%s:done", messageID)
	fresh, err := s.rdb.SetNX(ctx, key, "1", processedKeyTTL).Result()
	if err != nil {
		s.logger.Warn("duplicate-message guard unavailable",
			zap.String("message", messageID), zap.Error(err))
		return false
	}
	return !fresh
}
