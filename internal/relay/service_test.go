package relay

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mandilink/offer-relay/internal/control"
	"github.com/mandilink/offer-relay/internal/extract"
	"github.com/mandilink/offer-relay/internal/stats"
	"github.com/mandilink/offer-relay/internal/transport"
)

type fakeExtractor struct {
	offers  []extract.Offer
	outcome extract.Outcome
	err     error

	// gate, when set, blocks every call until the channel closes.
	gate     chan struct{}
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu     sync.Mutex
	bodies []string
}

func (f *fakeExtractor) ExtractOffers(ctx context.Context, body string) ([]extract.Offer, extract.Outcome, error) {
	cur := f.inFlight.Add(1)
	for {
		max := f.maxSeen.Load()
		if cur <= max || f.maxSeen.CompareAndSwap(max, cur) {
			break
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.inFlight.Add(-1)

	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	if f.err != nil {
		return nil, extract.ParseFailed, f.err
	}
	return f.offers, f.outcome, nil
}

func (f *fakeExtractor) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.bodies...)
}

type fakeDispatcher struct {
	mu       sync.Mutex
	messages []string
	batches  [][]extract.Offer
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, messageID string, offers []extract.Offer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, messageID)
	f.batches = append(f.batches, offers)
}

func (f *fakeDispatcher) dispatched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

func newTestService(x Extractor, d Dispatcher, automationOn bool) (*Service, *control.Hub) {
	hub := control.NewHub(100)
	feed := control.NewFeed(hub, nil, zap.NewNop())
	sw := control.NewSwitch(context.Background(), nil, automationOn, zap.NewNop())
	cfg := ServiceConfig{SourceChannels: []string{"mandi-main", "mandi-alt"}}
	svc := NewService(context.Background(), cfg, sw, feed, stats.NewRecorder(nil, zap.NewNop()), x, d, nil, zap.NewNop())
	return svc, hub
}

func inbound(id, channel, body string) transport.InboundMessage {
	return transport.InboundMessage{
		MessageID:  id,
		ChannelID:  channel,
		IsGroup:    true,
		Body:       body,
		ReceivedAt: time.Now(),
	}
}

func TestServiceRunsFullCycle(t *testing.T) {
	x := &fakeExtractor{
		offers: []extract.Offer{{
			ExtractedName: "TUR", StandardizedName: "TOOR DAL", Category: "PULSES",
			Details: map[string]string{"en": "TOOR DAL 5000"},
		}},
		outcome: extract.ParsedStrict,
	}
	d := &fakeDispatcher{}
	svc, hub := newTestService(x, d, true)

	svc.HandleInbound(inbound("msg-1", "mandi-main", "tur 5000"))
	svc.Drain()

	assert.Equal(t, []string{"tur 5000"}, x.calls())
	require.Equal(t, []string{"msg-1"}, d.dispatched())

	kinds := eventKinds(hub)
	assert.Contains(t, kinds, control.EventMessageReceived)
	assert.Contains(t, kinds, control.EventCycleDone)
}

func TestServiceSkipsWhenAutomationOff(t *testing.T) {
	x := &fakeExtractor{}
	d := &fakeDispatcher{}
	svc, hub := newTestService(x, d, false)

	svc.HandleInbound(inbound("msg-1", "mandi-main", "tur 5000"))
	svc.Drain()

	assert.Empty(t, x.calls())
	assert.Empty(t, d.dispatched())

	var skipped bool
	for _, ev := range hub.History() {
		if ev.Kind == control.EventCycleSkipped {
			skipped = true
			assert.Equal(t, "automation disabled", ev.Detail)
		}
	}
	assert.True(t, skipped)
}

func TestServiceIgnoresIneligibleChannel(t *testing.T) {
	x := &fakeExtractor{}
	d := &fakeDispatcher{}
	svc, hub := newTestService(x, d, true)

	svc.HandleInbound(inbound("msg-1", "somewhere-else", "tur 5000"))
	svc.Drain()

	assert.Empty(t, x.calls())
	assert.Empty(t, d.dispatched())
	assert.Empty(t, hub.History())
}

func TestServiceExtractionFailureStopsCycle(t *testing.T) {
	x := &fakeExtractor{err: errors.New("oracle unreachable")}
	d := &fakeDispatcher{}
	svc, hub := newTestService(x, d, true)

	svc.HandleInbound(inbound("msg-1", "mandi-main", "tur 5000"))
	svc.Drain()

	assert.Empty(t, d.dispatched())

	kinds := eventKinds(hub)
	assert.Contains(t, kinds, control.EventExtractionFailed)
	assert.NotContains(t, kinds, control.EventCycleDone)
}

func TestServiceNoOffersSkipsDispatch(t *testing.T) {
	x := &fakeExtractor{outcome: extract.ParsedStrict}
	d := &fakeDispatcher{}
	svc, hub := newTestService(x, d, true)

	svc.HandleInbound(inbound("msg-1", "mandi-main", "good morning"))
	svc.Drain()

	assert.Empty(t, d.dispatched())
	assert.Contains(t, eventKinds(hub), control.EventCycleDone)
}

func TestServiceSerializesSameChannel(t *testing.T) {
	x := &fakeExtractor{outcome: extract.ParsedStrict, gate: make(chan struct{})}
	d := &fakeDispatcher{}
	svc, _ := newTestService(x, d, true)

	svc.HandleInbound(inbound("msg-1", "mandi-main", "first"))
	svc.HandleInbound(inbound("msg-2", "mandi-main", "second"))
	svc.HandleInbound(inbound("msg-3", "mandi-main", "third"))

	require.Eventually(t, func() bool { return x.inFlight.Load() == 1 },
		time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return x.inFlight.Load() > 1 },
		200*time.Millisecond, 5*time.Millisecond)

	close(x.gate)
	svc.Drain()

	assert.Equal(t, []string{"first", "second", "third"}, x.calls())
	assert.Equal(t, int32(1), x.maxSeen.Load())
}

func TestServiceRunsChannelsInParallel(t *testing.T) {
	x := &fakeExtractor{outcome: extract.ParsedStrict, gate: make(chan struct{})}
	d := &fakeDispatcher{}
	svc, _ := newTestService(x, d, true)

	svc.HandleInbound(inbound("msg-1", "mandi-main", "from main"))
	svc.HandleInbound(inbound("msg-2", "mandi-alt", "from alt"))

	require.Eventually(t, func() bool { return x.inFlight.Load() == 2 },
		time.Second, 5*time.Millisecond)

	close(x.gate)
	svc.Drain()

	assert.ElementsMatch(t, []string{"from main", "from alt"}, x.calls())
	assert.Equal(t, int32(2), x.maxSeen.Load())
}
