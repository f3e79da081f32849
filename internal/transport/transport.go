// Package transport connects the relay to the chat network: decoding inbound
// message events and sending consolidated text to destination channels
// through the gateway's REST API.
package transport

import (
	"context"
	"errors"
	"time"
)

// InboundMessage is one message delivered from a source channel.
type InboundMessage struct {
	MessageID  string
	ChannelID  string
	IsGroup    bool
	Body       string
	ReceivedAt time.Time
}

// Channel describes a channel known to the chat network.
type Channel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"isGroup"`
}

// ErrChannelNotFound reports a channel id the gateway does not know.
var ErrChannelNotFound = errors.New("transport: channel not found")

// Sender delivers outbound text to a channel.
type Sender interface {
	Send(ctx context.Context, channelID, text string) error
}

// Directory resolves channel ids to channel descriptions.
type Directory interface {
	Channel(ctx context.Context, channelID string) (Channel, error)
}

// Consumer admits inbound messages for processing. Implementations must not
// block: delivery happens on the event handler's request goroutine.
type Consumer interface {
	HandleInbound(msg InboundMessage)
}
