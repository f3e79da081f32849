package transport

import (
	"context"
	"net/http"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/event"
	"go.uber.org/zap"
)

// EventTypeMessage is the CloudEvents type carrying one inbound chat message.
const EventTypeMessage = "chat.message.received"

type inboundEnvelope struct {
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId"`
	IsGroup   bool   `json:"isGroup"`
	Body      string `json:"body"`
}

// NewEventHandler returns an http.Handler that decodes inbound chat
// CloudEvents and hands each message to consumer. Events of other types, or
// with unusable payloads, are logged and acknowledged without processing so
// the emitter does not redeliver them.
func NewEventHandler(ctx context.Context, consumer Consumer, logger *zap.Logger) (http.Handler, error) {
	p, err := cloudevents.NewHTTP()
	if err != nil {
		return nil, err
	}

	receive := func(ctx context.Context, e event.Event) {
		if e.Type() != EventTypeMessage {
			logger.Debug("ignoring event", zap.String("type", e.Type()), zap.String("id", e.ID()))
			return
		}

		var env inboundEnvelope
		if err := e.DataAs(&env); err != nil {
			logger.Warn("event decode failed", zap.String("id", e.ID()), zap.Error(err))
			return
		}
		if env.ChannelID == "" || env.Body == "" {
			logger.Warn("event missing channel or body", zap.String("id", e.ID()))
			return
		}

		msgID := env.MessageID
		if msgID == "" {
			msgID = e.ID()
		}
		received := e.Time()
		if received.IsZero() {
			received = time.Now()
		}

		consumer.HandleInbound(InboundMessage{
			MessageID:  msgID,
			ChannelID:  env.ChannelID,
			IsGroup:    env.IsGroup,
			Body:       env.Body,
			ReceivedAt: received,
		})
	}

	return cloudevents.NewHTTPReceiveHandler(ctx, p, receive)
}
