package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mandilink/offer-relay/internal/ratelimit"
)

const (
	defaultSendRPS   = 1.0
	defaultSendBurst = 3

	defaultTimeout = 30 * time.Second
)

// GatewayConfig carries the connection settings for the chat gateway.
type GatewayConfig struct {
	BaseURL   string
	Token     string
	SendRPS   float64
	SendBurst int
}

// Gateway is a rate-limited client for the chat gateway's REST API. Sends
// are paced per destination channel so one large fan-out cannot trip the
// provider's flood protection.
type Gateway struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *ratelimit.Keyed
	logger  *zap.Logger
}

// NewGateway builds a gateway client. Zero rate settings fall back to the
// defaults.
func NewGateway(cfg GatewayConfig, logger *zap.Logger) *Gateway {
	rps := cfg.SendRPS
	if rps <= 0 {
		rps = defaultSendRPS
	}
	burst := cfg.SendBurst
	if burst <= 0 {
		burst = defaultSendBurst
	}
	return &Gateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: ratelimit.NewKeyed(rps, burst),
		logger:  logger,
	}
}

type sendRequest struct {
	Text string `json:"text"`
}

// Send posts text to a channel, waiting on the channel's rate limiter first.
func (g *Gateway) Send(ctx context.Context, channelID, text string) error {
	if err := g.limiter.Wait(ctx, channelID); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(sendRequest{Text: text})
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/channels/%s/messages", g.baseURL, url.PathEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("X-Request-ID", requestID)

	g.logger.Debug("gateway send",
		zap.String("channel", channelID),
		zap.String("request_id", requestID),
		zap.Int("bytes", len(text)))

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrChannelNotFound
	default:
		return fmt.Errorf("send to %s: unexpected status %d: %s", channelID, resp.StatusCode, snippet(body))
	}
}

// Channel fetches the gateway's description of a channel.
func (g *Gateway) Channel(ctx context.Context, channelID string) (Channel, error) {
	endpoint := fmt.Sprintf("%s/v1/channels/%s", g.baseURL, url.PathEscape(channelID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Channel{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.http.Do(req)
	if err != nil {
		return Channel{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Channel{}, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var ch Channel
		if err := json.Unmarshal(body, &ch); err != nil {
			return Channel{}, fmt.Errorf("decode channel: %w", err)
		}
		return ch, nil
	case http.StatusNotFound:
		return Channel{}, ErrChannelNotFound
	default:
		return Channel{}, fmt.Errorf("get channel %s: unexpected status %d: %s", channelID, resp.StatusCode, snippet(body))
	}
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
