package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	_ Sender    = (*Gateway)(nil)
	_ Directory = (*Gateway)(nil)
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGateway(GatewayConfig{
		BaseURL:   srv.URL,
		Token:     "test-token",
		SendRPS:   1000,
		SendBurst: 1000,
	}, zap.NewNop())
}

func TestGatewaySend(t *testing.T) {
	var gotPath, gotAuth, gotRequestID, gotText string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		require.Equal(t, http.MethodPost, r.Method)

		var body sendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotText = body.Text
		w.WriteHeader(http.StatusOK)
	})

	err := g.Send(context.Background(), "dest-1", "TUR 5000-5500")
	require.NoError(t, err)
	assert.Equal(t, "/v1/channels/dest-1/messages", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "TUR 5000-5500", gotText)
}

func TestGatewaySendChannelNotFound(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := g.Send(context.Background(), "ghost", "text")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestGatewaySendServerError(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusInternalServerError)
	})

	err := g.Send(context.Background(), "dest-1", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "gateway exploded")
}

func TestGatewayChannel(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/channels/dest-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"dest-1","name":"Pulses Hindi","isGroup":true}`))
	})

	ch, err := g.Channel(context.Background(), "dest-1")
	require.NoError(t, err)
	assert.Equal(t, Channel{ID: "dest-1", Name: "Pulses Hindi", IsGroup: true}, ch)
}

func TestGatewayChannelNotFound(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := g.Channel(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}
