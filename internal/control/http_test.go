package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mandilink/offer-relay/internal/stats"
)

func newTestAPI(t *testing.T) (*httptest.Server, *API) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(10)
	api := &API{
		Switch: NewSwitch(context.Background(), nil, true, zap.NewNop()),
		Hub:    hub,
		Feed:   NewFeed(hub, nil, zap.NewNop()),
		Stats:  stats.NewRecorder(nil, zap.NewNop()),
		Logger: zap.NewNop(),
	}

	r := gin.New()
	api.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, api
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAutomationRoundTrip(t *testing.T) {
	srv, _ := newTestAPI(t)
	client := srv.Client()

	get := func() map[string]bool {
		resp, err := client.Get(srv.URL + "/api/automation")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return body
	}

	put := func(body string) *http.Response {
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/automation", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	assert.True(t, get()["enabled"])

	resp := put(`{"enabled": false}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, get()["enabled"])

	resp = put(`{"enabled": true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, get()["enabled"])

	assert.Equal(t, http.StatusBadRequest, put(`{}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, put(`not json`).StatusCode)
}

func TestTodayStatsWithoutStore(t *testing.T) {
	srv, _ := newTestAPI(t)

	resp, err := http.Get(srv.URL + "/api/stats/today")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var counts map[string]int64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&counts))
	assert.Empty(t, counts)
}

func TestStatusSocketReplaysAndStreams(t *testing.T) {
	srv, api := newTestAPI(t)

	api.Feed.Publish(context.Background(), StatusEvent{Kind: EventMessageReceived, MessageID: "m-1"})
	api.Feed.Publish(context.Background(), StatusEvent{Kind: EventCycleDone, MessageID: "m-1"})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/status"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	readEvent := func() StatusEvent {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		var ev StatusEvent
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	}

	// Replay arrives in publish order; reading it proves the join finished.
	assert.Equal(t, EventMessageReceived, readEvent().Kind)
	assert.Equal(t, EventCycleDone, readEvent().Kind)

	api.Feed.Publish(context.Background(), StatusEvent{Kind: EventDispatchSent, MessageID: "m-2"})
	live := readEvent()
	assert.Equal(t, EventDispatchSent, live.Kind)
	assert.Equal(t, "m-2", live.MessageID)
}
