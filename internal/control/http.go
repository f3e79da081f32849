package control

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mandilink/offer-relay/internal/stats"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Operator consoles are served from their own origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// API serves the operator endpoints: health probes, the automation switch,
// daily statistics, the live status socket, and the inbound event mount.
type API struct {
	Switch *Switch
	Hub    *Hub
	Feed   *Feed
	Stats  *stats.Recorder
	Redis  *redis.Client
	Events http.Handler
	Logger *zap.Logger
}

// Register mounts all operator routes on r.
func (a *API) Register(r *gin.Engine) {
	r.GET("/healthz", a.health)
	r.GET("/readyz", a.ready)
	r.GET("/api/automation", a.getAutomation)
	r.PUT("/api/automation", a.setAutomation)
	r.GET("/api/stats/today", a.todayStats)
	r.GET("/ws/status", a.statusSocket)
	if a.Events != nil {
		r.POST("/events", gin.WrapH(a.Events))
	}
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) ready(c *gin.Context) {
	if a.Redis != nil {
		if err := a.Redis.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unready", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (a *API) getAutomation(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": a.Switch.Enabled()})
}

type automationRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (a *API) setAutomation(c *gin.Context) {
	var req automationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": `body must be {"enabled": true|false}`})
		return
	}

	a.Switch.Set(c.Request.Context(), *req.Enabled)

	detail := "off"
	if *req.Enabled {
		detail = "on"
	}
	a.Feed.Publish(c.Request.Context(), StatusEvent{Kind: EventAutomationSet, Detail: detail})

	c.JSON(http.StatusOK, gin.H{"enabled": a.Switch.Enabled()})
}

func (a *API) todayStats(c *gin.Context) {
	counts, err := a.Stats.Today(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (a *API) statusSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	if err := a.Hub.Join(ws); err != nil {
		_ = ws.Close()
		return
	}

	a.Logger.Debug("operator console connected")

	// Hold the connection open; inbound frames are ignored.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	a.Hub.Leave(ws)
	a.Logger.Debug("operator console disconnected")
}
