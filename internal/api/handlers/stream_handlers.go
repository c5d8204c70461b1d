package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	apperrors "github.com/stockdash/portfolio_service/pkg/errors"
	"github.com/stockdash/portfolio_service/pkg/logger"
	"github.com/stockdash/portfolio_service/pkg/metrics"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// origin policy is the same wildcard CORS applies to plain requests
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamMessage is one frame pushed to a live analytics subscriber
type StreamMessage struct {
	Type      string      `json:"type"` // analytics or error
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// StreamHandler pushes a portfolio's analytics over a websocket
type StreamHandler struct {
	analytics        AnalyticsService
	owners           OwnershipChecker
	enforceOwnership bool
	interval         time.Duration
	logger           *logger.Logger
}

func NewStreamHandler(analytics AnalyticsService, owners OwnershipChecker, enforceOwnership bool, interval time.Duration, log *logger.Logger) *StreamHandler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &StreamHandler{
		analytics:        analytics,
		owners:           owners,
		enforceOwnership: enforceOwnership,
		interval:         interval,
		logger:           log,
	}
}

// StreamAnalytics upgrades to a websocket and sends analytics every interval
// @Summary Stream portfolio analytics
// @Description Websocket that pushes the cached or freshly computed analytics on a fixed interval
// @Tags analytics
// @Param id path string true "Portfolio ID"
// @Param userId query string false "Caller user ID, required when ownership is enforced"
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/v1/ws/portfolios/{id}/analytics [get]
func (h *StreamHandler) StreamAnalytics(c *gin.Context) {
	portfolioID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, _, err := optionalUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	// checked before the upgrade so rejections are plain HTTP responses
	if !authorizePortfolio(c, h.owners, h.enforceOwnership, portfolioID, userID) {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnw("WebSocket upgrade failed", "portfolio_id", portfolioID, "error", err)
		return
	}
	defer conn.Close()

	metrics.StreamConnectionsGauge.Inc()
	defer metrics.StreamConnectionsGauge.Dec()

	log := h.logger.ForPortfolio(portfolioID.String())
	log.Debugw("Analytics stream opened")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go h.readPump(conn, cancel)

	if !h.push(ctx, conn, portfolioID) {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debugw("Analytics stream closed")
			return
		case <-ticker.C:
			if !h.push(ctx, conn, portfolioID) {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push sends one frame and reports whether the connection is still usable
func (h *StreamHandler) push(ctx context.Context, conn *websocket.Conn, portfolioID uuid.UUID) bool {
	msg := StreamMessage{Type: "analytics", Timestamp: time.Now().UTC()}

	analytics, err := h.analytics.GetCached(ctx, portfolioID)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		msg.Type = "error"
		msg.Error = apperrors.GetMessage(err)
	} else {
		msg.Data = analytics
	}

	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(msg) == nil
}

// readPump drains client frames so pongs and close messages are processed
func (h *StreamHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
