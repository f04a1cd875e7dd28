package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cryptofolio/portfolio-engine/internal/market"
	"github.com/cryptofolio/portfolio-engine/internal/models"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (for development and demo)
	},
}

type wsMessage struct {
	Type  string              `json:"type"`
	Price *market.Update      `json:"price,omitempty"`
	Alert *models.PriceAlert  `json:"alert,omitempty"`
}

// HandleWebSocket streams live price movements and fired alerts to the
// client over one connection.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	prices := h.feed.Subscribe()
	defer h.feed.Unsubscribe(prices)
	alerts := h.watcher.Subscribe()
	defer h.watcher.Unsubscribe(alerts)

	h.log.Debug("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	for {
		var msg wsMessage
		select {
		case update := <-prices:
			msg = wsMessage{Type: "price", Price: &update}
		case alert := <-alerts:
			msg = wsMessage{Type: "alert", Alert: &alert}
		case <-c.Request.Context().Done():
			return
		}
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debug("websocket write error", zap.Error(err))
			return
		}
	}
}
