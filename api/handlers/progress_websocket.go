package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/vidbatch-go/internal/app"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// ProgressWebSocketHandler streams batch progress events to WebSocket
// clients. Each connection gets its own subscription; a slow client
// drops events rather than stalling workers.
type ProgressWebSocketHandler struct {
	manager *app.BatchManager
	logger  *zap.Logger
}

// NewProgressWebSocketHandler creates a new WebSocket handler
func NewProgressWebSocketHandler(manager *app.BatchManager, logger *zap.Logger) *ProgressWebSocketHandler {
	return &ProgressWebSocketHandler{
		manager: manager,
		logger:  logger,
	}
}

// HandleWebSocket handles GET /ws/progress. An optional task_id query
// parameter restricts the stream to one batch.
func (h *ProgressWebSocketHandler) HandleWebSocket(c *gin.Context) {
	taskFilter := c.Query("task_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events := h.manager.Subscribe()
	defer h.manager.Unsubscribe(events)

	// Reader goroutine: detect client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if taskFilter != "" && event.TaskID != taskFilter {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
