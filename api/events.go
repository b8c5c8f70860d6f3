package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskport/taskport/log"
	"github.com/taskport/taskport/notifications"
)

// EventStream handles GET /api/events (SSE)
// Streams import lifecycle events to connected clients.
func (h *Handlers) EventStream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	events, unsubscribe := h.notif.Subscribe()
	defer unsubscribe()

	// Send initial connected event
	sendSSEEvent(c, notifications.Event{
		Type:      notifications.EventConnected,
		Timestamp: time.Now().UnixMilli(),
	})
	c.Writer.Flush()

	log.Debug().Msg("client connected to event stream")

	// Heartbeat keeps intermediaries from closing an idle stream
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			sendSSEEvent(c, event)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			log.Debug().Msg("client disconnected from event stream")
			return
		}
	}
}

func sendSSEEvent(c *gin.Context, event notifications.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
}
