package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/registro-museografico/museum-registry/internal/registry/domain"
)

// StreamStatus streams submission status changes of a draft using Server-Sent Events (SSE)
func (h *Handler) StreamStatus(c *gin.Context) {
	draftID := c.Param("id")

	status, err := h.drafts.Status(c.Request.Context(), draftID)
	if err != nil {
		respondError(c, "drafts.stream", err)
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	writeEvent(c, flusher, "initial", gin.H{"status": status})

	ctx := c.Request.Context()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()

	lastUpdatedAt := status.UpdatedAt

	for {
		select {
		case <-ctx.Done():
			return

		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case <-poll.C:
			current, err := h.drafts.Status(ctx, draftID)
			if err != nil {
				if errors.Is(err, domain.ErrDraftNotFound) {
					writeEvent(c, flusher, "deleted", gin.H{"event": "deleted", "draft_id": draftID})
					return
				}
				continue
			}

			if current.UpdatedAt.After(lastUpdatedAt) {
				lastUpdatedAt = current.UpdatedAt
				writeEvent(c, flusher, "update", gin.H{"status": current})
			}
		}
	}
}

func writeEvent(c *gin.Context, flusher http.Flusher, event string, payload any) {
	data, _ := json.Marshal(payload)
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(data))
	flusher.Flush()
}
