package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/registro-museografico/museum-registry/internal/logging"
	"github.com/registro-museografico/museum-registry/internal/registry/domain"
	"github.com/registro-museografico/museum-registry/internal/registry/imagehost"
	"github.com/registro-museografico/museum-registry/internal/registry/service"
)

// Handler serves the record editor and the image upload proxy.
type Handler struct {
	drafts       *service.DraftService
	images       *imagehost.Client
	pollInterval time.Duration
	keepAlive    time.Duration
}

func New(drafts *service.DraftService, images *imagehost.Client) *Handler {
	return &Handler{
		drafts:       drafts,
		images:       images,
		pollInterval: time.Second,
		keepAlive:    15 * time.Second,
	}
}

// respondError maps service errors to status codes. Unknown errors are logged
// and hidden behind a generic message.
func respondError(c *gin.Context, operation string, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "draft not found"})
	case errors.Is(err, domain.ErrImageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "image not found"})
	case errors.Is(err, domain.ErrSubmissionInProgress):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "submission in progress"})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": ve.Message, "field": ve.Field})
	default:
		logging.NewLogger(c.Request.Context()).LogError(operation, err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
