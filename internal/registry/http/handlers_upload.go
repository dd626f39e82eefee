package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/registro-museografico/museum-registry/internal/logging"
	"github.com/registro-museografico/museum-registry/internal/registry/domain"
	"github.com/registro-museografico/museum-registry/internal/registry/imagehost"
)

const (
	uploadPlatform     = "registro-museografico-digital"
	msgNotConfigured   = "Cloudflare Images no configurado. Agrega CLOUDFLARE_API_TOKEN en el entorno del servidor."
	msgNoFile          = "No se recibió ningún archivo."
	msgUnexpectedImage = "Error inesperado al subir la imagen. Intenta nuevamente."
)

// UploadImage forwards a single image to the image host with the server's
// credentials and returns its delivery URLs.
func (h *Handler) UploadImage(c *gin.Context) {
	logger := logging.NewLogger(c.Request.Context())

	if !h.images.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": msgNotConfigured})
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msgNoFile})
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if err := imagehost.ValidateImage(contentType, fh.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		logger.LogError("upload_image.open", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msgUnexpectedImage})
		return
	}
	defer f.Close()

	res, err := h.images.Upload(c.Request.Context(), imagehost.UploadInput{
		Filename:    fh.Filename,
		ContentType: contentType,
		Body:        f,
		Metadata: map[string]any{
			"platform":     uploadPlatform,
			"uploadedAt":   time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			"originalName": fh.Filename,
		},
	})
	if err != nil {
		status, msg := uploadFailure(err)
		logger.LogErrorf("upload_image", "upload of %q answered %d: %v", fh.Filename, status, err)
		c.JSON(status, gin.H{"success": false, "error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"imageId":   res.ID,
		"url":       h.images.DeliveryURL(res.ID, "public"),
		"thumbnail": h.images.DeliveryURL(res.ID, "thumbnail"),
		"variants":  res.Variants,
	})
}

// uploadFailure mirrors the upstream status when it reported a failure,
// answers 502 when the host claimed success without a usable result and 500
// for anything else.
func uploadFailure(err error) (int, string) {
	var (
		he *imagehost.HostError
		ce *domain.ConfigurationError
	)
	switch {
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable, ce.Message
	case errors.As(err, &he) && he.Status != 0:
		msg := he.Message
		if msg == "" {
			msg = fmt.Sprintf("Error Cloudflare (%d)", he.Status)
		}
		if he.Status >= 200 && he.Status < 300 {
			return http.StatusBadGateway, msg
		}
		return he.Status, msg
	}
	return http.StatusInternalServerError, msgUnexpectedImage
}
