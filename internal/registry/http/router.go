package http

import "github.com/gin-gonic/gin"

// Register registers the editor routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/drafts", h.CreateDraft)
	rg.GET("/drafts/:id", h.GetDraft)
	rg.PATCH("/drafts/:id", h.UpdateDraft)
	rg.DELETE("/drafts/:id", h.DeleteDraft)

	rg.POST("/drafts/:id/materials", h.AddMaterial)
	rg.DELETE("/drafts/:id/materials", h.RemoveMaterial)

	rg.POST("/drafts/:id/images", h.StageImages)
	rg.DELETE("/drafts/:id/images/:image_id", h.RemoveImage)

	rg.POST("/drafts/:id/submit", h.Submit)
	rg.GET("/drafts/:id/status", h.GetStatus)
	rg.GET("/drafts/:id/status/stream", h.StreamStatus)

	rg.POST("/upload-image", h.UploadImage)
}

// RegisterPublic registers routes that need no API key. Previews are loaded
// by <img> tags, which cannot send one; their ids are random.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/registry/options", h.Options)
	rg.GET("/drafts/:id/images/:image_id/preview", h.PreviewImage)
}
