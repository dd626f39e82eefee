package catalog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	catalog *Catalog
}

func NewHandler(c *Catalog) *Handler {
	return &Handler{catalog: c}
}

// Register registers the public catalog routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/pieces", h.ListPieces)
	rg.GET("/pieces/:id", h.GetPiece)
	rg.GET("/museums/:slug/pieces", h.ListMuseumPieces)
	rg.GET("/dashboard/stats", h.GetStats)
}

func (h *Handler) ListPieces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "pieces": h.catalog.All()})
}

func (h *Handler) GetPiece(c *gin.Context) {
	p, err := h.catalog.ByID(c.Param("id"))
	if errors.Is(err, ErrPieceNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "piece not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "piece": p})
}

// ListMuseumPieces lists the pieces of the museum named by its URL slug
func (h *Handler) ListMuseumPieces(c *gin.Context) {
	museum, ok := MuseumBySlug(c.Param("slug"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "museum not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "museum": museum, "pieces": h.catalog.ByMuseum(museum)})
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "stats": h.catalog.Stats()})
}
