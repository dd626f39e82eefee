package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/registro-museografico/museum-registry/internal/registry/domain"
	"github.com/registro-museografico/museum-registry/internal/registry/imagehost"
)

// CreateDraft opens an empty record form
func (h *Handler) CreateDraft(c *gin.Context) {
	d, err := h.drafts.Create(c.Request.Context())
	if err != nil {
		respondError(c, "drafts.create", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "draft": d})
}

// GetDraft returns the form, staged images and last status
func (h *Handler) GetDraft(c *gin.Context) {
	d, err := h.drafts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "drafts.get", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "draft": d})
}

// UpdateDraft applies a partial update of the form fields
func (h *Handler) UpdateDraft(c *gin.Context) {
	var patch domain.FieldPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	d, err := h.drafts.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, "drafts.update", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "draft": d})
}

// DeleteDraft discards the draft and its staged images
func (h *Handler) DeleteDraft(c *gin.Context) {
	if err := h.drafts.Discard(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "drafts.discard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AddMaterial appends one material to the list
func (h *Handler) AddMaterial(c *gin.Context) {
	var body struct {
		Material string `json:"material"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	d, added, err := h.drafts.AddMaterial(c.Request.Context(), c.Param("id"), body.Material)
	if err != nil {
		respondError(c, "drafts.add_material", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "added": added, "draft": d})
}

// RemoveMaterial drops a material by value. The value travels in the
// "material" query parameter since it may contain a slash.
func (h *Handler) RemoveMaterial(c *gin.Context) {
	material, ok := c.GetQuery("material")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "missing material", "field": "material"})
		return
	}

	d, err := h.drafts.RemoveMaterial(c.Request.Context(), c.Param("id"), material)
	if err != nil {
		respondError(c, "drafts.remove_material", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "draft": d})
}

type rejectedFile struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// StageImages stages every image posted under the "file" field. Files not
// declared as images are skipped; invalid images are reported per file.
func (h *Handler) StageImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["file"]) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "No se recibió ningún archivo."})
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	staged := []domain.StagedImage{}
	rejected := []rejectedFile{}
	skipped := 0
	var draft *domain.Draft

	for _, fh := range form.File["file"] {
		ct := fh.Header.Get("Content-Type")
		if ct != "" && !imagehost.IsImage(ct) {
			skipped++
			continue
		}
		if ct != "" {
			if err := imagehost.ValidateImage(ct, fh.Size); err != nil {
				rejected = append(rejected, rejectedFile{Filename: fh.Filename, Error: err.Error()})
				continue
			}
		}

		f, err := fh.Open()
		if err != nil {
			respondError(c, "drafts.stage_image", err)
			return
		}
		d, img, err := h.drafts.StageImage(ctx, id, fh.Filename, ct, f)
		f.Close()

		var ve *domain.ValidationError
		switch {
		case err == nil:
			draft = d
			staged = append(staged, img)
		case errors.As(err, &ve):
			rejected = append(rejected, rejectedFile{Filename: fh.Filename, Error: ve.Message})
		default:
			respondError(c, "drafts.stage_image", err)
			return
		}
	}

	if draft == nil {
		if draft, err = h.drafts.Get(ctx, id); err != nil {
			respondError(c, "drafts.stage_image", err)
			return
		}
	}

	status := http.StatusCreated
	if len(staged) == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"ok":       len(staged) > 0,
		"staged":   staged,
		"rejected": rejected,
		"skipped":  skipped,
		"draft":    draft,
	})
}

// RemoveImage unstages one image and releases its preview
func (h *Handler) RemoveImage(c *gin.Context) {
	d, err := h.drafts.RemoveImage(c.Request.Context(), c.Param("id"), c.Param("image_id"))
	if err != nil {
		respondError(c, "drafts.remove_image", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "draft": d})
}

// PreviewImage streams the bytes of a staged image
func (h *Handler) PreviewImage(c *gin.Context) {
	img, r, err := h.drafts.OpenPreview(c.Request.Context(), c.Param("id"), c.Param("image_id"))
	if err != nil {
		respondError(c, "drafts.preview", err)
		return
	}
	defer r.Close()

	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, img.Size, img.ContentType, r, map[string]string{
		"Content-Disposition": "inline; filename=" + strconv.Quote(img.Filename),
	})
}

// Submit runs the upload and webhook pipeline. A client disconnect does not
// abort a running submission.
func (h *Handler) Submit(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())

	status, err := h.drafts.Submit(ctx, c.Param("id"))
	switch {
	case status.State == domain.StateSucceeded:
		body := gin.H{"ok": true, "status": status}
		if err != nil {
			body["warning"] = err.Error()
		}
		c.JSON(http.StatusOK, body)
	case err != nil:
		respondError(c, "drafts.submit", err)
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": status.Error, "status": status})
	}
}

// GetStatus returns the latest submission status
func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.drafts.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "drafts.status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// Options returns the data behind the form's select inputs
func (h *Handler) Options(c *gin.Context) {
	type museumOption struct {
		Name       domain.Museum `json:"name"`
		Categories []string      `json:"categories"`
	}
	museums := make([]museumOption, 0, len(domain.Museums))
	for _, m := range domain.Museums {
		museums = append(museums, museumOption{Name: m, Categories: m.Categories()})
	}

	c.JSON(http.StatusOK, gin.H{
		"museums":             museums,
		"conservation_states": domain.ConservationStates,
	})
}
