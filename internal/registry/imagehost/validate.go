package imagehost

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/registro-museografico/museum-registry/internal/registry/domain"
)

// MaxImageSize is the largest file the image host accepts.
const MaxImageSize = 10 * 1024 * 1024

var supportedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// ValidateImage checks type and size before any network call is made.
func ValidateImage(contentType string, size int64) error {
	if !Supported(contentType) {
		return &domain.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("Formato no soportado: %s. Usa JPG, PNG, WebP o GIF.", contentType),
		}
	}
	if size > MaxImageSize {
		return &domain.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("La imagen pesa %.1f MB. El máximo es 10 MB.", float64(size)/1024/1024),
		}
	}
	return nil
}

// Supported reports whether contentType is one of the accepted image types.
func Supported(contentType string) bool {
	ct := normalize(contentType)
	for _, t := range supportedTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// IsImage mirrors the drop zone filter: anything declared as image/* is kept
// for staging, even types the host later rejects.
func IsImage(contentType string) bool {
	return strings.HasPrefix(normalize(contentType), "image/")
}

// ResolveContentType returns the declared type, or sniffs head when the
// client sent nothing useful.
func ResolveContentType(declared string, head []byte) string {
	ct := normalize(declared)
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return normalize(mimetype.Detect(head).String())
}

func normalize(contentType string) string {
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}
