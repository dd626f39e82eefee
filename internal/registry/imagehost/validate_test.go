package imagehost

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registro-museografico/museum-registry/internal/registry/domain"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantMsg     string
	}{
		{"jpeg", "image/jpeg", 1024, ""},
		{"png with params", "image/png; charset=binary", 1024, ""},
		{"webp at limit", "image/webp", MaxImageSize, ""},
		{"gif", "image/gif", 1, ""},
		{"svg rejected", "image/svg+xml", 10, "Formato no soportado: image/svg+xml. Usa JPG, PNG, WebP o GIF."},
		{"pdf rejected", "application/pdf", 10, "Formato no soportado: application/pdf. Usa JPG, PNG, WebP o GIF."},
		{"too big", "image/png", 12 * 1024 * 1024, "La imagen pesa 12.0 MB. El máximo es 10 MB."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.contentType, tt.size)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantMsg, ve.Message)
		})
	}
}

func TestResolveContentType(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	assert.Equal(t, "image/jpeg", ResolveContentType("image/JPEG", png))
	assert.Equal(t, "image/png", ResolveContentType("", png))
	assert.Equal(t, "image/png", ResolveContentType("application/octet-stream", png))
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("image/svg+xml"))
	assert.False(t, IsImage("text/plain"))
}
