package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/registro-museografico/museum-registry/internal/logging"
	"github.com/registro-museografico/museum-registry/internal/registry/domain"
	"github.com/registro-museografico/museum-registry/internal/registry/imagehost"
)

const unknownUploadError = "Error desconocido"

// ImageUploader is the image host as seen by the pipeline.
type ImageUploader interface {
	Upload(ctx context.Context, in imagehost.UploadInput) (*imagehost.UploadResult, error)
	DeliveryURL(imageID, variant string) string
}

// Opener returns the bytes of a staged image.
type Opener func(img domain.StagedImage) (io.ReadCloser, error)

// ProgressFunc receives the human readable stage text.
type ProgressFunc func(stage string)

// Sequencer uploads staged images one at a time.
type Sequencer struct {
	uploader ImageUploader
	open     Opener
}

func NewSequencer(uploader ImageUploader, open Opener) *Sequencer {
	return &Sequencer{uploader: uploader, open: open}
}

// UploadStage is the progress text shown before the i-th of n uploads.
func UploadStage(i, n int) string {
	return fmt.Sprintf("Subiendo imagen %d de %d…", i, n)
}

// Run uploads images in order and returns their public delivery URLs. The
// first failure stops the sequence: later images are never attempted.
func (s *Sequencer) Run(ctx context.Context, images []domain.StagedImage, progress ProgressFunc) ([]string, error) {
	urls := make([]string, 0, len(images))
	logger := logging.NewLogger(ctx)

	for i, img := range images {
		index := i + 1
		if progress != nil {
			progress(UploadStage(index, len(images)))
		}

		id, err := s.uploadOne(ctx, img)
		if err != nil {
			var ce *domain.ConfigurationError
			// a missing host config is not about this image: no "Error en imagen" prefix
			if errors.As(err, &ce) {
				return nil, err
			}
			logger.LogErrorf("sequencer.run", "image %d of %d (%s) failed: %v", index, len(images), img.ID, err)
			return nil, &domain.UploadFailure{Index: index, Message: failureMessage(err), Err: err}
		}
		urls = append(urls, s.uploader.DeliveryURL(id, "public"))
	}

	return urls, nil
}

func (s *Sequencer) uploadOne(ctx context.Context, img domain.StagedImage) (string, error) {
	r, err := s.open(img)
	if err != nil {
		return "", fmt.Errorf("failed to open staged image: %w", err)
	}
	defer r.Close()

	res, err := s.uploader.Upload(ctx, imagehost.UploadInput{
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Body:        r,
	})
	if err != nil {
		return "", err
	}
	return res.ID, nil
}

func failureMessage(err error) string {
	var he *imagehost.HostError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return unknownUploadError
}
