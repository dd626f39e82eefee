package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/registro-museografico/museum-registry/internal/logging"
	"github.com/registro-museografico/museum-registry/internal/metrics"
	"github.com/registro-museografico/museum-registry/internal/registry/domain"
)

const (
	StageRegistering = "Registrando pieza…"
	SuccessMessage   = "Registro guardado exitosamente. Pendiente de revisión por supervisor."
)

// RecordSubmitter delivers a finished payload to the review workflow.
type RecordSubmitter interface {
	Submit(ctx context.Context, p domain.Payload) error
}

// StagedFiles gives the pipeline access to a draft's staged images.
type StagedFiles interface {
	Open(draftID, imageID string) (io.ReadCloser, error)
	Release(draftID, imageID string) error
}

// StatusFunc persists a status change. Only the error of the terminal
// success report is acted on: staged files are kept when it fails.
type StatusFunc func(domain.SubmissionStatus) error

// Orchestrator runs one submission attempt: upload, build, send.
type Orchestrator struct {
	uploader  ImageUploader
	files     StagedFiles
	submitter RecordSubmitter
	now       func() time.Time
}

func NewOrchestrator(uploader ImageUploader, files StagedFiles, submitter RecordSubmitter) *Orchestrator {
	return &Orchestrator{
		uploader:  uploader,
		files:     files,
		submitter: submitter,
		now:       time.Now,
	}
}

// Submit drives draft through idle, uploading, submitting and one terminal
// state, reporting every change to onProgress. On success the draft's form is
// reset and, once that reset is reported, its staged images are released. On
// failure the draft is untouched and the returned error carries the cause.
// The final status is always returned.
func (o *Orchestrator) Submit(ctx context.Context, draft *domain.Draft, onProgress StatusFunc) (domain.SubmissionStatus, error) {
	logger := logging.NewLogger(ctx)
	status := domain.SubmissionStatus{State: domain.StateIdle}

	report := func() error {
		status.UpdatedAt = o.now().UTC()
		if onProgress != nil {
			return onProgress(status)
		}
		return nil
	}
	fail := func(err error) (domain.SubmissionStatus, error) {
		status.State = domain.StateFailed
		status.Stage = ""
		status.Error = domain.UserMessage(err)
		report()
		metrics.RecordSubmission(false)
		logger.LogErrorf("orchestrator.submit", "draft %s failed: %v", draft.ID, err)
		return status, err
	}

	report()

	urls := []string{}
	if len(draft.Staged) > 0 {
		status.State = domain.StateUploading
		seq := NewSequencer(o.uploader, func(img domain.StagedImage) (io.ReadCloser, error) {
			return o.files.Open(draft.ID, img.ID)
		})
		var err error
		urls, err = seq.Run(ctx, draft.Staged, func(stage string) {
			status.Stage = stage
			report()
		})
		if err != nil {
			return fail(err)
		}
	}

	status.State = domain.StateSubmitting
	status.Stage = StageRegistering
	report()

	at := o.now()
	id := NewRecordID(at)
	payload := BuildPayload(draft.Form.Clone(), urls, id, at)
	if err := o.submitter.Submit(ctx, payload); err != nil {
		return fail(err)
	}

	sent := draft.Staged
	draft.Form = domain.NewRecord()
	draft.Staged = []domain.StagedImage{}

	status.State = domain.StateSucceeded
	status.Stage = ""
	status.Message = SuccessMessage
	status.RecordID = id
	metrics.RecordSubmission(true)
	if err := report(); err != nil {
		// the stored draft still lists its images, so their files must stay
		return status, fmt.Errorf("record %s sent but draft could not be reset: %w", id, err)
	}

	for _, img := range sent {
		if err := o.files.Release(draft.ID, img.ID); err != nil {
			logger.LogWarnf("orchestrator.submit", "release of %s failed: %v", img.ID, err)
		}
	}
	logger.LogInfof("orchestrator.submit", "draft %s registered as %s with %d images", draft.ID, id, len(urls))

	return status, nil
}
