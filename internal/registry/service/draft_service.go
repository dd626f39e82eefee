package service

import (
	"context"
	"hash/fnv"
	"io"
	"sync"
	"time"

	"github.com/registro-museografico/museum-registry/internal/logging"
	"github.com/registro-museografico/museum-registry/internal/registry/domain"
)

// submissionLockTTL bounds how long a crashed submission keeps a draft locked.
const submissionLockTTL = 10 * time.Minute

// DraftStore persists drafts and the in-flight submission marker.
type DraftStore interface {
	Create(ctx context.Context, d *domain.Draft) error
	Get(ctx context.Context, id string) (*domain.Draft, error)
	Save(ctx context.Context, d *domain.Draft) error
	Delete(ctx context.Context, id string) error
	AcquireSubmission(ctx context.Context, id string, ttl time.Duration) (bool, error)
	SubmissionInFlight(ctx context.Context, id string) (bool, error)
	ReleaseSubmission(ctx context.Context, id string) error
}

// StagingArea stores image files while a draft is being edited.
type StagingArea interface {
	StagedFiles
	Stage(draftID, filename, contentType string, r io.Reader) (domain.StagedImage, error)
	ReleaseAll(draftID string) error
}

// DraftService owns the editing lifecycle of a record form.
type DraftService struct {
	store        DraftStore
	area         StagingArea
	orchestrator *Orchestrator
	stripes      [64]sync.Mutex
}

func NewDraftService(store DraftStore, area StagingArea, orchestrator *Orchestrator) *DraftService {
	return &DraftService{
		store:        store,
		area:         area,
		orchestrator: orchestrator,
	}
}

// Create opens a new empty draft.
func (s *DraftService) Create(ctx context.Context) (*domain.Draft, error) {
	d := &domain.Draft{
		Form:   domain.NewRecord(),
		Staged: []domain.StagedImage{},
		Status: domain.SubmissionStatus{State: domain.StateIdle},
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	logging.NewLogger(ctx).LogInfof("drafts.create", "draft %s created", d.ID)
	return d, nil
}

func (s *DraftService) Get(ctx context.Context, id string) (*domain.Draft, error) {
	return s.store.Get(ctx, id)
}

// Update applies a field patch.
func (s *DraftService) Update(ctx context.Context, id string, patch domain.FieldPatch) (*domain.Draft, error) {
	return s.edit(ctx, id, func(d *domain.Draft) error {
		return d.Form.Apply(patch)
	})
}

// AddMaterial appends a material; added is false for blanks and duplicates.
func (s *DraftService) AddMaterial(ctx context.Context, id, material string) (d *domain.Draft, added bool, err error) {
	d, err = s.edit(ctx, id, func(d *domain.Draft) error {
		added = d.Form.AddMaterial(material)
		return nil
	})
	return d, added, err
}

// RemoveMaterial drops a material by value. Unknown values are ignored.
func (s *DraftService) RemoveMaterial(ctx context.Context, id, material string) (*domain.Draft, error) {
	return s.edit(ctx, id, func(d *domain.Draft) error {
		d.Form.RemoveMaterial(material)
		return nil
	})
}

// StageImage stores r in the staging area and appends it to the draft.
func (s *DraftService) StageImage(ctx context.Context, id, filename, contentType string, r io.Reader) (*domain.Draft, domain.StagedImage, error) {
	var img domain.StagedImage
	d, err := s.edit(ctx, id, func(d *domain.Draft) error {
		var err error
		img, err = s.area.Stage(d.ID, filename, contentType, r)
		if err != nil {
			return err
		}
		d.Staged = append(d.Staged, img)
		return nil
	})
	if err != nil && img.ID != "" {
		// the draft was not saved, so the file would be orphaned
		s.area.Release(id, img.ID)
	}
	return d, img, err
}

// RemoveImage drops a staged image and releases its file.
func (s *DraftService) RemoveImage(ctx context.Context, id, imageID string) (*domain.Draft, error) {
	return s.edit(ctx, id, func(d *domain.Draft) error {
		i := d.FindStaged(imageID)
		if i < 0 {
			return domain.ErrImageNotFound
		}
		if err := s.area.Release(d.ID, imageID); err != nil {
			return err
		}
		d.Staged = append(d.Staged[:i:i], d.Staged[i+1:]...)
		return nil
	})
}

// OpenPreview returns a staged image and its bytes. Only images still listed
// on the draft resolve.
func (s *DraftService) OpenPreview(ctx context.Context, id, imageID string) (domain.StagedImage, io.ReadCloser, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.StagedImage{}, nil, err
	}
	i := d.FindStaged(imageID)
	if i < 0 {
		return domain.StagedImage{}, nil, domain.ErrImageNotFound
	}
	r, err := s.area.Open(id, imageID)
	if err != nil {
		return domain.StagedImage{}, nil, err
	}
	return d.Staged[i], r, nil
}

// Discard deletes a draft with all its staged images.
func (s *DraftService) Discard(ctx context.Context, id string) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	if err := s.ensureIdle(ctx, id); err != nil {
		return err
	}
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	if err := s.area.ReleaseAll(id); err != nil {
		logging.NewLogger(ctx).LogWarnf("drafts.discard", "release of %s failed: %v", id, err)
	}
	return s.store.Delete(ctx, id)
}

// Submit runs the submission pipeline for a draft and returns its final
// status. A failed pipeline is reported through the status, not the error;
// the error is reserved for incomplete forms, lookups, locking and storage
// problems.
func (s *DraftService) Submit(ctx context.Context, id string) (domain.SubmissionStatus, error) {
	logger := logging.NewLogger(ctx)

	ok, err := s.store.AcquireSubmission(ctx, id, submissionLockTTL)
	if err != nil {
		return domain.SubmissionStatus{}, err
	}
	if !ok {
		return domain.SubmissionStatus{}, domain.ErrSubmissionInProgress
	}
	defer func() {
		if err := s.store.ReleaseSubmission(context.WithoutCancel(ctx), id); err != nil {
			logger.LogError("drafts.submit", err)
		}
	}()

	mu := s.lock(id)
	mu.Lock()
	d, err := s.store.Get(ctx, id)
	mu.Unlock()
	if err != nil {
		return domain.SubmissionStatus{}, err
	}
	// nothing is uploaded or sent for an incomplete form
	if err := d.Form.ValidateRequired(); err != nil {
		return domain.SubmissionStatus{}, err
	}

	status, err := s.orchestrator.Submit(ctx, d, func(st domain.SubmissionStatus) error {
		d.Status = st
		mu.Lock()
		defer mu.Unlock()
		if err := s.store.Save(ctx, d); err != nil {
			logger.LogErrorf("drafts.submit", "saving status %s of %s failed: %v", st.State, id, err)
			return err
		}
		return nil
	})
	if err != nil && status.State == domain.StateSucceeded {
		return status, err
	}
	return status, nil
}

// Status returns the latest submission status of a draft.
func (s *DraftService) Status(ctx context.Context, id string) (domain.SubmissionStatus, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.SubmissionStatus{}, err
	}
	return d.Status, nil
}

// edit runs fn on a fresh copy of the draft and saves the result. Edits are
// refused while a submission runs.
func (s *DraftService) edit(ctx context.Context, id string, fn func(d *domain.Draft) error) (*domain.Draft, error) {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	if err := s.ensureIdle(ctx, id); err != nil {
		return nil, err
	}
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DraftService) ensureIdle(ctx context.Context, id string) error {
	inFlight, err := s.store.SubmissionInFlight(ctx, id)
	if err != nil {
		return err
	}
	if inFlight {
		return domain.ErrSubmissionInProgress
	}
	return nil
}

func (s *DraftService) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.stripes[h.Sum32()%uint32(len(s.stripes))]
}
