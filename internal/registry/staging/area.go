package staging

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/registro-museografico/museum-registry/internal/registry/domain"
	"github.com/registro-museografico/museum-registry/internal/registry/imagehost"
)

// sniffLen is how much of a file is inspected when the client declares no type.
const sniffLen = 3072

// Area keeps staged image files on local disk, one directory per draft.
type Area struct {
	root string
	now  func() time.Time
}

// NewArea creates the staging root if needed.
func NewArea(root string) (*Area, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	return &Area{root: root, now: time.Now}, nil
}

// Root returns the staging directory.
func (a *Area) Root() string { return a.root }

// PreviewURL is the dashboard reference for a staged image.
func PreviewURL(draftID, imageID string) string {
	return fmt.Sprintf("/api/v1/drafts/%s/images/%s/preview", draftID, imageID)
}

// Stage copies r to disk after validating its type and size. Files larger
// than imagehost.MaxImageSize are discarded and reported as a validation error.
func (a *Area) Stage(draftID, filename, contentType string, r io.Reader) (domain.StagedImage, error) {
	if err := checkID(draftID, domain.ErrDraftNotFound); err != nil {
		return domain.StagedImage{}, err
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, _ := br.Peek(sniffLen)
	ct := imagehost.ResolveContentType(contentType, head)
	if err := imagehost.ValidateImage(ct, 0); err != nil {
		return domain.StagedImage{}, err
	}

	dir := filepath.Join(a.root, draftID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.StagedImage{}, fmt.Errorf("failed to create draft dir: %w", err)
	}

	imageID := uuid.NewString()
	path := filepath.Join(dir, imageID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return domain.StagedImage{}, fmt.Errorf("failed to create staged file: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(br, imagehost.MaxImageSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return domain.StagedImage{}, fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := imagehost.ValidateImage(ct, n); err != nil {
		os.Remove(path)
		return domain.StagedImage{}, err
	}

	return domain.StagedImage{
		ID:          imageID,
		Filename:    filepath.Base(filename),
		ContentType: ct,
		Size:        n,
		Preview:     PreviewURL(draftID, imageID),
		StagedAt:    a.now().UTC(),
	}, nil
}

// Open returns the staged file for reading.
func (a *Area) Open(draftID, imageID string) (io.ReadCloser, error) {
	if err := checkID(draftID, domain.ErrDraftNotFound); err != nil {
		return nil, err
	}
	if err := checkID(imageID, domain.ErrImageNotFound); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(a.root, draftID, imageID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open staged image: %w", err)
	}
	return f, nil
}

// Release deletes one staged file. Releasing twice is not an error.
func (a *Area) Release(draftID, imageID string) error {
	if err := checkID(draftID, domain.ErrDraftNotFound); err != nil {
		return err
	}
	if err := checkID(imageID, domain.ErrImageNotFound); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(a.root, draftID, imageID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to release staged image: %w", err)
	}
	return nil
}

// ReleaseAll deletes every staged file of a draft.
func (a *Area) ReleaseAll(draftID string) error {
	if err := checkID(draftID, domain.ErrDraftNotFound); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(a.root, draftID)); err != nil {
		return fmt.Errorf("failed to release draft images: %w", err)
	}
	return nil
}

// DraftLookup reports whether a draft is still stored.
type DraftLookup func(ctx context.Context, draftID string) (bool, error)

// Sweep removes the directories of drafts that no longer exist and were left
// untouched for longer than maxAge. It returns how many were removed. A
// directory whose lookup fails is kept; the failures are returned together
// after the pass.
func (a *Area) Sweep(ctx context.Context, maxAge time.Duration, exists DraftLookup) (int, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return 0, fmt.Errorf("failed to list staging dir: %w", err)
	}

	cutoff := a.now().Add(-maxAge)
	removed := 0
	var lookupErrs []error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		live, err := exists(ctx, e.Name())
		if err != nil {
			lookupErrs = append(lookupErrs, fmt.Errorf("draft %s: %w", e.Name(), err))
			continue
		}
		if live {
			continue
		}
		if err := os.RemoveAll(filepath.Join(a.root, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, errors.Join(lookupErrs...)
}

// checkID keeps path components to generated ids.
func checkID(id string, notFound error) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound
	}
	return nil
}
