package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/registro-museografico/museum-registry/internal/registry/domain"
	"github.com/registro-museografico/museum-registry/internal/registry/imagehost"
)

// fakeUploader fails for filenames listed in failures and records every call.
type fakeUploader struct {
	mu       sync.Mutex
	calls    []string
	bodies   []string
	failures map[string]error
}

func (f *fakeUploader) Upload(_ context.Context, in imagehost.UploadInput) (*imagehost.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in.Filename)
	data, _ := io.ReadAll(in.Body)
	f.bodies = append(f.bodies, string(data))
	if err, ok := f.failures[in.Filename]; ok {
		return nil, err
	}
	return &imagehost.UploadResult{ID: "cf-" + in.Filename}, nil
}

func (f *fakeUploader) DeliveryURL(id, variant string) string {
	return "https://imagedelivery.test/acc/" + id + "/" + variant
}

// memFiles serves staged images from memory.
type memFiles struct {
	mu       sync.Mutex
	content  map[string]string
	released []string
}

func newMemFiles(ids ...string) *memFiles {
	m := &memFiles{content: map[string]string{}}
	for _, id := range ids {
		m.content[id] = "bytes-of-" + id
	}
	return m
}

func (m *memFiles) Open(_, imageID string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.content[imageID]
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	return io.NopCloser(strings.NewReader(c)), nil
}

func (m *memFiles) Release(_, imageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.content, imageID)
	m.released = append(m.released, imageID)
	return nil
}

// fakeSubmitter records payloads and returns err.
type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []domain.Payload
	err      error
	// block, when set, is waited on before returning
	block chan struct{}
}

func (f *fakeSubmitter) Submit(_ context.Context, p domain.Payload) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.err
}

func (f *fakeSubmitter) sent() []domain.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Payload(nil), f.payloads...)
}

var errNetwork = errors.New("connection reset")

func staged(names ...string) []domain.StagedImage {
	out := make([]domain.StagedImage, 0, len(names))
	for _, n := range names {
		out = append(out, domain.StagedImage{ID: n, Filename: n, ContentType: "image/png"})
	}
	return out
}
