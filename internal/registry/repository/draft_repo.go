package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/registro-museografico/museum-registry/internal/registry/domain"
)

const (
	draftKeyPrefix = "registry:draft:"       // Draft data: registry:draft:{draft_id}
	lockKeyPrefix  = "registry:submit-lock:" // In-flight submission marker: registry:submit-lock:{draft_id}
	defaultTTL     = 24 * time.Hour
)

// DraftRepository handles Redis operations for editor drafts
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftRepository creates a new DraftRepository. Drafts expire ttl after
// their last save.
func NewDraftRepository(client *redis.Client, ttl time.Duration) *DraftRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &DraftRepository{client: client, ttl: ttl}
}

// Create stores a new draft, assigning its id and timestamps when missing.
func (r *DraftRepository) Create(ctx context.Context, d *domain.Draft) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.draftKey(d.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}
	if !ok {
		return fmt.Errorf("draft %s already exists", d.ID)
	}
	return nil
}

// Get retrieves a draft by its ID
func (r *DraftRepository) Get(ctx context.Context, id string) (*domain.Draft, error) {
	data, err := r.client.Get(ctx, r.draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var d domain.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}
	return &d, nil
}

// Save overwrites an existing draft and refreshes its TTL.
func (r *DraftRepository) Save(ctx context.Context, d *domain.Draft) error {
	d.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	// XX: never resurrect a draft that expired or was discarded meanwhile
	ok, err := r.client.SetXX(ctx, r.draftKey(d.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	if !ok {
		return domain.ErrDraftNotFound
	}
	return nil
}

// Exists reports whether a draft is still stored.
func (r *DraftRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.draftKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check draft: %w", err)
	}
	return n > 0, nil
}

// Delete removes a draft and any submission marker it holds.
func (r *DraftRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.draftKey(id), r.lockKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	if n == 0 {
		return domain.ErrDraftNotFound
	}
	return nil
}

// AcquireSubmission marks a submission in flight. It returns false when
// another submission already holds the marker. ttl bounds how long a crashed
// process can block the draft.
func (r *DraftRepository) AcquireSubmission(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.lockKey(id), time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire submission lock: %w", err)
	}
	return ok, nil
}

// SubmissionInFlight reports whether the marker is held.
func (r *DraftRepository) SubmissionInFlight(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.lockKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check submission lock: %w", err)
	}
	return n > 0, nil
}

// ReleaseSubmission clears the marker.
func (r *DraftRepository) ReleaseSubmission(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.lockKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to release submission lock: %w", err)
	}
	return nil
}

func (r *DraftRepository) draftKey(id string) string {
	return draftKeyPrefix + id
}

func (r *DraftRepository) lockKey(id string) string {
	return lockKeyPrefix + id
}
