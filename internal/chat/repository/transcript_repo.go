package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/registro-museografico/museum-registry/internal/chat/domain"
)

const (
	transcriptKeyPrefix = "chat:transcript:" // Append-only list of JSON messages: chat:transcript:{session_id}
	defaultTTL          = 72 * time.Hour
)

// TranscriptRepository keeps chat transcripts as Redis lists
type TranscriptRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTranscriptRepository(client *redis.Client, ttl time.Duration) *TranscriptRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &TranscriptRepository{client: client, ttl: ttl}
}

// Create starts a transcript with its first message.
func (r *TranscriptRepository) Create(ctx context.Context, sessionID string, first domain.Message) error {
	data, err := json.Marshal(first)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := r.key(sessionID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	return nil
}

// Append adds a message to an existing transcript and refreshes its TTL.
func (r *TranscriptRepository) Append(ctx context.Context, sessionID string, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := r.key(sessionID)
	var push *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// RPUSHX: an expired session stays expired
		push = pipe.RPushX(ctx, key, data)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if push.Val() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Messages returns the transcript in order.
func (r *TranscriptRepository) Messages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	raw, err := r.client.LRange(ctx, r.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	if len(raw) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	out := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var m domain.Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *TranscriptRepository) key(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}
