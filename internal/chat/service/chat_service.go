package service

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/registro-museografico/museum-registry/internal/chat/domain"
	"github.com/registro-museografico/museum-registry/internal/chat/faq"
	"github.com/registro-museografico/museum-registry/internal/logging"
	"github.com/registro-museografico/museum-registry/internal/metrics"
)

// TranscriptStore persists append-only chat transcripts.
type TranscriptStore interface {
	Create(ctx context.Context, sessionID string, first domain.Message) error
	Append(ctx context.Context, sessionID string, msg domain.Message) error
	Messages(ctx context.Context, sessionID string) ([]domain.Message, error)
}

// ChatService runs the Muse assistant conversation.
type ChatService struct {
	store     TranscriptStore
	responder *faq.Responder
	minDelay  time.Duration
	maxDelay  time.Duration
	now       func() time.Time
}

// NewChatService answers after a random delay in [minDelay, maxDelay).
func NewChatService(store TranscriptStore, responder *faq.Responder, minDelay, maxDelay time.Duration) *ChatService {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &ChatService{
		store:     store,
		responder: responder,
		minDelay:  minDelay,
		maxDelay:  maxDelay,
		now:       time.Now,
	}
}

// StartSession opens a transcript seeded with the welcome message.
func (s *ChatService) StartSession(ctx context.Context) (*domain.Session, error) {
	id := uuid.NewString()
	welcome := domain.Message{
		ID:        domain.WelcomeID,
		Role:      domain.RoleAssistant,
		Content:   s.responder.Welcome(),
		Timestamp: s.now().UTC(),
	}
	if err := s.store.Create(ctx, id, welcome); err != nil {
		return nil, err
	}
	return &domain.Session{ID: id, Messages: []domain.Message{welcome}}, nil
}

// Send appends the user's message, waits the thinking delay and appends the
// answer. A cancelled ctx leaves the question unanswered.
func (s *ChatService) Send(ctx context.Context, sessionID, text string) (question, answer domain.Message, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return question, answer, domain.ErrEmptyMessage
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return question, answer, domain.ErrSessionNotFound
	}

	question = domain.NewMessage(domain.RoleUser, text, s.now())
	if err := s.store.Append(ctx, sessionID, question); err != nil {
		return question, answer, err
	}

	if err := s.think(ctx); err != nil {
		return question, answer, err
	}

	answer = domain.NewMessage(domain.RoleAssistant, s.answer(ctx, text), s.now())
	if err := s.store.Append(ctx, sessionID, answer); err != nil {
		return question, answer, err
	}
	return question, answer, nil
}

// Ask answers a single question without a transcript or delay.
func (s *ChatService) Ask(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyMessage
	}
	return s.answer(ctx, text), nil
}

func (s *ChatService) Transcript(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, domain.ErrSessionNotFound
	}
	return s.store.Messages(ctx, sessionID)
}

func (s *ChatService) QuickActions() []faq.QuickAction {
	return s.responder.QuickActions()
}

func (s *ChatService) answer(ctx context.Context, text string) string {
	e, ok := s.responder.Match(text)
	metrics.RecordChatAnswer(!ok)
	if !ok {
		logging.NewLogger(ctx).LogInfof("chat.answer", "no entry matched %q", text)
		return s.responder.Fallback()
	}
	return e.Response
}

func (s *ChatService) think(ctx context.Context) error {
	d := s.minDelay
	if span := s.maxDelay - s.minDelay; span > 0 {
		d += time.Duration(rand.Int63n(int64(span)))
	}
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
