package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/registro-museografico/museum-registry/internal/logging"
	"github.com/registro-museografico/museum-registry/internal/metrics"
	"github.com/registro-museografico/museum-registry/internal/registry/domain"
)

const (
	msgRejected    = "Error al enviar registro (%d). Intenta nuevamente."
	msgUnreachable = "No se pudo conectar con el servidor. Verifica tu conexión e intenta nuevamente."
)

// Client posts finished records to the review workflow.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a webhook client for url.
func New(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit sends p exactly once. Any non-2xx status or transport error becomes
// a *domain.SubmissionFailure; the response body is only logged.
func (c *Client) Submit(ctx context.Context, p domain.Payload) error {
	logger := logging.NewLogger(ctx)

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordWebhookCall(time.Since(start), err)
		logger.LogError("webhook.submit", err)
		return &domain.SubmissionFailure{Message: msgUnreachable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		failure := &domain.SubmissionFailure{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf(msgRejected, resp.StatusCode),
		}
		metrics.RecordWebhookCall(time.Since(start), failure)
		logger.LogErrorf("webhook.submit", "workflow rejected %s with status %d: %s", p.ID, resp.StatusCode, string(body))
		return failure
	}

	metrics.RecordWebhookCall(time.Since(start), nil)
	logger.LogInfof("webhook.submit", "record %s sent", p.ID)
	return nil
}
