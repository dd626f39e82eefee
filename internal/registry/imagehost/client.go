package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/registro-museografico/museum-registry/internal/logging"
	"github.com/registro-museografico/museum-registry/internal/metrics"
	"github.com/registro-museografico/museum-registry/internal/registry/domain"
)

// placeholderToken is the value shipped in the sample env file.
const placeholderToken = "TU_API_TOKEN_AQUI"

// Config holds the server-side credentials of the image host account.
type Config struct {
	AccountID         string
	APIToken          string
	DeliveryBase      string
	APIBaseURL        string
	RequestsPerSecond float64
}

// Client uploads images to Cloudflare Images.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a new image host client
func New(cfg Config) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.cloudflare.com/client/v4"
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Configured reports whether uploads can be attempted at all.
func (c *Client) Configured() bool {
	return c.cfg.AccountID != "" && c.cfg.APIToken != "" && c.cfg.APIToken != placeholderToken
}

// DeliveryBase returns the public host prefix for uploaded images.
func (c *Client) DeliveryBase() string {
	if c.cfg.DeliveryBase != "" {
		return strings.TrimRight(c.cfg.DeliveryBase, "/")
	}
	return "https://imagedelivery.net/" + c.cfg.AccountID
}

// DeliveryURL builds the public URL of one variant of an uploaded image.
func (c *Client) DeliveryURL(imageID, variant string) string {
	return fmt.Sprintf("%s/%s/%s", c.DeliveryBase(), imageID, variant)
}

// UploadInput is one file to send. Metadata is attached as the optional
// "metadata" form field when non-nil.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Metadata    map[string]any
}

// UploadResult is the part of the host response the registry keeps.
type UploadResult struct {
	ID       string
	Variants []string
}

// HostError reports an unsuccessful upload. Status is zero when the host
// could not be reached; Message is empty when the host gave no reason.
type HostError struct {
	Status  int
	Message string
	Err     error
}

func (e *HostError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status == 0 {
		return fmt.Sprintf("image host unreachable: %v", e.Err)
	}
	return fmt.Sprintf("image host returned status %d", e.Status)
}

func (e *HostError) Unwrap() error { return e.Err }

type uploadResponse struct {
	Success bool `json:"success"`
	Result  *struct {
		ID       string   `json:"id"`
		Variants []string `json:"variants"`
	} `json:"result"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Upload sends one file. It waits on the client's rate limiter first, so a
// cancelled ctx can end the wait early.
func (c *Client) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if !c.Configured() {
		return nil, &domain.ConfigurationError{
			Message: "Cloudflare Images no configurado. Agrega CLOUDFLARE_API_TOKEN en el entorno del servidor.",
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &HostError{Err: err}
	}

	body, contentType, err := encodeMultipart(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/images/v1", c.cfg.APIBaseURL, c.cfg.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", contentType)

	start := time.Now()
	result, err := c.do(req)
	metrics.RecordImageHostCall(time.Since(start), err)
	if err != nil {
		logging.NewLogger(ctx).LogErrorf("imagehost.upload", "upload of %q failed: %v", in.Filename, err)
		return nil, err
	}
	return result, nil
}

func (c *Client) do(req *http.Request) (*UploadResult, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &HostError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HostError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &HostError{Status: resp.StatusCode, Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !parsed.Success {
		he := &HostError{Status: resp.StatusCode}
		if len(parsed.Errors) > 0 {
			he.Message = parsed.Errors[0].Message
		}
		return nil, he
	}
	if parsed.Result == nil || parsed.Result.ID == "" {
		return nil, &HostError{Status: resp.StatusCode, Err: fmt.Errorf("response carries no image id")}
	}

	variants := parsed.Result.Variants
	if variants == nil {
		variants = []string{}
	}
	return &UploadResult{ID: parsed.Result.ID, Variants: variants}, nil
}

func encodeMultipart(in UploadInput) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, in.Filename))
	ct := in.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	header.Set("Content-Type", ct)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, in.Body); err != nil {
		return nil, "", err
	}

	if in.Metadata != nil {
		meta, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, "", err
		}
		if err := w.WriteField("metadata", string(meta)); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
