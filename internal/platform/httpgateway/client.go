package httpgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/vocab-trainer/internal/config"
	"github.com/phrazzld/vocab-trainer/internal/gateway"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/phrazzld/vocab-trainer/internal/redact"
)

// RequestIDHeader carries the per-call request id.
const RequestIDHeader = "X-Request-ID"

const (
	minSecretLength   = 32
	maxErrorBodyBytes = 4096
	defaultRetryDelay = 2 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock used to sign tokens.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRetryDelay overrides the base delay between read retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// Client talks to the remote backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     *tokenSource
	maxRetries int
	retryDelay time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

var _ gateway.StateGateway = (*Client)(nil)

// New creates a Client from the gateway configuration.
func New(cfg config.GatewayConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid gateway base url %q", redact.String(cfg.BaseURL))
	}
	if len(cfg.SigningSecret) < minSecretLength {
		return nil, fmt.Errorf("gateway signing secret must be at least %d characters", minSecretLength)
	}
	if strings.TrimSpace(cfg.UserID) == "" {
		return nil, errors.New("gateway user id is required")
	}

	retryDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxRetries: cfg.MaxRetries,
		retryDelay: retryDelay,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c.tokens = newTokenSource(cfg.SigningSecret, cfg.UserID, ttl, c.now)
	c.logger = c.logger.With(slog.String("component", "http_gateway"))
	return c, nil
}

// request describes one logical call.
type request struct {
	method string
	path   string
	body   any
	out    any
	// retry allows repeating the call on transient failures.
	retry bool
}

// do sends r, retrying transient failures of retryable calls with
// exponential backoff and jitter.
func (c *Client) do(ctx context.Context, r request) error {
	log := logger.FromContextOrDefault(ctx, c.logger)
	requestID := uuid.NewString()

	var payload []byte
	if r.body != nil {
		var err error
		if payload, err = json.Marshal(r.body); err != nil {
			return fmt.Errorf("encode %s %s request: %w", r.method, r.path, err)
		}
	}

	attempts := 1
	if r.retry {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			log.Info("retrying backend request",
				slog.String("method", r.method),
				slog.String("path", r.path),
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
				slog.String("request_id", requestID))

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%w: %w", gateway.ErrUnavailable, ctx.Err())
			case <-timer.C:
			}
		}

		lastErr = c.send(ctx, r, payload, requestID)
		if lastErr == nil {
			return nil
		}

		var statusErr *StatusError
		transient := !errors.As(lastErr, &statusErr) || statusErr.Temporary()
		if !transient || errors.Is(lastErr, gateway.ErrMalformedResponse) || ctx.Err() != nil {
			break
		}
	}

	log.Warn("backend request failed",
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.String("request_id", requestID),
		redact.ErrAttr(lastErr))
	return lastErr
}

// backoff returns base * 2^n scaled by a random factor in [0.5, 1).
func (c *Client) backoff(n int) time.Duration {
	d := float64(c.retryDelay) * math.Pow(2, float64(n))
	return time.Duration(d * (0.5 + rand.Float64()*0.5))
}

func (c *Client) send(ctx context.Context, r request, payload []byte, requestID string) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL.String()+r.path, body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", r.method, r.path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", gateway.ErrUnavailable, r.method, r.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if r.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		return fmt.Errorf("%w: %s %s: %w", gateway.ErrMalformedResponse, r.method, r.path, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} from an error body, falling back to
// the raw text.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBodyBytes))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}
