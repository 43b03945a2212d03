// Package gateway maps collection intents onto single HTTP calls against the
// library backend.
//
// Every call is one attempt: there is no retry and no backoff. Non-2xx
// responses and network failures come back as *Error values wrapping a coded
// error, and decoded records are checked against their schema before they are
// handed to a collection.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/librarydesk/librarydesk/internal/errors"
	"github.com/librarydesk/librarydesk/internal/logger"
	"github.com/librarydesk/librarydesk/internal/ratelimit"
	"github.com/librarydesk/librarydesk/internal/validation"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRPS     = 10.0
	defaultBurst   = 20

	// maxBodySize caps how much of a response is read. List endpoints return
	// whole collections, so this is generous.
	maxBodySize = 32 << 20

	userAgent = "librarydesk/1.0"
)

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client // Overrides Timeout when set
	Validator  *validation.Validator
	Logger     *logger.Logger
	BaseURL    string
	Timeout    time.Duration
	RPS        float64
	Burst      int
}

// Client is a rate-limited client for the library REST backend.
type Client struct {
	http      *http.Client
	base      *url.URL
	limiter   *ratelimit.KeyedRateLimiter
	validator *validation.Validator
	logger    *logger.Logger
}

// New creates a new gateway client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.Validation("gateway base url is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidation, "invalid gateway base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Validationf("gateway base url %q must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rps, burst := opts.RPS, opts.Burst
	if rps == 0 {
		rps = defaultRPS
	}
	if burst == 0 {
		burst = defaultBurst
	}

	v := opts.Validator
	if v == nil {
		v = validation.New()
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		http:      httpClient,
		base:      base,
		limiter:   ratelimit.New(rps, burst),
		validator: v,
		logger:    log,
	}, nil
}

// BaseURL returns the backend the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// call describes one request.
type call struct {
	op       string
	resource string
	id       string
	method   string
	path     string
	body     any
}

// do executes a single request with rate limiting. out may be nil. It reports
// whether a response body was decoded into out; an empty 2xx body is not an error.
func (c *Client) do(ctx context.Context, rc call, out any) (bool, error) {
	// Wait for rate limit
	if err := c.limiter.Wait(ctx, rc.resource); err != nil {
		return false, wrapError(rc, 0, contextError(ctx, err))
	}

	u := c.base.JoinPath(rc.path)

	var body io.Reader
	if rc.body != nil {
		payload, err := json.Marshal(rc.body)
		if err != nil {
			return false, wrapError(rc, 0, errors.Wrap(err, errors.CodeInternal, "encode request"))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, u.String(), body)
	if err != nil {
		return false, wrapError(rc, 0, errors.Wrap(err, errors.CodeInternal, "create request"))
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("gateway request failed",
			slog.String("request_id", requestID),
			slog.String("method", rc.method),
			slog.String("path", u.Path),
			slog.String("error", err.Error()))
		return false, wrapError(rc, 0, contextError(ctx, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return false, wrapError(rc, resp.StatusCode, contextError(ctx, err))
	}

	c.logger.Debug("gateway request",
		slog.String("request_id", requestID),
		slog.String("method", rc.method),
		slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, wrapError(rc, resp.StatusCode, errors.Remote(resp.StatusCode, remoteMessage(resp.StatusCode, raw)))
	}

	raw = bytes.TrimSpace(raw)
	if out == nil || len(raw) == 0 || resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, wrapError(rc, resp.StatusCode,
			errors.MalformedResponse("response does not match the record schema").WithCause(err))
	}
	return true, nil
}

// check validates a decoded record against its schema.
func (c *Client) check(rc call, rec any) error {
	if err := c.validator.Validate(rec); err != nil {
		return wrapError(rc, 0, errors.MalformedResponse("response failed schema validation").
			WithDetails(validation.FieldErrors(err)).WithCause(err))
	}
	return nil
}

// checkEach validates every decoded record in a list.
func checkEach[T any](c *Client, rc call, recs []T) error {
	if err := validation.ValidateEach(c.validator, recs); err != nil {
		return wrapError(rc, 0, errors.MalformedResponse("response failed schema validation").
			WithDetails(validation.FieldErrors(err)).WithCause(err))
	}
	return nil
}

// list fetches and validates a whole collection.
func list[T any](ctx context.Context, c *Client, rc call) ([]T, error) {
	var recs []T
	if _, err := c.do(ctx, rc, &recs); err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []T{}
	}
	if err := checkEach(c, rc, recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// contextError separates caller cancellation from transport failures. A
// deadline is a timeout and counts as a transport failure.
func contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return errors.Canceled("request canceled").WithCause(err)
	}
	return errors.Transport(err)
}

// maxRemoteMessage caps the bytes of a plain-text error body kept in a message.
const maxRemoteMessage = 200

// remoteMessage extracts a human readable message from an error response.
func remoteMessage(status int, body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil {
		if msg := firstNonEmpty(envelope.Message, envelope.Error); msg != "" {
			return fmt.Sprintf("%d %s", status, msg)
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" || strings.HasPrefix(text, "<") {
		return fmt.Sprintf("%d %s", status, http.StatusText(status))
	}
	if len(text) > maxRemoteMessage {
		cut := maxRemoteMessage
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return fmt.Sprintf("%d %s", status, text)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
