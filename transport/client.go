// ABOUTME: One-shot request/response helper for the engine's HTTP endpoints.
// ABOUTME: Normalizes bodies (empty or malformed JSON become nil) and maps non-2xx to StatusError.
package transport

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/LogicalOverflow/go-astiencoder/metrics"
)

// Header names set on every request.
const (
	HeaderRequestID = "X-Request-Id"
	HeaderClientID  = "X-Client-Id"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the engine address, e.g. http://127.0.0.1:4000.
	BaseURL string
	// HTTPClient defaults to a client without timeout.
	HTTPClient *http.Client
	// Timeout bounds each request when positive. Zero means no timeout.
	Timeout time.Duration
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Client performs one-shot calls against the engine.
type Client struct {
	base     *url.URL
	http     *http.Client
	timeout  time.Duration
	clientID string
	log      zerolog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Request describes a single call.
type Request struct {
	Method      string
	Path        string
	Body        io.Reader
	ContentType string
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	// Data is the raw JSON body, or nil when it was empty, null or malformed.
	Data json.RawMessage
}

// NewClient validates the base URL and builds a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidBaseURL, base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		base:     base,
		http:     hc,
		timeout:  cfg.Timeout,
		clientID: uuid.NewString(),
		log:      cfg.Logger.With().Str("component", "http").Logger(),
		metrics:  cfg.Metrics,
		tracer:   otel.Tracer("github.com/LogicalOverflow/go-astiencoder/transport"),
	}, nil
}

// ClientID returns the per-process identifier sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

// URL resolves a path against the base URL.
func (c *Client) URL(path string) string {
	return c.base.JoinPath(path).String()
}

// WebSocketURL resolves a path against the base URL with the ws/wss scheme.
func (c *Client) WebSocketURL(path string) string {
	u := *c.base.JoinPath(path)
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	return u.String()
}

// Do performs the request. A 2xx status yields a Response; any other status
// yields a *StatusError carrying the normalized body. Transport failures are
// returned wrapped.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	requestID := ulid.MustNew(ulid.Now(), rand.Reader).String()
	ctx, span := c.tracer.Start(ctx, "engine "+req.Method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", req.Path),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	hreq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Path), req.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("build %s %s: %w", req.Method, req.Path, err)
	}
	if req.ContentType != "" {
		hreq.Header.Set("Content-Type", req.ContentType)
	}
	hreq.Header.Set("Accept", "application/json")
	hreq.Header.Set(HeaderRequestID, requestID)
	hreq.Header.Set(HeaderClientID, c.clientID)

	start := time.Now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		c.count(req, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.count(req, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, req.Path, err)
	}
	data := normalizeBody(raw)

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.count(req, statusClass(resp.StatusCode))
	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Int("bytes", len(raw)).
		Str("request_id", requestID).
		Dur("duration", time.Since(start)).
		Msg("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{Method: req.Method, Path: req.Path, StatusCode: resp.StatusCode, Data: data}
		span.SetStatus(codes.Error, serr.Error())
		return nil, serr
	}
	return &Response{StatusCode: resp.StatusCode, Data: data}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// GetJSON performs a GET request and decodes the body into v. It reports
// false when the body was absent (empty, null or malformed), leaving v as is.
func (c *Client) GetJSON(ctx context.Context, path string, v any) (bool, error) {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return false, err
	}
	return resp.Decode(v), nil
}

// PostMultipart uploads r as a single multipart file field.
func (c *Client) PostMultipart(ctx context.Context, path, field, filename string, r io.Reader) (*Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}
	return c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        &buf,
		ContentType: w.FormDataContentType(),
	})
}

// Decode unmarshals the response body into v. It reports false when there was
// no body to decode. A body that is valid JSON but does not fit v is treated
// as absent as well.
func (r *Response) Decode(v any) bool {
	if r == nil || r.Data == nil {
		return false
	}
	return json.Unmarshal(r.Data, v) == nil
}

// normalizeBody returns nil for empty, null or malformed JSON bodies.
func normalizeBody(raw []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || !json.Valid(trimmed) {
		return nil
	}
	return json.RawMessage(trimmed)
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func (c *Client) count(req Request, status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.Requests.WithLabelValues(req.Method, strings.TrimSuffix(req.Path, "/"), status).Inc()
}
