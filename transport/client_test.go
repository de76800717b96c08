// ABOUTME: Tests for the one-shot HTTP client: body normalization, status errors, headers and uploads.
// ABOUTME: Uses httptest servers in place of the engine.
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/LogicalOverflow/go-astiencoder/metrics"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m := metrics.New(nil)
	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Logger: zerolog.Nop(), Metrics: m})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, m
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	for _, base := range []string{"", "ftp://host", "http://", "://nope"} {
		if _, err := NewClient(ClientConfig{BaseURL: base}); !errors.Is(err, ErrInvalidBaseURL) {
			t.Errorf("NewClient(%q) error = %v, want ErrInvalidBaseURL", base, err)
		}
	}
}

func TestDoNormalizesBody(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "json", body: `{"a":1}`, want: `{"a":1}`},
		{name: "empty", body: "", want: ""},
		{name: "null", body: "null", want: ""},
		{name: "malformed", body: "{nope", want: ""},
		{name: "padded", body: "  [1]\n", want: "[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			}))
			resp, err := c.Get(context.Background(), "/x")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if string(resp.Data) != tt.want {
				t.Fatalf("Data = %q, want %q", resp.Data, tt.want)
			}
			if tt.want == "" && resp.Data != nil {
				t.Fatalf("Data = %v, want nil", resp.Data)
			}
		})
	}
}

func TestDoReturnsStatusError(t *testing.T) {
	c, m := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":"no workflow"}`)
	}))

	_, err := c.Get(context.Background(), "/recording/start")
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if serr.StatusCode != http.StatusBadRequest || string(serr.Data) != `{"error":"no workflow"}` {
		t.Fatalf("StatusError = %+v", serr)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/recording/start", "4xx")); got != 1 {
		t.Fatalf("4xx requests = %v, want 1", got)
	}
}

func TestDoTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	m := metrics.New(nil)
	c, err := NewClient(ClientConfig{BaseURL: base, Logger: zerolog.Nop(), Metrics: m})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Get(context.Background(), "/ok"); err == nil {
		t.Fatal("expected transport error")
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/ok", "error")); got != 1 {
		t.Fatalf("error requests = %v, want 1", got)
	}
}

func TestDoSetsHeaders(t *testing.T) {
	var got http.Header
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	if _, err := c.Get(context.Background(), "/ok"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Get(HeaderClientID) != c.ClientID() {
		t.Fatalf("client id = %q, want %q", got.Get(HeaderClientID), c.ClientID())
	}
	if len(got.Get(HeaderRequestID)) != 26 {
		t.Fatalf("request id = %q, want a ULID", got.Get(HeaderRequestID))
	}
}

func TestGetJSON(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			return
		}
		io.WriteString(w, `{"recording":true}`)
	}))

	var v struct{ Recording bool }
	ok, err := c.GetJSON(context.Background(), "/welcome", &v)
	if err != nil || !ok || !v.Recording {
		t.Fatalf("GetJSON = %v, %v, %+v", ok, err, v)
	}
	ok, err = c.GetJSON(context.Background(), "/empty", &v)
	if err != nil || ok {
		t.Fatalf("GetJSON(empty) = %v, %v, want false, nil", ok, err)
	}
}

func TestPostMultipart(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		io.WriteString(w, `{"name":"`+hdr.Filename+`","size":`+strconv.Itoa(len(data))+`}`)
	}))

	resp, err := c.PostMultipart(context.Background(), "/playback/load", "file", "rec.json", strings.NewReader("12345"))
	if err != nil {
		t.Fatalf("PostMultipart: %v", err)
	}
	var v struct {
		Name string
		Size int
	}
	if !resp.Decode(&v) || v.Name != "rec.json" || v.Size != 5 {
		t.Fatalf("upload echo = %+v", v)
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := map[string]string{
		"http://host:4000":       "ws://host:4000/websocket",
		"https://host/base":      "wss://host/base/websocket",
		"http://host:4000/base/": "ws://host:4000/base/websocket",
	}
	for base, want := range tests {
		c, err := NewClient(ClientConfig{BaseURL: base})
		if err != nil {
			t.Fatalf("NewClient(%q): %v", base, err)
		}
		if got := c.WebSocketURL("/websocket"); got != want {
			t.Errorf("WebSocketURL(%q) = %q, want %q", base, got, want)
		}
	}
}
