package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/torosent/ledgerprobe/internal/tracing"
)

// RequestBuilder produces identical requests for a fixed method, target and
// payload. It is safe for concurrent use.
type RequestBuilder struct {
	method    string
	target    string
	headers   http.Header
	body      []byte
	propagate bool
}

// Option customizes a RequestBuilder.
type Option func(*RequestBuilder) error

// WithHeaders adds static headers to every built request.
func WithHeaders(headers map[string]string) Option {
	return func(b *RequestBuilder) error {
		for key, value := range headers {
			trimmedKey := strings.TrimSpace(key)
			if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
				return fmt.Errorf("invalid header key %q", key)
			}
			canonicalKey := http.CanonicalHeaderKey(trimmedKey)
			if strings.ContainsAny(value, "\r\n") {
				return fmt.Errorf("invalid header value for %s", canonicalKey)
			}
			b.headers.Set(canonicalKey, value)
		}
		return nil
	}
}

// WithTracePropagation injects W3C trace context headers from the request
// context into every built request.
func WithTracePropagation(enabled bool) Option {
	return func(b *RequestBuilder) error {
		b.propagate = enabled
		return nil
	}
}

func NewRequestBuilder(method, target string, body []byte, opts ...Option) (*RequestBuilder, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("target URL is required")
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	b := &RequestBuilder{
		method:  method,
		target:  target,
		headers: http.Header{},
		body:    body,
	}
	if len(body) > 0 {
		b.headers.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Method returns the HTTP method of built requests.
func (b *RequestBuilder) Method() string { return b.method }

// Target returns the absolute URL of built requests.
func (b *RequestBuilder) Target() string { return b.target }

func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if len(b.body) > 0 {
		reader = bytes.NewReader(b.body)
	}
	req, err := http.NewRequestWithContext(ctx, b.method, b.target, reader)
	if err != nil {
		return nil, err
	}

	req.Header = make(http.Header, len(b.headers))
	for key, values := range b.headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}

	if len(b.body) > 0 {
		req.ContentLength = int64(len(b.body))
		body := b.body
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	if b.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	return req, nil
}

// ReadBody drains at most limit bytes of the response body and discards the rest
// so the connection can be reused.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	_, _ = io.Copy(io.Discard, resp.Body)
	return body, err
}

func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
