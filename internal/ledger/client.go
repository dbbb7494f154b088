package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/ledgerprobe/internal/httpclient"
	"github.com/torosent/ledgerprobe/internal/tracing"
)

// MaxBodyBytes caps how much of a response body is kept.
const MaxBodyBytes = 1 << 20

// Response is the outcome of one exchange that reached the server.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the exchange counts as a success. Only 200 does.
func (r Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Client talks to one ledger service instance.
type Client struct {
	base      string
	http      *http.Client
	flavor    Flavor
	routes    Routes
	headers   map[string]string
	propagate bool
	tracer    trace.Tracer
}

type ClientOption func(*Client)

// WithHeaders adds static headers to every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		if len(headers) == 0 {
			return
		}
		if c.headers == nil {
			c.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			c.headers[k] = v
		}
	}
}

// WithTracer wraps every request in a client span. propagate controls
// whether traceparent headers are sent.
func WithTracer(tracer trace.Tracer, propagate bool) ClientOption {
	return func(c *Client) {
		c.tracer = tracer
		c.propagate = propagate
	}
}

// NewClient builds a client for baseURL. A nil httpClient uses
// httpclient.NewClient with no timeout.
func NewClient(baseURL string, httpClient *http.Client, flavor Flavor, opts ...ClientOption) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("ledger base URL is required")
	}
	routes, err := flavor.Routes()
	if err != nil {
		return nil, err
	}
	if flavor == "" {
		flavor = FlavorCurrent
	}
	if httpClient == nil {
		httpClient = httpclient.NewClient(0)
	}
	c := &Client{
		base:   base,
		http:   httpClient,
		flavor: flavor,
		routes: routes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.base }
func (c *Client) Flavor() Flavor  { return c.flavor }
func (c *Client) Routes() Routes  { return c.routes }

// URL joins the base URL and a route path.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.base + path
}

// Do performs one exchange. A transport failure yields *TransportError and a
// zero Response. A non-200 status yields the Response together with an
// *HTTPError.
func (c *Client) Do(ctx context.Context, route Route, body []byte) (Response, error) {
	target := c.URL(route.Path)

	var span trace.Span
	if c.tracer != nil {
		ctx, span = tracing.StartRequestSpan(ctx, c.tracer, route.Method, route.Path)
	}

	resp, err := c.do(ctx, route.Method, target, body)

	if span != nil {
		tracing.EndSpan(span, err, tracing.StatusCode(resp.StatusCode))
	}
	return resp, err
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) (Response, error) {
	opts := []httpclient.Option{httpclient.WithTracePropagation(c.propagate)}
	if len(c.headers) > 0 {
		opts = append(opts, httpclient.WithHeaders(c.headers))
	}
	builder, err := httpclient.NewRequestBuilder(method, target, body, opts...)
	if err != nil {
		return Response{}, fmt.Errorf("build %s %s: %w", method, target, err)
	}
	req, err := builder.Build(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("build %s %s: %w", method, target, err)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return Response{}, &TransportError{Method: builder.Method(), URL: target, Err: err}
	}
	payload, err := httpclient.ReadBody(httpResp, MaxBodyBytes)
	resp := Response{StatusCode: httpResp.StatusCode, Body: payload}
	if err != nil {
		return resp, &TransportError{Method: builder.Method(), URL: target, Err: fmt.Errorf("read body: %w", err)}
	}
	if !resp.OK() {
		return resp, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}
	return resp, nil
}

// Health calls the liveness endpoint and returns the raw exchange.
func (c *Client) Health(ctx context.Context) (Response, error) {
	return c.Do(ctx, c.routes.Health, nil)
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	resp, err := c.Do(ctx, c.routes.Status, nil)
	if err != nil {
		return Status{}, err
	}
	return DecodeStatus(resp.Body)
}

// CreateAccount sends one creation request with the given email encoding.
func (c *Client) CreateAccount(ctx context.Context, username, email string, enc EmailEncoding) (Response, error) {
	body, err := EncodeAccountRequest(username, email, enc)
	if err != nil {
		return Response{}, err
	}
	return c.Do(ctx, c.routes.CreateAccount, body)
}

func (c *Client) AccountByID(ctx context.Context, id int64) (Account, error) {
	resp, err := c.lookup(ctx, c.routes.AccountByID, id)
	if err != nil {
		return Account{}, err
	}
	return DecodeAccount(resp.Body)
}

func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	resp, err := c.Do(ctx, c.routes.Accounts, nil)
	if err != nil {
		return nil, err
	}
	return DecodeAccounts(resp.Body)
}

func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	resp, err := c.Do(ctx, c.routes.Transactions, nil)
	if err != nil {
		return nil, err
	}
	return DecodeTransactions(resp.Body)
}

func (c *Client) TransactionByID(ctx context.Context, id int64) (Transaction, error) {
	resp, err := c.lookup(ctx, c.routes.TransactionByID, id)
	if err != nil {
		return Transaction{}, err
	}
	return DecodeTransaction(resp.Body)
}

func (c *Client) lookup(ctx context.Context, route Route, id int64) (Response, error) {
	body, err := json.Marshal(LookupRequest{ID: id})
	if err != nil {
		return Response{}, err
	}
	return c.Do(ctx, route, body)
}
