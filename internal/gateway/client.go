// Package gateway is the typed client of the order backend REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/Platitedengi/idistr-mvp/pkg/circuitbreaker"
	"github.com/Platitedengi/idistr-mvp/pkg/logger"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultPageLimit = 100
	maxResponseBytes = 8 << 20
)

// response is what a single round trip yields once the body is read.
type response struct {
	status int
	body   []byte
	url    string
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[*response]
	contracts contracts
	log       *zap.Logger
}

type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	timeout    time.Duration
	breaker    circuitbreaker.Config
	log        *zap.Logger
}

// WithHTTPClient replaces the instrumented default client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

func WithBreaker(cfg circuitbreaker.Config) Option {
	return func(o *clientOptions) { o.breaker = cfg }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.log = l }
}

// NewClient fails with ErrNotConfigured when baseURL is empty, before any
// request is attempted.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrNotConfigured, baseURL)
	}

	o := clientOptions{
		timeout: DefaultTimeout,
		breaker: circuitbreaker.DefaultConfig("backend"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrNop(o.log)

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   o.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	c, err := loadContracts()
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:   u,
		http:      httpClient,
		breaker:   circuitbreaker.New[*response](o.breaker, breakerSuccess, log),
		contracts: c,
		log:       log,
	}, nil
}

// breakerSuccess counts only transport failures and 5xx answers against the
// backend. A 4xx is the caller's problem.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status > 0 && apiErr.Status < 500
	}
	return false
}

// GetRepMe looks up the operator profile and assigned stores.
func (c *Client) GetRepMe(ctx context.Context, telegramID string) (*RepMe, error) {
	q := url.Values{}
	setQuery(q, "telegram_id", telegramID)

	res, err := c.do(ctx, OpRepMe, http.MethodGet, "/v1/reps/me", q, nil)
	if err != nil {
		return nil, err
	}
	if err := c.contracts.validateBody(schemaRepMeResponse, res.body); err != nil {
		return nil, c.contractError(OpRepMe, res, err)
	}

	var payload repMeResponse
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return nil, c.contractError(OpRepMe, res, fmt.Errorf("%w: %v", ErrContract, err))
	}

	out := &RepMe{
		Rep:    payload.Rep.toDomain(),
		Stores: make([]domain.Store, 0, len(payload.Stores)),
	}
	for _, s := range payload.Stores {
		out.Stores = append(out.Stores, s.toDomain())
	}
	return out, nil
}

// GetProducts fetches one catalog page. Empty search is omitted from the
// query; page and limit default to 1 and DefaultPageLimit.
func (c *Client) GetProducts(ctx context.Context, search string, page, limit int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	q := url.Values{}
	setQuery(q, "search", search)
	setQuery(q, "page", strconv.Itoa(page))
	setQuery(q, "limit", strconv.Itoa(limit))

	res, err := c.do(ctx, OpProducts, http.MethodGet, "/v1/products", q, nil)
	if err != nil {
		return nil, err
	}
	if err := c.contracts.validateBody(schemaProductsResponse, res.body); err != nil {
		return nil, c.contractError(OpProducts, res, err)
	}

	var payload productsResponse
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return nil, c.contractError(OpProducts, res, fmt.Errorf("%w: %v", ErrContract, err))
	}

	out := make([]domain.Product, 0, len(payload.Items))
	for _, p := range payload.Items {
		out = append(out, p.toDomain())
	}
	return out, nil
}

// CreateOrder submits a validated draft and returns the server order id.
func (c *Client) CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
	if draft == nil {
		return nil, &APIError{Op: OpOrder, Err: fmt.Errorf("%w: order payload must be an object", ErrContract)}
	}
	body, err := c.contracts.validateValue(schemaOrderRequest, draft)
	if err != nil {
		return nil, &APIError{Op: OpOrder, Err: err}
	}

	res, err := c.do(ctx, OpOrder, http.MethodPost, "/v1/orders", nil, body)
	if err != nil {
		return nil, err
	}
	if err := c.contracts.validateBody(schemaOrderResponse, res.body); err != nil {
		return nil, c.contractError(OpOrder, res, err)
	}

	var payload orderResponse
	if err := json.Unmarshal(res.body, &payload); err != nil {
		return nil, c.contractError(OpOrder, res, fmt.Errorf("%w: %v", ErrContract, err))
	}
	return &domain.OrderResult{OrderID: domain.CanonicalID(string(payload.OrderID))}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body []byte) (*response, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: path, RawQuery: q.Encode()})
	log := logger.WithTrace(ctx, c.log).With(zap.String("op", op), zap.String("url", target.Path))
	started := time.Now()

	res, err := c.breaker.Execute(func() (*response, error) {
		return c.roundTrip(ctx, op, method, target, body)
	})
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			// Breaker rejected the call without a round trip.
			apiErr = &APIError{Op: op, URL: target.String(), Err: err}
		}
		log.Warn("backend call failed",
			zap.Int("status", apiErr.Status),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return nil, apiErr
	}

	log.Debug("backend call", zap.Int("status", res.status), zap.Duration("elapsed", time.Since(started)))
	return res, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method string, target *url.URL, body []byte) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, &APIError{Op: op, URL: target.String(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Op: op, URL: target.String(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &APIError{Op: op, Status: resp.StatusCode, URL: target.String(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Op:     op,
			Status: resp.StatusCode,
			Detail: extractDetail(raw),
			URL:    target.String(),
			Err:    fmt.Errorf("request failed %s @ %s", resp.Status, target.Path),
		}
	}
	return &response{status: resp.StatusCode, body: raw, url: target.String()}, nil
}

func (c *Client) contractError(op string, res *response, err error) *APIError {
	c.log.Warn("backend response violates contract", zap.String("op", op), zap.Error(err))
	return &APIError{Op: op, Status: res.status, URL: res.url, Err: err}
}

func setQuery(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
