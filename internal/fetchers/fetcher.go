package fetchers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"heliopulse/internal/logger"
	"heliopulse/internal/models"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=fetcher.go Client

// Client fetches one metric group from one upstream endpoint.
// Implementations must be safe for concurrent use and must not cache.
type Client interface {
	ID() string
	Timeout() time.Duration
	Fetch(ctx context.Context) (*models.Reading, error)
}

// Parser turns a raw upstream payload into a reading
type Parser func(body []byte) (*models.Reading, error)

// QueryBuilder computes query parameters at request time
type QueryBuilder func(now time.Time) map[string]string

// HTTPSource is a Client backed by a single HTTP GET endpoint
type HTTPSource struct {
	id         string
	url        string
	timeout    time.Duration
	accept     string
	query      QueryBuilder
	parse      Parser
	client     *resty.Client
	limiter    *rate.Limiter
	credential *string
	now        func() time.Time
}

// SourceOption customizes an HTTPSource
type SourceOption func(*HTTPSource)

// WithAccept sets the Accept header sent upstream
func WithAccept(accept string) SourceOption {
	return func(s *HTTPSource) { s.accept = accept }
}

// WithQuery adds request-time query parameters
func WithQuery(q QueryBuilder) SourceOption {
	return func(s *HTTPSource) { s.query = q }
}

// WithLimiter makes every request wait on the shared limiter first
func WithLimiter(l *rate.Limiter) SourceOption {
	return func(s *HTTPSource) { s.limiter = l }
}

// WithCredential marks the source as requiring an API key. An empty key makes
// Fetch fail immediately with ErrMissingCredential.
func WithCredential(key string) SourceOption {
	return func(s *HTTPSource) { s.credential = &key }
}

// WithClock overrides the time source used for query building and stamping
func WithClock(now func() time.Time) SourceOption {
	return func(s *HTTPSource) { s.now = now }
}

// NewHTTPSource creates a source client for one endpoint
func NewHTTPSource(client *resty.Client, id, url string, timeout time.Duration, parse Parser, opts ...SourceOption) *HTTPSource {
	s := &HTTPSource{
		id:      id,
		url:     url,
		timeout: timeout,
		accept:  "application/json",
		parse:   parse,
		client:  client,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the stable source identifier
func (s *HTTPSource) ID() string { return s.id }

// Timeout returns the per-attempt deadline
func (s *HTTPSource) Timeout() time.Duration { return s.timeout }

// URL returns the upstream endpoint
func (s *HTTPSource) URL() string { return s.url }

// Fetch performs one GET and parses the payload
func (s *HTTPSource) Fetch(ctx context.Context) (*models.Reading, error) {
	if s.credential != nil && *s.credential == "" {
		return nil, &FetchError{Source: s.id, Kind: KindCredential, Err: ErrMissingCredential}
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Source: s.id, Kind: KindTransport, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	now := s.now()
	req := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", s.accept)
	if s.query != nil {
		req.SetQueryParams(s.query(now))
	}

	resp, err := req.Get(s.url)
	if err != nil {
		return nil, &FetchError{Source: s.id, Kind: KindTransport, Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		body := resp.Body()
		if len(body) > 200 {
			body = body[:200]
		}
		logger.Debug("Upstream returned non-OK status", map[string]interface{}{
			"source": s.id,
			"status": resp.StatusCode(),
			"body":   string(body),
		})
		return nil, &FetchError{Source: s.id, Kind: KindStatus, Status: resp.StatusCode(),
			Err: fmt.Errorf("upstream returned status %d", resp.StatusCode())}
	}

	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &FetchError{Source: s.id, Kind: KindEmpty, Err: ErrEmptyPayload}
	}

	reading, err := s.parse(body)
	if err != nil {
		kind := KindPayload
		if errors.Is(err, ErrEmptyPayload) {
			kind = KindEmpty
		}
		return nil, &FetchError{Source: s.id, Kind: kind, Err: err}
	}
	if reading.ObservedAt.IsZero() {
		reading.ObservedAt = now
	}
	return reading, nil
}

// NewHTTPClient creates the resty client shared by all sources. Retries apply
// to transport errors and 5xx responses and stay inside each attempt's deadline.
func NewHTTPClient(retries int, userAgent string) *resty.Client {
	client := resty.New()
	client.SetRetryCount(retries)
	client.SetRetryWaitTime(200 * time.Millisecond)
	client.SetRetryMaxWaitTime(time.Second)
	client.SetHeader("User-Agent", userAgent)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
	})
	return client
}
