// Package gigapi is the HTTP client for the GigGlobal search service.
//
// The service pages with a sort key cursor:
//
//	GET {base}/api/v1/gig/search/{from}/{size}/{type}?{query}
//
// and answers with {"message", "total", "gigs"}. The gigs come back already
// ordered for the requested direction.
package gigapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gigglobal/gigs/pkg/log"
	"github.com/gigglobal/gigs/pkg/version"
	"github.com/klauspost/compress/gzhttp"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// SearchPath is the search endpoint prefix under the gateway base URL.
const SearchPath = "/api/v1/gig/search"

// APIError is returned for non-2xx answers.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("search service returned status %d", e.Status)
	}
	return fmt.Sprintf("search service returned status %d: %s", e.Status, e.Message)
}

// ErrInvalidRequest is returned before any I/O when a request is malformed.
var ErrInvalidRequest = errors.New("invalid search request")

// Client talks to the search service. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	token   string
	timeout time.Duration
	log     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTimeout bounds a single request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for the gateway at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: 15 * time.Second,
		log:     log.ForService("gigapi"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		c.http = &http.Client{Transport: gzhttp.Transport(http.DefaultTransport)}
	}
	if c.token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		c.http = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.token}))
	}
	c.http.Timeout = c.timeout

	return c
}

// BaseURL returns the gateway address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Validate checks a request without sending it.
func (r Request) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("%w: empty query", ErrInvalidRequest)
	}
	if r.From == "" {
		return fmt.Errorf("%w: empty from", ErrInvalidRequest)
	}
	if r.Size == "" || r.Size == "0" {
		return fmt.Errorf("%w: size %q", ErrInvalidRequest, r.Size)
	}
	if r.Type != Forward && r.Type != Backward {
		return fmt.Errorf("%w: type %q", ErrInvalidRequest, r.Type)
	}
	return nil
}

// URL renders the endpoint address for r.
func (c *Client) URL(r Request) string {
	path := strings.Join([]string{
		SearchPath,
		url.PathEscape(r.From),
		url.PathEscape(r.Size),
		url.PathEscape(r.Type),
	}, "/")
	return c.baseURL + path + "?" + r.Query
}

// Search fetches one page.
func (c *Client) Search(ctx context.Context, r Request) (*Response, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	target := c.URL(r)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", SearchPath, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			c.log.Warnf("failed to close response body: %v", err)
		}
	}()
	c.log.Debugf("GET %s -> %d (%s)", target, res.StatusCode, time.Since(start).Round(time.Millisecond))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		var body ErrorResponse
		if data, err := io.ReadAll(io.LimitReader(res.Body, 64<<10)); err == nil {
			if json.Unmarshal(data, &body) == nil {
				apiErr.Message = body.Message
			}
		}
		return nil, apiErr
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if out.Gigs == nil {
		out.Gigs = []Gig{}
	}
	return &out, nil
}
