// Package npi is a client for the NPPES NPI Registry API.
//
// The registry is treated as an unreliable collaborator: Search never fails,
// it degrades to an empty result and reports the cause through logs, metrics
// and an optional error hook. Callers pace themselves with Pause, which must
// be awaited after every registry call.
package npi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gyeh/npi-match/internal/metrics"
)

const (
	// DefaultBaseURL is the public NPPES registry endpoint.
	DefaultBaseURL = "https://npiregistry.cms.hhs.gov/api/"

	// APIVersion is the registry API version every request pins.
	APIVersion = "2.1"

	// ResultLimit is the fixed page size. No pagination is done, so
	// candidates past this many are never seen.
	ResultLimit = 20

	// DefaultDelay is the pause between consecutive registry calls.
	DefaultDelay = 500 * time.Millisecond

	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20
)

// Client queries the NPPES registry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	retries    int
	retryBase  time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
	onError    func(error)
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint (tests, mirrors).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithDelay sets the Pause duration. Zero disables pausing.
func WithDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithRetries allows up to n extra attempts for retryable failures within a
// single Search or Lookup call.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithErrorHandler receives every failure Search swallows.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Client) { c.onError = fn }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a registry client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		delay:      DefaultDelay,
		retryBase:  time.Second,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		userAgent:  "npi-match",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "registry"))
	return c
}

// Delay returns the configured pause duration.
func (c *Client) Delay() time.Duration { return c.delay }

// Pause waits the fixed inter-call delay. It is a plain sleep after each call,
// not a token bucket, and returns early only when ctx is done.
func (c *Client) Pause(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// query performs a registry GET with the given parameters and decodes the
// response, retrying retryable failures with exponential delay.
func (c *Client) query(ctx context.Context, params url.Values) ([]Provider, error) {
	reqURL, err := c.buildURL(params)
	if err != nil {
		return nil, err
	}

	var body []byte
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * c.retryBase
			c.logger.Debug("retrying registry request",
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err = c.get(ctx, reqURL)
		if err == nil {
			break
		}
		var ue *UnavailableError
		if ctx.Err() != nil || !errors.As(err, &ue) || !ue.Retryable() {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	return decode(body)
}

func (c *Client) buildURL(params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing registry URL %q: %w", c.baseURL, err)
	}
	// Parameters already on the base URL survive, request parameters win.
	q := u.Query()
	for k, v := range params {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// get executes one HTTP GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("requesting", slog.String("url", reqURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &UnavailableError{
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UnavailableError{Cause: fmt.Errorf("reading response: %w", err)}
	}
	return body, nil
}

func decode(body []byte) ([]Provider, error) {
	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, &MalformedResponseError{Cause: err}
	}

	if len(apiResp.Errors) > 0 {
		descs := make([]string, 0, len(apiResp.Errors))
		for _, e := range apiResp.Errors {
			d := strings.TrimSpace(e.Description)
			if d == "" {
				d = "unspecified error"
			}
			descs = append(descs, d)
		}
		return nil, &RejectedError{Descriptions: descs}
	}

	if apiResp.ResultCount == nil {
		return nil, &MalformedResponseError{Cause: errors.New("missing result_count")}
	}

	providers := make([]Provider, 0, len(apiResp.Results))
	if *apiResp.ResultCount == 0 {
		return providers, nil
	}
	for _, r := range apiResp.Results {
		if r.Number == "" {
			return nil, &MalformedResponseError{Cause: errors.New("result without number")}
		}
		providers = append(providers, toProvider(r))
	}
	return providers, nil
}

// outcomeOf maps an error from query to a metrics outcome label.
func outcomeOf(providers []Provider, err error) string {
	var ue *UnavailableError
	switch {
	case err == nil && len(providers) == 0:
		return metrics.OutcomeEmpty
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &ue):
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeMalformed
	}
}
