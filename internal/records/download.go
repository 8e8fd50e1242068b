package records

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var httpClient = &http.Client{Timeout: 5 * time.Minute}

// downloadAttempts bounds the GET attempts for an http(s) input.
const downloadAttempts = 3

// retryBase is the first backoff step; attempt n waits retryBase * 2^n.
var retryBase = time.Second

func isHTTPURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// download performs a GET with retries and returns the response body.
// Client errors are not retried. The caller closes the body.
func download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	var err error

	for attempt := 0; attempt < downloadAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * retryBase
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if reqErr != nil {
			return nil, fmt.Errorf("creating request: %w", reqErr)
		}

		var resp *http.Response
		resp, err = httpClient.Do(req)
		if err != nil {
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}
		resp.Body.Close()
		err = fmt.Errorf("HTTP %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("downloading %s: %w", redact(rawURL), err)
		}
	}

	return nil, fmt.Errorf("downloading %s failed after retries: %w", redact(rawURL), err)
}

// gzipped reports whether path names gzip data, looking only at the URL
// path for http(s) inputs so presigned query strings don't hide the suffix.
func gzipped(path string) bool {
	if isHTTPURL(path) {
		if u, err := url.Parse(path); err == nil {
			path = u.Path
		}
	}
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// redact drops the query string, which often carries signatures.
func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
