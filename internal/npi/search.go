package npi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"
)

const (
	modeExact    = "exact"
	modeWildcard = "wildcard"
	modeLookup   = "lookup"
)

// Search queries the registry for individual providers by name.
//
// With exact set, names are sent unmodified. Otherwise each non-empty name is
// wrapped as *name* and an empty name becomes a bare *, matching anything.
// At most ResultLimit providers are returned.
//
// Search never fails: transport errors, non-2xx responses and malformed
// payloads are logged, passed to the error handler and turned into an empty
// (non-nil) slice. A cancelled ctx also yields an empty slice but is not
// reported as a registry error. The caller still owes a Pause afterwards.
func (c *Client) Search(ctx context.Context, firstName, lastName string, exact bool) []Provider {
	mode := modeExact
	if !exact {
		mode = modeWildcard
	}

	start := time.Now()
	providers, err := c.query(ctx, SearchParams(firstName, lastName, exact))
	if err != nil && ctx.Err() != nil {
		// Cancelled by the caller, not a registry failure.
		c.logger.Debug("registry search cancelled", slog.String("mode", mode))
		return []Provider{}
	}
	c.metrics.ObserveRegistryRequest(mode, outcomeOf(providers, err), time.Since(start))

	if err != nil {
		c.logger.Warn("registry search failed",
			slog.String("first_name", firstName),
			slog.String("last_name", lastName),
			slog.String("mode", mode),
			slog.String("error", err.Error()))
		if c.onError != nil {
			c.onError(fmt.Errorf("searching for %s %s (%s): %w", firstName, lastName, mode, err))
		}
		return []Provider{}
	}

	c.logger.Debug("registry search complete",
		slog.String("first_name", firstName),
		slog.String("last_name", lastName),
		slog.String("mode", mode),
		slog.Int("results", len(providers)))
	return providers
}

// SearchParams builds the fixed-shape query for a name search.
func SearchParams(firstName, lastName string, exact bool) url.Values {
	if !exact {
		firstName = wildcard(firstName)
		lastName = wildcard(lastName)
	}
	return url.Values{
		"version":    {APIVersion},
		"first_name": {firstName},
		"last_name":  {lastName},
		"limit":      {strconv.Itoa(ResultLimit)},
		"skip":       {"0"},
	}
}

func wildcard(name string) string {
	if name == "" {
		return "*"
	}
	return "*" + name + "*"
}
