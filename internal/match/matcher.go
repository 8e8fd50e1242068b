// Package match decides which NPPES registry record, if any, corresponds to
// one spreadsheet row.
//
// Each row goes through an exact-name search, a wildcard fallback when the
// exact search finds nothing, and zip-code disambiguation when more than one
// candidate comes back. The Matcher keeps no state between rows.
package match

//go:generate mockgen -source=matcher.go -destination=mocks/mocks.go -package=mocks Registry

import (
	"context"
	"fmt"

	"github.com/gyeh/npi-match/internal/npi"
)

// Registry is the part of the registry client the matcher depends on.
// Search must not fail; Pause must be awaited after every Search.
type Registry interface {
	Search(ctx context.Context, firstName, lastName string, exact bool) []npi.Provider
	Pause(ctx context.Context) error
}

// Input is one row to match.
type Input struct {
	Index     int
	FirstName string
	LastName  string
	Zip       string
}

// Matcher runs the two-phase search-then-disambiguate strategy.
type Matcher struct {
	registry Registry
}

// New creates a Matcher backed by registry.
func New(registry Registry) *Matcher {
	return &Matcher{registry: registry}
}

// Match resolves one input row. The only error is a cancelled pause, which
// means the caller asked to stop; registry failures surface as NO_MATCH.
func (m *Matcher) Match(ctx context.Context, in Input) (Result, error) {
	res := Result{
		OriginalIndex: in.Index,
		MatchMethod:   MethodNoMatch,
		OriginalName:  in.FirstName + " " + in.LastName,
		OriginalZip:   in.Zip,
	}

	matches, method, err := m.search(ctx, in)
	if err != nil {
		return Result{}, err
	}
	res.TotalMatchesFound = len(matches)

	if len(matches) > 1 {
		method = method.withZip()
	}

	best, score, addrType := disambiguate(in.Zip, matches)
	if best == nil {
		return res, nil
	}

	res.NPI = ptr(best.Number)
	res.MatchMethod = method
	res.FinalMatchScore = score
	res.AddressType = addrType
	res.NameMatch = (Similarity(in.FirstName, best.Basic.FirstName) +
		Similarity(in.LastName, best.Basic.LastName)) / 2
	res.MatchedProviderName = ptr(best.DisplayName())
	if addr := best.FirstAddress(); addr != nil {
		res.MatchedAddress = ptr(addr.Address1)
		res.MatchedZip = ptr(addr.PostalCode)
	}
	if tax := best.FirstTaxonomy(); tax != nil {
		res.MatchedTaxonomy = ptr(tax.Desc)
	}
	return res, nil
}

// search runs the exact phase and, only if it came back empty, the wildcard
// phase. Every search is followed by a pause regardless of outcome.
func (m *Matcher) search(ctx context.Context, in Input) ([]npi.Provider, Method, error) {
	exact := m.registry.Search(ctx, in.FirstName, in.LastName, true)
	if err := m.registry.Pause(ctx); err != nil {
		return nil, "", fmt.Errorf("pausing after exact search: %w", err)
	}
	if len(exact) > 0 {
		return exact, MethodExact, nil
	}

	wildcard := m.registry.Search(ctx, in.FirstName, in.LastName, false)
	if err := m.registry.Pause(ctx); err != nil {
		return nil, "", fmt.Errorf("pausing after wildcard search: %w", err)
	}
	if len(wildcard) > 0 {
		return wildcard, MethodWildcard, nil
	}
	return nil, "", nil
}

// disambiguate picks the candidate to report. A lone candidate wins outright.
// Among several, the first with the highest zip score wins and a zero score
// selects nobody.
func disambiguate(zip string, matches []npi.Provider) (*npi.Provider, float64, *npi.AddressPurpose) {
	switch len(matches) {
	case 0:
		return nil, 0, nil
	case 1:
		best := &matches[0]
		var addrType *npi.AddressPurpose
		if addr := best.FirstAddress(); addr != nil {
			purpose := addr.Purpose
			addrType = &purpose
		}
		return best, 1.0, addrType
	}

	var (
		best      *npi.Provider
		bestScore float64
		bestType  *npi.AddressPurpose
	)
	for i := range matches {
		score, addrType := CheckAddressMatch(zip, matches[i].Addresses)
		if score > bestScore {
			best = &matches[i]
			bestScore = score
			bestType = addrType
		}
	}
	return best, bestScore, bestType
}
