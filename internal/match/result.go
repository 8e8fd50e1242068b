package match

import (
	"strconv"

	"github.com/gyeh/npi-match/internal/npi"
)

// Method tags how a match was found.
type Method string

const (
	MethodExact           Method = "EXACT"
	MethodExactWithZip    Method = "EXACT_WITH_ZIP"
	MethodWildcard        Method = "WILDCARD"
	MethodWildcardWithZip Method = "WILDCARD_WITH_ZIP"
	MethodNoMatch         Method = "NO_MATCH"
)

// withZip returns the disambiguated variant of a phase method.
func (m Method) withZip() Method {
	switch m {
	case MethodExact:
		return MethodExactWithZip
	case MethodWildcard:
		return MethodWildcardWithZip
	}
	return m
}

// Column names of a Result, in output order. Downstream consumers depend on
// these exact strings.
const (
	ColOriginalIndex       = "Original Index"
	ColNPI                 = "NPI"
	ColMatchMethod         = "Match Method"
	ColTotalMatchesFound   = "Total Matches Found"
	ColFinalMatchScore     = "Final Match Score"
	ColAddressType         = "Address Type"
	ColNameMatch           = "Name Match"
	ColMatchedProviderName = "Matched Provider Name"
	ColMatchedAddress      = "Matched Address"
	ColMatchedZip          = "Matched Zip"
	ColMatchedTaxonomy     = "Matched Taxonomy"
	ColOriginalName        = "Original Name"
	ColOriginalZip         = "Original Zip"
)

// Columns lists the result columns in output order.
var Columns = []string{
	ColOriginalIndex,
	ColNPI,
	ColMatchMethod,
	ColTotalMatchesFound,
	ColFinalMatchScore,
	ColAddressType,
	ColNameMatch,
	ColMatchedProviderName,
	ColMatchedAddress,
	ColMatchedZip,
	ColMatchedTaxonomy,
	ColOriginalName,
	ColOriginalZip,
}

// Result is the match decision for one input row. Pointer fields are null
// when no provider was selected.
type Result struct {
	OriginalIndex       int                 `json:"Original Index"`
	NPI                 *string             `json:"NPI"`
	MatchMethod         Method              `json:"Match Method"`
	TotalMatchesFound   int                 `json:"Total Matches Found"`
	FinalMatchScore     float64             `json:"Final Match Score"`
	AddressType         *npi.AddressPurpose `json:"Address Type"`
	NameMatch           float64             `json:"Name Match"`
	MatchedProviderName *string             `json:"Matched Provider Name"`
	MatchedAddress      *string             `json:"Matched Address"`
	MatchedZip          *string             `json:"Matched Zip"`
	MatchedTaxonomy     *string             `json:"Matched Taxonomy"`
	OriginalName        string              `json:"Original Name"`
	OriginalZip         string              `json:"Original Zip"`
}

// Matched reports whether a provider was selected.
func (r *Result) Matched() bool { return r.NPI != nil }

// Values renders the result as strings in Columns order. Null fields become
// empty strings.
func (r *Result) Values() []string {
	var addrType *string
	if r.AddressType != nil {
		s := string(*r.AddressType)
		addrType = &s
	}
	return []string{
		strconv.Itoa(r.OriginalIndex),
		deref(r.NPI),
		string(r.MatchMethod),
		strconv.Itoa(r.TotalMatchesFound),
		FormatScore(r.FinalMatchScore),
		deref(addrType),
		FormatScore(r.NameMatch),
		deref(r.MatchedProviderName),
		deref(r.MatchedAddress),
		deref(r.MatchedZip),
		deref(r.MatchedTaxonomy),
		r.OriginalName,
		r.OriginalZip,
	}
}

// FormatScore renders a score with the shortest exact representation, so 1.0
// prints as "1" and 0.8 as "0.8".
func FormatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr(s string) *string { return &s }
