package npi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Lookup queries the registry for a single NPI number.
// Returns nil if the NPI is not found. Unlike Search, failures are returned.
func (c *Client) Lookup(ctx context.Context, number string) (*Provider, error) {
	number = strings.TrimSpace(number)
	if !ValidNumber(number) {
		return nil, fmt.Errorf("NPI %q is not a valid 10-digit NPI", number)
	}

	params := url.Values{
		"version": {APIVersion},
		"number":  {number},
	}

	start := time.Now()
	providers, err := c.query(ctx, params)
	if ctx.Err() == nil {
		c.metrics.ObserveRegistryRequest(modeLookup, outcomeOf(providers, err), time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("looking up NPI %s: %w", number, err)
	}

	if len(providers) == 0 {
		return nil, nil
	}
	return &providers[0], nil
}

// ValidNumber reports whether s looks like an NPI: ten digits, not starting
// with zero.
func ValidNumber(s string) bool {
	if len(s) != 10 || s[0] == '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormattedName renders "LAST, FIRST MIDDLE" for individuals and the
// organization name for organizations.
func (p *Provider) FormattedName() string {
	if p.EnumerationType == "NPI-2" || (p.Basic.FirstName == "" && p.Basic.LastName == "") {
		return cleanField(p.Basic.OrganizationName)
	}
	parts := []string{cleanField(p.Basic.LastName)}
	if first := cleanField(p.Basic.FirstName); first != "" {
		parts = append(parts, first)
	}
	name := strings.Join(parts, ", ")
	if middle := cleanField(p.Basic.MiddleName); middle != "" {
		name += " " + middle
	}
	if cred := cleanField(p.Basic.Credential); cred != "" {
		name += " (" + cred + ")"
	}
	return name
}

// Kind returns "Individual" or "Organization".
func (p *Provider) Kind() string {
	if p.EnumerationType == "NPI-2" {
		return "Organization"
	}
	return "Individual"
}

// Format renders the address as "street, city, ST 12345".
func (a *Address) Format() string {
	var parts []string
	if s := cleanField(a.Address1); s != "" {
		parts = append(parts, s)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	loc := strings.Join(parts, ", ")
	if a.State != "" {
		if loc != "" {
			loc += ", "
		}
		loc += a.State
	}
	if a.PostalCode != "" {
		zip := strings.TrimSpace(a.PostalCode)
		if len(zip) > 5 {
			zip = zip[:5]
		}
		loc += " " + zip
	}
	return strings.TrimSpace(loc)
}

// FormattedPhone renders a 10-digit phone number as (xxx) xxx-xxxx.
func (a *Address) FormattedPhone() string {
	p := strings.ReplaceAll(a.Phone, "-", "")
	p = strings.TrimSpace(p)
	if len(p) == 10 {
		return fmt.Sprintf("(%s) %s-%s", p[:3], p[3:6], p[6:])
	}
	return a.Phone
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if s == "--" || s == "" {
		return ""
	}
	return s
}
