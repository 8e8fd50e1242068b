package match

import (
	"strings"

	"github.com/gyeh/npi-match/internal/npi"
)

// CheckAddressMatch scores a zip code against a provider's addresses.
//
// The first address whose postal code, trimmed of surrounding whitespace,
// equals inputZip exactly yields (1.0, its purpose). Anything else yields
// (0.0, nil). This is a binary check, not a distance: a 9-digit registry zip
// does not match its 5-digit prefix.
func CheckAddressMatch(inputZip string, addresses []npi.Address) (float64, *npi.AddressPurpose) {
	if len(addresses) == 0 || inputZip == "" {
		return 0.0, nil
	}
	for _, addr := range addresses {
		if strings.TrimSpace(addr.PostalCode) == inputZip {
			purpose := addr.Purpose
			return 1.0, &purpose
		}
	}
	return 0.0, nil
}
