package identifier

import (
	"fmt"
	"regexp"
	"strconv"
)

// Identifier prefixes used across the registries
const (
	PrefixRegistration = "REGN"
	PrefixFlight       = "FL"
	PrefixAirport      = "APT"
	PrefixDeferral     = "DEF"
)

const suffixWidth = 5

// Next derives the next identifier for prefix from a snapshot of existing identifiers.
// Entries that do not match "<prefix>-<digits>" are ignored.
func Next(prefix string, existing []string) string {
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `-(\d+)$`)

	highest := 0
	found := false
	for _, id := range existing {
		m := pattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !found || n > highest {
			highest = n
			found = true
		}
	}

	if !found {
		return Format(prefix, 1)
	}
	return Format(prefix, highest+1)
}

// Format renders prefix and n as a zero-padded identifier, e.g. DEF-00007
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s-%0*d", prefix, suffixWidth, n)
}
