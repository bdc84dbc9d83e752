// Package roadname normalizes road-name strings and matches canonical road
// numbers against the traffic feed's route-name field. Japanese road names
// arrive in mixed full-width/half-width forms, so every comparison goes
// through NFKC first.
package roadname

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// RoadNumberSuffix is the counter character that follows a numeric route
// code in Japanese road names, e.g. "123号".
const RoadNumberSuffix = "号"

// roadNumberPattern matches a numeric route code with its suffix. NFKC runs
// before this, so full-width digits are already folded to ASCII.
var roadNumberPattern = regexp.MustCompile(`\d+` + RoadNumberSuffix)

// Normalize applies NFKC normalization and extracts the numeric route code
// when present. Names without a code are returned in normalized form
// unchanged. Normalize is idempotent.
func Normalize(name string) string {
	normalized := norm.NFKC.String(name)
	if match := roadNumberPattern.FindString(normalized); match != "" {
		return match
	}
	return normalized
}

// Canonical builds the canonical road number from an OSM ref tag value,
// falling back to the original road name when no ref exists.
func Canonical(roadName, ref string) string {
	if ref == "" {
		return roadName
	}
	return ref + RoadNumberSuffix
}

// MatchIndices returns the indices of route names whose normalized form
// equals the canonical road number exactly. The canonical value is
// normalized too, so both sides of the comparison go through the same
// transform. Matching is exact equality, never substring.
func MatchIndices(canonical string, routeNames []string) []int {
	want := Normalize(canonical)
	var matched []int
	for i, name := range routeNames {
		if Normalize(name) == want {
			matched = append(matched, i)
		}
	}
	return matched
}
