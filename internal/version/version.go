// Package version compares chat server versions against the minimum and
// recommended versions a client supports.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Triple is a parsed dotted version. PreRelease holds everything after the
// first '-' and never takes part in comparisons.
type Triple struct {
	Major      uint
	Minor      uint
	Patch      uint
	PreRelease string
	Raw        string
}

// String renders the numeric part of the version.
func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Patch)
}

// Parse splits raw on the first '-' and then on '.'. Missing or non-numeric
// components become 0, so Parse never fails.
func Parse(raw string) Triple {
	numeric, pre, _ := strings.Cut(raw, "-")
	parts := strings.Split(numeric, ".")

	return Triple{
		Major:      component(parts, 0),
		Minor:      component(parts, 1),
		Patch:      component(parts, 2),
		PreRelease: pre,
		Raw:        raw,
	}
}

func component(parts []string, index int) uint {
	if index >= len(parts) {
		return 0
	}
	n, err := strconv.ParseUint(parts[index], 10, 0)
	if err != nil {
		return 0
	}
	return uint(n)
}

// Compare returns -1, 0 or 1 comparing major, minor and patch in that order.
func Compare(a, b Triple) int {
	switch {
	case a.Major != b.Major:
		return cmpUint(a.Major, b.Major)
	case a.Minor != b.Minor:
		return cmpUint(a.Minor, b.Minor)
	default:
		return cmpUint(a.Patch, b.Patch)
	}
}

func cmpUint(a, b uint) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether a is the same as or newer than b.
func AtLeast(a, b Triple) bool {
	return Compare(a, b) >= 0
}

// Verdict is the outcome of a server version check.
type Verdict int

const (
	// OK means the server meets the recommended version.
	OK Verdict = iota
	// RecommendedWarning means the server meets the required version only.
	RecommendedWarning
	// OutOfDate means the server is below the required version.
	OutOfDate
)

func (v Verdict) String() string {
	switch v {
	case OK:
		return "ok"
	case RecommendedWarning:
		return "recommended_warning"
	case OutOfDate:
		return "out_of_date"
	default:
		return "unknown"
	}
}

// Classify checks server against the required and recommended versions.
// Malformed input degrades to 0.0.0.
func Classify(server, required, recommended string) Verdict {
	current := Parse(server)
	if !AtLeast(current, Parse(required)) {
		return OutOfDate
	}
	if !AtLeast(current, Parse(recommended)) {
		return RecommendedWarning
	}
	return OK
}
