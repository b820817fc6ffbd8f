// Package normalize standardizes free-text values into natural-key form for
// matching and lookup.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var anySpaceRe = regexp.MustCompile(`\s+`)

// CollapseSpace trims a value and collapses embedded whitespace runs
// (including newlines) to single spaces.
func CollapseSpace(s string) string {
	return strings.TrimSpace(anySpaceRe.ReplaceAllString(s, " "))
}

// Key converts a name into its natural-key form: whitespace collapsed,
// Unicode case folded. "Telangana ", "telangana" and "TELANGANA" all map to
// the same key.
func Key(s string) string {
	// cases.Caser is stateful, so build one per call rather than sharing.
	return cases.Fold().String(CollapseSpace(s))
}
