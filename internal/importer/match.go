package importer

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultSimilarityThreshold is the minimum normalized edit-distance
// similarity for the fuzzy tier.
const DefaultSimilarityThreshold = 0.6

// DefaultSynonyms returns the built-in synonym table for reference names,
// mostly alternate spellings of Indian states seen in dealer spreadsheets.
func DefaultSynonyms() map[string]string {
	return map[string]string{
		"J&K":               "Jammu & Kashmir",
		"Jammu and Kashmir": "Jammu & Kashmir",
		"NCT of Delhi":      "Delhi",
		"New Delhi":         "Delhi",
		"Orissa":            "Odisha",
		"Pondicherry":       "Puducherry",
		"Bangalore":         "Bengaluru",
		"Bombay":            "Mumbai",
		"Madras":            "Chennai",
		"Calcutta":          "Kolkata",
		"TN":                "Tamil Nadu",
		"UP":                "Uttar Pradesh",
		"MP":                "Madhya Pradesh",
		"AP":                "Andhra Pradesh",
	}
}

// MatchTier identifies which strategy produced a match.
type MatchTier string

const (
	TierExact       MatchTier = "exact"
	TierContainment MatchTier = "containment"
	TierTokens      MatchTier = "tokens"
	TierFuzzy       MatchTier = "fuzzy"
)

// Candidate is a reference row eligible for matching.
type Candidate struct {
	ID   string
	Name string
}

// Matcher resolves free text against a candidate list using four tiers, in
// order, first success wins: exact (after synonym substitution), containment,
// token overlap, and edit-distance similarity. Synonym and threshold tables
// are injected so tests can substitute alternates.
type Matcher struct {
	threshold float64
	// synonyms maps a normalized alias to the normalized canonical form it
	// should be treated as (e.g. "j&k" -> "jammu & kashmir").
	synonyms map[string]string
}

// NewMatcher creates a Matcher. A zero threshold selects the default; synonym
// keys and values are normalized internally.
func NewMatcher(threshold float64, synonyms map[string]string) *Matcher {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	norm := make(map[string]string, len(synonyms))
	for k, v := range synonyms {
		norm[NameKey(k)] = NameKey(v)
	}
	return &Matcher{threshold: threshold, synonyms: norm}
}

// Match returns the best candidate for the search text, or nil when no tier
// succeeds. The second return names the tier that matched.
func (m *Matcher) Match(text string, cands []Candidate) (*Candidate, MatchTier) {
	key := NameKey(text)
	if canonical, ok := m.synonyms[key]; ok {
		key = canonical
	}
	if key == "" {
		return nil, ""
	}

	// Tier 1: exact, case-insensitive and trimmed.
	for i := range cands {
		if NameKey(cands[i].Name) == key {
			return &cands[i], TierExact
		}
	}

	// Tier 2: containment either direction ("Andhra" vs "Andhra Pradesh").
	for i := range cands {
		ck := NameKey(cands[i].Name)
		if ck == "" {
			continue
		}
		if strings.Contains(ck, key) || strings.Contains(key, ck) {
			return &cands[i], TierContainment
		}
	}

	// Tier 3: token overlap — every significant search token must appear as
	// a substring of some candidate token.
	tokens := significantTokens(key)
	if len(tokens) > 0 {
		for i := range cands {
			if tokensCovered(tokens, NameKey(cands[i].Name)) {
				return &cands[i], TierTokens
			}
		}
	}

	// Tier 4: highest normalized Levenshtein similarity at or above the
	// threshold.
	best := -1
	bestScore := 0.0
	for i := range cands {
		score := Similarity(key, NameKey(cands[i].Name))
		if score > bestScore {
			bestScore = score
			best = i
		}
	}
	if best >= 0 && bestScore >= m.threshold {
		return &cands[best], TierFuzzy
	}

	return nil, ""
}

// Similarity is the normalized edit-distance similarity of two strings:
// 1 - distance/max(runes). Identical strings score 1, disjoint strings
// approach 0. The distance counts runes, so the denominator does too.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// significantTokens returns the whitespace-delimited tokens of length > 2.
func significantTokens(key string) []string {
	var out []string
	for _, tok := range strings.Fields(key) {
		if len(tok) > 2 {
			out = append(out, tok)
		}
	}
	return out
}

// tokensCovered reports whether every token appears as a substring of some
// token of the candidate name.
func tokensCovered(tokens []string, candidate string) bool {
	candTokens := strings.Fields(candidate)
	for _, tok := range tokens {
		found := false
		for _, ct := range candTokens {
			if strings.Contains(ct, tok) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
