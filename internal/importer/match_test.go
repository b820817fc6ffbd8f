package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(names ...string) []Candidate {
	out := make([]Candidate, len(names))
	for i, n := range names {
		out[i] = Candidate{ID: n, Name: n}
	}
	return out
}

func TestMatcher_ExactCaseInsensitive(t *testing.T) {
	m := NewMatcher(0, nil)
	got, tier := m.Match("  TELANGANA ", candidates("Telangana", "Kerala"))
	require.NotNil(t, got)
	assert.Equal(t, "Telangana", got.Name)
	assert.Equal(t, TierExact, tier)
}

func TestMatcher_SynonymResolvesToExact(t *testing.T) {
	m := NewMatcher(0, DefaultSynonyms())
	got, tier := m.Match("Orissa", candidates("Odisha", "Kerala"))
	require.NotNil(t, got)
	assert.Equal(t, "Odisha", got.Name)
	assert.Equal(t, TierExact, tier)
}

func TestMatcher_Containment(t *testing.T) {
	m := NewMatcher(0, nil)

	got, tier := m.Match("Andhra", candidates("Andhra Pradesh", "Kerala"))
	require.NotNil(t, got)
	assert.Equal(t, "Andhra Pradesh", got.Name)
	assert.Equal(t, TierContainment, tier)

	// And the other direction: search text longer than the candidate.
	got, tier = m.Match("Greater Hyderabad", candidates("Hyderabad"))
	require.NotNil(t, got)
	assert.Equal(t, TierContainment, tier)
}

func TestMatcher_TokenOverlap(t *testing.T) {
	m := NewMatcher(0, nil)
	got, tier := m.Match("Equipment Safety Road", candidates("Road Safety Equipment", "Cement"))
	require.NotNil(t, got)
	assert.Equal(t, "Road Safety Equipment", got.Name)
	assert.Equal(t, TierTokens, tier)
}

func TestMatcher_TokenOverlap_ShortTokensIgnored(t *testing.T) {
	m := NewMatcher(0, nil)
	// "of" is too short to count; the significant tokens still must all cover.
	got, tier := m.Match("Government of Telangana", candidates("Telangana Government Offices"))
	require.NotNil(t, got)
	assert.Equal(t, TierTokens, tier)
}

func TestMatcher_FuzzyAtThreshold(t *testing.T) {
	m := NewMatcher(0, nil)

	// Distance 2 over length 6: similarity 0.667, above the 0.6 default.
	got, tier := m.Match("abcdef", candidates("abcdxx"))
	require.NotNil(t, got)
	assert.Equal(t, TierFuzzy, tier)

	// Distance 3 over length 6: similarity 0.5, below threshold.
	got, _ = m.Match("abcdef", candidates("abcxxx"))
	assert.Nil(t, got)
}

func TestMatcher_FuzzyThresholdBoundary(t *testing.T) {
	m := NewMatcher(0, nil)

	// Distance 2 over length 5 scores exactly 0.6: accepted at the boundary.
	got, tier := m.Match("abcde", candidates("abcxx"))
	require.NotNil(t, got)
	assert.Equal(t, TierFuzzy, tier)

	// Just below the boundary (0.5625) is rejected.
	got, _ = m.Match("abcdefghijklmnop", candidates("abcdefghixxxxxxx"))
	assert.Nil(t, got)
}

func TestMatcher_FuzzyPicksBestCandidate(t *testing.T) {
	m := NewMatcher(0, nil)
	got, tier := m.Match("hyderbad", candidates("Secunderabad", "Hyderabad"))
	require.NotNil(t, got)
	assert.Equal(t, "Hyderabad", got.Name)
	assert.Equal(t, TierFuzzy, tier)
}

func TestMatcher_CustomThreshold(t *testing.T) {
	strict := NewMatcher(0.9, nil)
	got, _ := strict.Match("abcdef", candidates("abcdxx"))
	assert.Nil(t, got)
}

func TestMatcher_NoCandidates(t *testing.T) {
	m := NewMatcher(0, nil)
	got, tier := m.Match("anything", nil)
	assert.Nil(t, got)
	assert.Empty(t, string(tier))
}

func TestMatcher_EmptyText(t *testing.T) {
	m := NewMatcher(0, nil)
	got, _ := m.Match("   ", candidates("Telangana"))
	assert.Nil(t, got)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("abc", "abc"))
	assert.InDelta(t, 0.8, Similarity("abcde", "abcdx"), 0.001)
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
}

func TestSimilarity_CountsRunesNotBytes(t *testing.T) {
	// "münchen" is 7 runes, 8 bytes; one substitution away from "munchen".
	assert.InDelta(t, 1-1.0/7.0, Similarity("münchen", "munchen"), 0.001)
}
