package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermIDPrefix(t *testing.T) {
	assert.Equal(t, "HP", TermID("HP:0001250").Prefix())
	assert.Equal(t, "OMIM", DiseaseID("OMIM:103100").Prefix())
	assert.Equal(t, "", TermID("noseparator").Prefix())
}

func TestTermSet(t *testing.T) {
	s := NewTermSet("HP:0000001", "HP:0000118")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("HP:0000001"))
	assert.False(t, s.Contains("HP:0001250"))

	s.Union(NewTermSet("HP:0001250"))
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains("HP:0001250"))
}

func TestMatchKindIsValid(t *testing.T) {
	kinds := []MatchKind{
		EXACT_MATCH, QUERY_IS_ANCESTOR_OF_DISEASE_TERM, QUERY_IS_DESCENDANT_OF_DISEASE_TERM,
		NON_ROOT_COMMON_ANCESTOR, NO_MATCH, QUERY_EXPLICITLY_EXCLUDED_IN_DISEASE,
		EXCLUDED_QUERY_MATCHES_EXCLUDED_IN_DISEASE, EXCLUDED_QUERY_NOT_IN_DISEASE,
		EXCLUDED_QUERY_IN_DISEASE, UNUSUAL_BACKGROUND,
	}
	for _, k := range kinds {
		assert.True(t, k.IsValid(), "kind %s", k)
	}
	assert.False(t, MatchKind("SOMETHING_ELSE").IsValid())
}

func TestExplanationSummary(t *testing.T) {
	for _, k := range []MatchKind{
		EXACT_MATCH, QUERY_IS_ANCESTOR_OF_DISEASE_TERM, QUERY_IS_DESCENDANT_OF_DISEASE_TERM,
		NON_ROOT_COMMON_ANCESTOR, NO_MATCH, QUERY_EXPLICITLY_EXCLUDED_IN_DISEASE,
		EXCLUDED_QUERY_MATCHES_EXCLUDED_IN_DISEASE, EXCLUDED_QUERY_NOT_IN_DISEASE,
		EXCLUDED_QUERY_IN_DISEASE, UNUSUAL_BACKGROUND,
	} {
		lr := LrWithExplanation{Query: "HP:0001250", Matched: "HP:0000707", LR: 2.5, Kind: k}
		assert.NotEmpty(t, lr.Summary())
	}
}

func TestTermErrorUnwrap(t *testing.T) {
	te := &TermError{Term: "HP:9999999", Err: ErrUnknownTerm}
	assert.True(t, errors.Is(te, ErrUnknownTerm))
	assert.Contains(t, te.Error(), "HP:9999999")
}

func TestDiseaseInheritanceHelpers(t *testing.T) {
	d := &Disease{InheritanceModes: []TermID{AutosomalRecessive}}
	assert.True(t, d.IsRecessive())
	assert.False(t, d.IsDominant())
}
