package analysis

import (
	"github.com/justaddcoffee/LIRICAL/internal/domain"
)

// Results holds the ranked outcome of one case evaluation. Immutable.
// Iteration order is descending composite likelihood ratio with ascending
// disease id breaking ties; tied diseases share the worst rank in their
// group.
type Results struct {
	ranked     []domain.TestResult
	byID       map[domain.DiseaseID]int
	ranks      map[domain.DiseaseID]int
	termErrors []domain.TermError
}

func newResults(ranked []domain.TestResult, termErrors []domain.TermError) *Results {
	r := &Results{
		ranked:     ranked,
		byID:       make(map[domain.DiseaseID]int, len(ranked)),
		ranks:      make(map[domain.DiseaseID]int, len(ranked)),
		termErrors: termErrors,
	}
	for i := range ranked {
		r.byID[ranked[i].DiseaseID] = i
	}
	// Ties share the worst rank of their group.
	for start := 0; start < len(ranked); {
		end := start + 1
		for end < len(ranked) && ranked[end].CompositeLR == ranked[start].CompositeLR {
			end++
		}
		for i := start; i < end; i++ {
			r.ranks[ranked[i].DiseaseID] = end
		}
		start = end
	}
	return r
}

// Get returns the result for one disease.
func (r *Results) Get(id domain.DiseaseID) (domain.TestResult, bool) {
	i, ok := r.byID[id]
	if !ok {
		return domain.TestResult{}, false
	}
	return r.ranked[i], true
}

// Rank returns the 1-based rank of the disease; tied diseases report the
// worst rank in their tie group.
func (r *Results) Rank(id domain.DiseaseID) (int, bool) {
	rank, ok := r.ranks[id]
	return rank, ok
}

// TopK returns the k best-ranked results (fewer if the corpus is smaller).
func (r *Results) TopK(k int) []domain.TestResult {
	if k > len(r.ranked) {
		k = len(r.ranked)
	}
	if k < 0 {
		k = 0
	}
	return r.ranked[:k]
}

// Ranked returns every result in ranked order.
func (r *Results) Ranked() []domain.TestResult {
	return r.ranked
}

// TermErrors returns the query terms that were dropped from the evaluation,
// with reasons.
func (r *Results) TermErrors() []domain.TermError {
	return r.termErrors
}

// Len returns the number of evaluated diseases.
func (r *Results) Len() int {
	return len(r.ranked)
}
