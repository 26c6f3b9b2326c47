// Package background estimates the population frequency of each phenotype
// term by propagating disease annotations up the ontology, once, at startup.
package background

import (
	"github.com/justaddcoffee/LIRICAL/internal/disease"
	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
)

// DefaultFrequency is the floor applied on every read. No term ever reports
// a background probability below this, which keeps all likelihood ratios
// finite.
const DefaultFrequency = 1e-4

// Source answers background-frequency queries for the likelihood-ratio
// engines. FrequencyTable is the production implementation; tests substitute
// fixed maps.
type Source interface {
	// Frequency returns the background probability of t with the floor applied.
	Frequency(t domain.TermID) float64
	// RawFrequency returns the unfloored propagated frequency of t and
	// whether t is tracked at all.
	RawFrequency(t domain.TermID) (float64, bool)
}

// FrequencyTable maps every non-obsolete term to its estimated population
// frequency. Immutable after Build; safe for concurrent readers.
type FrequencyTable struct {
	freqs map[domain.TermID]float64
}

// Build computes the table from the disease corpus. For each disease the
// maximum annotation frequency is taken inside the ancestor closure before
// summing across diseases, so sibling annotations of one disease are not
// double-counted; the per-term sum divided by the corpus size is an
// empirical marginal probability of the feature.
func Build(onto *ontology.Ontology, store *disease.Store) *FrequencyTable {
	freqs := make(map[domain.TermID]float64, onto.Len())
	for _, t := range onto.Terms() {
		freqs[t] = 0
	}
	diseases := store.All()
	for _, d := range diseases {
		update := make(map[domain.TermID]float64)
		for _, a := range d.Annotations {
			primary, ok := onto.PrimaryID(a.Term)
			if !ok {
				continue
			}
			for anc := range onto.Ancestors(primary, true) {
				if a.Frequency > update[anc] {
					update[anc] = a.Frequency
				}
			}
		}
		for t, f := range update {
			freqs[t] += f
		}
	}
	n := float64(len(diseases))
	for t := range freqs {
		freqs[t] /= n
	}
	return &FrequencyTable{freqs: freqs}
}

// Frequency returns the background probability of t, floored at
// DefaultFrequency. Unknown terms report the floor.
func (ft *FrequencyTable) Frequency(t domain.TermID) float64 {
	f, ok := ft.freqs[t]
	if !ok || f < DefaultFrequency {
		return DefaultFrequency
	}
	return f
}

// RawFrequency returns the propagated frequency of t before the floor.
func (ft *FrequencyTable) RawFrequency(t domain.TermID) (float64, bool) {
	f, ok := ft.freqs[t]
	return f, ok
}

// Len returns the number of tracked terms.
func (ft *FrequencyTable) Len() int {
	return len(ft.freqs)
}
