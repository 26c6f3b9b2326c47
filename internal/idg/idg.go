// Package idg precomputes, per disease, the induced subgraph of the
// ontology that the phenotype likelihood ratio needs: the ancestor closure
// of the positive annotations, the negated set, and a closest-annotated-
// ancestor lookup for partial-match queries.
package idg

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
)

// Annotated is the most informative direct annotation reachable below an
// ancestor term: the annotated term itself and its frequency in the disease.
type Annotated struct {
	Term      domain.TermID
	Frequency float64
}

// Graph is the induced disease graph for one disease. Immutable after New.
type Graph struct {
	Disease *domain.Disease

	positiveClosure domain.TermSet
	negated         domain.TermSet
	closest         map[domain.TermID]Annotated
}

// New builds the graph. The value is a pure function of the ontology and the
// disease record, so rebuilding is idempotent.
func New(onto *ontology.Ontology, d *domain.Disease) *Graph {
	g := &Graph{
		Disease:         d,
		positiveClosure: make(domain.TermSet),
		negated:         domain.NewTermSet(d.Negated...),
		closest:         make(map[domain.TermID]Annotated),
	}
	for _, a := range d.Annotations {
		for anc := range onto.Ancestors(a.Term, true) {
			g.positiveClosure.Add(anc)
			if cur, ok := g.closest[anc]; !ok || a.Frequency > cur.Frequency {
				g.closest[anc] = Annotated{Term: a.Term, Frequency: a.Frequency}
			}
		}
	}
	return g
}

// InPositiveClosure reports whether t is an annotated term or an ancestor of
// one.
func (g *Graph) InPositiveClosure(t domain.TermID) bool {
	return g.positiveClosure.Contains(t)
}

// IsNegated reports whether the disease explicitly excludes t.
func (g *Graph) IsNegated(t domain.TermID) bool {
	return g.negated.Contains(t)
}

// Negated returns the explicitly excluded terms.
func (g *Graph) Negated() []domain.TermID {
	return g.Disease.Negated
}

// ClosestAnnotated returns, for an ancestor term a of some annotation, the
// annotated term below it with the highest frequency.
func (g *Graph) ClosestAnnotated(a domain.TermID) (Annotated, bool) {
	ann, ok := g.closest[a]
	return ann, ok
}

// Factory builds graphs lazily and memoizes them in an LRU cache keyed by
// disease id. Concurrent populations of the same key are idempotent;
// last-writer-wins is acceptable because the value is a pure function of
// its inputs.
type Factory struct {
	onto  *ontology.Ontology
	cache *lru.Cache[domain.DiseaseID, *Graph]
}

// NewFactory creates a factory whose cache holds up to size graphs.
func NewFactory(onto *ontology.Ontology, size int) (*Factory, error) {
	cache, err := lru.New[domain.DiseaseID, *Graph](size)
	if err != nil {
		return nil, fmt.Errorf("creating induced-graph cache: %w", err)
	}
	return &Factory{onto: onto, cache: cache}, nil
}

// Get returns the memoized graph for d, building it on first use.
func (f *Factory) Get(d *domain.Disease) *Graph {
	if g, ok := f.cache.Get(d.ID); ok {
		return g
	}
	g := New(f.onto, d)
	f.cache.Add(d.ID, g)
	return g
}
