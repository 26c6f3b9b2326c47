// Package ontology provides an immutable index over a phenotype ontology:
// term interning, alt-id resolution, and the ancestor/descendant queries the
// likelihood-ratio engines are built on.
package ontology

import (
	"fmt"

	"github.com/justaddcoffee/LIRICAL/internal/domain"
)

// TermRecord is one term as delivered by a collaborator loader. Obsolete
// records are skipped; their identifier is expected to appear as an AltID of
// the replacement term.
type TermRecord struct {
	ID       domain.TermID
	Name     string
	Obsolete bool
	AltIDs   []domain.TermID
}

// Edge is one is-a relation: Child is-a Parent.
type Edge struct {
	Child  domain.TermID
	Parent domain.TermID
}

type term struct {
	id   domain.TermID
	name string
}

// Ontology is a read-only index over the is-a DAG. Term identifiers are
// interned into dense integer indices at build time; all traversals run on
// the integer arena. Safe for concurrent readers.
type Ontology struct {
	index    map[domain.TermID]int // canonical and alt ids -> arena index
	terms    []term                // canonical, non-obsolete terms
	parents  [][]int
	children [][]int
	root     int
}

// Build constructs the index from term records and is-a edges. Edges that
// reference unknown terms and cycles in the edge relation are construction
// errors.
func Build(records []TermRecord, edges []Edge) (*Ontology, error) {
	o := &Ontology{
		index: make(map[domain.TermID]int),
	}
	for _, r := range records {
		if r.Obsolete {
			continue
		}
		if _, dup := o.index[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate term %s", domain.ErrConfiguration, r.ID)
		}
		idx := len(o.terms)
		o.terms = append(o.terms, term{id: r.ID, name: r.Name})
		o.index[r.ID] = idx
	}
	if len(o.terms) == 0 {
		return nil, fmt.Errorf("%w: ontology has no terms", domain.ErrConfiguration)
	}
	// Alt ids resolve to the canonical index but never shadow a canonical id.
	for _, r := range records {
		if r.Obsolete {
			continue
		}
		idx := o.index[r.ID]
		for _, alt := range r.AltIDs {
			if _, taken := o.index[alt]; !taken {
				o.index[alt] = idx
			}
		}
	}

	o.parents = make([][]int, len(o.terms))
	o.children = make([][]int, len(o.terms))
	for _, e := range edges {
		ci, ok := o.index[e.Child]
		if !ok {
			return nil, fmt.Errorf("%w: edge references unknown term %s", domain.ErrConfiguration, e.Child)
		}
		pi, ok := o.index[e.Parent]
		if !ok {
			return nil, fmt.Errorf("%w: edge references unknown term %s", domain.ErrConfiguration, e.Parent)
		}
		if ci == pi {
			return nil, fmt.Errorf("%w: self edge on %s", domain.ErrConfiguration, e.Child)
		}
		o.parents[ci] = append(o.parents[ci], pi)
		o.children[pi] = append(o.children[pi], ci)
	}

	root, err := o.findRoot()
	if err != nil {
		return nil, err
	}
	o.root = root
	if err := o.checkAcyclic(); err != nil {
		return nil, err
	}
	return o, nil
}

// findRoot locates the unique term with no parents.
func (o *Ontology) findRoot() (int, error) {
	root := -1
	for i := range o.terms {
		if len(o.parents[i]) != 0 {
			continue
		}
		if root >= 0 {
			return -1, fmt.Errorf("%w: multiple roots: %s and %s",
				domain.ErrConfiguration, o.terms[root].id, o.terms[i].id)
		}
		root = i
	}
	if root < 0 {
		return -1, fmt.Errorf("%w: ontology has no root", domain.ErrConfiguration)
	}
	return root, nil
}

// checkAcyclic verifies the is-a relation by Kahn's algorithm.
func (o *Ontology) checkAcyclic() error {
	indeg := make([]int, len(o.terms))
	for ci := range o.parents {
		indeg[ci] = len(o.parents[ci])
	}
	queue := make([]int, 0, len(o.terms))
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	visited := 0
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visited++
		for _, c := range o.children[n] {
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if visited != len(o.terms) {
		return fmt.Errorf("%w: is-a relation contains a cycle", domain.ErrConfiguration)
	}
	return nil
}

// Len returns the number of canonical, non-obsolete terms.
func (o *Ontology) Len() int {
	return len(o.terms)
}

// Contains reports whether t (canonical or alt id) is known.
func (o *Ontology) Contains(t domain.TermID) bool {
	_, ok := o.index[t]
	return ok
}

// PrimaryID resolves t, which may be an alt id of an obsolete predecessor,
// to its canonical identifier.
func (o *Ontology) PrimaryID(t domain.TermID) (domain.TermID, bool) {
	idx, ok := o.index[t]
	if !ok {
		return "", false
	}
	return o.terms[idx].id, true
}

// Label returns the human-readable name of t.
func (o *Ontology) Label(t domain.TermID) (string, bool) {
	idx, ok := o.index[t]
	if !ok {
		return "", false
	}
	return o.terms[idx].name, true
}

// Root returns the identifier of the single parentless term.
func (o *Ontology) Root() domain.TermID {
	return o.terms[o.root].id
}

// Parents returns the direct parents of t.
func (o *Ontology) Parents(t domain.TermID) []domain.TermID {
	idx, ok := o.index[t]
	if !ok {
		return nil
	}
	return o.idsOf(o.parents[idx])
}

// Children returns the direct children of t.
func (o *Ontology) Children(t domain.TermID) []domain.TermID {
	idx, ok := o.index[t]
	if !ok {
		return nil
	}
	return o.idsOf(o.children[idx])
}

// Ancestors returns the transitive is-a closure of t, including t itself
// when includeSelf is true. The closure always reaches the root. Unknown
// terms yield an empty set.
func (o *Ontology) Ancestors(t domain.TermID, includeSelf bool) domain.TermSet {
	idx, ok := o.index[t]
	if !ok {
		return domain.TermSet{}
	}
	set := make(domain.TermSet)
	if includeSelf {
		set.Add(o.terms[idx].id)
	}
	for _, a := range o.ancestorOrder(idx) {
		set.Add(o.terms[a].id)
	}
	return set
}

// AncestorsOrdered returns the proper ancestors of t in breadth-first order,
// closest (most specific) first. Used to resolve the most specific common
// ancestor in partial-match queries.
func (o *Ontology) AncestorsOrdered(t domain.TermID) []domain.TermID {
	idx, ok := o.index[t]
	if !ok {
		return nil
	}
	return o.idsOf(o.ancestorOrder(idx))
}

// ancestorOrder walks upward from idx in breadth-first order, excluding idx.
func (o *Ontology) ancestorOrder(idx int) []int {
	var order []int
	seen := map[int]struct{}{idx: {}}
	frontier := o.parents[idx]
	for len(frontier) > 0 {
		var next []int
		for _, p := range frontier {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			order = append(order, p)
			next = append(next, o.parents[p]...)
		}
		frontier = next
	}
	return order
}

// Descendants returns the transitive closure of children of t, including t
// itself when includeSelf is true.
func (o *Ontology) Descendants(t domain.TermID, includeSelf bool) domain.TermSet {
	idx, ok := o.index[t]
	if !ok {
		return domain.TermSet{}
	}
	set := make(domain.TermSet)
	if includeSelf {
		set.Add(o.terms[idx].id)
	}
	seen := map[int]struct{}{idx: {}}
	frontier := o.children[idx]
	for len(frontier) > 0 {
		var next []int
		for _, c := range frontier {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			set.Add(o.terms[c].id)
			next = append(next, o.children[c]...)
		}
		frontier = next
	}
	return set
}

// IsSubclassOf reports whether a is subsumed by b, i.e. b is in the
// reflexive-transitive ancestor closure of a.
func (o *Ontology) IsSubclassOf(a, b domain.TermID) bool {
	ai, ok := o.index[a]
	if !ok {
		return false
	}
	bi, ok := o.index[b]
	if !ok {
		return false
	}
	if ai == bi {
		return true
	}
	for _, anc := range o.ancestorOrder(ai) {
		if anc == bi {
			return true
		}
	}
	return false
}

// AllAncestorsOfSet returns the union of the ancestor closures of the given
// terms.
func (o *Ontology) AllAncestorsOfSet(terms []domain.TermID, includeSelf bool) domain.TermSet {
	set := make(domain.TermSet)
	for _, t := range terms {
		set.Union(o.Ancestors(t, includeSelf))
	}
	return set
}

// Terms returns all canonical term identifiers in arena order.
func (o *Ontology) Terms() []domain.TermID {
	out := make([]domain.TermID, len(o.terms))
	for i, t := range o.terms {
		out[i] = t.id
	}
	return out
}

func (o *Ontology) idsOf(idxs []int) []domain.TermID {
	if len(idxs) == 0 {
		return nil
	}
	out := make([]domain.TermID, len(idxs))
	for i, idx := range idxs {
		out[i] = o.terms[idx].id
	}
	return out
}
