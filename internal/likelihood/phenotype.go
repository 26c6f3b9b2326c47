// Package likelihood implements the per-term phenotype likelihood-ratio
// model and the pathogenic-variant-count genotype likelihood-ratio model.
package likelihood

import (
	"github.com/sirupsen/logrus"

	"github.com/justaddcoffee/LIRICAL/internal/background"
	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/idg"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
)

// PhenotypeLR computes likelihood ratios for observed and excluded query
// terms against a disease's induced graph. Pure; safe for concurrent use.
type PhenotypeLR struct {
	onto *ontology.Ontology
	bg   background.Source
	log  *logrus.Logger
}

// NewPhenotypeLR creates the phenotype likelihood-ratio engine.
func NewPhenotypeLR(onto *ontology.Ontology, bg background.Source, log *logrus.Logger) *PhenotypeLR {
	return &PhenotypeLR{onto: onto, bg: bg, log: log}
}

// LrForObservedTerm returns the likelihood ratio of observing query term q
// given the disease, with an explanation of the match. The cases are tested
// in order; the first that applies wins. The result is always strictly
// positive and finite.
func (e *PhenotypeLR) LrForObservedTerm(q domain.TermID, g *idg.Graph) domain.LrWithExplanation {
	// The disease explicitly rules out q or a generalization of it.
	for _, neg := range g.Negated() {
		if e.onto.IsSubclassOf(q, neg) {
			return domain.LrWithExplanation{
				Query:   q,
				Matched: neg,
				LR:      ExcludedInDiseaseButPresentInQueryProbability,
				Kind:    domain.QUERY_EXPLICITLY_EXCLUDED_IN_DISEASE,
			}
		}
	}

	// Exact direct annotation.
	if fr, ok := g.Disease.DirectFrequency(q); ok {
		return domain.LrWithExplanation{
			Query:   q,
			Matched: q,
			LR:      fr / e.bg.Frequency(q),
			Kind:    domain.EXACT_MATCH,
		}
	}

	// Query is broader than one or more annotated terms: credit the most
	// frequent annotation subsumed by q.
	if best, ok := e.bestSubsumedAnnotation(q, g); ok {
		return domain.LrWithExplanation{
			Query:   q,
			Matched: best.Term,
			LR:      best.Frequency / e.bg.Frequency(q),
			Kind:    domain.QUERY_IS_ANCESTOR_OF_DISEASE_TERM,
		}
	}

	// Query is narrower than one or more annotated terms.
	if score, matched, ok := e.descendantScore(q, g); ok {
		numerator := score
		if p := e.noCommonOrganProbability(q); p > numerator {
			numerator = p
		}
		return domain.LrWithExplanation{
			Query:   q,
			Matched: matched,
			LR:      numerator / e.bg.Frequency(q),
			Kind:    domain.QUERY_IS_DESCENDANT_OF_DISEASE_TERM,
		}
	}

	// Most specific non-root common ancestor of q and any annotated term.
	root := e.onto.Root()
	for _, anc := range e.onto.AncestorsOrdered(q) {
		if anc == root || anc == domain.PhenotypicAbnormality {
			continue
		}
		ann, ok := g.ClosestAnnotated(anc)
		if !ok {
			continue
		}
		lr := ann.Frequency / e.bg.Frequency(anc)
		if lr < DefaultFalsePositiveNoCommonOrganProbability {
			lr = DefaultFalsePositiveNoCommonOrganProbability
		}
		return domain.LrWithExplanation{
			Query:   q,
			Matched: anc,
			LR:      lr,
			Kind:    domain.NON_ROOT_COMMON_ANCESTOR,
		}
	}

	return domain.LrWithExplanation{
		Query: q,
		LR:    DefaultFalsePositiveNoCommonOrganProbability,
		Kind:  domain.NO_MATCH,
	}
}

// LrForExcludedTerm returns the likelihood ratio of the clinician having
// explicitly ruled out query term q given the disease.
func (e *PhenotypeLR) LrForExcludedTerm(q domain.TermID, g *idg.Graph) domain.LrWithExplanation {
	if g.IsNegated(q) {
		return domain.LrWithExplanation{
			Query:   q,
			Matched: q,
			LR:      ExcludedInDiseaseAndExcludedInQueryProbability,
			Kind:    domain.EXCLUDED_QUERY_MATCHES_EXCLUDED_IN_DISEASE,
		}
	}

	b := e.bg.Frequency(q)
	if b > 0.99 {
		// Should not occur in well-formed data; neutralize rather than
		// divide by a vanishing denominator.
		e.log.WithFields(logrus.Fields{
			"term":       q,
			"background": b,
		}).Warn("Implausible background frequency for excluded term")
		return domain.LrWithExplanation{
			Query: q,
			LR:    1.0,
			Kind:  domain.UNUSUAL_BACKGROUND,
		}
	}

	if !g.InPositiveClosure(q) {
		return domain.LrWithExplanation{
			Query: q,
			LR:    1.0 / (1.0 - b),
			Kind:  domain.EXCLUDED_QUERY_NOT_IN_DISEASE,
		}
	}

	// The disease does present q (directly or through a descendant
	// annotation); excluding it argues against the disease in proportion to
	// the feature's penetrance.
	best, _ := e.bestSubsumedAnnotation(q, g)
	excludedFrequency := 1.0 - best.Frequency
	if excludedFrequency < FalseNegativeObservationProbability {
		excludedFrequency = FalseNegativeObservationProbability
	}
	return domain.LrWithExplanation{
		Query:   q,
		Matched: best.Term,
		LR:      excludedFrequency / (1.0 - b),
		Kind:    domain.EXCLUDED_QUERY_IN_DISEASE,
	}
}

// bestSubsumedAnnotation finds the annotated term subsumed by q with the
// highest frequency, i.e. the best witness that q (or a specific form of q)
// is a feature of the disease.
func (e *PhenotypeLR) bestSubsumedAnnotation(q domain.TermID, g *idg.Graph) (idg.Annotated, bool) {
	var best idg.Annotated
	found := false
	for _, a := range g.Disease.Annotations {
		if !e.onto.IsSubclassOf(a.Term, q) {
			continue
		}
		if !found || a.Frequency > best.Frequency {
			best = idg.Annotated{Term: a.Term, Frequency: a.Frequency}
			found = true
		}
	}
	return best, found
}

// descendantScore handles queries narrower than an annotated term. The
// frequency mass of an annotation is split evenly across its direct
// children; queries deeper than the direct children score zero here and are
// caught by the no-common-organ floor in the caller.
func (e *PhenotypeLR) descendantScore(q domain.TermID, g *idg.Graph) (score float64, matched domain.TermID, ok bool) {
	for _, a := range g.Disease.Annotations {
		if !e.onto.IsSubclassOf(q, a.Term) {
			continue
		}
		s := e.proportionalFrequency(q, a.Term) * a.Frequency
		if !ok || s > score {
			score = s
			matched = a.Term
			ok = true
		}
	}
	return score, matched, ok
}

// proportionalFrequency is the fraction of d's frequency attributed to its
// descendant q.
func (e *PhenotypeLR) proportionalFrequency(q, d domain.TermID) float64 {
	if q == d {
		return 1.0
	}
	children := e.onto.Children(d)
	for _, c := range children {
		if c == q {
			return 1.0 / float64(len(children))
		}
	}
	return 0
}

// noCommonOrganProbability estimates the probability of a query feature that
// is related to, but more specific than, the disease annotations. Rarer
// features are penalized harder. The estimate is derived from the raw
// (unfloored) background frequency of the query term.
func (e *PhenotypeLR) noCommonOrganProbability(q domain.TermID) float64 {
	f, ok := e.bg.RawFrequency(q)
	if !ok {
		f = noCommonOrganDefault
	}
	penalty := noCommonOrganMin + (f-noCommonOrganDefault)*
		(noCommonOrganMax-noCommonOrganMin)/(noCommonOrganMax-noCommonOrganDefault)
	p := penalty * f
	if lo := noCommonOrganMin * noCommonOrganDefault; p < lo {
		return lo
	}
	if hi := noCommonOrganMax * noCommonOrganMaxReasonable; p > hi {
		return hi
	}
	return p
}
