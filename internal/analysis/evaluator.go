// Package analysis fuses per-term phenotype likelihood ratios and the
// optional genotype likelihood ratio over every disease in the corpus,
// converts pretest to posttest probability, and ranks.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/justaddcoffee/LIRICAL/internal/disease"
	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/idg"
	"github.com/justaddcoffee/LIRICAL/internal/likelihood"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
)

// Params wires an evaluator. Ontology, Diseases, Phenotype, Graphs and
// Logger are required. Genotype scoring is enabled when Genotype,
// DiseaseGenes and Genotypes are all provided.
type Params struct {
	Ontology  *ontology.Ontology
	Diseases  *disease.Store
	Phenotype *likelihood.PhenotypeLR
	Graphs    *idg.Factory
	Logger    *logrus.Logger

	Genotype     *likelihood.GenotypeLR
	DiseaseGenes map[domain.DiseaseID][]string
	Genotypes    map[string]domain.GenotypeSummary

	// Pretest overrides the uniform 1/N prior per disease id.
	Pretest map[domain.DiseaseID]float64

	// Workers bounds the parallelism of the per-disease loop; values below
	// 2 evaluate serially.
	Workers int
}

// Evaluator runs one case against the disease corpus. Single-shot: after a
// successful Evaluate the instance is terminal and a fresh one must be
// built.
type Evaluator struct {
	p         Params
	evaluated bool
	mu        sync.Mutex
}

// NewEvaluator validates the wiring and returns an unevaluated instance.
func NewEvaluator(p Params) (*Evaluator, error) {
	if p.Ontology == nil || p.Diseases == nil || p.Phenotype == nil || p.Graphs == nil || p.Logger == nil {
		return nil, fmt.Errorf("%w: evaluator requires ontology, disease store, phenotype engine, graph factory and logger", domain.ErrConfiguration)
	}
	return &Evaluator{p: p}, nil
}

// Evaluate computes a TestResult for every disease and returns the ranked
// results. Unknown query terms are dropped and recorded on the results;
// they never abort the case. Cancellation is checked between diseases and
// discards all partial work.
func (e *Evaluator) Evaluate(ctx context.Context, c domain.Case) (*Results, error) {
	e.mu.Lock()
	if e.evaluated {
		e.mu.Unlock()
		return nil, domain.ErrAlreadyEvaluated
	}
	e.evaluated = true
	e.mu.Unlock()

	observed, excluded, termErrors := e.resolveTerms(c)
	diseases := e.p.Diseases.All()

	e.p.Logger.WithFields(logrus.Fields{
		"observed": len(observed),
		"excluded": len(excluded),
		"diseases": len(diseases),
		"genotype": e.genotypeEnabled(),
	}).Info("Starting case evaluation")

	results := make([]domain.TestResult, len(diseases))
	if e.p.Workers > 1 {
		if err := e.evaluateParallel(ctx, diseases, observed, excluded, results); err != nil {
			return nil, err
		}
	} else {
		for i, d := range diseases {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = e.evaluateDisease(d, observed, excluded)
		}
	}

	// Stable sort with a secondary key on disease id keeps the order
	// platform-independent.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CompositeLR != results[j].CompositeLR {
			return results[i].CompositeLR > results[j].CompositeLR
		}
		return results[i].DiseaseID < results[j].DiseaseID
	})

	e.p.Logger.WithFields(logrus.Fields{
		"diseases":      len(results),
		"dropped_terms": len(termErrors),
	}).Info("Case evaluation completed")

	return newResults(results, termErrors), nil
}

func (e *Evaluator) evaluateParallel(ctx context.Context, diseases []*domain.Disease, observed, excluded []domain.TermID, results []domain.TestResult) error {
	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.p.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = e.evaluateDisease(diseases[i], observed, excluded)
			}
		}()
	}
	var cancelled error
feed:
	for i := range diseases {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()
	return cancelled
}

// evaluateDisease computes the composite likelihood ratio for one disease.
// The product is taken left to right over the observed then the excluded
// terms, then the genotype ratio, to keep the floating-point result
// deterministic.
func (e *Evaluator) evaluateDisease(d *domain.Disease, observed, excluded []domain.TermID) domain.TestResult {
	g := e.p.Graphs.Get(d)

	r := domain.TestResult{
		DiseaseID:          d.ID,
		DiseaseName:        d.Name,
		PretestProbability: e.pretest(d.ID),
	}

	lrs := make([]float64, 0, len(observed)+len(excluded))
	for _, q := range observed {
		lr := e.p.Phenotype.LrForObservedTerm(q, g)
		r.ObservedResults = append(r.ObservedResults, lr)
		lrs = append(lrs, lr.LR)
	}
	for _, q := range excluded {
		lr := e.p.Phenotype.LrForExcludedTerm(q, g)
		r.ExcludedResults = append(r.ExcludedResults, lr)
		lrs = append(lrs, lr.LR)
	}
	composite := floats.Prod(lrs)

	if e.genotypeEnabled() {
		if genes := e.p.DiseaseGenes[d.ID]; len(genes) > 0 {
			best, gene := e.bestGenotypeLR(genes, d.InheritanceModes)
			r.GenotypeLR = &best
			r.GenotypeGene = gene
			composite *= best
		}
	}

	r.CompositeLR = composite
	pretestOdds := r.PretestProbability / (1.0 - r.PretestProbability)
	posttestOdds := pretestOdds * composite
	r.PosttestProbability = posttestOdds / (1.0 + posttestOdds)
	return r
}

// bestGenotypeLR scores every gene associated with the disease and keeps the
// maximum. Genes without observed variants are scored on an empty summary;
// the engine's heuristics decide what absence of evidence is worth.
func (e *Evaluator) bestGenotypeLR(genes []string, modes []domain.TermID) (float64, string) {
	best := 0.0
	bestGene := ""
	for _, gene := range genes {
		summary, ok := e.p.Genotypes[gene]
		if !ok {
			summary = domain.GenotypeSummary{GeneID: gene}
		}
		lr := e.p.Genotype.LrForGenotype(summary, modes)
		if lr > best {
			best = lr
			bestGene = gene
		}
	}
	return best, bestGene
}

func (e *Evaluator) genotypeEnabled() bool {
	return e.p.Genotype != nil && e.p.Genotypes != nil && e.p.DiseaseGenes != nil
}

func (e *Evaluator) pretest(id domain.DiseaseID) float64 {
	if p, ok := e.p.Pretest[id]; ok && p > 0 && p < 1 {
		return p
	}
	return 1.0 / float64(e.p.Diseases.Len())
}

// resolveTerms maps query terms to primary identifiers and collects the
// unknown ones as structured errors.
func (e *Evaluator) resolveTerms(c domain.Case) (observed, excluded []domain.TermID, termErrors []domain.TermError) {
	resolve := func(terms []domain.TermID) []domain.TermID {
		out := make([]domain.TermID, 0, len(terms))
		for _, t := range terms {
			primary, ok := e.p.Ontology.PrimaryID(t)
			if !ok {
				termErrors = append(termErrors, domain.TermError{Term: t, Err: domain.ErrUnknownTerm})
				e.p.Logger.WithField("term", t).Warn("Dropping query term not found in ontology")
				continue
			}
			out = append(out, primary)
		}
		return out
	}
	return resolve(c.Observed), resolve(c.Excluded), termErrors
}
