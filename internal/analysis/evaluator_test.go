package analysis_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justaddcoffee/LIRICAL/internal/analysis"
	"github.com/justaddcoffee/LIRICAL/internal/background"
	"github.com/justaddcoffee/LIRICAL/internal/disease"
	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/hpotest"
	"github.com/justaddcoffee/LIRICAL/internal/idg"
	"github.com/justaddcoffee/LIRICAL/internal/likelihood"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
)

// newParams wires an evaluator over the given corpus with production
// components.
func newParams(t *testing.T, onto *ontology.Ontology, store *disease.Store) analysis.Params {
	t.Helper()
	log := hpotest.Logger()
	table := background.Build(onto, store)
	graphs, err := idg.NewFactory(onto, 256)
	require.NoError(t, err)
	return analysis.Params{
		Ontology:  onto,
		Diseases:  store,
		Phenotype: likelihood.NewPhenotypeLR(onto, table, log),
		Graphs:    graphs,
		Logger:    log,
	}
}

func evaluate(t *testing.T, p analysis.Params, c domain.Case) *analysis.Results {
	t.Helper()
	evaluator, err := analysis.NewEvaluator(p)
	require.NoError(t, err)
	results, err := evaluator.Evaluate(context.Background(), c)
	require.NoError(t, err)
	return results
}

// TestTwoExactMatchesRankFirst reproduces the reference scenario: in a
// corpus of 196 diseases, a disease fully matching both query terms scores
// (196/2) * (196/1) and ranks first.
func TestTwoExactMatchesRankFirst(t *testing.T) {
	onto := hpotest.NewOntology(t)

	records := []disease.Record{
		{
			ID:   "OMIM:103100",
			Name: "target",
			Annotations: []domain.Annotation{
				{Term: hpotest.Hyporeflexia, Frequency: 1.0},
				{Term: hpotest.NeuronMorph, Frequency: 1.0},
			},
		},
		{
			ID:   "OMIM:900001",
			Name: "near miss",
			Annotations: []domain.Annotation{
				{Term: hpotest.Hyporeflexia, Frequency: 1.0},
			},
		},
	}
	for i := 0; i < 194; i++ {
		records = append(records, disease.Record{
			ID:   domain.DiseaseID(fmt.Sprintf("OMIM:7%05d", i)),
			Name: fmt.Sprintf("filler %d", i),
			Annotations: []domain.Annotation{
				{Term: hpotest.JointMorph, Frequency: 1.0},
			},
		})
	}
	store, err := disease.NewStore(records, onto, disease.Options{}, hpotest.Logger())
	require.NoError(t, err)
	require.Equal(t, 196, store.Len())

	results := evaluate(t, newParams(t, onto, store), domain.Case{
		Observed: []domain.TermID{hpotest.Hyporeflexia, hpotest.NeuronMorph},
	})

	target, ok := results.Get("OMIM:103100")
	require.True(t, ok)
	assert.InDelta(t, 19208.0, target.CompositeLR, 1e-6)

	rank, ok := results.Rank("OMIM:103100")
	require.True(t, ok)
	assert.Equal(t, 1, rank)

	require.Len(t, target.ObservedResults, 2)
	assert.Equal(t, domain.EXACT_MATCH, target.ObservedResults[0].Kind)
	assert.Equal(t, domain.EXACT_MATCH, target.ObservedResults[1].Kind)

	// The single-term disease trails the full match.
	nearRank, _ := results.Rank("OMIM:900001")
	assert.Equal(t, 2, nearRank)
}

func TestEmptyCaseLeavesPretestUntouched(t *testing.T) {
	onto := hpotest.NewOntology(t)
	store := hpotest.NewStore(t, onto)

	results := evaluate(t, newParams(t, onto, store), domain.Case{})

	for _, r := range results.Ranked() {
		assert.Equal(t, 1.0, r.CompositeLR)
		assert.InDelta(t, r.PretestProbability, r.PosttestProbability, 1e-12)
		assert.InDelta(t, 1.0/float64(store.Len()), r.PretestProbability, 1e-12)
	}
}

func TestUnknownTermsDroppedNotFatal(t *testing.T) {
	onto := hpotest.NewOntology(t)
	store := hpotest.NewStore(t, onto)

	results := evaluate(t, newParams(t, onto, store), domain.Case{
		Observed: []domain.TermID{hpotest.Hyporeflexia, "HP:9999999"},
	})

	require.Len(t, results.TermErrors(), 1)
	termErr := results.TermErrors()[0]
	assert.Equal(t, domain.TermID("HP:9999999"), termErr.Term)
	assert.ErrorIs(t, &termErr, domain.ErrUnknownTerm)

	// Only the known term contributed.
	top := results.Ranked()[0]
	assert.Len(t, top.ObservedResults, 1)
}

func TestAltIdsResolveBeforeScoring(t *testing.T) {
	onto := hpotest.NewOntology(t)
	store := hpotest.NewStore(t, onto)

	results := evaluate(t, newParams(t, onto, store), domain.Case{
		Observed: []domain.TermID{hpotest.SeizureAlt},
	})

	r, ok := results.Get("OMIM:100001") // annotates Seizure directly
	require.True(t, ok)
	require.Len(t, r.ObservedResults, 1)
	assert.Equal(t, domain.EXACT_MATCH, r.ObservedResults[0].Kind)
	assert.Equal(t, hpotest.Seizure, r.ObservedResults[0].Query)
}

func TestTiesShareWorstRank(t *testing.T) {
	onto := hpotest.NewOntology(t)
	records := []disease.Record{
		{ID: "OMIM:200001", Name: "exact", Annotations: []domain.Annotation{{Term: hpotest.Generalized, Frequency: 1.0}}},
		{ID: "OMIM:200002", Name: "twin a", Annotations: []domain.Annotation{{Term: hpotest.Seizure, Frequency: 0.5}}},
		{ID: "OMIM:200003", Name: "twin b", Annotations: []domain.Annotation{{Term: hpotest.Seizure, Frequency: 0.5}}},
	}
	store, err := disease.NewStore(records, onto, disease.Options{}, hpotest.Logger())
	require.NoError(t, err)

	results := evaluate(t, newParams(t, onto, store), domain.Case{
		Observed: []domain.TermID{hpotest.Generalized},
	})

	rank, _ := results.Rank("OMIM:200001")
	assert.Equal(t, 1, rank)

	rankA, _ := results.Rank("OMIM:200002")
	rankB, _ := results.Rank("OMIM:200003")
	assert.Equal(t, 3, rankA, "tied diseases share the worst rank of the group")
	assert.Equal(t, 3, rankB)

	// Deterministic order inside the tie: ascending disease id.
	ranked := results.Ranked()
	assert.Equal(t, domain.DiseaseID("OMIM:200002"), ranked[1].DiseaseID)
	assert.Equal(t, domain.DiseaseID("OMIM:200003"), ranked[2].DiseaseID)
}

func TestParallelMatchesSerial(t *testing.T) {
	onto := hpotest.NewOntology(t)
	store := hpotest.NewStore(t, onto)
	c := domain.Case{
		Observed: []domain.TermID{hpotest.Generalized, hpotest.Finger},
		Excluded: []domain.TermID{hpotest.JointMorph},
	}

	serial := evaluate(t, newParams(t, onto, store), c)

	parallelParams := newParams(t, onto, store)
	parallelParams.Workers = 4
	parallel := evaluate(t, parallelParams, c)

	require.Equal(t, serial.Len(), parallel.Len())
	assert.Equal(t, serial.Ranked(), parallel.Ranked())
}

func TestGenotypeContribution(t *testing.T) {
	onto := hpotest.NewOntology(t)
	store := hpotest.NewStore(t, onto)
	log := hpotest.Logger()

	withGenotype := newParams(t, onto, store)
	withGenotype.Genotype = likelihood.NewGenotypeLR(map[string]float64{"NCBIGene:100": 8.74}, log)
	withGenotype.DiseaseGenes = map[domain.DiseaseID][]string{"OMIM:100001": {"NCBIGene:100"}}
	withGenotype.Genotypes = map[string]domain.GenotypeSummary{
		"NCBIGene:100": {GeneID: "NCBIGene:100", ClinVarPathogenicCount: 1},
	}
	c := domain.Case{Observed: []domain.TermID{hpotest.Seizure}}

	genotyped := evaluate(t, withGenotype, c)
	plain := evaluate(t, newParams(t, onto, store), c)

	withGeno, _ := genotyped.Get("OMIM:100001")
	without, _ := plain.Get("OMIM:100001")

	require.NotNil(t, withGeno.GenotypeLR)
	assert.Equal(t, 1000.0, *withGeno.GenotypeLR)
	assert.Equal(t, "NCBIGene:100", withGeno.GenotypeGene)
	assert.InDelta(t, without.CompositeLR*1000.0, withGeno.CompositeLR, 1e-6)

	// Diseases without associated genes carry no genotype ratio.
	noGene, _ := genotyped.Get("OMIM:100003")
	assert.Nil(t, noGene.GenotypeLR)
}

func TestPosttestMonotoneInPretest(t *testing.T) {
	onto := hpotest.NewOntology(t)
	store := hpotest.NewStore(t, onto)
	c := domain.Case{Observed: []domain.TermID{hpotest.Seizure}}

	uniform := evaluate(t, newParams(t, onto, store), c)

	boosted := newParams(t, onto, store)
	boosted.Pretest = map[domain.DiseaseID]float64{"OMIM:100001": 0.5}
	raised := evaluate(t, boosted, c)

	lo, _ := uniform.Get("OMIM:100001")
	hi, _ := raised.Get("OMIM:100001")
	assert.Equal(t, lo.CompositeLR, hi.CompositeLR)
	assert.Greater(t, hi.PosttestProbability, lo.PosttestProbability)
}

func TestEvaluatorIsSingleShot(t *testing.T) {
	onto := hpotest.NewOntology(t)
	store := hpotest.NewStore(t, onto)

	evaluator, err := analysis.NewEvaluator(newParams(t, onto, store))
	require.NoError(t, err)

	_, err = evaluator.Evaluate(context.Background(), domain.Case{})
	require.NoError(t, err)

	_, err = evaluator.Evaluate(context.Background(), domain.Case{})
	assert.ErrorIs(t, err, domain.ErrAlreadyEvaluated)
}

func TestCancellationDiscardsPartialResults(t *testing.T) {
	onto := hpotest.NewOntology(t)
	store := hpotest.NewStore(t, onto)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	evaluator, err := analysis.NewEvaluator(newParams(t, onto, store))
	require.NoError(t, err)
	results, err := evaluator.Evaluate(ctx, domain.Case{Observed: []domain.TermID{hpotest.Seizure}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestNewEvaluatorValidatesWiring(t *testing.T) {
	_, err := analysis.NewEvaluator(analysis.Params{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestTopK(t *testing.T) {
	onto := hpotest.NewOntology(t)
	store := hpotest.NewStore(t, onto)

	results := evaluate(t, newParams(t, onto, store), domain.Case{
		Observed: []domain.TermID{hpotest.Seizure},
	})

	assert.Len(t, results.TopK(2), 2)
	assert.Len(t, results.TopK(100), store.Len())
	assert.Empty(t, results.TopK(0))

	_, ok := results.Get("OMIM:999999")
	assert.False(t, ok)
	_, ok = results.Rank("OMIM:999999")
	assert.False(t, ok)
}
