// Package service exposes the diagnosis workflow: it owns the shared
// read-only resources (ontology, disease store, background table, graph
// cache, engines) and runs one single-shot evaluator per analysis request.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/justaddcoffee/LIRICAL/internal/analysis"
	"github.com/justaddcoffee/LIRICAL/internal/background"
	"github.com/justaddcoffee/LIRICAL/internal/config"
	"github.com/justaddcoffee/LIRICAL/internal/disease"
	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/idg"
	"github.com/justaddcoffee/LIRICAL/internal/likelihood"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
	"github.com/justaddcoffee/LIRICAL/internal/repository"
)

// AnalysisService runs differential-diagnosis analyses.
type AnalysisService struct {
	log          *logrus.Logger
	onto         *ontology.Ontology
	diseases     *disease.Store
	bg           *background.FrequencyTable
	graphs       *idg.Factory
	phenotype    *likelihood.PhenotypeLR
	genotype     *likelihood.GenotypeLR
	diseaseGenes map[domain.DiseaseID][]string
	workers      int
	defaultTopK  int
}

// NewAnalysisService loads every resource from the repository and builds the
// shared engines. All loading happens here, before the first analysis; the
// engines never perform I/O.
func NewAnalysisService(ctx context.Context, repo *repository.ResourceRepository, cfg *config.Config, log *logrus.Logger) (*AnalysisService, error) {
	onto, err := repo.LoadOntology(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading ontology: %w", err)
	}
	store, err := repo.LoadDiseases(ctx, onto, disease.Options{
		IncludeOrphanet: cfg.Resources.IncludeOrphanet,
	})
	if err != nil {
		return nil, fmt.Errorf("loading diseases: %w", err)
	}
	rates, err := repo.LoadGeneBackgroundRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading gene background rates: %w", err)
	}
	diseaseGenes, err := repo.LoadDiseaseGenes(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading disease-gene map: %w", err)
	}

	bg := background.Build(onto, store)
	graphs, err := idg.NewFactory(onto, cfg.Analysis.GraphCache)
	if err != nil {
		return nil, err
	}

	svc := &AnalysisService{
		log:          log,
		onto:         onto,
		diseases:     store,
		bg:           bg,
		graphs:       graphs,
		phenotype:    likelihood.NewPhenotypeLR(onto, bg, log),
		genotype:     likelihood.NewGenotypeLR(rates, log),
		diseaseGenes: diseaseGenes,
		workers:      cfg.Analysis.Workers,
		defaultTopK:  cfg.Analysis.DefaultTopK,
	}
	log.WithFields(logrus.Fields{
		"terms":    onto.Len(),
		"diseases": store.Len(),
		"genes":    len(rates),
	}).Info("Analysis service ready")
	return svc, nil
}

// AnalyzeCaseParams is one analysis request.
type AnalyzeCaseParams struct {
	ObservedTerms []string        `json:"observed_terms"`
	ExcludedTerms []string        `json:"excluded_terms,omitempty"`
	Genotypes     []GenotypeInput `json:"genotypes,omitempty"`
	TopK          int             `json:"top_k,omitempty"`
}

// GenotypeInput summarizes the observed variants in one gene.
type GenotypeInput struct {
	Gene                   string   `json:"gene" binding:"required"`
	ClinVarPathogenicCount int      `json:"clinvar_pathogenic_count"`
	PathogenicityScore     float64  `json:"pathogenicity_score"`
	Variants               []string `json:"variants,omitempty"`
}

// RankedDisease is one row of the ranked differential.
type RankedDisease struct {
	Rank                int                        `json:"rank"`
	DiseaseID           string                     `json:"disease_id"`
	DiseaseName         string                     `json:"disease_name"`
	PosttestProbability float64                    `json:"posttest_probability"`
	CompositeLR         float64                    `json:"composite_lr"`
	GenotypeLR          *float64                   `json:"genotype_lr,omitempty"`
	GenotypeGene        string                     `json:"genotype_gene,omitempty"`
	Observed            []domain.LrWithExplanation `json:"observed"`
	Excluded            []domain.LrWithExplanation `json:"excluded,omitempty"`
	Explanations        []string                   `json:"explanations"`
}

// AnalyzeCaseResult is the ranked outcome of one analysis.
type AnalyzeCaseResult struct {
	AnalysisID     string          `json:"analysis_id"`
	Ranking        []RankedDisease `json:"ranking"`
	DiseaseCount   int             `json:"disease_count"`
	DroppedTerms   []string        `json:"dropped_terms,omitempty"`
	ProcessingTime time.Duration   `json:"processing_time"`
}

// AnalyzeCase evaluates one patient case against the full disease corpus and
// returns the top-ranked differential with per-term explanations.
func (s *AnalysisService) AnalyzeCase(ctx context.Context, params *AnalyzeCaseParams) (*AnalyzeCaseResult, error) {
	startTime := time.Now()
	analysisID := uuid.New().String()

	if len(params.ObservedTerms) == 0 && len(params.ExcludedTerms) == 0 {
		return nil, fmt.Errorf("at least one observed or excluded term is required")
	}

	s.log.WithFields(logrus.Fields{
		"analysis_id": analysisID,
		"observed":    len(params.ObservedTerms),
		"excluded":    len(params.ExcludedTerms),
		"genotypes":   len(params.Genotypes),
	}).Info("Starting analysis")

	hpoCase := domain.Case{
		Observed: toTermIDs(params.ObservedTerms),
		Excluded: toTermIDs(params.ExcludedTerms),
	}

	evalParams := analysis.Params{
		Ontology:  s.onto,
		Diseases:  s.diseases,
		Phenotype: s.phenotype,
		Graphs:    s.graphs,
		Logger:    s.log,
		Workers:   s.workers,
	}
	if len(params.Genotypes) > 0 {
		genotypes := make(map[string]domain.GenotypeSummary, len(params.Genotypes))
		for _, g := range params.Genotypes {
			genotypes[g.Gene] = domain.GenotypeSummary{
				GeneID:                 g.Gene,
				ClinVarPathogenicCount: g.ClinVarPathogenicCount,
				PathogenicityScore:     g.PathogenicityScore,
				Variants:               g.Variants,
			}
		}
		evalParams.Genotype = s.genotype
		evalParams.Genotypes = genotypes
		evalParams.DiseaseGenes = s.diseaseGenes
	}

	evaluator, err := analysis.NewEvaluator(evalParams)
	if err != nil {
		return nil, fmt.Errorf("building evaluator: %w", err)
	}
	results, err := evaluator.Evaluate(ctx, hpoCase)
	if err != nil {
		return nil, fmt.Errorf("evaluating case: %w", err)
	}

	topK := params.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}
	result := &AnalyzeCaseResult{
		AnalysisID:   analysisID,
		DiseaseCount: results.Len(),
	}
	for _, tr := range results.TopK(topK) {
		rank, _ := results.Rank(tr.DiseaseID)
		result.Ranking = append(result.Ranking, toRankedDisease(rank, tr))
	}
	for _, te := range results.TermErrors() {
		result.DroppedTerms = append(result.DroppedTerms, te.Term.String())
	}
	result.ProcessingTime = time.Since(startTime)

	s.log.WithFields(logrus.Fields{
		"analysis_id":     analysisID,
		"diseases":        result.DiseaseCount,
		"dropped_terms":   len(result.DroppedTerms),
		"processing_time": result.ProcessingTime,
	}).Info("Analysis completed")

	return result, nil
}

// GetDisease returns one disease record as stored. Annotation terms are
// reported as identifiers; their labels are not resolved.
func (s *AnalysisService) GetDisease(id string) (*domain.Disease, error) {
	d, ok := s.diseases.Get(domain.DiseaseID(id))
	if !ok {
		return nil, fmt.Errorf("disease %s: %w", id, domain.ErrNotFound)
	}
	return d, nil
}

// DiseaseCount returns the size of the loaded corpus.
func (s *AnalysisService) DiseaseCount() int {
	return s.diseases.Len()
}

func toTermIDs(terms []string) []domain.TermID {
	if len(terms) == 0 {
		return nil
	}
	out := make([]domain.TermID, len(terms))
	for i, t := range terms {
		out[i] = domain.TermID(t)
	}
	return out
}

func toRankedDisease(rank int, tr domain.TestResult) RankedDisease {
	rd := RankedDisease{
		Rank:                rank,
		DiseaseID:           tr.DiseaseID.String(),
		DiseaseName:         tr.DiseaseName,
		PosttestProbability: tr.PosttestProbability,
		CompositeLR:         tr.CompositeLR,
		GenotypeLR:          tr.GenotypeLR,
		GenotypeGene:        tr.GenotypeGene,
		Observed:            tr.ObservedResults,
		Excluded:            tr.ExcludedResults,
	}
	for _, lr := range tr.ObservedResults {
		rd.Explanations = append(rd.Explanations, lr.Summary())
	}
	for _, lr := range tr.ExcludedResults {
		rd.Explanations = append(rd.Explanations, lr.Summary())
	}
	return rd
}
