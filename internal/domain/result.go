package domain

// TestResult is the outcome of evaluating one disease against a patient
// case. It is immutable after evaluation. Per-term explanations appear in
// the same order as the input term sequences.
type TestResult struct {
	DiseaseID           DiseaseID           `json:"disease_id"`
	DiseaseName         string              `json:"disease_name"`
	PretestProbability  float64             `json:"pretest_probability"`
	ObservedResults     []LrWithExplanation `json:"observed_results"`
	ExcludedResults     []LrWithExplanation `json:"excluded_results,omitempty"`
	GenotypeLR          *float64            `json:"genotype_lr,omitempty"`
	GenotypeGene        string              `json:"genotype_gene,omitempty"`
	CompositeLR         float64             `json:"composite_lr"`
	PosttestProbability float64             `json:"posttest_probability"`
}

// HasGenotype reports whether a genotype likelihood ratio contributed to the
// composite.
func (r *TestResult) HasGenotype() bool {
	return r.GenotypeLR != nil
}
