package likelihood

// Fixed model parameters. None of these are learned; they reproduce the
// published behavior of the likelihood-ratio model.
const (
	// DefaultFalsePositiveNoCommonOrganProbability is the probability of a
	// spurious query term with no relation to the disease.
	DefaultFalsePositiveNoCommonOrganProbability = 0.01

	// ExcludedInDiseaseButPresentInQueryProbability penalizes observing a
	// feature the disease explicitly rules out.
	ExcludedInDiseaseButPresentInQueryProbability = 1.0 / 1000.0

	// ExcludedInDiseaseAndExcludedInQueryProbability rewards ruling out a
	// feature the disease also rules out.
	ExcludedInDiseaseAndExcludedInQueryProbability = 1000.0

	// FalseNegativeObservationProbability bounds the excluded-term frequency
	// from below: even a fully penetrant feature is missed occasionally.
	FalseNegativeObservationProbability = 0.01

	// ClinVarPathogenicLR is the per-variant likelihood ratio awarded for a
	// ClinVar-pathogenic allele; it short-circuits the Poisson model.
	ClinVarPathogenicLR = 1000.0

	// HeuristicLowPathLRDominant and HeuristicLowPathLRRecessive replace the
	// Poisson ratio when no pathogenic evidence was observed in a gene with
	// a high background rate of predicted-pathogenic variants. Absence of
	// evidence in such genes must not be rewarded.
	HeuristicLowPathLRDominant  = 0.05
	HeuristicLowPathLRRecessive = 0.05 * 0.05

	// LrClampEpsilon bounds every genotype likelihood ratio away from zero.
	LrClampEpsilon = 1e-10
)

// Parameters of the no-common-organ penalty, the floor on the numerator when
// a query term is a descendant of an annotated term.
const (
	noCommonOrganMin        = 0.002
	noCommonOrganMax        = 0.10
	noCommonOrganDefault    = 0.01
	noCommonOrganMaxReasonable = 1.0
)
