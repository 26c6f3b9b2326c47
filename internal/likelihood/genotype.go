package likelihood

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/justaddcoffee/LIRICAL/internal/domain"
)

// Expected pathogenic-allele counts under the disease hypothesis.
const (
	lambdaDominant  = 1.0
	lambdaRecessive = 2.0
)

// pathScoreNearZero is the threshold below which a pathogenicity score
// counts as absence of evidence for the heuristic floor.
const pathScoreNearZero = 1e-3

// GenotypeLR scores the observed variants in a gene against a disease's
// inheritance mode: a pathogenic-variant count Poisson under the disease
// hypothesis versus the gene's background rate of predicted-pathogenic
// calls. Pure; safe for concurrent use.
type GenotypeLR struct {
	backgroundRates map[string]float64 // gene id -> lambda_B
	log             *logrus.Logger
}

// NewGenotypeLR creates the genotype likelihood-ratio engine from the
// precomputed gene background-rate map.
func NewGenotypeLR(backgroundRates map[string]float64, log *logrus.Logger) *GenotypeLR {
	return &GenotypeLR{backgroundRates: backgroundRates, log: log}
}

// LrForGenotype returns the likelihood ratio for the summarized variants in
// one gene given the disease's inheritance modes. The result is clamped to
// (LrClampEpsilon, +Inf) and is never NaN.
func (e *GenotypeLR) LrForGenotype(g domain.GenotypeSummary, modes []domain.TermID) float64 {
	// ClinVar-pathogenic alleles short-circuit the count model entirely.
	if g.ClinVarPathogenicCount >= 1 {
		return math.Pow(ClinVarPathogenicLR, float64(g.ClinVarPathogenicCount))
	}

	lambdaDisease := lambdaDominant
	recessive := false
	for _, m := range modes {
		if m == domain.AutosomalRecessive {
			lambdaDisease = lambdaRecessive
			recessive = true
			break
		}
	}

	lambdaBackground, ok := e.backgroundRates[g.GeneID]
	if !ok || lambdaBackground <= 0 {
		lambdaBackground = lambdaDisease
	}

	x := g.PathogenicityScore
	if x < 0 {
		x = 0
	}

	// A gene with a high background rate of predicted-pathogenic calls
	// (HLA-B is the canonical case) would otherwise reward the absence of
	// any pathogenic evidence: Poisson(0; lambda_D)/Poisson(0; lambda_B)
	// grows as exp(lambda_B - lambda_D).
	if x < pathScoreNearZero && lambdaBackground > lambdaDisease {
		if recessive {
			return HeuristicLowPathLRRecessive
		}
		return HeuristicLowPathLRDominant
	}

	lr := poissonPDF(x, lambdaDisease) / poissonPDF(x, lambdaBackground)
	if math.IsNaN(lr) || math.IsInf(lr, 1) {
		e.log.WithFields(logrus.Fields{
			"gene":              g.GeneID,
			"path_score":        x,
			"lambda_background": lambdaBackground,
		}).Warn("Genotype likelihood ratio out of range; clamping")
		lr = 1.0
	}
	if lr < LrClampEpsilon {
		lr = LrClampEpsilon
	}
	return lr
}

// poissonPDF evaluates the Poisson mass function at a possibly non-integer
// point x using the gamma function, exp(x ln(lambda) - lambda - ln x!).
// Pathogenicity scores are sums of bin weights and are rarely integral.
func poissonPDF(x, lambda float64) float64 {
	if lambda <= 0 {
		if x == 0 {
			return 1
		}
		return 0
	}
	if x == 0 {
		return math.Exp(-lambda)
	}
	lg, _ := math.Lgamma(x + 1)
	return math.Exp(x*math.Log(lambda) - lambda - lg)
}
