package domain

// Case is the phenotypic presentation of one patient: the abnormalities a
// clinician observed and the abnormalities they explicitly ruled out.
// Order is preserved for reporting only; the likelihood-ratio computation
// is order-independent up to floating point.
type Case struct {
	Observed []TermID `json:"observed"`
	Excluded []TermID `json:"excluded,omitempty"`
}

// GenotypeSummary summarizes the variants observed in one gene after
// upstream annotation. The core never parses VCF; it consumes this record.
type GenotypeSummary struct {
	GeneID                 string   `json:"gene_id"`
	ClinVarPathogenicCount int      `json:"clinvar_pathogenic_count"`
	PathogenicityScore     float64  `json:"pathogenicity_score"`
	Variants               []string `json:"variants,omitempty"`
}
