package domain

// DiseaseID identifies a disease in a curated database, e.g. "OMIM:103100".
type DiseaseID string

// Prefix returns the database prefix of the identifier, e.g. "OMIM".
func (d DiseaseID) Prefix() string {
	return TermID(d).Prefix()
}

// String returns the canonical string form of the identifier.
func (d DiseaseID) String() string {
	return string(d)
}

// Annotation is a positive phenotype annotation of a disease: the disease
// presents the term in the given fraction of affected individuals.
// Frequency is always in (0, 1]; source records without a frequency are
// loaded as 1.0.
type Annotation struct {
	Term      TermID  `json:"term"`
	Frequency float64 `json:"frequency"`
}

// Disease is an immutable disease record. Annotations preserve source order;
// duplicate annotations have been collapsed to the maximum frequency at load
// time.
type Disease struct {
	ID               DiseaseID    `json:"id"`
	Name             string       `json:"name"`
	Annotations      []Annotation `json:"annotations"`
	Negated          []TermID     `json:"negated,omitempty"`
	InheritanceModes []TermID     `json:"inheritance_modes,omitempty"`
}

// DirectFrequency returns the annotation frequency for t if the disease is
// directly annotated to t.
func (d *Disease) DirectFrequency(t TermID) (float64, bool) {
	for _, a := range d.Annotations {
		if a.Term == t {
			return a.Frequency, true
		}
	}
	return 0, false
}

// IsNegated reports whether the disease explicitly excludes t.
func (d *Disease) IsNegated(t TermID) bool {
	for _, n := range d.Negated {
		if n == t {
			return true
		}
	}
	return false
}

// IsRecessive reports whether the disease carries an autosomal-recessive
// inheritance annotation.
func (d *Disease) IsRecessive() bool {
	for _, m := range d.InheritanceModes {
		if m == AutosomalRecessive {
			return true
		}
	}
	return false
}

// IsDominant reports whether the disease carries an autosomal-dominant
// inheritance annotation.
func (d *Disease) IsDominant() bool {
	for _, m := range d.InheritanceModes {
		if m == AutosomalDominant {
			return true
		}
	}
	return false
}
