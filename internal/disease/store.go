// Package disease holds the immutable store of curated disease records.
package disease

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
)

// Record is one disease as delivered by a collaborator loader, before
// normalization.
type Record struct {
	ID               domain.DiseaseID
	Name             string
	Annotations      []domain.Annotation // Frequency <= 0 means unknown
	Negated          []domain.TermID
	InheritanceModes []domain.TermID
}

// Options controls which source databases are retained. OMIM and DECIPHER
// are always kept; Orphanet is opt-in.
type Options struct {
	IncludeOrphanet bool
}

// Store is an immutable mapping from disease id to disease record. Built
// once at startup; safe for concurrent readers.
type Store struct {
	byID    map[domain.DiseaseID]*domain.Disease
	ordered []*domain.Disease
}

// NewStore normalizes and indexes the records: the prefix filter is applied,
// annotation terms are resolved to primary identifiers, unknown terms are
// dropped with a warning, duplicate annotations collapse to the maximum
// frequency, and missing frequencies default to 1.0. An empty resulting
// store is a configuration error.
func NewStore(records []Record, onto *ontology.Ontology, opts Options, log *logrus.Logger) (*Store, error) {
	s := &Store{
		byID: make(map[domain.DiseaseID]*domain.Disease, len(records)),
	}
	for _, r := range records {
		if !retained(r.ID, opts) {
			continue
		}
		if _, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate disease %s", domain.ErrConfiguration, r.ID)
		}
		d := normalize(r, onto, log)
		s.byID[d.ID] = d
		s.ordered = append(s.ordered, d)
	}
	if len(s.ordered) == 0 {
		return nil, fmt.Errorf("%w: disease store is empty", domain.ErrConfiguration)
	}
	sort.Slice(s.ordered, func(i, j int) bool {
		return s.ordered[i].ID < s.ordered[j].ID
	})
	return s, nil
}

func retained(id domain.DiseaseID, opts Options) bool {
	switch id.Prefix() {
	case "OMIM", "DECIPHER":
		return true
	case "ORPHA":
		return opts.IncludeOrphanet
	default:
		return false
	}
}

func normalize(r Record, onto *ontology.Ontology, log *logrus.Logger) *domain.Disease {
	d := &domain.Disease{
		ID:               r.ID,
		Name:             r.Name,
		InheritanceModes: r.InheritanceModes,
	}
	seen := make(map[domain.TermID]int)
	for _, a := range r.Annotations {
		primary, ok := onto.PrimaryID(a.Term)
		if !ok {
			log.WithFields(logrus.Fields{
				"disease": r.ID,
				"term":    a.Term,
			}).Warn("Dropping annotation with unknown term")
			continue
		}
		freq := a.Frequency
		if freq <= 0 || freq > 1 {
			freq = 1.0
		}
		if idx, dup := seen[primary]; dup {
			if freq > d.Annotations[idx].Frequency {
				d.Annotations[idx].Frequency = freq
			}
			continue
		}
		seen[primary] = len(d.Annotations)
		d.Annotations = append(d.Annotations, domain.Annotation{Term: primary, Frequency: freq})
	}
	for _, n := range r.Negated {
		primary, ok := onto.PrimaryID(n)
		if !ok {
			log.WithFields(logrus.Fields{
				"disease": r.ID,
				"term":    n,
			}).Warn("Dropping negated annotation with unknown term")
			continue
		}
		d.Negated = append(d.Negated, primary)
	}
	return d
}

// Get returns the disease with the given id.
func (s *Store) Get(id domain.DiseaseID) (*domain.Disease, bool) {
	d, ok := s.byID[id]
	return d, ok
}

// All returns every disease in deterministic order (ascending id).
func (s *Store) All() []*domain.Disease {
	return s.ordered
}

// Len returns the number of diseases.
func (s *Store) Len() int {
	return len(s.ordered)
}
