// Package repository loads the collaborator inputs of the diagnosis core —
// ontology terms and edges, disease records, gene background rates and the
// disease-gene map — from an embedded SQLite resource database. The core
// never touches the database; this package materializes plain values for
// the builders.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/justaddcoffee/LIRICAL/internal/disease"
	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
)

// ResourceRepository reads the prebuilt resource database.
type ResourceRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

// Open opens the resource database at path in WAL mode and returns a
// repository over it.
func Open(path string, log *logrus.Logger) (*ResourceRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening resource database: %v", domain.ErrConfiguration, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: setting WAL mode: %v", domain.ErrConfiguration, err)
	}
	return NewResourceRepository(db, log), nil
}

// NewResourceRepository wraps an already-open database handle.
func NewResourceRepository(db *sql.DB, log *logrus.Logger) *ResourceRepository {
	return &ResourceRepository{db: db, log: log}
}

// LoadOntology reads terms, alt ids and is-a edges and builds the index.
func (r *ResourceRepository) LoadOntology(ctx context.Context) (*ontology.Ontology, error) {
	records, err := r.loadTerms(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := r.loadEdges(ctx)
	if err != nil {
		return nil, err
	}
	onto, err := ontology.Build(records, edges)
	if err != nil {
		return nil, err
	}
	r.log.WithFields(logrus.Fields{
		"terms": onto.Len(),
		"edges": len(edges),
	}).Info("Ontology loaded")
	return onto, nil
}

func (r *ResourceRepository) loadTerms(ctx context.Context) ([]ontology.TermRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, obsolete
		FROM hpo_term
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	byID := make(map[domain.TermID]int)
	var records []ontology.TermRecord
	for rows.Next() {
		var rec ontology.TermRecord
		var id string
		var obsolete bool
		if err := rows.Scan(&id, &rec.Name, &obsolete); err != nil {
			return nil, fmt.Errorf("scanning term row: %w", err)
		}
		rec.ID = domain.TermID(id)
		rec.Obsolete = obsolete
		byID[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating term rows: %w", err)
	}

	altRows, err := r.db.QueryContext(ctx, `
		SELECT alt_id, primary_id
		FROM hpo_alt_id`)
	if err != nil {
		return nil, fmt.Errorf("querying alt ids: %w", err)
	}
	defer altRows.Close()
	for altRows.Next() {
		var alt, primary string
		if err := altRows.Scan(&alt, &primary); err != nil {
			return nil, fmt.Errorf("scanning alt-id row: %w", err)
		}
		idx, ok := byID[domain.TermID(primary)]
		if !ok {
			r.log.WithFields(logrus.Fields{
				"alt_id":     alt,
				"primary_id": primary,
			}).Warn("Alt id references unknown primary term")
			continue
		}
		records[idx].AltIDs = append(records[idx].AltIDs, domain.TermID(alt))
	}
	if err := altRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alt-id rows: %w", err)
	}
	return records, nil
}

func (r *ResourceRepository) loadEdges(ctx context.Context) ([]ontology.Edge, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT child, parent
		FROM hpo_edge`)
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var edges []ontology.Edge
	for rows.Next() {
		var child, parent string
		if err := rows.Scan(&child, &parent); err != nil {
			return nil, fmt.Errorf("scanning edge row: %w", err)
		}
		edges = append(edges, ontology.Edge{
			Child:  domain.TermID(child),
			Parent: domain.TermID(parent),
		})
	}
	return edges, rows.Err()
}

// LoadDiseases reads disease records with their positive, negated and
// inheritance-mode annotations and builds the store.
func (r *ResourceRepository) LoadDiseases(ctx context.Context, onto *ontology.Ontology, opts disease.Options) (*disease.Store, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name
		FROM disease
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying diseases: %w", err)
	}
	defer rows.Close()

	byID := make(map[domain.DiseaseID]int)
	var records []disease.Record
	for rows.Next() {
		var rec disease.Record
		var id string
		if err := rows.Scan(&id, &rec.Name); err != nil {
			return nil, fmt.Errorf("scanning disease row: %w", err)
		}
		rec.ID = domain.DiseaseID(id)
		byID[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating disease rows: %w", err)
	}

	annRows, err := r.db.QueryContext(ctx, `
		SELECT disease_id, term_id, frequency, negated
		FROM disease_annotation
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying disease annotations: %w", err)
	}
	defer annRows.Close()
	for annRows.Next() {
		var diseaseID, termID string
		var frequency sql.NullFloat64
		var negated bool
		if err := annRows.Scan(&diseaseID, &termID, &frequency, &negated); err != nil {
			return nil, fmt.Errorf("scanning annotation row: %w", err)
		}
		idx, ok := byID[domain.DiseaseID(diseaseID)]
		if !ok {
			r.log.WithField("disease", diseaseID).Warn("Annotation references unknown disease")
			continue
		}
		if negated {
			records[idx].Negated = append(records[idx].Negated, domain.TermID(termID))
			continue
		}
		freq := 0.0 // unknown; the store defaults it to 1.0
		if frequency.Valid {
			freq = frequency.Float64
		}
		records[idx].Annotations = append(records[idx].Annotations, domain.Annotation{
			Term:      domain.TermID(termID),
			Frequency: freq,
		})
	}
	if err := annRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating annotation rows: %w", err)
	}

	moiRows, err := r.db.QueryContext(ctx, `
		SELECT disease_id, term_id
		FROM disease_moi`)
	if err != nil {
		return nil, fmt.Errorf("querying inheritance modes: %w", err)
	}
	defer moiRows.Close()
	for moiRows.Next() {
		var diseaseID, termID string
		if err := moiRows.Scan(&diseaseID, &termID); err != nil {
			return nil, fmt.Errorf("scanning inheritance-mode row: %w", err)
		}
		idx, ok := byID[domain.DiseaseID(diseaseID)]
		if !ok {
			continue
		}
		records[idx].InheritanceModes = append(records[idx].InheritanceModes, domain.TermID(termID))
	}
	if err := moiRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inheritance-mode rows: %w", err)
	}

	store, err := disease.NewStore(records, onto, opts, r.log)
	if err != nil {
		return nil, err
	}
	r.log.WithField("diseases", store.Len()).Info("Disease store loaded")
	return store, nil
}

// LoadGeneBackgroundRates reads the per-gene background rate of
// predicted-pathogenic variant calls.
func (r *ResourceRepository) LoadGeneBackgroundRates(ctx context.Context) (map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT gene_id, rate
		FROM gene_background`)
	if err != nil {
		return nil, fmt.Errorf("querying gene background rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[string]float64)
	for rows.Next() {
		var gene string
		var rate float64
		if err := rows.Scan(&gene, &rate); err != nil {
			return nil, fmt.Errorf("scanning gene background row: %w", err)
		}
		rates[gene] = rate
	}
	return rates, rows.Err()
}

// LoadDiseaseGenes reads the disease-to-gene multimap.
func (r *ResourceRepository) LoadDiseaseGenes(ctx context.Context) (map[domain.DiseaseID][]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT disease_id, gene_id
		FROM disease_gene
		ORDER BY disease_id, gene_id`)
	if err != nil {
		return nil, fmt.Errorf("querying disease genes: %w", err)
	}
	defer rows.Close()

	genes := make(map[domain.DiseaseID][]string)
	for rows.Next() {
		var diseaseID, gene string
		if err := rows.Scan(&diseaseID, &gene); err != nil {
			return nil, fmt.Errorf("scanning disease-gene row: %w", err)
		}
		id := domain.DiseaseID(diseaseID)
		genes[id] = append(genes[id], gene)
	}
	return genes, rows.Err()
}

// Close releases the database handle.
func (r *ResourceRepository) Close() error {
	return r.db.Close()
}
