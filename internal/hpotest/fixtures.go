// Package hpotest provides the small phenotype ontology, disease corpus and
// wired services shared by tests across the repository.
package hpotest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/justaddcoffee/LIRICAL/internal/config"
	"github.com/justaddcoffee/LIRICAL/internal/disease"
	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
	"github.com/justaddcoffee/LIRICAL/internal/repository"
	"github.com/justaddcoffee/LIRICAL/internal/service"
)

// Commonly used fixture terms.
const (
	Root          = domain.TermID("HP:0000001")
	Abnormality   = domain.PhenotypicAbnormality
	Nervous       = domain.TermID("HP:0000707")
	Seizure       = domain.TermID("HP:0001250")
	Generalized   = domain.TermID("HP:0002197")
	MotorSeizure  = domain.TermID("HP:0020219")
	FocalSeizure  = domain.TermID("HP:0007359")
	FebrileSeizure = domain.TermID("HP:0002373")
	EpilepticSpasm = domain.TermID("HP:0011097")
	Hyporeflexia  = domain.TermID("HP:0001265")
	NeuronMorph   = domain.TermID("HP:0012074")
	Limbs         = domain.TermID("HP:0040064")
	UpperLimb     = domain.TermID("HP:0002817")
	Finger        = domain.TermID("HP:0001167")
	Skeletal      = domain.TermID("HP:0000924")
	JointMorph    = domain.TermID("HP:0001367")

	// SeizureAlt is an alt id resolving to Seizure.
	SeizureAlt = domain.TermID("HP:0001999")
)

// Logger returns a quiet logger for tests.
func Logger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return log
}

// TermRecords returns the fixture ontology terms.
func TermRecords() []ontology.TermRecord {
	return []ontology.TermRecord{
		{ID: Root, Name: "All"},
		{ID: Abnormality, Name: "Phenotypic abnormality"},
		{ID: Nervous, Name: "Abnormality of the nervous system"},
		{ID: Seizure, Name: "Seizure", AltIDs: []domain.TermID{SeizureAlt}},
		{ID: Generalized, Name: "Generalized-onset seizure"},
		{ID: MotorSeizure, Name: "Motor seizure"},
		{ID: FocalSeizure, Name: "Focal-onset seizure"},
		{ID: FebrileSeizure, Name: "Febrile seizure"},
		{ID: EpilepticSpasm, Name: "Epileptic spasm"},
		{ID: Hyporeflexia, Name: "Hyporeflexia"},
		{ID: NeuronMorph, Name: "Abnormal neuron morphology"},
		{ID: Limbs, Name: "Abnormality of limbs"},
		{ID: UpperLimb, Name: "Abnormality of the upper limb"},
		{ID: Finger, Name: "Abnormality of finger"},
		{ID: Skeletal, Name: "Abnormality of the skeletal system"},
		{ID: JointMorph, Name: "Abnormal joint morphology"},
	}
}

// Edges returns the fixture is-a edges.
func Edges() []ontology.Edge {
	return []ontology.Edge{
		{Child: Abnormality, Parent: Root},
		{Child: Nervous, Parent: Abnormality},
		{Child: Seizure, Parent: Nervous},
		{Child: Generalized, Parent: Seizure},
		{Child: MotorSeizure, Parent: Seizure},
		{Child: FocalSeizure, Parent: Seizure},
		{Child: FebrileSeizure, Parent: Seizure},
		{Child: EpilepticSpasm, Parent: MotorSeizure},
		{Child: Hyporeflexia, Parent: Nervous},
		{Child: NeuronMorph, Parent: Nervous},
		{Child: Limbs, Parent: Abnormality},
		{Child: UpperLimb, Parent: Limbs},
		{Child: Finger, Parent: UpperLimb},
		{Child: Skeletal, Parent: Abnormality},
		{Child: JointMorph, Parent: Skeletal},
	}
}

// NewOntology builds the fixture ontology.
func NewOntology(tb testing.TB) *ontology.Ontology {
	tb.Helper()
	onto, err := ontology.Build(TermRecords(), Edges())
	require.NoError(tb, err)
	return onto
}

// DiseaseRecords returns the fixture disease corpus.
func DiseaseRecords() []disease.Record {
	return []disease.Record{
		{
			ID:   "OMIM:100001",
			Name: "Neuro syndrome",
			Annotations: []domain.Annotation{
				{Term: Seizure, Frequency: 0.8},
				{Term: Hyporeflexia, Frequency: 1.0},
			},
			Negated:          []domain.TermID{UpperLimb},
			InheritanceModes: []domain.TermID{domain.AutosomalDominant},
		},
		{
			ID:   "OMIM:100002",
			Name: "Limb syndrome",
			Annotations: []domain.Annotation{
				{Term: Finger, Frequency: 0.6},
			},
			InheritanceModes: []domain.TermID{domain.AutosomalRecessive},
		},
		{
			ID:   "OMIM:100003",
			Name: "Joint syndrome",
			Annotations: []domain.Annotation{
				{Term: JointMorph}, // frequency unknown; defaults to 1.0
			},
		},
	}
}

// NewStore builds the fixture disease store.
func NewStore(tb testing.TB, onto *ontology.Ontology) *disease.Store {
	tb.Helper()
	store, err := disease.NewStore(DiseaseRecords(), onto, disease.Options{}, Logger())
	require.NoError(tb, err)
	return store
}

// NewAnalysisService loads the fixture corpus through an in-memory SQLite
// resource database and wires a full analysis service, exercising the same
// path production startup takes.
func NewAnalysisService(tb testing.TB) *service.AnalysisService {
	tb.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(tb, err)
	db.SetMaxOpenConns(1) // each pooled connection would get its own :memory: db
	tb.Cleanup(func() { db.Close() })

	seedResourceDB(tb, db)

	log := Logger()
	repo := repository.NewResourceRepository(db, log)
	cfg := &config.Config{
		Resources: config.ResourcesConfig{DatabasePath: ":memory:"},
		Analysis:  config.AnalysisConfig{Workers: 2, GraphCache: 64, DefaultTopK: 10},
	}
	svc, err := service.NewAnalysisService(context.Background(), repo, cfg, log)
	require.NoError(tb, err)
	return svc
}

func seedResourceDB(tb testing.TB, db *sql.DB) {
	tb.Helper()
	schema := `
	CREATE TABLE hpo_term (id TEXT PRIMARY KEY, name TEXT NOT NULL, obsolete INTEGER NOT NULL DEFAULT 0);
	CREATE TABLE hpo_alt_id (alt_id TEXT PRIMARY KEY, primary_id TEXT NOT NULL);
	CREATE TABLE hpo_edge (child TEXT NOT NULL, parent TEXT NOT NULL);
	CREATE TABLE disease (id TEXT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE disease_annotation (disease_id TEXT NOT NULL, term_id TEXT NOT NULL, frequency REAL, negated INTEGER NOT NULL DEFAULT 0);
	CREATE TABLE disease_moi (disease_id TEXT NOT NULL, term_id TEXT NOT NULL);
	CREATE TABLE disease_gene (disease_id TEXT NOT NULL, gene_id TEXT NOT NULL);
	CREATE TABLE gene_background (gene_id TEXT PRIMARY KEY, rate REAL NOT NULL);
	`
	_, err := db.Exec(schema)
	require.NoError(tb, err)

	for _, r := range TermRecords() {
		_, err := db.Exec("INSERT INTO hpo_term (id, name, obsolete) VALUES (?, ?, 0)", string(r.ID), r.Name)
		require.NoError(tb, err)
		for _, alt := range r.AltIDs {
			_, err := db.Exec("INSERT INTO hpo_alt_id (alt_id, primary_id) VALUES (?, ?)", string(alt), string(r.ID))
			require.NoError(tb, err)
		}
	}
	for _, e := range Edges() {
		_, err := db.Exec("INSERT INTO hpo_edge (child, parent) VALUES (?, ?)", string(e.Child), string(e.Parent))
		require.NoError(tb, err)
	}
	for _, d := range DiseaseRecords() {
		_, err := db.Exec("INSERT INTO disease (id, name) VALUES (?, ?)", string(d.ID), d.Name)
		require.NoError(tb, err)
		for _, a := range d.Annotations {
			var freq interface{}
			if a.Frequency > 0 {
				freq = a.Frequency
			}
			_, err := db.Exec("INSERT INTO disease_annotation (disease_id, term_id, frequency, negated) VALUES (?, ?, ?, 0)",
				string(d.ID), string(a.Term), freq)
			require.NoError(tb, err)
		}
		for _, n := range d.Negated {
			_, err := db.Exec("INSERT INTO disease_annotation (disease_id, term_id, frequency, negated) VALUES (?, ?, NULL, 1)",
				string(d.ID), string(n))
			require.NoError(tb, err)
		}
		for _, m := range d.InheritanceModes {
			_, err := db.Exec("INSERT INTO disease_moi (disease_id, term_id) VALUES (?, ?)", string(d.ID), string(m))
			require.NoError(tb, err)
		}
	}
	_, err = db.Exec("INSERT INTO disease_gene (disease_id, gene_id) VALUES ('OMIM:100001', 'NCBIGene:100')")
	require.NoError(tb, err)
	_, err = db.Exec("INSERT INTO gene_background (gene_id, rate) VALUES ('NCBIGene:100', 8.74)")
	require.NoError(tb, err)
}
