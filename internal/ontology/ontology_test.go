package ontology_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/hpotest"
	"github.com/justaddcoffee/LIRICAL/internal/ontology"
)

func TestBuild(t *testing.T) {
	t.Run("Fixture_Ontology", func(t *testing.T) {
		onto := hpotest.NewOntology(t)
		assert.Equal(t, 16, onto.Len())
		assert.Equal(t, hpotest.Root, onto.Root())
	})

	t.Run("Empty_Is_Configuration_Error", func(t *testing.T) {
		_, err := ontology.Build(nil, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("Edge_With_Unknown_Term", func(t *testing.T) {
		records := []ontology.TermRecord{{ID: "HP:0000001", Name: "All"}}
		edges := []ontology.Edge{{Child: "HP:9999999", Parent: "HP:0000001"}}
		_, err := ontology.Build(records, edges)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("Cycle_Detected", func(t *testing.T) {
		records := []ontology.TermRecord{
			{ID: "HP:0000001", Name: "All"},
			{ID: "HP:0000002", Name: "A"},
			{ID: "HP:0000003", Name: "B"},
		}
		edges := []ontology.Edge{
			{Child: "HP:0000002", Parent: "HP:0000001"},
			{Child: "HP:0000003", Parent: "HP:0000002"},
			{Child: "HP:0000002", Parent: "HP:0000003"},
		}
		_, err := ontology.Build(records, edges)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("Multiple_Roots", func(t *testing.T) {
		records := []ontology.TermRecord{
			{ID: "HP:0000001", Name: "All"},
			{ID: "HP:0000002", Name: "Other root"},
		}
		_, err := ontology.Build(records, nil)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("Duplicate_Term", func(t *testing.T) {
		records := []ontology.TermRecord{
			{ID: "HP:0000001", Name: "All"},
			{ID: "HP:0000001", Name: "All again"},
		}
		_, err := ontology.Build(records, nil)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("Obsolete_Terms_Skipped", func(t *testing.T) {
		records := []ontology.TermRecord{
			{ID: "HP:0000001", Name: "All"},
			{ID: "HP:0000009", Name: "Gone", Obsolete: true},
		}
		onto, err := ontology.Build(records, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, onto.Len())
		assert.False(t, onto.Contains("HP:0000009"))
	})
}

func TestPrimaryID(t *testing.T) {
	onto := hpotest.NewOntology(t)

	t.Run("Canonical_Id_Is_Identity", func(t *testing.T) {
		primary, ok := onto.PrimaryID(hpotest.Seizure)
		require.True(t, ok)
		assert.Equal(t, hpotest.Seizure, primary)
	})

	t.Run("Alt_Id_Resolves", func(t *testing.T) {
		primary, ok := onto.PrimaryID(hpotest.SeizureAlt)
		require.True(t, ok)
		assert.Equal(t, hpotest.Seizure, primary)
	})

	t.Run("Unknown_Id", func(t *testing.T) {
		_, ok := onto.PrimaryID("HP:7777777")
		assert.False(t, ok)
	})
}

func TestAncestors(t *testing.T) {
	onto := hpotest.NewOntology(t)

	t.Run("Include_Self", func(t *testing.T) {
		ancestors := onto.Ancestors(hpotest.Generalized, true)
		assert.True(t, ancestors.Contains(hpotest.Generalized))
		assert.True(t, ancestors.Contains(hpotest.Seizure))
		assert.True(t, ancestors.Contains(hpotest.Nervous))
		assert.True(t, ancestors.Contains(hpotest.Abnormality))
		assert.True(t, ancestors.Contains(hpotest.Root))
		assert.Equal(t, 5, ancestors.Len())
	})

	t.Run("Exclude_Self", func(t *testing.T) {
		ancestors := onto.Ancestors(hpotest.Generalized, false)
		assert.False(t, ancestors.Contains(hpotest.Generalized))
		assert.Equal(t, 4, ancestors.Len())
	})

	t.Run("Root_Has_Only_Itself", func(t *testing.T) {
		assert.Equal(t, 1, onto.Ancestors(hpotest.Root, true).Len())
		assert.Equal(t, 0, onto.Ancestors(hpotest.Root, false).Len())
	})

	t.Run("Unknown_Term_Empty", func(t *testing.T) {
		assert.Equal(t, 0, onto.Ancestors("HP:7777777", true).Len())
	})

	t.Run("Ordered_Closest_First", func(t *testing.T) {
		ordered := onto.AncestorsOrdered(hpotest.EpilepticSpasm)
		assert.Equal(t, []domain.TermID{
			hpotest.MotorSeizure,
			hpotest.Seizure,
			hpotest.Nervous,
			hpotest.Abnormality,
			hpotest.Root,
		}, ordered)
	})
}

func TestDescendants(t *testing.T) {
	onto := hpotest.NewOntology(t)

	t.Run("Include_Self", func(t *testing.T) {
		desc := onto.Descendants(hpotest.Seizure, true)
		assert.True(t, desc.Contains(hpotest.Seizure))
		assert.True(t, desc.Contains(hpotest.Generalized))
		assert.True(t, desc.Contains(hpotest.EpilepticSpasm))
		assert.Equal(t, 6, desc.Len())
	})

	t.Run("Exclude_Self", func(t *testing.T) {
		desc := onto.Descendants(hpotest.Seizure, false)
		assert.False(t, desc.Contains(hpotest.Seizure))
		assert.Equal(t, 5, desc.Len())
	})

	t.Run("Leaf", func(t *testing.T) {
		assert.Equal(t, 0, onto.Descendants(hpotest.Finger, false).Len())
	})
}

func TestParentsAndChildren(t *testing.T) {
	onto := hpotest.NewOntology(t)

	assert.Equal(t, []domain.TermID{hpotest.Nervous}, onto.Parents(hpotest.Seizure))
	assert.ElementsMatch(t, []domain.TermID{
		hpotest.Generalized, hpotest.MotorSeizure, hpotest.FocalSeizure, hpotest.FebrileSeizure,
	}, onto.Children(hpotest.Seizure))
	assert.Empty(t, onto.Parents(hpotest.Root))
	assert.Empty(t, onto.Children(hpotest.Finger))
}

func TestIsSubclassOf(t *testing.T) {
	onto := hpotest.NewOntology(t)

	t.Run("Reflexive", func(t *testing.T) {
		assert.True(t, onto.IsSubclassOf(hpotest.Seizure, hpotest.Seizure))
	})

	t.Run("Direct_And_Transitive", func(t *testing.T) {
		assert.True(t, onto.IsSubclassOf(hpotest.Generalized, hpotest.Seizure))
		assert.True(t, onto.IsSubclassOf(hpotest.EpilepticSpasm, hpotest.Nervous))
		assert.True(t, onto.IsSubclassOf(hpotest.EpilepticSpasm, hpotest.Root))
	})

	t.Run("Not_Related", func(t *testing.T) {
		assert.False(t, onto.IsSubclassOf(hpotest.Seizure, hpotest.Generalized))
		assert.False(t, onto.IsSubclassOf(hpotest.Finger, hpotest.Nervous))
	})

	t.Run("Agrees_With_Ancestor_Closure", func(t *testing.T) {
		for _, a := range onto.Terms() {
			ancestors := onto.Ancestors(a, true)
			for _, b := range onto.Terms() {
				assert.Equal(t, ancestors.Contains(b), onto.IsSubclassOf(a, b),
					"IsSubclassOf(%s, %s)", a, b)
			}
		}
	})
}

func TestAllAncestorsOfSet(t *testing.T) {
	onto := hpotest.NewOntology(t)

	set := onto.AllAncestorsOfSet([]domain.TermID{hpotest.Generalized, hpotest.Finger}, true)
	assert.True(t, set.Contains(hpotest.Generalized))
	assert.True(t, set.Contains(hpotest.Seizure))
	assert.True(t, set.Contains(hpotest.Finger))
	assert.True(t, set.Contains(hpotest.Limbs))
	assert.True(t, set.Contains(hpotest.Root))
	assert.False(t, set.Contains(hpotest.Skeletal))
}

func TestLabel(t *testing.T) {
	onto := hpotest.NewOntology(t)

	name, ok := onto.Label(hpotest.Seizure)
	require.True(t, ok)
	assert.Equal(t, "Seizure", name)

	_, ok = onto.Label("HP:7777777")
	assert.False(t, ok)
}
