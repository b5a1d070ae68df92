package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{ID: 1, RaDeg: 10.5, DecDeg: -3.25, Flux: 1200},
		{ID: 2, RaDeg: 10.6, DecDeg: -3.20, Flux: 300},
	}
	path := filepath.Join(t.TempDir(), "cat.json")
	require.NoError(t, Save(path, entries))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})
}

func TestToPointSet(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		{ID: 1, RaDeg: 0, DecDeg: 0, Flux: 10},
		{ID: 2, RaDeg: 0.1, DecDeg: 0, Flux: 1000},
	}
	set := ToPointSet(entries)
	require.Len(t, set, 2)

	// Brightest first regardless of input order.
	assert.Equal(t, int64(2), set[0].ID)
	assert.Equal(t, int64(1), set[1].ID)

	norm := set[0].Unit[0]*set[0].Unit[0] + set[0].Unit[1]*set[0].Unit[1] + set[0].Unit[2]*set[0].Unit[2]
	assert.InDelta(t, 1, norm, 1e-12)
}
