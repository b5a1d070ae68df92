package shape

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/skymatch/internal/sphere"
)

// testField returns a brightness-sorted set of n points spread over roughly
// one square degree with strictly decreasing fluxes.
func testField(n int, seed int64) sphere.PointSet {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]sphere.Point, n)
	for i := range pts {
		ra := rng.Float64() * math.Pi / 180
		dec := (rng.Float64() - 0.5) * math.Pi / 180
		pts[i] = sphere.FromRaDec(ra, dec, 1000*math.Pow(0.97, float64(i)), int64(i))
	}
	return sphere.NewPointSet(pts)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	set := testField(20, 1)

	t.Run("descriptor is sorted ascending", func(t *testing.T) {
		t.Parallel()
		p, err := Build(set, 0, 6)
		require.NoError(t, err)
		assert.Equal(t, 6, p.Size())
		assert.Len(t, p.Lengths, 5)
		assert.True(t, sort.Float64sAreSorted(p.Lengths))
	})

	t.Run("spokes track their lengths", func(t *testing.T) {
		t.Parallel()
		p, err := Build(set, 2, 5)
		require.NoError(t, err)
		for i, s := range p.Spokes {
			assert.InDelta(t, sphere.Chord(set[2].Unit, set[s].Unit), p.Lengths[i], 1e-15)
		}
	})

	t.Run("identical input yields identical descriptors", func(t *testing.T) {
		t.Parallel()
		a, err := Build(set, 3, 7)
		require.NoError(t, err)
		b, err := Build(set, 3, 7)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("window outside set is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Build(set, 18, 6)
		assert.Error(t, err)
		_, err = Build(set, -1, 6)
		assert.Error(t, err)
	})

	t.Run("size below two is rejected", func(t *testing.T) {
		t.Parallel()
		_, err := Build(set, 0, 1)
		assert.Error(t, err)
	})

	t.Run("coincident points produce a valid descriptor", func(t *testing.T) {
		t.Parallel()
		p := sphere.FromRaDec(0, 0, 100, 1)
		degenerateSet := sphere.NewPointSet([]sphere.Point{p, p, p, p})
		pat, err := Build(degenerateSet, 0, 4)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0}, pat.Lengths)
		// Tie-break keeps spoke order deterministic.
		assert.Equal(t, []int{1, 2, 3}, pat.Spokes)
	})
}

func TestBuildFrom(t *testing.T) {
	t.Parallel()

	set := testField(20, 2)
	p := BuildFrom(set, 4, []int{9, 6, 12, 7})
	assert.Equal(t, 4, len(p.Spokes))
	assert.True(t, sort.Float64sAreSorted(p.Lengths))
	assert.Equal(t, 4, p.Center)
	assert.ElementsMatch(t, []int{6, 7, 9, 12}, p.Spokes)
}
