package sphere

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRaDec(t *testing.T) {
	t.Parallel()

	t.Run("north pole maps to +z", func(t *testing.T) {
		t.Parallel()
		p := FromRaDec(0, math.Pi/2, 100, 1)
		assert.InDelta(t, 0, p.Unit[0], 1e-12)
		assert.InDelta(t, 0, p.Unit[1], 1e-12)
		assert.InDelta(t, 1, p.Unit[2], 1e-12)
	})

	t.Run("origin maps to +x", func(t *testing.T) {
		t.Parallel()
		p := FromRaDec(0, 0, 100, 1)
		assert.InDelta(t, 1, p.Unit[0], 1e-12)
		assert.InDelta(t, 0, p.Unit[1], 1e-12)
		assert.InDelta(t, 0, p.Unit[2], 1e-12)
	})

	t.Run("result is a unit vector", func(t *testing.T) {
		t.Parallel()
		p := FromRaDec(1.234, -0.567, 42, 7)
		norm := p.Unit[0]*p.Unit[0] + p.Unit[1]*p.Unit[1] + p.Unit[2]*p.Unit[2]
		assert.InDelta(t, 1, norm, 1e-12)
		assert.Equal(t, int64(7), p.ID)
	})

	t.Run("lon lat form agrees with radians form", func(t *testing.T) {
		t.Parallel()
		a := FromRaDec(30*math.Pi/180, -10*math.Pi/180, 50, 3)
		b := FromLonLat(orb.Point{30, -10}, 50, 3)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, a.Unit[i], b.Unit[i], 1e-12)
		}
		assert.Equal(t, a.Mag, b.Mag)
	})
}

func TestMagnitudeFromFlux(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, -5, MagnitudeFromFlux(100), 1e-12)
	assert.InDelta(t, 0, MagnitudeFromFlux(1), 1e-12)

	// Brighter flux gives a smaller magnitude.
	assert.Less(t, MagnitudeFromFlux(1000), MagnitudeFromFlux(10))

	// Non-positive fluxes clamp to a finite, very faint magnitude.
	m := MagnitudeFromFlux(0)
	assert.False(t, math.IsInf(m, 0))
	assert.Greater(t, m, MagnitudeFromFlux(1e-6))
}

func TestNewPointSet(t *testing.T) {
	t.Parallel()

	t.Run("sorts brightest first", func(t *testing.T) {
		t.Parallel()
		pts := []Point{
			FromRaDec(0, 0, 10, 1),
			FromRaDec(0.1, 0, 1000, 2),
			FromRaDec(0.2, 0, 100, 3),
		}
		set := NewPointSet(pts)
		require.Len(t, set, 3)
		assert.Equal(t, int64(2), set[0].ID)
		assert.Equal(t, int64(3), set[1].ID)
		assert.Equal(t, int64(1), set[2].ID)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		t.Parallel()
		pts := []Point{
			FromRaDec(0, 0, 10, 1),
			FromRaDec(0.1, 0, 1000, 2),
		}
		_ = NewPointSet(pts)
		assert.Equal(t, int64(1), pts[0].ID)
	})

	t.Run("stable for equal magnitudes", func(t *testing.T) {
		t.Parallel()
		pts := []Point{
			FromRaDec(0, 0, 50, 1),
			FromRaDec(0.1, 0, 50, 2),
			FromRaDec(0.2, 0, 50, 3),
		}
		set := NewPointSet(pts)
		assert.Equal(t, []int64{1, 2, 3}, []int64{set[0].ID, set[1].ID, set[2].ID})
	})
}

func TestSeparation(t *testing.T) {
	t.Parallel()

	t.Run("orthogonal vectors", func(t *testing.T) {
		t.Parallel()
		a := [3]float64{1, 0, 0}
		b := [3]float64{0, 1, 0}
		assert.InDelta(t, math.Pi/2, Separation(a, b), 1e-12)
	})

	t.Run("coincident vectors", func(t *testing.T) {
		t.Parallel()
		a := [3]float64{0, 0, 1}
		assert.Equal(t, 0.0, Separation(a, a))
	})

	t.Run("small angles are exact", func(t *testing.T) {
		t.Parallel()
		// Two points one arcsecond apart in RA on the equator.
		a := FromRaDec(0, 0, 1, 1)
		b := FromRaDec(ArcsecToRad(1), 0, 1, 2)
		assert.InDelta(t, 1, SeparationArcsec(a.Unit, b.Unit), 1e-6)
	})

	t.Run("antipodal vectors", func(t *testing.T) {
		t.Parallel()
		a := [3]float64{1, 0, 0}
		b := [3]float64{-1, 0, 0}
		assert.InDelta(t, math.Pi, Separation(a, b), 1e-12)
	})
}

func TestChord(t *testing.T) {
	t.Parallel()
	a := [3]float64{1, 0, 0}
	b := [3]float64{0, 1, 0}
	assert.InDelta(t, math.Sqrt2, Chord(a, b), 1e-12)
}
