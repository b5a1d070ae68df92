package astrometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRotation(t *testing.T) {
	t.Parallel()

	t.Run("identity has zero angle", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0, IdentityRotation().Angle(), 1e-12)
	})

	t.Run("axis angle recovers its angle", func(t *testing.T) {
		t.Parallel()
		r := AxisAngle([3]float64{0, 0, 1}, 0.3)
		assert.InDelta(t, 0.3, r.Angle(), 1e-12)
	})

	t.Run("apply rotates about the axis", func(t *testing.T) {
		t.Parallel()
		r := AxisAngle([3]float64{0, 0, 1}, math.Pi/2)
		v := r.Apply([3]float64{1, 0, 0})
		assert.InDelta(t, 0, v[0], 1e-12)
		assert.InDelta(t, 1, v[1], 1e-12)
		assert.InDelta(t, 0, v[2], 1e-12)
	})

	t.Run("transpose inverts", func(t *testing.T) {
		t.Parallel()
		r := AxisAngle([3]float64{1, 2, 3}, 0.7)
		assert.InDelta(t, 0, r.Compose(r.Transpose()).Angle(), 1e-12)
	})

	t.Run("angle to self is zero", func(t *testing.T) {
		t.Parallel()
		r := AxisAngle([3]float64{1, -1, 0.5}, 1.1)
		assert.InDelta(t, 0, r.AngleTo(r), 1e-7)
	})

	t.Run("zero axis yields identity", func(t *testing.T) {
		t.Parallel()
		r := AxisAngle([3]float64{0, 0, 0}, 1.0)
		assert.Equal(t, IdentityRotation(), r)
	})
}

func TestRotationBetween(t *testing.T) {
	t.Parallel()

	t.Run("maps a onto b", func(t *testing.T) {
		t.Parallel()
		a := [3]float64{1, 0, 0}
		b := [3]float64{0, 0, 1}
		v := RotationBetween(a, b).Apply(a)
		for i := range b {
			assert.InDelta(t, b[i], v[i], 1e-12)
		}
	})

	t.Run("identical vectors give identity", func(t *testing.T) {
		t.Parallel()
		a := [3]float64{0, 1, 0}
		assert.Equal(t, IdentityRotation(), RotationBetween(a, a))
	})

	t.Run("antiparallel vectors still map", func(t *testing.T) {
		t.Parallel()
		a := [3]float64{1, 0, 0}
		b := [3]float64{-1, 0, 0}
		v := RotationBetween(a, b).Apply(a)
		for i := range b {
			assert.InDelta(t, b[i], v[i], 1e-12)
		}
	})
}
