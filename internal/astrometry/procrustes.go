package astrometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RotationSolver estimates the orthonormal rotation taking one set of unit
// vectors onto another. Implementations must return a proper rotation
// (determinant +1) plus an RMS chord residual usable for conditioning
// checks. The numerical method is an implementation choice.
type RotationSolver interface {
	Solve(src, ref [][3]float64) (Rotation, float64, error)
}

// SVDSolver solves the orthogonal Procrustes problem with a singular value
// decomposition (the Kabsch construction): the best-fit rotation minimising
// the summed squared deviation across all corresponding vectors.
type SVDSolver struct{}

// Solve returns the rotation R minimising sum |R*src[i] - ref[i]|^2 and the
// RMS of that residual. src and ref must be equal-length with at least two
// correspondences.
func (SVDSolver) Solve(src, ref [][3]float64) (Rotation, float64, error) {
	if len(src) != len(ref) {
		return IdentityRotation(), 0, fmt.Errorf("correspondence count mismatch: %d source vs %d reference", len(src), len(ref))
	}
	if len(src) < 2 {
		return IdentityRotation(), 0, fmt.Errorf("need at least 2 correspondences, got %d", len(src))
	}

	// Cross-covariance H = sum src_i ref_i^T.
	h := mat.NewDense(3, 3, nil)
	for n := range src {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				h.Set(i, j, h.At(i, j)+src[n][i]*ref[n][j])
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return IdentityRotation(), 0, fmt.Errorf("svd factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// R = V * diag(1,1,d) * U^T with d chosen so det(R) = +1, which
	// excludes reflections.
	var vut mat.Dense
	vut.Mul(&v, u.T())
	d := 1.0
	if mat.Det(&vut) < 0 {
		d = -1
	}
	sign := mat.NewDiagDense(3, []float64{1, 1, d})
	var tmp, rm mat.Dense
	tmp.Mul(&v, sign)
	rm.Mul(&tmp, u.T())

	var rot Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot[i][j] = rm.At(i, j)
		}
	}

	var sum float64
	for n := range src {
		rv := rot.Apply(src[n])
		for i := 0; i < 3; i++ {
			dlt := rv[i] - ref[n][i]
			sum += dlt * dlt
		}
	}
	rms := math.Sqrt(sum / float64(len(src)))
	return rot, rms, nil
}

// compile-time interface check
var _ RotationSolver = SVDSolver{}
