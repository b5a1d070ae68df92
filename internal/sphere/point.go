// Package sphere provides the unit-sphere point model shared by the
// astrometric matcher: projection of catalog coordinates onto 3-D unit
// vectors, a brightness-ordered point set, and angular separation helpers.
package sphere

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// ArcsecPerRadian converts angles in radians to arcseconds.
const ArcsecPerRadian = 3600 * 180 / math.Pi

// minFlux is the floor applied before taking log10 so that zero or negative
// fluxes still yield a finite (very faint) magnitude.
const minFlux = 1e-32

// Point is one catalog or detection entry projected onto the unit sphere.
// Points are immutable for the duration of a matching call.
type Point struct {
	// Unit is the position as an (x, y, z) unit vector.
	Unit [3]float64

	// Mag is the -2.5*log10(flux) brightness proxy. Smaller is brighter.
	Mag float64

	// ID is the stable catalog or detection identity of the point.
	ID int64
}

// FromRaDec projects right ascension and declination (radians) plus a flux
// onto a Point. The polar angle convention puts the north celestial pole at
// +z.
func FromRaDec(raRad, decRad, flux float64, id int64) Point {
	theta := math.Pi/2 - decRad
	phi := raRad
	sinTheta := math.Sin(theta)
	return Point{
		Unit: [3]float64{
			sinTheta * math.Cos(phi),
			sinTheta * math.Sin(phi),
			math.Cos(theta),
		},
		Mag: MagnitudeFromFlux(flux),
		ID:  id,
	}
}

// FromLonLat projects an orb lon/lat point (degrees, Lon=RA, Lat=Dec) plus a
// flux onto a Point.
func FromLonLat(p orb.Point, flux float64, id int64) Point {
	return FromRaDec(p.Lon()*math.Pi/180, p.Lat()*math.Pi/180, flux, id)
}

// MagnitudeFromFlux converts a flux-like scalar to the monotone magnitude
// proxy used for brightness ordering.
func MagnitudeFromFlux(flux float64) float64 {
	if flux < minFlux {
		flux = minFlux
	}
	return -2.5 * math.Log10(flux)
}

// PointSet is an ordered sequence of Points, brightest (smallest magnitude)
// first. The ordering is semantic: brightness rank determines pattern
// construction priority and must be preserved by all consumers.
type PointSet []Point

// NewPointSet copies pts and returns them sorted by ascending magnitude.
// The sort is stable so equal-magnitude points keep their input order and
// repeated construction from identical input is deterministic.
func NewPointSet(pts []Point) PointSet {
	set := make(PointSet, len(pts))
	copy(set, pts)
	sort.SliceStable(set, func(i, j int) bool { return set[i].Mag < set[j].Mag })
	return set
}

// Separation returns the true angular separation between two unit vectors in
// radians. The half-chord form is exact on the sphere and numerically stable
// for small angles, unlike acos of the dot product.
func Separation(a, b [3]float64) float64 {
	chord := Chord(a, b)
	half := chord / 2
	if half > 1 {
		half = 1
	}
	return 2 * math.Asin(half)
}

// SeparationArcsec returns the angular separation between two unit vectors
// in arcseconds.
func SeparationArcsec(a, b [3]float64) float64 {
	return Separation(a, b) * ArcsecPerRadian
}

// Chord returns the Euclidean chord length between two unit vectors.
func Chord(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ArcsecToRad converts an angle in arcseconds to radians.
func ArcsecToRad(arcsec float64) float64 {
	return arcsec / ArcsecPerRadian
}
