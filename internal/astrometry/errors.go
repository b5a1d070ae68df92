package astrometry

import "errors"

// Sentinel errors surfaced by Matcher.Match. Degenerate candidate geometry
// and transforms verifying below the minimum pair count are handled
// internally by skipping the candidate; they never surface here.
var (
	// ErrEmptyInput reports that one of the point sets has no points.
	ErrEmptyInput = errors.New("astrometry: empty point set")

	// ErrInsufficientPoints reports that a point set has too few points to
	// form a single pattern of the configured size.
	ErrInsufficientPoints = errors.New("astrometry: too few points to form a pattern")

	// ErrNoConsistentPattern reports that every softening round was
	// exhausted without an accepted transform. The caller decides whether
	// to retry with relaxed configuration or abort its refinement loop.
	ErrNoConsistentPattern = errors.New("astrometry: no consistent pattern found")
)
