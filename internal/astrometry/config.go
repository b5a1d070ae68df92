package astrometry

import "fmt"

// Config holds the tunable knobs for one matching run. Defaults follow
// DefaultConfig; Validate enforces the documented bounds.
type Config struct {
	// NumBrightStars caps how many of the brightest points of each set
	// participate in pattern construction. When either catalog is smaller
	// than this, consensus mode is disabled for the run.
	NumBrightStars int

	// MinMatchedPairs is the minimum full-catalog agreement count
	// required to accept any transform. See also MinFracMatchedPairs.
	MinMatchedPairs int

	// MinFracMatchedPairs expresses the minimum pair count as a fraction
	// of the smaller catalog; the effective minimum is the smaller of the
	// two bounds. Zero disables the fractional bound.
	MinFracMatchedPairs float64

	// MatcherIterations is the number of tolerance-softening rounds, the
	// outer bound on total work.
	MatcherIterations int

	// MaxShiftArcsec bounds the admissible rigid shift. Callers usually
	// derive it from the maximum pixel offset times the pixel scale.
	MaxShiftArcsec float64

	// MaxRotationDeg bounds the admissible rotation between the two sets.
	MaxRotationDeg float64

	// NumPointsForShape is the pattern size k; grows by one per round.
	NumPointsForShape int

	// NumPointsForShapeAttempt is the candidate window width per center,
	// at least NumPointsForShape; grows by two per round.
	NumPointsForShapeAttempt int

	// NumPatternConsensus is the number of independently found patterns
	// that must agree on the same shift and rotation once past round 0.
	NumPatternConsensus int

	// PixelScaleArcsec, when set, floors the softened tolerances and the
	// carried-over shift between refinement iterations so they never drop
	// below one pixel.
	PixelScaleArcsec float64
}

// DefaultConfig returns the standard matcher configuration.
func DefaultConfig() Config {
	return Config{
		NumBrightStars:           200,
		MinMatchedPairs:          30,
		MinFracMatchedPairs:      0.3,
		MatcherIterations:        5,
		MaxShiftArcsec:           300,
		MaxRotationDeg:           1.0,
		NumPointsForShape:        6,
		NumPointsForShapeAttempt: 7,
		NumPatternConsensus:      3,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.NumBrightStars < 2 {
		return fmt.Errorf("num_bright_stars must be at least 2, got %d", c.NumBrightStars)
	}
	if c.MinMatchedPairs < 2 {
		return fmt.Errorf("min_matched_pairs must be at least 2, got %d", c.MinMatchedPairs)
	}
	if c.MinFracMatchedPairs < 0 || c.MinFracMatchedPairs > 1 {
		return fmt.Errorf("min_frac_matched_pairs must be between 0 and 1, got %f", c.MinFracMatchedPairs)
	}
	if c.MatcherIterations < 1 {
		return fmt.Errorf("matcher_iterations must be at least 1, got %d", c.MatcherIterations)
	}
	if c.MaxShiftArcsec <= 0 {
		return fmt.Errorf("max_shift_arcsec must be positive, got %f", c.MaxShiftArcsec)
	}
	if c.MaxRotationDeg <= 0 {
		return fmt.Errorf("max_rotation_deg must be positive, got %f", c.MaxRotationDeg)
	}
	if c.NumPointsForShape < 3 {
		return fmt.Errorf("num_points_for_shape must be at least 3, got %d", c.NumPointsForShape)
	}
	if c.NumPointsForShapeAttempt < c.NumPointsForShape {
		return fmt.Errorf("num_points_for_shape_attempt (%d) must be at least num_points_for_shape (%d)",
			c.NumPointsForShapeAttempt, c.NumPointsForShape)
	}
	if c.NumPatternConsensus < 1 {
		return fmt.Errorf("num_pattern_consensus must be at least 1, got %d", c.NumPatternConsensus)
	}
	if c.PixelScaleArcsec < 0 {
		return fmt.Errorf("pixel_scale_arcsec must be non-negative, got %f", c.PixelScaleArcsec)
	}
	return nil
}

// effectiveMinPairs returns the minimum accepted pair count for catalogs of
// the given sizes: the smaller of MinMatchedPairs and the fractional bound,
// never below 2.
func (c Config) effectiveMinPairs(refLen, srcLen int) int {
	minPairs := c.MinMatchedPairs
	if c.MinFracMatchedPairs > 0 {
		smaller := refLen
		if srcLen < smaller {
			smaller = srcLen
		}
		if frac := int(c.MinFracMatchedPairs * float64(smaller)); frac < minPairs {
			minPairs = frac
		}
	}
	if minPairs < 2 {
		minPairs = 2
	}
	return minPairs
}
