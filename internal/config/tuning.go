// Package config loads matcher tuning files. Fields are pointers so a
// partial JSON file only overrides what it names; the Get* accessors supply
// defaults for everything else.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/skymatch/internal/astrometry"
)

// TuningConfig is the JSON schema for matcher tuning. The same file can be
// used for startup configuration and for per-frame overrides.
type TuningConfig struct {
	NumBrightStars           *int     `json:"num_bright_stars,omitempty"`
	MinMatchedPairs          *int     `json:"min_matched_pairs,omitempty"`
	MinFracMatchedPairs      *float64 `json:"min_frac_matched_pairs,omitempty"`
	MatcherIterations        *int     `json:"matcher_iterations,omitempty"`
	MaxShiftArcsec           *float64 `json:"max_shift_arcsec,omitempty"`
	MaxRotationDeg           *float64 `json:"max_rotation_deg,omitempty"`
	NumPointsForShape        *int     `json:"num_points_for_shape,omitempty"`
	NumPointsForShapeAttempt *int     `json:"num_points_for_shape_attempt,omitempty"`
	NumPatternConsensus      *int     `json:"num_pattern_consensus,omitempty"`
	PixelScaleArcsec         *float64 `json:"pixel_scale_arcsec,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the size cap. Omitted fields retain
// their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.ToMatcherConfig().Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ToMatcherConfig resolves the tuning file against the matcher defaults.
func (c *TuningConfig) ToMatcherConfig() astrometry.Config {
	cfg := astrometry.DefaultConfig()
	if c.NumBrightStars != nil {
		cfg.NumBrightStars = *c.NumBrightStars
	}
	if c.MinMatchedPairs != nil {
		cfg.MinMatchedPairs = *c.MinMatchedPairs
	}
	if c.MinFracMatchedPairs != nil {
		cfg.MinFracMatchedPairs = *c.MinFracMatchedPairs
	}
	if c.MatcherIterations != nil {
		cfg.MatcherIterations = *c.MatcherIterations
	}
	if c.MaxShiftArcsec != nil {
		cfg.MaxShiftArcsec = *c.MaxShiftArcsec
	}
	if c.MaxRotationDeg != nil {
		cfg.MaxRotationDeg = *c.MaxRotationDeg
	}
	if c.NumPointsForShape != nil {
		cfg.NumPointsForShape = *c.NumPointsForShape
	}
	if c.NumPointsForShapeAttempt != nil {
		cfg.NumPointsForShapeAttempt = *c.NumPointsForShapeAttempt
	}
	if c.NumPatternConsensus != nil {
		cfg.NumPatternConsensus = *c.NumPatternConsensus
	}
	if c.PixelScaleArcsec != nil {
		cfg.PixelScaleArcsec = *c.PixelScaleArcsec
	}
	return cfg
}
