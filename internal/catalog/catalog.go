// Package catalog reads and writes the JSON catalog files consumed by the
// skymatch command line tools. The on-disk format is a plain array of
// entries; the matcher itself never touches files.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"

	"github.com/banshee-data/skymatch/internal/sphere"
)

// Entry is one catalog object: sky position in degrees plus a flux-like
// scalar and a stable identity.
type Entry struct {
	ID     int64   `json:"id"`
	RaDeg  float64 `json:"ra_deg"`
	DecDeg float64 `json:"dec_deg"`
	Flux   float64 `json:"flux"`
}

// Load reads a catalog file and returns its entries.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return entries, nil
}

// Save writes entries to a catalog file.
func Save(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog %s: %w", path, err)
	}
	return nil
}

// ToPointSet projects entries onto the unit sphere and orders them by
// brightness.
func ToPointSet(entries []Entry) sphere.PointSet {
	pts := make([]sphere.Point, len(entries))
	for i, e := range entries {
		pts[i] = sphere.FromLonLat(orb.Point{e.RaDeg, e.DecDeg}, e.Flux, e.ID)
	}
	return sphere.NewPointSet(pts)
}
