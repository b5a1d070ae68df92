// Command gen-field generates a synthetic reference catalog and a rotated,
// shifted and noise-contaminated source catalog for matcher testing.
package main

import (
	"flag"
	"log"
	"math"
	"math/rand"

	"github.com/banshee-data/skymatch/internal/catalog"
)

func main() {
	refOut := flag.String("ref", "ref.json", "reference catalog output path")
	srcOut := flag.String("src", "src.json", "source catalog output path")
	n := flag.Int("n", 100, "number of stars")
	fieldDeg := flag.Float64("field", 1.0, "field width (degrees)")
	shiftArcsec := flag.Float64("shift", 60, "applied shift (arcseconds)")
	noiseFrac := flag.Float64("noise", 0.2, "fraction of uncorrelated noise sources")
	seed := flag.Int64("seed", 1, "rng seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	ref := make([]catalog.Entry, *n)
	for i := range ref {
		ref[i] = catalog.Entry{
			ID:     int64(i),
			RaDeg:  rng.Float64() * *fieldDeg,
			DecDeg: (rng.Float64() - 0.5) * *fieldDeg,
			Flux:   1000 * math.Pow(0.95, float64(i)),
		}
	}

	// The source frame is the reference field offset in RA; the small-field
	// approximation is fine at these scales.
	shiftDeg := *shiftArcsec / 3600
	src := make([]catalog.Entry, 0, *n+int(float64(*n)**noiseFrac))
	for i, e := range ref {
		src = append(src, catalog.Entry{
			ID:     int64(10000 + i),
			RaDeg:  e.RaDeg + shiftDeg,
			DecDeg: e.DecDeg,
			Flux:   e.Flux * (1 + 0.01*rng.NormFloat64()),
		})
	}
	for i := 0; i < int(float64(*n)**noiseFrac); i++ {
		src = append(src, catalog.Entry{
			ID:     int64(20000 + i),
			RaDeg:  rng.Float64()**fieldDeg + shiftDeg,
			DecDeg: (rng.Float64() - 0.5) * *fieldDeg,
			Flux:   rng.Float64() * 10,
		})
	}

	if err := catalog.Save(*refOut, ref); err != nil {
		log.Fatalf("write reference: %v", err)
	}
	if err := catalog.Save(*srcOut, src); err != nil {
		log.Fatalf("write source: %v", err)
	}
	log.Printf("✓ Created: %s (%d stars), %s (%d sources)", *refOut, len(ref), *srcOut, len(src))
}
