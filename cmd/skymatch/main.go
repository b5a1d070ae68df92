// Command skymatch matches a detected source catalog against a reference
// catalog and prints the correspondences. It drives the matcher the way an
// outer WCS-refinement loop would: one tolerance context per frame,
// threaded through repeated calls.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/skymatch/internal/astrometry"
	"github.com/banshee-data/skymatch/internal/catalog"
	"github.com/banshee-data/skymatch/internal/config"
	"github.com/banshee-data/skymatch/internal/matchdb"
)

func main() {
	refPath := flag.String("ref", "", "reference catalog JSON (required)")
	srcPath := flag.String("src", "", "source catalog JSON (required)")
	cfgPath := flag.String("config", "", "tuning JSON (optional, defaults applied)")
	dbPath := flag.String("db", "", "sqlite telemetry database (optional)")
	frameID := flag.String("frame", "frame-0", "frame id for telemetry rows")
	iterations := flag.Int("iterations", 1, "refinement loop iterations")
	flag.Parse()

	if *refPath == "" || *srcPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := astrometry.DefaultConfig()
	if *cfgPath != "" {
		tuning, err := config.LoadTuningConfig(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = tuning.ToMatcherConfig()
	}

	refEntries, err := catalog.Load(*refPath)
	if err != nil {
		log.Fatalf("load reference: %v", err)
	}
	srcEntries, err := catalog.Load(*srcPath)
	if err != nil {
		log.Fatalf("load source: %v", err)
	}

	var db *matchdb.MatchDB
	if *dbPath != "" {
		db, err = matchdb.New(*dbPath)
		if err != nil {
			log.Fatalf("open telemetry db: %v", err)
		}
		defer db.Close()
	}

	matcher, err := astrometry.NewMatcher(catalog.ToPointSet(refEntries))
	if err != nil {
		log.Fatalf("build matcher: %v", err)
	}
	if db != nil {
		matcher.OnRound = func(round astrometry.RoundInfo) {
			if err := db.RecordAttempt(*frameID, round); err != nil {
				log.Printf("record attempt: %v", err)
			}
		}
	}

	src := catalog.ToPointSet(srcEntries)
	tol := astrometry.NewToleranceContext()

	var matches []astrometry.Match
	for i := 0; i < *iterations; i++ {
		matches, err = matcher.Match(src, tol, cfg)
		if err != nil {
			break
		}
		log.Printf("iteration %d: %d matches, shift %.2f\"", i, len(matches), tol.MaxShift)
	}
	if db != nil {
		if derr := db.RecordOutcome(*frameID, tol, len(matches), err); derr != nil {
			log.Printf("record outcome: %v", derr)
		}
	}
	if err != nil {
		if errors.Is(err, astrometry.ErrNoConsistentPattern) {
			log.Fatalf("astrometric matching failed for this frame: %v", err)
		}
		log.Fatalf("match: %v", err)
	}
	if db != nil {
		if derr := db.RecordMatches(*frameID, matches); derr != nil {
			log.Printf("record matches: %v", derr)
		}
	}

	for _, m := range matches {
		fmt.Printf("ref %d <- src %d  sep %.3f\"\n", m.RefID, m.SrcID, m.Separation)
	}
	log.Printf("✓ matched %d pairs (pattern %d, shift %.2f\")",
		len(matches), tol.LastMatchedPattern, tol.MaxShift)
}
