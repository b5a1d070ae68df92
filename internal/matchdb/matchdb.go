// Package matchdb records matcher telemetry to sqlite: the tolerances of
// every softening attempt, the outcome per frame, and the accepted
// correspondences. The caller of the matcher owns observability; this store
// gives the outer refinement loop something durable to inspect when a frame
// fails to match.
package matchdb

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/skymatch/internal/astrometry"
)

// MatchDB wraps the sqlite handle for matcher telemetry.
type MatchDB struct {
	*sql.DB
}

//go:embed schema.sql
var schemaSQL string

// New opens (creating if needed) a telemetry database at path and applies
// the schema.
func New(path string) (*MatchDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open match database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply match database schema: %w", err)
	}
	return &MatchDB{db}, nil
}

// RecordAttempt stores the parameters of one softening round.
func (mdb *MatchDB) RecordAttempt(frameID string, round astrometry.RoundInfo) error {
	_, err := mdb.Exec(`
		INSERT INTO match_attempts
			(frame_id, try_idx, max_match_dist_arcsec, pattern_size,
			 attempt_width, required_agreement, max_shift_arcsec)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		frameID, round.Try, round.MaxMatchDistArcsec, round.PatternSize,
		round.AttemptWidth, round.RequiredAgreement, round.MaxShiftArcsec)
	if err != nil {
		return fmt.Errorf("failed to insert match attempt: %w", err)
	}
	return nil
}

// RecordOutcome stores the per-frame result. On success pass the tolerance
// context after the call and matchErr nil; on failure matchErr carries the
// matcher error.
func (mdb *MatchDB) RecordOutcome(frameID string, tol *astrometry.ToleranceContext,
	matched int, matchErr error) error {

	accepted := 0
	var pattern, shift interface{}
	var errText interface{}
	if matchErr == nil {
		accepted = 1
		pattern = tol.LastMatchedPattern
		shift = tol.MaxShift
	} else {
		errText = matchErr.Error()
	}
	_, err := mdb.Exec(`
		INSERT INTO match_results
			(frame_id, accepted, pattern_idx, shift_arcsec, matched_pairs, error)
		VALUES (?, ?, ?, ?, ?, ?)`,
		frameID, accepted, pattern, shift, matched, errText)
	if err != nil {
		return fmt.Errorf("failed to insert match result: %w", err)
	}
	return nil
}

// RecordMatches stores the accepted correspondences for a frame in one
// transaction.
func (mdb *MatchDB) RecordMatches(frameID string, matches []astrometry.Match) error {
	tx, err := mdb.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO matches
			(frame_id, ref_id, src_id, ref_idx, src_idx, separation_arcsec)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer stmt.Close()
	for _, m := range matches {
		if _, err := stmt.Exec(frameID, m.RefID, m.SrcID, m.RefIndex, m.SrcIndex, m.Separation); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert match: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit matches: %w", err)
	}
	return nil
}

// AttemptCount returns the number of recorded attempts for a frame.
func (mdb *MatchDB) AttemptCount(frameID string) (int, error) {
	var n int
	err := mdb.QueryRow(`SELECT COUNT(*) FROM match_attempts WHERE frame_id = ?`, frameID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return n, nil
}

// MatchCount returns the number of recorded correspondences for a frame.
func (mdb *MatchDB) MatchCount(frameID string) (int, error) {
	var n int
	err := mdb.QueryRow(`SELECT COUNT(*) FROM matches WHERE frame_id = ?`, frameID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}
