package matchdb

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/skymatch/internal/astrometry"
)

func openTestDB(t *testing.T) *MatchDB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "match.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAttempt(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	for try := 0; try < 3; try++ {
		err := db.RecordAttempt("frame-1", astrometry.RoundInfo{
			Try:                try,
			MaxMatchDistArcsec: 0.5 * float64(int(1)<<try),
			PatternSize:        6 + try,
			AttemptWidth:       7 + 2*try,
			RequiredAgreement:  3,
			MaxShiftArcsec:     300,
		})
		require.NoError(t, err)
	}

	n, err := db.AttemptCount("frame-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = db.AttemptCount("frame-2")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRecordOutcome(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)

	t.Run("success row carries pattern and shift", func(t *testing.T) {
		tol := astrometry.NewToleranceContext()
		tol.LastMatchedPattern = 4
		tol.MaxShift = 42.5
		require.NoError(t, db.RecordOutcome("frame-ok", tol, 31, nil))

		var accepted, pattern int
		var shift float64
		err := db.QueryRow(`SELECT accepted, pattern_idx, shift_arcsec FROM match_results WHERE frame_id = ?`,
			"frame-ok").Scan(&accepted, &pattern, &shift)
		require.NoError(t, err)
		assert.Equal(t, 1, accepted)
		assert.Equal(t, 4, pattern)
		assert.InDelta(t, 42.5, shift, 1e-9)
	})

	t.Run("failure row carries the error text", func(t *testing.T) {
		tol := astrometry.NewToleranceContext()
		require.NoError(t, db.RecordOutcome("frame-bad", tol, 0, errors.New("no luck")))

		var accepted int
		var errText string
		err := db.QueryRow(`SELECT accepted, error FROM match_results WHERE frame_id = ?`,
			"frame-bad").Scan(&accepted, &errText)
		require.NoError(t, err)
		assert.Equal(t, 0, accepted)
		assert.Equal(t, "no luck", errText)
	})
}

func TestRecordMatches(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	matches := []astrometry.Match{
		{RefID: 10, SrcID: 1010, RefIndex: 0, SrcIndex: 0, Separation: 59.9},
		{RefID: 11, SrcID: 1011, RefIndex: 1, SrcIndex: 1, Separation: 60.1},
	}
	require.NoError(t, db.RecordMatches("frame-1", matches))

	n, err := db.MatchCount("frame-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var sep float64
	err = db.QueryRow(`SELECT separation_arcsec FROM matches WHERE frame_id = ? AND ref_id = 11`,
		"frame-1").Scan(&sep)
	require.NoError(t, err)
	assert.InDelta(t, 60.1, sep, 1e-9)
}
