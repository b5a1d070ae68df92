// Package astrometry implements pessimistic spherical pattern matching:
// blind correspondence between a detected source point set and a reference
// catalog point set on the unit sphere, with no prior alignment beyond
// coarse shift and rotation bounds.
//
// The matcher proposes small patterns from the brightest unmatched sources,
// looks up geometrically consistent counterpart patterns in the reference
// set through a shape-descriptor index, estimates the rigid rotation and
// shift aligning each candidate pair, and verifies every estimate against
// the full catalogs. When single-pattern matches are unreliable it escalates
// to requiring several independently found patterns to agree on the same
// transform before accepting.
package astrometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/skymatch/internal/monitoring"
	"github.com/banshee-data/skymatch/internal/shape"
	"github.com/banshee-data/skymatch/internal/sphere"
)

// Match pairs one reference object with one detected source under the
// accepted transform. Separation is the true angular separation on the
// sphere between the two positions as supplied, in arcseconds.
type Match struct {
	RefID      int64
	SrcID      int64
	RefIndex   int
	SrcIndex   int
	Separation float64
}

// RoundInfo describes the tolerances of one softening round. Rounds widen
// monotonically: round i+1 parameters dominate round i.
type RoundInfo struct {
	Try                int
	MaxMatchDistArcsec float64
	PatternSize        int
	AttemptWidth       int
	RequiredAgreement  int
	MaxShiftArcsec     float64
}

// CandidateTransform is one accepted rotation/shift hypothesis derived from
// a matched pattern pair.
type CandidateTransform struct {
	// Rot maps source unit vectors onto the reference frame.
	Rot Rotation

	// ShiftArcsec is the angular separation between the two pattern
	// centers, the rigid shift magnitude implied by the pair.
	ShiftArcsec float64

	// Pattern is the brightness rank of the source pattern center.
	Pattern int

	// RefPattern is the window start of the matched reference pattern,
	// used to deduplicate hypotheses found through the same counterpart.
	RefPattern int

	pairs []matchPair
}

type matchPair struct {
	src int
	ref int
}

// Matcher matches source point sets against one reference point set. The
// reference index is built once and shared read-only across calls; a
// Matcher must be rebuilt if the reference catalog changes. One Match call
// runs synchronously with no internal retries across strategies.
type Matcher struct {
	ref      sphere.PointSet
	refIndex *shape.PointIndex

	// Solver estimates the rotation between corresponding pattern
	// vectors. Defaults to SVDSolver.
	Solver RotationSolver

	// OnRound, when set, observes the parameters of each softening round
	// before it runs.
	OnRound func(RoundInfo)

	// OnCandidate, when set, observes each source pattern center as it is
	// attempted.
	OnCandidate func(center int)
}

// NewMatcher builds a matcher over the given reference point set.
func NewMatcher(ref sphere.PointSet) (*Matcher, error) {
	if len(ref) == 0 {
		return nil, fmt.Errorf("%w: reference catalog has no points", ErrEmptyInput)
	}
	idx, err := shape.NewPointIndex(ref)
	if err != nil {
		return nil, err
	}
	return &Matcher{ref: ref, refIndex: idx, Solver: SVDSolver{}}, nil
}

// Match finds correspondences between src and the reference catalog. tol is
// the caller-owned per-frame state: it is read to seed tolerances and
// amended with the outcome, never reset. On success the returned matches
// are ordered by ascending source index. On failure the error is one of the
// package sentinels, possibly wrapped.
func (m *Matcher) Match(src sphere.PointSet, tol *ToleranceContext, cfg Config) ([]Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher config: %w", err)
	}
	if tol == nil {
		return nil, fmt.Errorf("nil tolerance context")
	}
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: source catalog has no points", ErrEmptyInput)
	}
	if len(src) < cfg.NumPointsForShape || len(m.ref) < cfg.NumPointsForShape {
		return nil, fmt.Errorf("%w: need %d, have %d source and %d reference",
			ErrInsufficientPoints, cfg.NumPointsForShape, len(src), len(m.ref))
	}

	// Consensus mode is only statistically meaningful when both catalogs
	// are populated enough to fill the candidate pool.
	numAgree := cfg.NumPatternConsensus
	if len(m.ref) < cfg.NumBrightStars || len(src) < cfg.NumBrightStars {
		numAgree = 1
	}

	baseDist, err := m.seedTolerance(src, tol, cfg)
	if err != nil {
		return nil, err
	}

	// The shift bound carried over from the previous refinement iteration
	// applies to the strict first round only; softened rounds fall back
	// to the configured hard bound.
	firstShift := cfg.MaxShiftArcsec
	if tol.MaxShift > 0 {
		firstShift = math.Max(tol.MaxShift, cfg.PixelScaleArcsec)
	}

	refPool := clampPool(m.ref, cfg.NumBrightStars)
	srcPool := clampPool(src, cfg.NumBrightStars)
	minPairs := cfg.effectiveMinPairs(len(m.ref), len(src))

	for try := 0; try < cfg.MatcherIterations; try++ {
		round := RoundInfo{
			Try:                try,
			MaxMatchDistArcsec: baseDist * math.Pow(2, float64(try)),
			PatternSize:        cfg.NumPointsForShape + try,
			AttemptWidth:       cfg.NumPointsForShapeAttempt + 2*try,
			RequiredAgreement:  numAgree,
			MaxShiftArcsec:     cfg.MaxShiftArcsec,
		}
		if try == 0 {
			// The first, most stringent round behaves optimistically
			// and exits on the first verified pattern.
			round.RequiredAgreement = 1
			round.MaxShiftArcsec = firstShift
		}
		if m.OnRound != nil {
			m.OnRound(round)
		}
		monitoring.Logf("matcher: round %d dist=%.4f\" size=%d width=%d agree=%d shift<=%.1f\"",
			round.Try, round.MaxMatchDistArcsec, round.PatternSize,
			round.AttemptWidth, round.RequiredAgreement, round.MaxShiftArcsec)

		accepted := m.matchRound(src, srcPool, refPool, round, tol, cfg, minPairs)
		if accepted == nil {
			if try == 0 && tol.LastMatchedPattern != NoPattern {
				// Even the strictest attempt failed, so the pattern
				// carried over from the previous refinement iteration
				// is suspect. Blacklist it for the rest of the run.
				monitoring.Logf("matcher: blacklisting previously matched pattern %d",
					tol.LastMatchedPattern)
				tol.FailPattern(tol.LastMatchedPattern)
				tol.LastMatchedPattern = NoPattern
			}
			continue
		}

		tol.MaxShift = accepted.ShiftArcsec
		tol.LastMatchedPattern = accepted.Pattern
		monitoring.Logf("matcher: accepted pattern %d with %d pairs, shift %.2f\"",
			accepted.Pattern, len(accepted.pairs), accepted.ShiftArcsec)
		return m.assemble(src, accepted), nil
	}

	return nil, ErrNoConsistentPattern
}

// seedTolerance resolves the base match-distance tolerance for this call,
// estimating it from catalog self-similarity on first use.
func (m *Matcher) seedTolerance(src sphere.PointSet, tol *ToleranceContext, cfg Config) (float64, error) {
	if tol.MaxMatchDist == 0 {
		srcTol, err := shape.EstimateTolerance(src, cfg.NumPointsForShape)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInsufficientPoints, err)
		}
		refTol, err := shape.EstimateTolerance(m.ref, cfg.NumPointsForShape)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInsufficientPoints, err)
		}
		tol.AutoMaxMatchDist = math.Min(srcTol, refTol)
		monitoring.Logf("matcher: auto tolerance %.4f\" (source %.4f\", reference %.4f\")",
			tol.AutoMaxMatchDist, srcTol, refTol)
		return tol.AutoMaxMatchDist, nil
	}
	dist := tol.MaxMatchDist
	if tol.AutoMaxMatchDist > 0 {
		dist = math.Min(dist, tol.AutoMaxMatchDist)
	}
	return math.Max(cfg.PixelScaleArcsec, dist), nil
}

// matchRound runs one softening round and returns the accepted hypothesis,
// or nil when the round finds no consensus.
func (m *Matcher) matchRound(src, srcPool, refPool sphere.PointSet, round RoundInfo,
	tol *ToleranceContext, cfg Config, minPairs int) *CandidateTransform {

	size := round.PatternSize
	if size > len(srcPool) || size > len(refPool) {
		return nil
	}
	refDescIndex, err := shape.NewDescriptorIndex(refPool, size)
	if err != nil {
		return nil
	}

	distRad := sphere.ArcsecToRad(round.MaxMatchDistArcsec)
	// Descriptor-space search radius matching the tolerance estimator's
	// per-spoke average conversion.
	descRadius := distRad * float64(size-1)
	chordTol := 2 * math.Sin(distRad/2)
	maxRotationRad := cfg.MaxRotationDeg * math.Pi / 180

	var found []CandidateTransform
	maxCenter := len(srcPool) - size
	for center := 0; center <= maxCenter; center++ {
		if tol.HasFailed(center) {
			continue
		}
		if m.OnCandidate != nil {
			m.OnCandidate(center)
		}

		accepted := m.tryCenter(src, srcPool, refPool, refDescIndex, center, round,
			descRadius, chordTol, maxRotationRad, minPairs)
		if accepted == nil {
			continue
		}

		// Count how many previously found hypotheses, discovered through
		// different reference patterns, are statistically indistinguishable
		// from this one on the sky.
		agree := 1
		testPoint := srcPool[accepted.Pattern].Unit
		for _, h := range found {
			if h.RefPattern == accepted.RefPattern {
				continue
			}
			if transformsAgree(h, *accepted, testPoint, chordTol, round.MaxMatchDistArcsec) {
				agree++
			}
		}
		if agree >= round.RequiredAgreement {
			return accepted
		}
		found = append(found, *accepted)
	}
	return nil
}

// tryCenter attempts every spoke selection for one source pattern center
// and returns the first verified hypothesis.
func (m *Matcher) tryCenter(src, srcPool, refPool sphere.PointSet,
	refDescIndex *shape.DescriptorIndex, center int, round RoundInfo,
	descRadius, chordTol, maxRotationRad float64, minPairs int) *CandidateTransform {

	size := round.PatternSize
	width := round.AttemptWidth
	if center+width > len(srcPool) {
		width = len(srcPool) - center
	}
	for off := 0; off+size <= width; off++ {
		spokes := make([]int, size-1)
		for i := range spokes {
			spokes[i] = center + 1 + off + i
		}
		pat := shape.BuildFrom(srcPool, center, spokes)

		for _, refStart := range refDescIndex.Within(pat.Lengths, descRadius) {
			refPat, err := shape.Build(refPool, refStart, size)
			if err != nil {
				continue
			}
			if hyp := m.evaluate(src, srcPool, refPool, pat, refPat, center, refStart,
				round, chordTol, maxRotationRad, minPairs); hyp != nil {
				return hyp
			}
		}
	}
	return nil
}

// evaluate derives the rigid transform implied by one pattern pair and runs
// the full-catalog verification gate. Pattern agreement alone is never
// sufficient; only transforms surviving reprojection of the entire source
// set are returned.
func (m *Matcher) evaluate(src, srcPool, refPool sphere.PointSet,
	srcPat, refPat shape.Pattern, center, refStart int, round RoundInfo,
	chordTol, maxRotationRad float64, minPairs int) *CandidateTransform {

	srcVecs := patternVectors(srcPool, srcPat)
	refVecs := patternVectors(refPool, refPat)
	if degenerate(srcVecs) || degenerate(refVecs) {
		return nil
	}

	rot, rms, err := m.Solver.Solve(srcVecs, refVecs)
	if err != nil || rms > chordTol {
		return nil
	}

	srcCenter := srcPool[center].Unit
	refCenter := refPool[refStart].Unit
	shiftArcsec := sphere.SeparationArcsec(srcCenter, refCenter)
	if shiftArcsec > round.MaxShiftArcsec {
		return nil
	}
	// Split the transform into the minimal center-aligning rotation plus a
	// residual roll about the center; only the roll counts against the
	// rotation bound.
	align := RotationBetween(srcCenter, refCenter)
	if align.AngleTo(rot) > maxRotationRad {
		return nil
	}

	pairs := m.verify(src, rot, chordTol)
	if len(pairs) < minPairs {
		return nil
	}
	return &CandidateTransform{
		Rot:         rot,
		ShiftArcsec: shiftArcsec,
		Pattern:     center,
		RefPattern:  refStart,
		pairs:       pairs,
	}
}

// verify applies rot to every source point and counts reference points
// within the chord tolerance of a transformed source. Each reference point
// is paired at most once, with the closest source winning; ties go to the
// lower source index so the result is deterministic.
func (m *Matcher) verify(src sphere.PointSet, rot Rotation, chordTol float64) []matchPair {
	type best struct {
		src  int
		dist float64
	}
	byRef := make(map[int]best)
	for i := range src {
		v := rot.Apply(src[i].Unit)
		j, dist := m.refIndex.Nearest(v)
		if dist > chordTol {
			continue
		}
		if b, ok := byRef[j]; !ok || dist < b.dist {
			byRef[j] = best{src: i, dist: dist}
		}
	}
	pairs := make([]matchPair, 0, len(byRef))
	for j, b := range byRef {
		pairs = append(pairs, matchPair{src: b.src, ref: j})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].src < pairs[j].src })
	return pairs
}

// assemble converts the accepted pairs into output matches with true
// angular separations, ordered by ascending source index.
func (m *Matcher) assemble(src sphere.PointSet, hyp *CandidateTransform) []Match {
	matches := make([]Match, 0, len(hyp.pairs))
	for _, p := range hyp.pairs {
		matches = append(matches, Match{
			RefID:      m.ref[p.ref].ID,
			SrcID:      src[p.src].ID,
			RefIndex:   p.ref,
			SrcIndex:   p.src,
			Separation: sphere.SeparationArcsec(m.ref[p.ref].Unit, src[p.src].Unit),
		})
	}
	return matches
}

// transformsAgree reports whether two hypotheses are indistinguishable
// within tolerance: they displace a test point on the sky by no more than
// twice the chord tolerance of each other and imply shifts within twice the
// match distance. The doubling accounts for each transform independently
// carrying up to one tolerance of scatter.
func transformsAgree(a, b CandidateTransform, testPoint [3]float64, chordTol, distArcsec float64) bool {
	if math.Abs(a.ShiftArcsec-b.ShiftArcsec) > 2*distArcsec {
		return false
	}
	return sphere.Chord(a.Rot.Apply(testPoint), b.Rot.Apply(testPoint)) <= 2*chordTol
}

// patternVectors collects the pattern's unit vectors, center first and
// spokes in descriptor (sorted length) order, so corresponding ranks across
// a pattern pair are corresponding vectors.
func patternVectors(set sphere.PointSet, p shape.Pattern) [][3]float64 {
	vecs := make([][3]float64, 0, p.Size())
	vecs = append(vecs, set[p.Center].Unit)
	for _, s := range p.Spokes {
		vecs = append(vecs, set[s].Unit)
	}
	return vecs
}

// degenerate reports whether the pattern's points are collinear or
// coincident to numerical precision, configurations that leave the
// Procrustes rotation unconstrained.
func degenerate(vecs [][3]float64) bool {
	if len(vecs) < 3 {
		return true
	}
	c := vecs[0]
	d1 := [3]float64{vecs[1][0] - c[0], vecs[1][1] - c[1], vecs[1][2] - c[2]}
	const eps = 1e-18
	for _, v := range vecs[2:] {
		d := [3]float64{v[0] - c[0], v[1] - c[1], v[2] - c[2]}
		cross := [3]float64{
			d1[1]*d[2] - d1[2]*d[1],
			d1[2]*d[0] - d1[0]*d[2],
			d1[0]*d[1] - d1[1]*d[0],
		}
		if cross[0]*cross[0]+cross[1]*cross[1]+cross[2]*cross[2] > eps {
			return false
		}
	}
	return true
}

// clampPool returns the pool of at most n brightest points of set. The set
// is already brightness-sorted, so this is a prefix.
func clampPool(set sphere.PointSet, n int) sphere.PointSet {
	if len(set) <= n {
		return set
	}
	return set[:n]
}
