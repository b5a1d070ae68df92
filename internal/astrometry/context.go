package astrometry

// NoPattern is the LastMatchedPattern value meaning no pattern has matched
// yet for this frame.
const NoPattern = -1

// ToleranceContext carries matcher state across repeated calls against the
// same frame while an outer WCS-refinement loop iterates. It is created once
// per frame, owned by the caller, and treated as exclusively owned for the
// duration of each Match call; it is not safe for concurrent calls against
// the same context.
//
// All angles are arcseconds; zero means unset.
type ToleranceContext struct {
	// MaxMatchDist is the active match-distance tolerance, typically set
	// by the caller from the scatter of the previous WCS fit.
	MaxMatchDist float64

	// AutoMaxMatchDist is the tolerance estimated automatically from
	// catalog pattern self-similarity on the first call.
	AutoMaxMatchDist float64

	// MaxShift is the rigid shift magnitude observed on the last
	// successful match, used to bound the next search.
	MaxShift float64

	// LastMatchedPattern is the brightness rank of the source pattern
	// that most recently matched, or NoPattern.
	LastMatchedPattern int

	// FailedPatterns holds brightness ranks of source patterns excluded
	// from future attempts. It grows monotonically within a run and never
	// contains LastMatchedPattern while that pattern is still valid.
	FailedPatterns map[int]bool
}

// NewToleranceContext returns a fresh context for a new frame.
func NewToleranceContext() *ToleranceContext {
	return &ToleranceContext{
		LastMatchedPattern: NoPattern,
		FailedPatterns:     make(map[int]bool),
	}
}

// FailPattern blacklists the pattern starting at the given brightness rank
// for the remainder of the run.
func (t *ToleranceContext) FailPattern(start int) {
	if t.FailedPatterns == nil {
		t.FailedPatterns = make(map[int]bool)
	}
	t.FailedPatterns[start] = true
}

// HasFailed reports whether the pattern starting at the given brightness
// rank has been blacklisted.
func (t *ToleranceContext) HasFailed(start int) bool {
	return t.FailedPatterns[start]
}
