package bkt

// Thresholds partition the mastery probability scale. They are
// configuration, not constants, so individual subjects can be tuned.
type Thresholds struct {
	// Mastery is the P(L) at or above which a concept counts as mastered
	// (given at least one observation).
	Mastery float64
	// Learning is the P(L) below which a concept is considered in need of
	// foundational work. Used for progress reporting only; it never gates
	// the mastery state machine.
	Learning float64
}

// DefaultThresholds returns the standard 0.90 / 0.40 split.
func DefaultThresholds() Thresholds {
	return Thresholds{Mastery: 0.90, Learning: 0.40}
}

// Mastered reports whether the given mastery probability and observation
// count qualify as mastered. A concept never masters on zero observations,
// regardless of its prior.
func (t Thresholds) Mastered(pl float64, observations int) bool {
	return pl >= t.Mastery && observations >= 1
}

// Weak reports whether the mastery probability sits below the learning
// band, signalling that prerequisite work may be needed.
func (t Thresholds) Weak(pl float64) bool {
	return pl < t.Learning
}
