// Package bkt implements the Bayesian Knowledge Tracing mastery update:
// an evidence step (Bayes' rule conditioned on the observed outcome)
// followed by a learning step (transition probability applied to the
// posterior). All functions are pure.
package bkt

import "math"

// epsilon guards the evidence-step denominator. Parameters that drive the
// denominator below this are degenerate (e.g. PG=0 with PL=0 on a correct
// answer) and would otherwise divide by zero.
const epsilon = 1e-9

// Result carries the outcome of a single BKT update.
type Result struct {
	Prior      float64 // P(L) before the observation
	Posterior  float64 // P(knew | outcome), the evidence-step output
	Updated    float64 // P(L) after the learning step, clamped to [0, 1]
	Degenerate bool    // evidence step skipped due to a near-zero denominator
}

// Delta returns the change in mastery probability.
func (r Result) Delta() float64 {
	return r.Updated - r.Prior
}

// Update applies one BKT observation to the prior mastery probability.
//
// If correct:   p_ev = PL·(1−PS) / (PL·(1−PS) + (1−PL)·PG)
// If incorrect: p_ev = PL·PS / (PL·PS + (1−PL)·(1−PG))
// Then:         PL'  = p_ev + (1 − p_ev)·PT
//
// When the evidence denominator is ≤ epsilon the evidence step is skipped
// and the learning step applies to the unchanged prior; the fallback is
// reported via Result.Degenerate rather than silently absorbed.
func Update(prior float64, p Params, correct bool) Result {
	prior = clamp(prior)

	var num, den float64
	if correct {
		num = prior * (1 - p.PS)
		den = prior*(1-p.PS) + (1-prior)*p.PG
	} else {
		num = prior * p.PS
		den = prior*p.PS + (1-prior)*(1-p.PG)
	}

	res := Result{Prior: prior}
	if den <= epsilon {
		res.Degenerate = true
		res.Posterior = prior
	} else {
		res.Posterior = clamp(num / den)
	}

	res.Updated = clamp(res.Posterior + (1-res.Posterior)*p.PT)
	return res
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
