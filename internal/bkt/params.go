package bkt

import "fmt"

// Params holds the four Bayesian Knowledge Tracing parameters in effect
// for a concept. All values are probabilities in [0, 1].
type Params struct {
	PL0 float64 `json:"p_l0"` // initial knowledge probability
	PT  float64 `json:"p_t"`  // transition (learn rate per observation)
	PG  float64 `json:"p_g"`  // guess (correct despite not knowing)
	PS  float64 `json:"p_s"`  // slip (incorrect despite knowing)
}

// DefaultParams returns the conventional starting parameters used when a
// concept declares none of its own.
func DefaultParams() Params {
	return Params{PL0: 0.10, PT: 0.10, PG: 0.25, PS: 0.10}
}

// Validate checks that every parameter is a probability.
func (p Params) Validate() error {
	for _, f := range []struct {
		name string
		val  float64
	}{
		{"p_l0", p.PL0},
		{"p_t", p.PT},
		{"p_g", p.PG},
		{"p_s", p.PS},
	} {
		if f.val < 0 || f.val > 1 {
			return fmt.Errorf("bkt: %s must be in [0, 1], got %v", f.name, f.val)
		}
	}
	return nil
}
