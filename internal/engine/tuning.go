package engine

import (
	"github.com/abhisek/masterpath/internal/bkt"
	"github.com/abhisek/masterpath/internal/config"
	"github.com/abhisek/masterpath/internal/elo"
)

// Tuning carries the model parameters the service applies on every
// submission.
type Tuning struct {
	Thresholds    bkt.Thresholds
	InitialElo    float64
	EloK          float64
	QuestionK     float64
	EloTolerance  float64
	RecencyWindow int
}

// DefaultTuning mirrors config.Default().Engine.
func DefaultTuning() Tuning {
	return TuningFromConfig(config.Default().Engine)
}

// TuningFromConfig maps the configuration section onto engine tuning.
func TuningFromConfig(e config.Engine) Tuning {
	t := Tuning{
		Thresholds: bkt.Thresholds{
			Mastery:  e.MasteryThreshold,
			Learning: e.LearningThreshold,
		},
		InitialElo:    e.InitialElo,
		EloK:          e.EloK,
		QuestionK:     e.QuestionK,
		EloTolerance:  e.EloTolerance,
		RecencyWindow: e.RecencyWindow,
	}
	if t.InitialElo == 0 {
		t.InitialElo = elo.DefaultInitial
	}
	if t.Thresholds.Mastery == 0 {
		t.Thresholds = bkt.DefaultThresholds()
	}
	return t
}
