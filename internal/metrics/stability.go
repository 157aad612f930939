package metrics

import (
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// Stability is the fraction of samples with component index inside
// target ± band.
type Stability struct {
	name       string
	index      int
	target     float64
	band       float64
	violations int
	samples    int
}

func NewStability(index int, target, band float64) *Stability {
	return &Stability{
		name:   "in_band",
		index:  index,
		target: target,
		band:   band,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(x dynamo.State, t float64) {
	s.samples++
	if s.index >= len(x) || math.Abs(x[s.index]-s.target) > s.band {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
