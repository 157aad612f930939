package metrics

import (
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// IAE accumulates the integral of |target - x[index]| with the trapezoidal
// rule over the sample times.
// analysis.IAE computes the same quantity from a stored trajectory.
type IAE struct {
	index  int
	target float64
	total  float64
	lastT  float64
	lastE  float64
	primed bool
}

func NewIAE(index int, target float64) *IAE {
	return &IAE{index: index, target: target}
}

func (m *IAE) Name() string { return "iae" }

func (m *IAE) Observe(x dynamo.State, t float64) {
	e := math.Abs(m.target - x[m.index])
	if m.primed {
		m.total += 0.5 * (e + m.lastE) * (t - m.lastT)
	}
	m.lastT, m.lastE, m.primed = t, e, true
}

func (m *IAE) Value() float64 { return m.total }

func (m *IAE) Reset() {
	m.total, m.lastT, m.lastE, m.primed = 0, 0, 0, false
}

// PeakDeviation is the largest |target - x[index]| seen after From.
type PeakDeviation struct {
	index  int
	target float64
	From   float64
	peak   float64
}

func NewPeakDeviation(index int, target, from float64) *PeakDeviation {
	return &PeakDeviation{index: index, target: target, From: from}
}

func (m *PeakDeviation) Name() string { return "peak_deviation" }

func (m *PeakDeviation) Observe(x dynamo.State, t float64) {
	if t < m.From {
		return
	}
	m.peak = math.Max(m.peak, math.Abs(m.target-x[m.index]))
}

func (m *PeakDeviation) Value() float64 { return m.peak }
func (m *PeakDeviation) Reset()         { m.peak = 0 }

// Final records the last sampled value of one component.
type Final struct {
	name  string
	index int
	value float64
}

func NewFinal(name string, index int) *Final {
	return &Final{name: name, index: index, value: math.NaN()}
}

func (m *Final) Name() string { return m.name }

func (m *Final) Observe(x dynamo.State, t float64) {
	if m.index < len(x) {
		m.value = x[m.index]
	}
}

func (m *Final) Value() float64 { return m.value }
func (m *Final) Reset()         { m.value = math.NaN() }
