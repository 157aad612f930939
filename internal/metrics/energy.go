package metrics

import "github.com/san-kum/reactorsim/internal/dynamo"

// Integral accumulates ∫f(x, t) dt over the sample times with the trapezoidal
// rule.
type Integral struct {
	name   string
	f      Action
	total  float64
	lastT  float64
	lastF  float64
	primed bool
}

func NewIntegral(name string, f Action) *Integral {
	return &Integral{name: name, f: f}
}

// NewHeatDelivered integrates a heat duty in W and reports the total in J.
func NewHeatDelivered(duty Action) *Integral {
	return NewIntegral("heat_delivered", duty)
}

func (m *Integral) Name() string { return m.name }

func (m *Integral) Observe(x dynamo.State, t float64) {
	v := m.f(x, t)
	if m.primed {
		m.total += 0.5 * (v + m.lastF) * (t - m.lastT)
	}
	m.lastT, m.lastF, m.primed = t, v, true
}

func (m *Integral) Value() float64 {
	return m.total
}

func (m *Integral) Reset() {
	m.total = 0
	m.lastT = 0
	m.lastF = 0
	m.primed = false
}

// Fraction is the share of samples at which a condition holds.
type Fraction struct {
	name    string
	cond    func(x dynamo.State, t float64) bool
	hits    int
	samples int
}

func NewFraction(name string, cond func(x dynamo.State, t float64) bool) *Fraction {
	return &Fraction{name: name, cond: cond}
}

func (m *Fraction) Name() string { return m.name }

func (m *Fraction) Observe(x dynamo.State, t float64) {
	m.samples++
	if m.cond(x, t) {
		m.hits++
	}
}

func (m *Fraction) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.hits) / float64(m.samples)
}

func (m *Fraction) Reset() {
	m.hits = 0
	m.samples = 0
}
