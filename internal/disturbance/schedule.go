// Package disturbance provides exogenous forcing functions of time.
//
// Schedules are pure values. Solvers evaluate them many times per step,
// including at trial stages that are later rejected, so Value must not keep
// state between calls.
//
// A [Step] is discontinuous. The adaptive solvers do not locate the
// discontinuity; they cross it by rejecting and shrinking steps, which can
// cost a burst of small steps right after the trigger time.
package disturbance

// Schedule returns a scalar input, such as a heat load in W, at time t.
type Schedule interface {
	Value(t float64) float64
}

// Step returns Before for t < At and After for t >= At.
type Step struct {
	At     float64 `json:"at"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

func NewStep(at, before, after float64) Step {
	return Step{At: at, Before: before, After: after}
}

func (s Step) Value(t float64) float64 {
	if t < s.At {
		return s.Before
	}
	return s.After
}

// Constant is a time-invariant input.
type Constant float64

func (c Constant) Value(float64) float64 { return float64(c) }

// Zero is the absent disturbance.
var Zero Schedule = Constant(0)

// Func adapts a plain function. The function must be pure.
type Func func(t float64) float64

func (f Func) Value(t float64) float64 { return f(t) }

// Sum superimposes schedules.
type Sum []Schedule

func (s Sum) Value(t float64) float64 {
	total := 0.0
	for _, sch := range s {
		if sch != nil {
			total += sch.Value(t)
		}
	}
	return total
}

// ValueOf evaluates s, treating nil as Zero.
func ValueOf(s Schedule, t float64) float64 {
	if s == nil {
		return 0
	}
	return s.Value(t)
}
