package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is the right-hand side of dx/dt = f(x, t). Derive must be pure: the
// solvers call it at trial states that are never accepted.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// Validator is implemented by systems whose parameters carry physical
// preconditions. Validate is called once before integration starts.
type Validator interface {
	Validate() error
}

// Labeled systems name their state components for plots and CSV headers.
type Labeled interface {
	StateLabels() []string
}

// Solver advances one initial-value problem. It owns every intermediate value;
// callers only observe accepted steps through T, Y and Interpolate.
type Solver interface {
	// Step takes one accepted step, never past the end of the span.
	Step() error
	T() float64
	Y() State
	// Interpolate evaluates the dense output of the last accepted step. It is
	// valid for t between the previous and the current T.
	Interpolate(t float64) State
	Stats() Stats
}

// Method builds a Solver for one run.
type Method func(sys System, t0 float64, y0 State, tEnd float64, cfg Config) (Solver, error)

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnSample(x State, t float64)
}

type Config struct {
	TStart float64
	TEnd   float64
	// SampleTimes are the output instants. Empty means every accepted step.
	SampleTimes []float64

	RTol      float64
	ATol      float64
	FirstStep float64 // 0 selects it automatically
	MaxStep   float64 // 0 means unbounded
	Dt        float64 // fixed-step methods only
	MaxSteps  int

	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		TStart:        0,
		TEnd:          10.0,
		RTol:          1e-3,
		ATol:          1e-6,
		Dt:            0.01,
		MaxSteps:      100000,
		ValidateState: true,
	}
}

// Stats counts the work done by a solver.
type Stats struct {
	Steps          int `json:"steps"`
	Rejected       int `json:"rejected"`
	Evaluations    int `json:"evaluations"`
	Jacobians      int `json:"jacobians"`
	Decompositions int `json:"decompositions"`
}

// Result is the sampled trajectory of one run.
type Result struct {
	Times   []float64
	States  []State
	Metrics map[string]float64
	Stats   Stats
}

func (r *Result) Len() int { return len(r.Times) }

// Final returns the last sample, or nil for an empty trajectory.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Column extracts state component i across all samples.
func (r *Result) Column(i int) []float64 {
	col := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			col[k] = s[i]
		}
	}
	return col
}
