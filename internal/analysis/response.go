package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// IAE is the integral of |target - y| over the samples.
func IAE(times, values []float64, target float64) float64 {
	if len(times) < 2 {
		return 0
	}
	e := make([]float64, len(values))
	for i, v := range values {
		e[i] = math.Abs(target - v)
	}
	return integrate.Trapezoidal(times, e)
}

// ISE is the integral of (target - y)² over the samples.
func ISE(times, values []float64, target float64) float64 {
	if len(times) < 2 {
		return 0
	}
	e := make([]float64, len(values))
	for i, v := range values {
		d := target - v
		e[i] = d * d
	}
	return integrate.Trapezoidal(times, e)
}

// SettlingTime returns the first sample time after which every remaining
// value lies within ±band of target. ok is false if the last sample is
// outside the band.
func SettlingTime(times, values []float64, target, band float64) (float64, bool) {
	n := len(values)
	if n == 0 || math.Abs(values[n-1]-target) > band {
		return 0, false
	}
	i := n - 1
	for i > 0 && math.Abs(values[i-1]-target) <= band {
		i--
	}
	return times[i], true
}

// Overshoot returns how far the signal goes past target in the direction of
// travel from the first sample, or 0 if it never crosses.
func Overshoot(values []float64, target float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if values[0] <= target {
		return math.Max(0, floats.Max(values)-target)
	}
	return math.Max(0, target-floats.Min(values))
}

// Direction of a monotone signal.
type Direction int

const (
	NotMonotone Direction = iota
	Increasing
	Decreasing
	Constant
)

func (d Direction) String() string {
	switch d {
	case Increasing:
		return "increasing"
	case Decreasing:
		return "decreasing"
	case Constant:
		return "constant"
	default:
		return "not monotone"
	}
}

// Monotone classifies values, tolerating backward moves up to slack.
func Monotone(values []float64, slack float64) Direction {
	up, down := true, true
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d < -slack {
			up = false
		}
		if d > slack {
			down = false
		}
	}
	switch {
	case up && down:
		return Constant
	case up:
		return Increasing
	case down:
		return Decreasing
	default:
		return NotMonotone
	}
}

// Residual is the max-norm of dx/dt at (x, t). A value near zero marks a
// fixed point of the model.
func Residual(sys dynamo.System, x dynamo.State, t float64) float64 {
	dx := sys.Derive(x, t)
	r := 0.0
	for _, v := range dx {
		r = math.Max(r, math.Abs(v))
	}
	return r
}

// TailMean averages the samples with time >= from.
func TailMean(times, values []float64, from float64) float64 {
	var tail []float64
	for i, t := range times {
		if t >= from {
			tail = append(tail, values[i])
		}
	}
	if len(tail) == 0 {
		return math.NaN()
	}
	return stat.Mean(tail, nil)
}
