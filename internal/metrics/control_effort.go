package metrics

import (
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// Action evaluates the manipulated variable at a sampled state.
type Action func(x dynamo.State, t float64) float64

// ControlEffort is the mean absolute controller output over the samples.
type ControlEffort struct {
	name    string
	action  Action
	sum     float64
	samples int
}

func NewControlEffort(action Action) *ControlEffort {
	return &ControlEffort{
		name:   "control_effort",
		action: action,
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(x dynamo.State, t float64) {
	c.sum += math.Abs(c.action(x, t))
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
