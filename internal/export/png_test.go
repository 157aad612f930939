package export

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

func trajectory() *dynamo.Result {
	res := &dynamo.Result{}
	for i := 0; i <= 20; i++ {
		t := float64(i)
		res.Times = append(res.Times, t)
		res.States = append(res.States, dynamo.State{0.5 * math.Exp(-t/10), 350 + 10*(1-math.Exp(-t/5))})
	}
	return res
}

func TestNewTrajectoryPlot(t *testing.T) {
	sp := 360.0
	opts := DefaultOptions()
	opts.Title = "cstr_pi"
	opts.Labels = []string{"C", "T"}
	opts.Columns = []int{1}
	opts.Setpoint = &sp
	opts.DisturbanceAt = 10

	p, err := NewTrajectoryPlot(trajectory(), opts)
	require.NoError(t, err)
	assert.Equal(t, "cstr_pi", p.Title.Text)
	assert.True(t, p.Legend.Top)
}

func TestNewTrajectoryPlotErrors(t *testing.T) {
	_, err := NewTrajectoryPlot(&dynamo.Result{Times: []float64{0}, States: []dynamo.State{{1}}}, DefaultOptions())
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.Columns = []int{5}
	_, err = NewTrajectoryPlot(trajectory(), opts)
	assert.Error(t, err)
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.png")
	opts := DefaultOptions()
	opts.Markers = true

	require.NoError(t, SavePNG(path, trajectory(), opts))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
