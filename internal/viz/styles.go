package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	StatusOK = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusFailed = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(16)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))
)

// RunInfo is the part of a run the summary panel shows besides the result.
type RunInfo struct {
	ID     string
	Model  string
	Method string
	Labels []string
	Err    error
}

// Summary renders a bordered panel for one run. res may hold a partial
// trajectory when info.Err is set.
func Summary(info RunInfo, res *dynamo.Result) string {
	var b strings.Builder

	head := info.Model + " / " + info.Method
	if info.ID != "" {
		head += "  " + Subtle.Render(info.ID)
	}
	b.WriteString(Title.Render(head))
	b.WriteString("\n")

	if info.Err != nil {
		b.WriteString(StatusFailed.Render("failed"))
		b.WriteString(" ")
		b.WriteString(info.Err.Error())
	} else {
		b.WriteString(StatusOK.Render("ok"))
	}
	b.WriteString("\n\n")

	if res != nil {
		b.WriteString(HeaderStyle.Render("solver"))
		b.WriteString("\n")
		row(&b, "samples", fmt.Sprintf("%d", res.Len()))
		row(&b, "steps", fmt.Sprintf("%d", res.Stats.Steps))
		row(&b, "rejected", fmt.Sprintf("%d", res.Stats.Rejected))
		row(&b, "evaluations", fmt.Sprintf("%d", res.Stats.Evaluations))
		if res.Stats.Jacobians > 0 {
			row(&b, "jacobians", fmt.Sprintf("%d", res.Stats.Jacobians))
			row(&b, "lu", fmt.Sprintf("%d", res.Stats.Decompositions))
		}

		if final := res.Final(); final != nil {
			b.WriteString("\n")
			b.WriteString(HeaderStyle.Render(fmt.Sprintf("final state (t=%.4g)", res.Times[res.Len()-1])))
			b.WriteString("\n")
			for i, v := range final {
				row(&b, label(info.Labels, i), FormatValue(v))
			}
		}

		if len(res.Metrics) > 0 {
			b.WriteString("\n")
			b.WriteString(HeaderStyle.Render("metrics"))
			b.WriteString("\n")
			names := make([]string, 0, len(res.Metrics))
			for name := range res.Metrics {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				row(&b, name, FormatValue(res.Metrics[name]))
			}
		}
	}

	return Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func row(b *strings.Builder, name, value string) {
	b.WriteString(MetricLabel.Render(name))
	b.WriteString(MetricValue.Render(value))
	b.WriteString("\n")
}

// FormatValue prints v compactly; NaN marks a metric with no samples.
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "n/a"
	case v != 0 && (math.Abs(v) >= 1e5 || math.Abs(v) < 1e-3):
		return fmt.Sprintf("%.4e", v)
	default:
		return fmt.Sprintf("%.6g", v)
	}
}

func label(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("x%d", i)
}

// Sparkline renders a one-line trend of values.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var out strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		out.WriteRune(chars[idx])
	}
	return out.String()
}
