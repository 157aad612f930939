package analysis

import (
	"strings"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// Phase holds a 2D phase-plane trajectory.
type Phase struct {
	XIndex, YIndex int
	Points         []struct{ X, Y float64 }
}

// PhasePortrait projects a result onto two state components.
func PhasePortrait(res *dynamo.Result, xIdx, yIdx int) *Phase {
	if res == nil || res.Len() == 0 {
		return nil
	}
	dim := len(res.States[0])
	if xIdx >= dim || yIdx >= dim {
		return nil
	}

	portrait := &Phase{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]struct{ X, Y float64 }, 0, res.Len()),
	}
	for _, x := range res.States {
		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{
			X: x[xIdx],
			Y: x[yIdx],
		})
	}
	return portrait
}

// ASCII renders the portrait on a width×height character grid. The first
// point is drawn as 'o' and the last as '*'.
func (p *Phase) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		if pt.X < minX {
			minX = pt.X
		}
		if pt.X > maxX {
			maxX = pt.X
		}
		if pt.Y < minY {
			minY = pt.Y
		}
		if pt.Y > maxY {
			maxY = pt.Y
		}
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	minY -= rangeY * 0.05
	rangeX *= 1.1
	rangeY *= 1.1

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	cell := func(x, y float64) (int, int) {
		col := int((x - minX) / rangeX * float64(width-1))
		row := height - 1 - int((y-minY)/rangeY*float64(height-1))
		return row, col
	}

	for _, pt := range p.Points {
		row, col := cell(pt.X, pt.Y)
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}
	first, last := p.Points[0], p.Points[len(p.Points)-1]
	if row, col := cell(first.X, first.Y); row >= 0 && row < height && col >= 0 && col < width {
		canvas[row][col] = 'o'
	}
	if row, col := cell(last.X, last.Y); row >= 0 && row < height && col >= 0 && col < width {
		canvas[row][col] = '*'
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
