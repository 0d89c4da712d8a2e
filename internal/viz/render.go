package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/isingsim/internal/ising"
)

// MaxCharGrid is the largest side length drawn one character per site.
// Larger lattices fall back to braille.
const MaxCharGrid = 64

// RenderLattice draws the current configuration of l.
func RenderLattice(l *ising.Lattice) string {
	return RenderSpins(l.Spins(), l.Size())
}

// RenderSpins draws a row-major n×n configuration using CurrentTheme.
func RenderSpins(spins []bool, n int) string {
	if n > MaxCharGrid {
		c := CanvasFor(n)
		c.DrawSpins(spins, n)
		return lipgloss.NewStyle().Foreground(CurrentTheme.Up).Render(c.String())
	}

	up := lipgloss.NewStyle().Foreground(CurrentTheme.Up).Bold(true)
	down := lipgloss.NewStyle().Foreground(CurrentTheme.Down)

	var b strings.Builder
	for y := 0; y < n; y++ {
		row := spins[y*n : (y+1)*n]
		// style runs of equal spins together to keep escape codes short
		for start := 0; start < n; {
			end := start
			for end < n && row[end] == row[start] {
				end++
			}
			s := ising.SpinFromBool(row[start]).String()
			run := strings.Repeat(s, end-start)
			if row[start] {
				b.WriteString(up.Render(run))
			} else {
				b.WriteString(down.Render(run))
			}
			start = end
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// PlotSeries draws values as an ASCII line chart.
func PlotSeries(values []float64, caption string, height, width int) string {
	if len(values) == 0 {
		return Subtle.Render("(no data)")
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
