// Package viz renders lattices and observable series in the terminal.
//
//   - [RenderLattice]: one styled character per site, braille above [MaxCharGrid]
//   - [PlotSeries]: asciigraph line charts of energy or magnetization
//   - [Live]: Bubble Tea program that sweeps a lattice in real time
//
// # Key Bindings
//
//	Space      - Pause/Resume sweeping
//	Up/Down    - Raise/lower temperature by 5%
//	Left/Right - Lower/raise the external field
//	+/-        - More/fewer sweeps per frame
//	T          - Cycle spin color themes
//	Q          - Quit
package viz
