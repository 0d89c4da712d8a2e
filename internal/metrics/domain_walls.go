package metrics

import "github.com/san-kum/isingsim/internal/ising"

// DomainWalls averages the fraction of nearest-neighbour bonds joining
// opposite spins.
type DomainWalls struct {
	name    string
	sum     float64
	samples int
}

func NewDomainWalls() *DomainWalls {
	return &DomainWalls{name: "domain_walls"}
}

func (d *DomainWalls) Name() string { return d.name }

func (d *DomainWalls) Observe(l *ising.Lattice) {
	n := l.Size()
	broken := 0
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			s := l.At(x, y)
			if s != l.At((x+1)%n, y) {
				broken++
			}
			if s != l.At(x, (y+1)%n) {
				broken++
			}
		}
	}
	d.sum += float64(broken) / float64(2*n*n)
	d.samples++
}

func (d *DomainWalls) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return d.sum / float64(d.samples)
}

func (d *DomainWalls) Reset() {
	d.sum = 0
	d.samples = 0
}
