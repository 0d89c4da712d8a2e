package ising

// Spin is the two-valued state of a lattice site. The zero value is Down.
type Spin bool

const (
	Down Spin = false
	Up   Spin = true
)

// SpinFromBool maps true to Up and false to Down.
func SpinFromBool(b bool) Spin { return Spin(b) }

// SpinFromInt converts +1 or -1 into a Spin.
func SpinFromInt(v int) (Spin, error) {
	switch v {
	case 1:
		return Up, nil
	case -1:
		return Down, nil
	default:
		return Down, &SpinValueError{Value: v}
	}
}

// Flip toggles the spin in place.
func (s *Spin) Flip() { *s = !*s }

func (s Spin) Bool() bool { return bool(s) }

// Int returns +1 for Up and -1 for Down.
func (s Spin) Int() int {
	if s {
		return 1
	}
	return -1
}

func (s Spin) String() string {
	if s {
		return "+"
	}
	return "-"
}
