// Package plant models the mechanical side of the rig for simulated runs.
package plant

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

type Control []float64

type Dynamics interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}
