package integrators

import "github.com/mecha04/motorlab/internal/plant"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn plant.Dynamics, x plant.State, u plant.Control, t, dt float64) plant.State {
	dx := dyn.Derive(x, u, t)
	result := make(plant.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}
