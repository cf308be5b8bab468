// Package integrators steps plant dynamics forward in time.
package integrators

import (
	"fmt"

	"github.com/mecha04/motorlab/internal/plant"
)

type Integrator interface {
	Step(dyn plant.Dynamics, x plant.State, u plant.Control, t, dt float64) plant.State
}

func ByName(name string) (Integrator, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "", "rk4":
		return NewRK4(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
}
