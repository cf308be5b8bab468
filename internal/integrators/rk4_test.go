package integrators

import (
	"math"
	"testing"

	"github.com/mecha04/motorlab/internal/plant"
)

// first-order velocity response: v(t) = gain*u*(1 - exp(-t/tau))
func analyticVel(gain, tau, u, t float64) float64 {
	return gain * u * (1 - math.Exp(-t/tau))
}

func TestRK4AgainstAnalytic(t *testing.T) {
	m := plant.NewDCMotor(500, 0.02)
	integ := NewRK4()

	x := plant.State{0, 0}
	u := plant.Control{50} // constant duty
	dt := 0.001
	tm := 0.0
	for i := 0; i < 100; i++ {
		x = integ.Step(m, x, u, tm, dt)
		tm += dt
	}

	want := analyticVel(500, 0.02, 50, tm)
	if math.Abs(x[1]-want) > 1e-3*math.Abs(want) {
		t.Errorf("velocity after %fs: got %f, want %f", tm, x[1], want)
	}
}

func TestEulerConvergesToSteadyState(t *testing.T) {
	m := plant.NewDCMotor(500, 0.02)
	integ := NewEuler()

	x := plant.State{0, 0}
	u := plant.Control{10}
	dt := 0.0005
	for i := 0; i < 2000; i++ {
		x = integ.Step(m, x, u, 0, dt)
	}

	// steady state velocity is gain*duty
	want := 5000.0
	if math.Abs(x[1]-want) > 0.01*want {
		t.Errorf("steady state velocity: got %f, want ~%f", x[1], want)
	}
}

func TestByName(t *testing.T) {
	if _, err := ByName("rk4"); err != nil {
		t.Fatal(err)
	}
	if _, err := ByName("euler"); err != nil {
		t.Fatal(err)
	}
	if _, err := ByName(""); err != nil {
		t.Fatal("empty name should default to rk4")
	}
	if _, err := ByName("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
