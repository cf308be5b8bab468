package metrics

import (
	"math"
	"testing"
)

func TestOvershoot(t *testing.T) {
	o := NewOvershoot(0, 1000)
	series := []float64{0, 400, 900, 1150, 1050, 1000, 990}
	for i, pos := range series {
		o.Observe(float64(i)*0.01, pos)
	}
	// peak 1150 on a 1000 step = 15%
	if got := o.Value(); math.Abs(got-15) > 1e-9 {
		t.Errorf("expected 15%% overshoot, got %f", got)
	}
}

func TestOvershootNoneWhenMonotone(t *testing.T) {
	o := NewOvershoot(0, 1000)
	for i, pos := range []float64{0, 300, 600, 900, 980, 999} {
		o.Observe(float64(i)*0.01, pos)
	}
	if got := o.Value(); got != 0 {
		t.Errorf("expected zero overshoot, got %f", got)
	}
}

func TestOvershootDownwardStep(t *testing.T) {
	o := NewOvershoot(1000, 0)
	for i, pos := range []float64{1000, 400, -120, 30, 0} {
		o.Observe(float64(i)*0.01, pos)
	}
	if got := o.Value(); math.Abs(got-12) > 1e-9 {
		t.Errorf("expected 12%% overshoot, got %f", got)
	}
}

func TestSettlingTime(t *testing.T) {
	s := NewSettlingTime(0, 1000, 0.02)
	samples := []struct{ t, pos float64 }{
		{0.0, 0},
		{0.1, 700},
		{0.2, 1030}, // outside band
		{0.3, 1015},
		{0.4, 1005},
		{0.5, 998},
	}
	for _, x := range samples {
		s.Observe(x.t, x.pos)
	}
	if got := s.Value(); got != 0.3 {
		t.Errorf("expected settling at 0.3s, got %f", got)
	}
}

func TestSettlingTimeNeverSettles(t *testing.T) {
	s := NewSettlingTime(0, 1000, 0.02)
	for i := 0; i < 10; i++ {
		pos := 1000.0 + 200*math.Pow(-1, float64(i))
		s.Observe(float64(i)*0.01, pos)
	}
	if !math.IsInf(s.Value(), 1) {
		t.Errorf("expected +Inf for oscillating response, got %f", s.Value())
	}
}

func TestRiseTime(t *testing.T) {
	r := NewRiseTime(0, 1000)
	samples := []struct{ t, pos float64 }{
		{0.00, 0},
		{0.01, 50},
		{0.02, 150}, // crosses 10%
		{0.03, 500},
		{0.04, 920}, // crosses 90%
		{0.05, 990},
	}
	for _, x := range samples {
		r.Observe(x.t, x.pos)
	}
	if got := r.Value(); math.Abs(got-0.02) > 1e-9 {
		t.Errorf("expected rise time 0.02s, got %f", got)
	}
}

func TestSteadyStateError(t *testing.T) {
	e := NewSteadyStateError(1000)
	e.Observe(0, 0)
	e.Observe(1, 985)
	if got := e.Value(); got != 15 {
		t.Errorf("expected 15, got %f", got)
	}
}

func TestEvaluate(t *testing.T) {
	times := []int64{0, 100, 200, 300, 400}
	positions := []int64{0, 600, 950, 1010, 1000}
	m := Evaluate(times, positions, 0, 1000)

	if m["overshoot_pct"] != 1.0 {
		t.Errorf("overshoot: expected 1%%, got %f", m["overshoot_pct"])
	}
	if m["steady_state_error"] != 0 {
		t.Errorf("steady state error: expected 0, got %f", m["steady_state_error"])
	}
	if math.IsInf(m["settling_time_s"], 1) {
		t.Error("expected finite settling time")
	}
	if math.IsInf(m["rise_time_s"], 1) {
		t.Error("expected finite rise time")
	}
}

func TestReset(t *testing.T) {
	o := NewOvershoot(0, 100)
	o.Observe(0, 150)
	o.Reset()
	if o.Value() != 0 {
		t.Errorf("expected zero after reset, got %f", o.Value())
	}
}
