package metrics

import "math"

// Overshoot is the peak excursion past the setpoint as a percentage of
// the step size.
type Overshoot struct {
	start    float64
	setpoint float64
	peak     float64
}

func NewOvershoot(start, setpoint float64) *Overshoot {
	o := &Overshoot{start: start, setpoint: setpoint}
	o.Reset()
	return o
}

func (o *Overshoot) Name() string { return "overshoot_pct" }

func (o *Overshoot) Observe(t, pos float64) {
	dir := 1.0
	if o.setpoint < o.start {
		dir = -1
	}
	excess := (pos - o.setpoint) * dir
	if excess > o.peak {
		o.peak = excess
	}
}

func (o *Overshoot) Value() float64 {
	step := math.Abs(o.setpoint - o.start)
	if step == 0 {
		return 0
	}
	return o.peak / step * 100
}

func (o *Overshoot) Reset() { o.peak = 0 }

// SettlingTime is the time after which the response stays inside a band
// around the setpoint (band as a fraction of the step size). Value is
// +Inf when the response never settles.
type SettlingTime struct {
	start    float64
	setpoint float64
	band     float64

	enteredAt float64
	inside    bool
}

func NewSettlingTime(start, setpoint, band float64) *SettlingTime {
	s := &SettlingTime{start: start, setpoint: setpoint, band: band}
	s.Reset()
	return s
}

func (s *SettlingTime) Name() string { return "settling_time_s" }

func (s *SettlingTime) Observe(t, pos float64) {
	tol := s.band * math.Abs(s.setpoint-s.start)
	if math.Abs(pos-s.setpoint) <= tol {
		if !s.inside {
			s.inside = true
			s.enteredAt = t
		}
	} else {
		s.inside = false
	}
}

func (s *SettlingTime) Value() float64 {
	if !s.inside {
		return math.Inf(1)
	}
	return s.enteredAt
}

func (s *SettlingTime) Reset() {
	s.inside = false
	s.enteredAt = 0
}

// RiseTime is the time from 10% to 90% of the step.
type RiseTime struct {
	start    float64
	setpoint float64

	t10 float64
	t90 float64
}

func NewRiseTime(start, setpoint float64) *RiseTime {
	r := &RiseTime{start: start, setpoint: setpoint}
	r.Reset()
	return r
}

func (r *RiseTime) Name() string { return "rise_time_s" }

func (r *RiseTime) Observe(t, pos float64) {
	step := r.setpoint - r.start
	if step == 0 {
		return
	}
	frac := (pos - r.start) / step
	if math.IsNaN(r.t10) && frac >= 0.1 {
		r.t10 = t
	}
	if math.IsNaN(r.t90) && frac >= 0.9 {
		r.t90 = t
	}
}

func (r *RiseTime) Value() float64 {
	if math.IsNaN(r.t10) || math.IsNaN(r.t90) {
		return math.Inf(1)
	}
	return r.t90 - r.t10
}

func (r *RiseTime) Reset() {
	r.t10 = math.NaN()
	r.t90 = math.NaN()
}

// SteadyStateError is the distance from the setpoint at the last sample.
type SteadyStateError struct {
	setpoint float64
	last     float64
	seen     bool
}

func NewSteadyStateError(setpoint float64) *SteadyStateError {
	return &SteadyStateError{setpoint: setpoint}
}

func (e *SteadyStateError) Name() string { return "steady_state_error" }

func (e *SteadyStateError) Observe(t, pos float64) {
	e.last = pos
	e.seen = true
}

func (e *SteadyStateError) Value() float64 {
	if !e.seen {
		return math.Inf(1)
	}
	return math.Abs(e.last - e.setpoint)
}

func (e *SteadyStateError) Reset() {
	e.last = 0
	e.seen = false
}
