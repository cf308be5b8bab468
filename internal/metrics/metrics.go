// Package metrics computes step-response figures of merit.
package metrics

// Metric observes (time, position) samples and reduces them to a number.
type Metric interface {
	Name() string
	Observe(t, pos float64)
	Value() float64
	Reset()
}

// Evaluate runs the standard step metrics over a sample series. Times are
// milliseconds, positions encoder counts; start is the position at the
// step and setpoint the commanded target.
func Evaluate(times, positions []int64, start, setpoint int64) map[string]float64 {
	ms := []Metric{
		NewOvershoot(float64(start), float64(setpoint)),
		NewSettlingTime(float64(start), float64(setpoint), 0.02),
		NewRiseTime(float64(start), float64(setpoint)),
		NewSteadyStateError(float64(setpoint)),
	}
	for i := range times {
		t := float64(times[i]) / 1000.0
		for _, m := range ms {
			m.Observe(t, float64(positions[i]))
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
