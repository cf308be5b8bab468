package control

import (
	"testing"
	"time"
)

func newTestController(t *testing.T, kp float64, pos *int64, out *float64) *Proportional {
	t.Helper()
	c, err := NewProportional("test", kp, 0,
		func(duty float64) error { *out = duty; return nil },
		func() int64 { return *pos },
		10)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestProportionalLaw(t *testing.T) {
	var pos int64 = 1000
	var out float64
	c := newTestController(t, 0.05, &pos, &out)

	duty, err := c.Run(8150, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := 0.05 * float64(8150-1000)
	if duty != want {
		t.Errorf("expected duty %f, got %f", want, duty)
	}
	if out != want {
		t.Errorf("actuator saw %f, want %f", out, want)
	}
}

func TestNegativeErrorDrivesReverse(t *testing.T) {
	var pos int64 = 9000
	var out float64
	c := newTestController(t, 0.05, &pos, &out)

	duty, err := c.Run(8150, 0)
	if err != nil {
		t.Fatal(err)
	}
	if duty >= 0 {
		t.Errorf("expected negative duty for overshoot position, got %f", duty)
	}
}

func TestSampleCapture(t *testing.T) {
	var pos int64
	var out float64
	c := newTestController(t, 2, &pos, &out)

	for i := 0; i < 3; i++ {
		pos = int64(i * 100)
		if _, err := c.Run(500, time.Duration(i*10)*time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}

	times, positions := c.Drain()
	if len(times) != 3 || len(positions) != 3 {
		t.Fatalf("expected 3 samples, got %d/%d", len(times), len(positions))
	}
	if times[2] != 20 {
		t.Errorf("expected third sample at 20ms, got %d", times[2])
	}
	if positions[1] != 100 {
		t.Errorf("expected second position 100, got %d", positions[1])
	}

	// drained
	times, positions = c.Drain()
	if len(times) != 0 || len(positions) != 0 {
		t.Error("expected no samples after drain")
	}
}

func TestCaptureStopsAtBudget(t *testing.T) {
	var pos int64
	var out float64
	c, err := NewProportional("budget", 1, 0,
		func(duty float64) error { out = duty; return nil },
		func() int64 { return pos },
		2)
	if err != nil {
		t.Fatal(err)
	}
	_ = out

	for i := 0; i < 5; i++ {
		if _, err := c.Run(100, time.Duration(i)*time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	times, _ := c.Drain()
	if len(times) != 2 {
		t.Errorf("expected capture to stop at 2 samples, got %d", len(times))
	}
}

func TestSetKpValidation(t *testing.T) {
	var pos int64
	var out float64
	c := newTestController(t, 1, &pos, &out)

	if err := c.SetKp(0); err == nil {
		t.Error("expected error for kp = 0")
	}
	if err := c.SetKp(-0.5); err == nil {
		t.Error("expected error for negative kp")
	}
	if err := c.SetKp(0.05); err != nil {
		t.Errorf("unexpected error for valid kp: %v", err)
	}
	if c.Kp() != 0.05 {
		t.Errorf("kp not applied, got %f", c.Kp())
	}
}

func TestNewRejectsBadArgs(t *testing.T) {
	if _, err := NewProportional("x", 1, 0, nil, nil, 10); err == nil {
		t.Error("expected error for nil actuate/sense")
	}
	if _, err := NewProportional("x", 1, 0,
		func(float64) error { return nil },
		func() int64 { return 0 }, 0); err == nil {
		t.Error("expected error for zero data points")
	}
	if _, err := NewProportional("x", -1, 0,
		func(float64) error { return nil },
		func() int64 { return 0 }, 10); err == nil {
		t.Error("expected error for negative kp")
	}
}
