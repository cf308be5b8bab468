package cotask

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestPeriodScheduling(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	runs := 0
	task := New("tick", 1, 10*time.Millisecond, clk, func() (int, error) {
		runs++
		return 0, nil
	})
	l := NewList()
	l.Append(task)

	for i := 0; i < 100; i++ {
		if _, err := l.PriSched(clk.now); err != nil {
			t.Fatal(err)
		}
		clk.advance(time.Millisecond)
	}

	// first activation at t=0, then every 10ms
	if runs != 10 {
		t.Errorf("expected 10 runs over 100ms at 10ms period, got %d", runs)
	}
	if task.LateStarts() != 0 {
		t.Errorf("expected no late starts, got %d", task.LateStarts())
	}
}

func TestPriorityOrder(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	var order []string
	mk := func(name string) RunFunc {
		return func() (int, error) {
			order = append(order, name)
			return 0, nil
		}
	}
	l := NewList()
	l.Append(New("low", 1, 10*time.Millisecond, clk, mk("low")))
	l.Append(New("high", 2, 10*time.Millisecond, clk, mk("high")))

	for i := 0; i < 2; i++ {
		ran, err := l.PriSched(clk.now)
		if err != nil {
			t.Fatal(err)
		}
		if !ran {
			t.Fatal("expected a ready task")
		}
	}

	if len(order) != 2 || order[0] != "high" || order[1] != "low" {
		t.Errorf("expected high before low, got %v", order)
	}
}

func TestLateStartResync(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	task := New("slow", 1, 10*time.Millisecond, clk, func() (int, error) { return 0, nil })

	if err := task.RunOnce(clk.now); err != nil {
		t.Fatal(err)
	}
	// miss several deadlines
	clk.advance(35 * time.Millisecond)
	if !task.Ready(clk.now) {
		t.Fatal("task should be ready after missing deadlines")
	}
	if err := task.RunOnce(clk.now); err != nil {
		t.Fatal(err)
	}
	if task.LateStarts() != 1 {
		t.Errorf("expected 1 late start, got %d", task.LateStarts())
	}
	// resynchronized: next deadline is one period from the late run
	if got := task.NextRun(clk.now); got != clk.now.Add(10*time.Millisecond) {
		t.Errorf("expected resync to now+period, got %v", got)
	}
}

func TestZeroPeriodAlwaysReady(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	runs := 0
	task := New("bg", 0, 0, clk, func() (int, error) {
		runs++
		return 0, nil
	})
	for i := 0; i < 5; i++ {
		if !task.Ready(clk.now) {
			t.Fatal("zero-period task should always be ready")
		}
		if err := task.RunOnce(clk.now); err != nil {
			t.Fatal(err)
		}
	}
	if runs != 5 {
		t.Errorf("expected 5 runs, got %d", runs)
	}
	if task.LateStarts() != 0 {
		t.Errorf("zero-period task should not count late starts, got %d", task.LateStarts())
	}
}

func TestRunError(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	boom := errors.New("boom")
	l := NewList()
	l.Append(New("bad", 1, 0, clk, func() (int, error) { return 0, boom }))

	_, err := l.PriSched(clk.now)
	if !errors.Is(err, boom) {
		t.Errorf("expected run error to surface, got %v", err)
	}
}

func TestTrace(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	state := 0
	task := New("fsm", 1, time.Millisecond, clk, func() (int, error) {
		state++
		return state, nil
	}, WithTrace())

	for i := 0; i < 3; i++ {
		if err := task.RunOnce(clk.now); err != nil {
			t.Fatal(err)
		}
		clk.advance(time.Millisecond)
	}

	trace := task.Trace()
	if len(trace) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(trace))
	}
	if trace[2].State != 3 {
		t.Errorf("expected final state 3, got %d", trace[2].State)
	}
	if trace[2].Elapsed != 2*time.Millisecond {
		t.Errorf("expected transition at 2ms, got %v", trace[2].Elapsed)
	}
	if !strings.Contains(task.TraceReport(), "state 3") {
		t.Error("trace report missing state entry")
	}
}

func TestRRSchedRunsAllReady(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	runs := map[string]int{}
	mk := func(name string) RunFunc {
		return func() (int, error) {
			runs[name]++
			return 0, nil
		}
	}
	l := NewList()
	l.Append(New("a", 1, 10*time.Millisecond, clk, mk("a")))
	l.Append(New("b", 2, 10*time.Millisecond, clk, mk("b")))

	n, err := l.RRSched(clk.now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || runs["a"] != 1 || runs["b"] != 1 {
		t.Errorf("expected both tasks to run once, got n=%d runs=%v", n, runs)
	}
}

func TestNextDeadline(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	a := New("a", 1, 10*time.Millisecond, clk, func() (int, error) { return 0, nil })
	b := New("b", 1, 3*time.Millisecond, clk, func() (int, error) { return 0, nil })
	l := NewList()
	l.Append(a)
	l.Append(b)

	if err := a.RunOnce(clk.now); err != nil {
		t.Fatal(err)
	}
	if err := b.RunOnce(clk.now); err != nil {
		t.Fatal(err)
	}

	want := clk.now.Add(3 * time.Millisecond)
	if got := l.NextDeadline(clk.now); got != want {
		t.Errorf("expected deadline %v, got %v", want, got)
	}
}

func TestReportContainsTasks(t *testing.T) {
	clk := &fakeClock{now: time.Unix(0, 0)}
	l := NewList()
	l.Append(New("motor_1", 1, 10*time.Millisecond, clk, func() (int, error) { return 0, nil }, WithProfile()))

	if _, err := l.PriSched(clk.now); err != nil {
		t.Fatal(err)
	}
	rep := l.String()
	if !strings.Contains(rep, "motor_1") || !strings.Contains(rep, "RUNS") {
		t.Errorf("unexpected report:\n%s", rep)
	}
}
