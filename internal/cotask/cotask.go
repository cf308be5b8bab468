// Package cotask is a cooperative scheduler: tasks run to completion of a
// single activation and hand control back, so shared state only ever sees
// one task at a time. Each task has a priority and a period; the scheduler
// is driven by repeated calls from the owner's loop, never by goroutines.
package cotask

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"
)

// Clock supplies scheduler time. The real rig uses WallClock; the simulated
// board advances its own clock between scheduling passes so runs are
// deterministic.
type Clock interface {
	Now() time.Time
}

type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

// RunFunc executes one activation of a task and returns the task's state.
// An activation must not block; long work is split across activations.
type RunFunc func() (int, error)

type TraceEntry struct {
	Elapsed time.Duration
	State   int
}

const traceCap = 256

type Task struct {
	Name     string
	Priority int
	Period   time.Duration

	run   RunFunc
	clock Clock

	profile bool
	tracing bool

	started   bool
	epoch     time.Time
	nextRun   time.Time
	lastState int

	runs       uint64
	lateStarts uint64
	totalDur   time.Duration
	maxDur     time.Duration

	traceBuf []TraceEntry
}

type Option func(*Task)

// WithProfile records activation counts and run durations.
func WithProfile() Option { return func(t *Task) { t.profile = true } }

// WithTrace records state transitions with timestamps relative to the
// task's first activation.
func WithTrace() Option { return func(t *Task) { t.tracing = true } }

// New creates a task. A zero period means the task is ready on every
// scheduling pass. Higher priority numbers run first.
func New(name string, priority int, period time.Duration, clock Clock, run RunFunc, opts ...Option) *Task {
	t := &Task{
		Name:      name,
		Priority:  priority,
		Period:    period,
		run:       run,
		clock:     clock,
		lastState: -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Ready reports whether the task's next deadline has passed. A task that
// has never run is always ready.
func (t *Task) Ready(now time.Time) bool {
	if !t.started || t.Period == 0 {
		return true
	}
	return !now.Before(t.nextRun)
}

// RunOnce performs a single activation. The next deadline advances by one
// whole period; a task that has fallen more than a period behind counts a
// late start and resynchronizes to now.
func (t *Task) RunOnce(now time.Time) error {
	if !t.started {
		t.started = true
		t.epoch = now
		t.nextRun = now
	}

	start := t.clock.Now()
	state, err := t.run()
	t.runs++
	if t.profile {
		d := t.clock.Now().Sub(start)
		t.totalDur += d
		if d > t.maxDur {
			t.maxDur = d
		}
	}

	if t.tracing && state != t.lastState {
		t.traceBuf = append(t.traceBuf, TraceEntry{Elapsed: now.Sub(t.epoch), State: state})
		if len(t.traceBuf) > traceCap {
			t.traceBuf = t.traceBuf[1:]
		}
	}
	t.lastState = state

	if t.Period > 0 {
		t.nextRun = t.nextRun.Add(t.Period)
		if !now.Before(t.nextRun) {
			t.lateStarts++
			t.nextRun = now.Add(t.Period)
		}
	}
	return err
}

func (t *Task) Runs() uint64        { return t.runs }
func (t *Task) LateStarts() uint64  { return t.lateStarts }
func (t *Task) State() int          { return t.lastState }
func (t *Task) Trace() []TraceEntry { return t.traceBuf }

func (t *Task) MaxDuration() time.Duration { return t.maxDur }

func (t *Task) AvgDuration() time.Duration {
	if t.runs == 0 {
		return 0
	}
	return t.totalDur / time.Duration(t.runs)
}

// NextRun returns the task's next deadline. For a task that is always
// ready it returns now.
func (t *Task) NextRun(now time.Time) time.Time {
	if !t.started || t.Period == 0 {
		return now
	}
	return t.nextRun
}

// TraceReport renders the recorded state transitions.
func (t *Task) TraceReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "trace for %s:\n", t.Name)
	for _, e := range t.traceBuf {
		fmt.Fprintf(&b, "  %10.3fms  state %d\n", float64(e.Elapsed)/float64(time.Millisecond), e.State)
	}
	return b.String()
}

type TaskList struct {
	tasks []*Task
}

func NewList() *TaskList {
	return &TaskList{tasks: make([]*Task, 0)}
}

func (l *TaskList) Append(t *Task) { l.tasks = append(l.tasks, t) }

func (l *TaskList) Tasks() []*Task { return l.tasks }

// PriSched runs the single highest-priority ready task. Ties resolve in
// insertion order. It reports whether any task ran.
func (l *TaskList) PriSched(now time.Time) (bool, error) {
	var pick *Task
	for _, t := range l.tasks {
		if t.Ready(now) && (pick == nil || t.Priority > pick.Priority) {
			pick = t
		}
	}
	if pick == nil {
		return false, nil
	}
	return true, pick.RunOnce(now)
}

// RRSched runs every ready task once, in insertion order, and returns the
// number of tasks run.
func (l *TaskList) RRSched(now time.Time) (int, error) {
	ran := 0
	for _, t := range l.tasks {
		if !t.Ready(now) {
			continue
		}
		if err := t.RunOnce(now); err != nil {
			return ran, err
		}
		ran++
	}
	return ran, nil
}

// NextDeadline returns the earliest next deadline across all tasks, used
// by the owner's loop to decide how long to idle.
func (l *TaskList) NextDeadline(now time.Time) time.Time {
	earliest := time.Time{}
	for _, t := range l.tasks {
		next := t.NextRun(now)
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	if earliest.IsZero() {
		return now
	}
	return earliest
}

func (l *TaskList) String() string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPRI\tPERIOD\tRUNS\tLATE\tAVG\tMAX")
	for _, t := range l.tasks {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%s\t%s\n",
			t.Name, t.Priority, t.Period, t.runs, t.lateStarts, t.AvgDuration(), t.maxDur)
	}
	w.Flush()
	return b.String()
}
