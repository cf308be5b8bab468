// Package rig assembles motors, encoders and controllers from a config
// and runs them under the cooperative scheduler: one controller task per
// motor plus a telemetry task that streams the reported motor's samples
// to the host in wire format.
package rig

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mecha04/motorlab/internal/config"
	"github.com/mecha04/motorlab/internal/control"
	"github.com/mecha04/motorlab/internal/cotask"
	"github.com/mecha04/motorlab/internal/encoder"
	"github.com/mecha04/motorlab/internal/hal"
	"github.com/mecha04/motorlab/internal/metrics"
	"github.com/mecha04/motorlab/internal/motor"
	"github.com/mecha04/motorlab/internal/share"
	"github.com/mecha04/motorlab/internal/wire"
)

// Controller task states, visible in scheduler traces.
const (
	StateInit = iota
	StateRunning
	StateDone
)

// Idler absorbs time when no task is ready. The simulated board advances
// physics; a real rig sleeps.
type Idler interface {
	Idle(until time.Time)
}

type SleepIdler struct{}

func (SleepIdler) Idle(until time.Time) {
	if d := time.Until(until); d > 0 {
		time.Sleep(d)
	} else {
		time.Sleep(time.Millisecond)
	}
}

// Observer sees each reported sample as the telemetry task emits it.
type Observer func(timeMs, position int64)

type Result struct {
	Motor       string
	Kp          float64
	PeriodMs    int
	Setpoint    int64
	Times       []int64
	Positions   []int64
	Metrics     map[string]float64
	SchedReport string
}

type motorUnit struct {
	cfg   config.MotorConfig
	drv   *motor.Driver
	enc   *encoder.Reader
	ctl   *control.Proportional
	done  *share.Share[bool]
	state int
	count int
	start time.Time
}

type Rig struct {
	cfg       *config.Config
	clock     cotask.Clock
	idler     Idler
	emit      *wire.Emitter
	sched     *cotask.TaskList
	units     []*motorUnit
	reported  *motorUnit
	kpShare   *share.Share[float64]
	observers []Observer
	result    *Result
	finished  bool
}

// New builds a rig on the given board. Samples of the reported motor are
// written to out in wire format as they are collected.
func New(cfg *config.Config, board hal.Board, clock cotask.Clock, idler Idler, out io.Writer) (*Rig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Rig{
		cfg:     cfg,
		clock:   clock,
		idler:   idler,
		emit:    wire.NewEmitter(out),
		sched:   cotask.NewList(),
		kpShare: share.NewShare[float64]("kp_setting", false),
	}

	for _, mc := range cfg.Motors {
		unit, err := r.buildUnit(board, mc)
		if err != nil {
			return nil, err
		}
		r.units = append(r.units, unit)
		if mc.Report {
			r.reported = unit
		}
	}

	period := time.Duration(cfg.Scheduler.ControllerPeriodMs) * time.Millisecond
	for _, unit := range r.units {
		u := unit
		r.sched.Append(cotask.New(u.cfg.Name, u.cfg.Priority, period, clock, r.controllerFunc(u),
			cotask.WithProfile(), cotask.WithTrace()))
	}
	telemPeriod := time.Duration(cfg.Scheduler.TelemetryPeriodMs) * time.Millisecond
	r.sched.Append(cotask.New("telemetry", 0, telemPeriod, clock, r.telemetryFunc(),
		cotask.WithProfile()))

	rep := r.reported
	r.result = &Result{
		Motor:    rep.cfg.Name,
		Kp:       rep.ctl.Kp(),
		PeriodMs: cfg.Scheduler.ControllerPeriodMs,
		Setpoint: rep.cfg.Setpoint,
	}
	return r, nil
}

func (r *Rig) buildUnit(board hal.Board, mc config.MotorConfig) (*motorUnit, error) {
	drv, err := motor.New(board, hal.Pin(mc.Enable), hal.Pin(mc.In1), hal.Pin(mc.In2), mc.Timer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mc.Name, err)
	}
	quad, err := board.Quadrature(hal.Pin(mc.EncA), hal.Pin(mc.EncB), mc.EncTimer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mc.Name, err)
	}
	enc := encoder.New(quad)

	ctl, err := control.NewProportional(mc.Name, mc.Kp, mc.Setpoint,
		drv.SetDutyCycle, enc.Read, mc.DataPoints)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", mc.Name, err)
	}

	return &motorUnit{
		cfg:  mc,
		drv:  drv,
		enc:  enc,
		ctl:  ctl,
		done: share.NewShare[bool](mc.Name+"_done", false),
	}, nil
}

// SetKp overrides the configured gain of every controller, the way the
// original rig shared one host-supplied gain across its motor tasks.
func (r *Rig) SetKp(kp float64) error {
	if kp <= 0 {
		return fmt.Errorf("rig: kp must be a positive nonzero number, got %g", kp)
	}
	r.kpShare.Put(kp)
	r.result.Kp = kp
	return nil
}

func (r *Rig) AddObserver(fn Observer) {
	r.observers = append(r.observers, fn)
}

// controllerFunc is the per-motor task: initialize, run the step
// response for the configured number of points, then stop and idle.
// The first sample is taken in the same activation as setup so the
// series starts at t=0.
func (r *Rig) controllerFunc(u *motorUnit) cotask.RunFunc {
	return func() (int, error) {
		if u.state == StateInit {
			if err := u.drv.SetDutyCycle(0); err != nil {
				return u.state, err
			}
			u.enc.Zero()
			if kp := r.kpShare.Get(); kp > 0 {
				if err := u.ctl.SetKp(kp); err != nil {
					return u.state, err
				}
			}
			u.start = r.clock.Now()
			u.state = StateRunning
		}

		if u.state == StateRunning {
			elapsed := r.clock.Now().Sub(u.start)
			if _, err := u.ctl.Run(u.cfg.Setpoint, elapsed); err != nil {
				return u.state, err
			}
			u.count++
			if u.count >= u.cfg.DataPoints {
				if err := u.drv.SetDutyCycle(0); err != nil {
					return u.state, err
				}
				u.done.Put(true)
				u.state = StateDone
			}
		}
		return u.state, nil
	}
}

// telemetryFunc drains the reported motor's sample queues into the wire
// stream. Once the controller is done and the queues are empty it emits
// the terminator and stops the rig.
func (r *Rig) telemetryFunc() cotask.RunFunc {
	rep := r.reported
	return func() (int, error) {
		times, positions := rep.ctl.Drain()
		for i := range times {
			if err := r.emit.Sample(times[i], positions[i]); err != nil {
				return StateRunning, err
			}
			r.result.Times = append(r.result.Times, times[i])
			r.result.Positions = append(r.result.Positions, positions[i])
			for _, obs := range r.observers {
				obs(times[i], positions[i])
			}
		}
		if err := r.emit.Flush(); err != nil {
			return StateRunning, err
		}

		if rep.done.Get() && len(times) == 0 {
			if err := r.emit.End(); err != nil {
				return StateDone, err
			}
			r.finished = true
			return StateDone, nil
		}
		return StateRunning, nil
	}
}

// Run drives the scheduler until the telemetry stream terminates or the
// context is cancelled. The partial result is returned either way.
func (r *Rig) Run(ctx context.Context) (*Result, error) {
	for !r.finished {
		select {
		case <-ctx.Done():
			return r.result, ctx.Err()
		default:
		}

		ran, err := r.sched.PriSched(r.clock.Now())
		if err != nil {
			return r.result, err
		}
		if !ran {
			r.idler.Idle(r.sched.NextDeadline(r.clock.Now()))
		}
	}

	r.result.Metrics = metrics.Evaluate(r.result.Times, r.result.Positions, 0, r.reported.cfg.Setpoint)
	r.result.SchedReport = r.sched.String()
	return r.result, nil
}

// Tasks exposes the scheduler's tasks for diagnostics.
func (r *Rig) Tasks() []*cotask.Task { return r.sched.Tasks() }
