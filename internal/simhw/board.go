// Package simhw is a Board backed by the plant model: PWM duties feed a
// simulated DC motor, shaft position feeds 16-bit wrapping quadrature
// counters, and time is a stepped clock owned by the board.
package simhw

import (
	"fmt"
	"sync"
	"time"

	"github.com/mecha04/motorlab/internal/hal"
	"github.com/mecha04/motorlab/internal/integrators"
	"github.com/mecha04/motorlab/internal/plant"
)

// stepSlice is the physics granularity during idling.
const stepSlice = time.Millisecond

type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type pwmOut struct {
	ch  *channel
	idx int // 0 = in1, 1 = in2
}

func (p *pwmOut) SetDuty(frac float64) error {
	if frac < 0 || frac > 1 {
		return fmt.Errorf("simhw: duty %f out of range", frac)
	}
	p.ch.duty[p.idx] = frac
	return nil
}

type enableOut struct {
	ch *channel
}

func (e *enableOut) High() error { e.ch.enabled = true; return nil }
func (e *enableOut) Low() error  { e.ch.enabled = false; return nil }

type quadCounter struct {
	ch   *channel
	base uint16
}

func (q *quadCounter) Count() uint16 { return q.ch.raw() - q.base }
func (q *quadCounter) Zero()         { q.base = q.ch.raw() }

// channel is one motor: bridge inputs, plant state, encoder counter.
type channel struct {
	dyn     plant.Dynamics
	integ   integrators.Integrator
	state   plant.State
	t       float64
	duty    [2]float64
	enabled bool
	pwmSeen int
}

// raw is the 16-bit hardware counter view of the shaft position.
func (c *channel) raw() uint16 {
	return uint16(int64(c.state[0]))
}

func (c *channel) step(dt float64) {
	duty := 0.0
	if c.enabled {
		duty = (c.duty[0] - c.duty[1]) * 100
	}
	c.state = c.integ.Step(c.dyn, c.state, plant.Control{duty}, c.t, dt)
	c.t += dt
}

type Board struct {
	clk        *Clock
	enables    map[hal.Pin]*channel
	driveChans map[int]*channel // by drive timer
	encChans   map[int]*channel // by encoder timer
}

func New(start time.Time) *Board {
	return &Board{
		clk:        &Clock{now: start},
		enables:    make(map[hal.Pin]*channel),
		driveChans: make(map[int]*channel),
		encChans:   make(map[int]*channel),
	}
}

func (b *Board) Clock() *Clock { return b.clk }

// AddMotor registers a motor: its bridge enable pin, the timer driving
// the bridge inputs and the timer counting its encoder.
func (b *Board) AddMotor(enable hal.Pin, driveTimer, encTimer int, dyn plant.Dynamics, integ integrators.Integrator) error {
	if _, ok := b.enables[enable]; ok {
		return fmt.Errorf("simhw: enable pin %s already in use", enable)
	}
	if _, ok := b.driveChans[driveTimer]; ok {
		return fmt.Errorf("simhw: drive timer %d already in use", driveTimer)
	}
	if _, ok := b.encChans[encTimer]; ok {
		return fmt.Errorf("simhw: encoder timer %d already in use", encTimer)
	}
	ch := &channel{
		dyn:   dyn,
		integ: integ,
		state: make(plant.State, dyn.StateDim()),
	}
	b.enables[enable] = ch
	b.driveChans[driveTimer] = ch
	b.encChans[encTimer] = ch
	return nil
}

func (b *Board) DigitalOut(pin hal.Pin) (hal.DigitalOut, error) {
	ch, ok := b.enables[pin]
	if !ok {
		return nil, fmt.Errorf("simhw: pin %s is not a motor enable", pin)
	}
	return &enableOut{ch: ch}, nil
}

func (b *Board) PWM(pin hal.Pin, timer int) (hal.PWMOut, error) {
	ch, ok := b.driveChans[timer]
	if !ok {
		return nil, fmt.Errorf("simhw: no motor on drive timer %d", timer)
	}
	if ch.pwmSeen > 1 {
		return nil, fmt.Errorf("simhw: drive timer %d already has both inputs", timer)
	}
	out := &pwmOut{ch: ch, idx: ch.pwmSeen}
	ch.pwmSeen++
	return out, nil
}

func (b *Board) Quadrature(a, c hal.Pin, timer int) (hal.Quadrature, error) {
	ch, ok := b.encChans[timer]
	if !ok {
		return nil, fmt.Errorf("simhw: no motor on encoder timer %d", timer)
	}
	return &quadCounter{ch: ch}, nil
}

// Position returns the exact shaft position of the motor on encTimer,
// bypassing the 16-bit counter.
func (b *Board) Position(encTimer int) (float64, error) {
	ch, ok := b.encChans[encTimer]
	if !ok {
		return 0, fmt.Errorf("simhw: no motor on encoder timer %d", encTimer)
	}
	return ch.state[0], nil
}

// Step advances all motor channels and the board clock by dt.
func (b *Board) Step(dt time.Duration) {
	sec := dt.Seconds()
	for _, ch := range b.driveChans {
		ch.step(sec)
	}
	b.clk.advance(dt)
}

// Idle advances physics in fixed slices until the clock reaches the
// deadline, which makes the board usable as the rig's idler.
func (b *Board) Idle(until time.Time) {
	if !until.After(b.clk.Now()) {
		// no deadline ahead; move time forward one slice so one can arrive
		b.Step(stepSlice)
		return
	}
	for {
		remain := until.Sub(b.clk.Now())
		if remain <= 0 {
			return
		}
		step := stepSlice
		if remain < step {
			step = remain
		}
		b.Step(step)
	}
}
