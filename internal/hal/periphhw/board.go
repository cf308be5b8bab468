// Package periphhw backs the hardware abstraction with periph.io GPIO,
// for running the controller on a real board. Quadrature decoding is
// done in software by watching edges on channel A, so it is suitable
// for bench motors, not high-speed spindles.
package periphhw

import (
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/mecha04/motorlab/internal/hal"
)

const pwmFreq = 20 * physic.KiloHertz

type Board struct {
	quads []*quadrature
}

func New() (*Board, error) {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	return &Board{}, nil
}

func lookup(pin hal.Pin) (gpio.PinIO, error) {
	p := gpioreg.ByName(string(pin))
	if p == nil {
		return nil, fmt.Errorf("periphhw: no such pin %q", pin)
	}
	return p, nil
}

type digitalOut struct {
	p gpio.PinIO
}

func (d *digitalOut) High() error { return d.p.Out(gpio.High) }
func (d *digitalOut) Low() error  { return d.p.Out(gpio.Low) }

func (b *Board) DigitalOut(pin hal.Pin) (hal.DigitalOut, error) {
	p, err := lookup(pin)
	if err != nil {
		return nil, err
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, err
	}
	return &digitalOut{p: p}, nil
}

type pwmOut struct {
	p gpio.PinIO
}

func (o *pwmOut) SetDuty(frac float64) error {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return o.p.PWM(gpio.Duty(frac*float64(gpio.DutyMax)), pwmFreq)
}

func (b *Board) PWM(pin hal.Pin, timer int) (hal.PWMOut, error) {
	p, err := lookup(pin)
	if err != nil {
		return nil, err
	}
	return &pwmOut{p: p}, nil
}

// quadrature counts edges on channel A and uses channel B for
// direction, emulating a free-running 16-bit hardware counter.
type quadrature struct {
	a, b  gpio.PinIO
	count atomic.Uint32
	stop  chan struct{}
}

func (q *quadrature) Count() uint16 { return uint16(q.count.Load()) }
func (q *quadrature) Zero()         { q.count.Store(0) }

func (q *quadrature) watch() {
	for {
		select {
		case <-q.stop:
			return
		default:
		}
		if !q.a.WaitForEdge(100 * time.Millisecond) {
			continue
		}
		if (q.a.Read() == gpio.High) == (q.b.Read() == gpio.High) {
			q.count.Add(^uint32(0)) // -1
		} else {
			q.count.Add(1)
		}
	}
}

func (b *Board) Quadrature(a, c hal.Pin, timer int) (hal.Quadrature, error) {
	pa, err := lookup(a)
	if err != nil {
		return nil, err
	}
	pb, err := lookup(c)
	if err != nil {
		return nil, err
	}
	if err := pa.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
		return nil, err
	}
	if err := pb.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return nil, err
	}
	q := &quadrature{a: pa, b: pb, stop: make(chan struct{})}
	b.quads = append(b.quads, q)
	go q.watch()
	return q, nil
}

// Close stops the edge-watching goroutines.
func (b *Board) Close() error {
	for _, q := range b.quads {
		close(q.stop)
	}
	b.quads = nil
	return nil
}
