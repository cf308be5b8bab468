// Package control implements the closed-loop position controller.
package control

import (
	"fmt"
	"time"

	"github.com/mecha04/motorlab/internal/share"
)

// Actuator applies a signed duty cycle in [-100,100]. Sensor returns the
// current position in encoder counts.
type Actuator func(duty float64) error

type Sensor func() int64

// Proportional drives the actuator with u = Kp * (setpoint - position)
// and captures one (elapsed ms, position) sample per activation into
// bounded queues sized by the expected number of data points.
type Proportional struct {
	kp       float64
	setpoint int64
	actuate  Actuator
	sense    Sensor
	points   int

	timeQ *share.Queue[int64]
	posQ  *share.Queue[int64]
}

func NewProportional(name string, kp float64, setpoint int64, actuate Actuator, sense Sensor, points int) (*Proportional, error) {
	if actuate == nil || sense == nil {
		return nil, fmt.Errorf("control: actuate and sense are required")
	}
	if points <= 0 {
		return nil, fmt.Errorf("control: data points must be positive, got %d", points)
	}
	c := &Proportional{
		setpoint: setpoint,
		actuate:  actuate,
		sense:    sense,
		points:   points,
		timeQ:    share.NewQueue[int64](name+"_time", points, false),
		posQ:     share.NewQueue[int64](name+"_pos", points, false),
	}
	if err := c.SetKp(kp); err != nil {
		return nil, err
	}
	return c, nil
}

// SetKp sets the control gain. The gain must be a positive nonzero number.
func (c *Proportional) SetKp(kp float64) error {
	if kp <= 0 {
		return fmt.Errorf("control: kp must be a positive nonzero number, got %g", kp)
	}
	c.kp = kp
	return nil
}

func (c *Proportional) Kp() float64 { return c.kp }

func (c *Proportional) SetSetpoint(v int64) { c.setpoint = v }
func (c *Proportional) Setpoint() int64     { return c.setpoint }

// Run performs one control step toward setpoint, recording the sample
// with the elapsed time since the start of the step response. It returns
// the duty cycle sent to the actuator.
func (c *Proportional) Run(setpoint int64, elapsed time.Duration) (float64, error) {
	c.setpoint = setpoint
	pos := c.sense()

	// queues are sized to the data point budget; extra activations
	// simply stop recording
	if !c.timeQ.Full() {
		c.timeQ.Put(elapsed.Milliseconds())
		c.posQ.Put(pos)
	}

	duty := c.kp * float64(setpoint-pos)
	return duty, c.actuate(duty)
}

// Drain pops all captured samples in order.
func (c *Proportional) Drain() (times []int64, positions []int64) {
	for c.timeQ.Any() {
		tm, err := c.timeQ.Get()
		if err != nil {
			break
		}
		pos, err := c.posQ.Get()
		if err != nil {
			break
		}
		times = append(times, tm)
		positions = append(positions, pos)
	}
	return times, positions
}

// Reset clears any captured samples.
func (c *Proportional) Reset() {
	c.timeQ.Clear()
	c.posQ.Clear()
}
