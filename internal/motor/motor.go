// Package motor drives one channel of an L6206 dual half-bridge.
package motor

import (
	"fmt"

	"github.com/mecha04/motorlab/internal/hal"
)

// Driver holds the enable pin and the two PWM inputs of one bridge
// channel. Duty cycle follows the lab convention: a signed percentage in
// [-100,100], sign selecting direction.
type Driver struct {
	enable hal.DigitalOut
	in1    hal.PWMOut
	in2    hal.PWMOut
}

func New(b hal.Board, enable, in1, in2 hal.Pin, timer int) (*Driver, error) {
	en, err := b.DigitalOut(enable)
	if err != nil {
		return nil, fmt.Errorf("enable pin %s: %w", enable, err)
	}
	p1, err := b.PWM(in1, timer)
	if err != nil {
		return nil, fmt.Errorf("input pin %s: %w", in1, err)
	}
	p2, err := b.PWM(in2, timer)
	if err != nil {
		return nil, fmt.Errorf("input pin %s: %w", in2, err)
	}
	d := &Driver{enable: en, in1: p1, in2: p2}
	if err := en.High(); err != nil {
		return nil, err
	}
	return d, nil
}

// SetDutyCycle applies a signed duty percentage, clamped to [-100,100].
// Positive duty drives IN1, negative drives IN2, zero coasts.
func (d *Driver) SetDutyCycle(duty float64) error {
	if duty > 100 {
		duty = 100
	} else if duty < -100 {
		duty = -100
	}
	if duty >= 0 {
		if err := d.in2.SetDuty(0); err != nil {
			return err
		}
		return d.in1.SetDuty(duty / 100)
	}
	if err := d.in1.SetDuty(0); err != nil {
		return err
	}
	return d.in2.SetDuty(-duty / 100)
}

// Disable coasts the motor and drops the bridge enable pin.
func (d *Driver) Disable() error {
	if err := d.SetDutyCycle(0); err != nil {
		return err
	}
	return d.enable.Low()
}
