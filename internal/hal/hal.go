// Package hal abstracts the rig hardware: digital outputs, PWM channels
// and quadrature counter timers, addressed by board pin names.
package hal

// Pin is a board pin name as printed on the silkscreen ("PC1", "PA0", ...).
// Backends map names onto whatever their platform calls the line.
type Pin string

// Motor and encoder pins of the reference rig.
const (
	// Motor 1: L6206 channel A, drive timer 5, encoder timer 8.
	M1Enable Pin = "PC1"
	M1In1    Pin = "PA0"
	M1In2    Pin = "PA1"
	M1EncA   Pin = "PC6"
	M1EncB   Pin = "PC7"

	// Motor 2: L6206 channel B, drive timer 3, encoder timer 4.
	M2Enable Pin = "PA10"
	M2In1    Pin = "PB4"
	M2In2    Pin = "PB5"
	M2EncA   Pin = "PB6"
	M2EncB   Pin = "PB7"
)

type DigitalOut interface {
	High() error
	Low() error
}

// PWMOut drives one PWM channel. Duty is a fraction in [0,1].
type PWMOut interface {
	SetDuty(frac float64) error
}

// Quadrature exposes a 16-bit hardware quadrature counter. The counter
// wraps; callers accumulate signed deltas to recover absolute position.
type Quadrature interface {
	Count() uint16
	Zero()
}

type Board interface {
	DigitalOut(pin Pin) (DigitalOut, error)
	PWM(pin Pin, timer int) (PWMOut, error)
	Quadrature(a, b Pin, timer int) (Quadrature, error)
}
