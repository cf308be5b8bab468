package plant

const (
	// DefaultGain is the steady-state shaft speed in encoder counts per
	// second at 1% duty. DefaultTau is the electromechanical time
	// constant in seconds. Both were fit to the bench motor's step data.
	DefaultGain = 500.0
	DefaultTau  = 0.02
)

// DCMotor is a first-order DC motor with an integrating position state:
// position in encoder counts, velocity in counts per second, driven by a
// duty cycle in [-100,100].
type DCMotor struct {
	Gain float64
	Tau  float64
}

func NewDCMotor(gain, tau float64) *DCMotor {
	if gain <= 0 {
		gain = DefaultGain
	}
	if tau <= 0 {
		tau = DefaultTau
	}
	return &DCMotor{Gain: gain, Tau: tau}
}

func (m *DCMotor) StateDim() int   { return 2 }
func (m *DCMotor) ControlDim() int { return 1 }

func (m *DCMotor) Derive(x State, u Control, t float64) State {
	duty := 0.0
	if len(u) > 0 {
		duty = u[0]
	}
	vel := x[1]
	return State{vel, (m.Gain*duty - vel) / m.Tau}
}
