package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultKp          = 0.05
	DefaultPeriodMs    = 10
	DefaultTelemetryMs = 50
	DefaultSetpoint    = 8150
	DefaultDataPoints  = 100
	DefaultBaud        = 115200
	DefaultPort        = "/dev/ttyACM0"
)

type Config struct {
	Station   StationConfig   `yaml:"station"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Plant     PlantConfig     `yaml:"plant"`
	Motors    []MotorConfig   `yaml:"motors"`
}

type StationConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type SchedulerConfig struct {
	ControllerPeriodMs int `yaml:"controller_period_ms"`
	TelemetryPeriodMs  int `yaml:"telemetry_period_ms"`
}

type PlantConfig struct {
	Gain       float64 `yaml:"gain"`
	Tau        float64 `yaml:"tau"`
	Integrator string  `yaml:"integrator"`
}

type MotorConfig struct {
	Name       string  `yaml:"name"`
	Priority   int     `yaml:"priority"`
	Enable     string  `yaml:"enable"`
	In1        string  `yaml:"in1"`
	In2        string  `yaml:"in2"`
	Timer      int     `yaml:"timer"`
	EncA       string  `yaml:"enc_a"`
	EncB       string  `yaml:"enc_b"`
	EncTimer   int     `yaml:"enc_timer"`
	Kp         float64 `yaml:"kp"`
	Setpoint   int64   `yaml:"setpoint"`
	DataPoints int     `yaml:"data_points"`
	Report     bool    `yaml:"report"`
}

// Default reproduces the reference rig: two L6206 channels with the
// documented pin map, motor 1 reported to the host.
func Default() *Config {
	return &Config{
		Station: StationConfig{
			Port: DefaultPort,
			Baud: DefaultBaud,
		},
		Scheduler: SchedulerConfig{
			ControllerPeriodMs: DefaultPeriodMs,
			TelemetryPeriodMs:  DefaultTelemetryMs,
		},
		Plant: PlantConfig{
			Integrator: "rk4",
		},
		Motors: []MotorConfig{
			{
				Name:       "motor_1",
				Priority:   1,
				Enable:     "PC1",
				In1:        "PA0",
				In2:        "PA1",
				Timer:      5,
				EncA:       "PC6",
				EncB:       "PC7",
				EncTimer:   8,
				Kp:         DefaultKp,
				Setpoint:   DefaultSetpoint,
				DataPoints: DefaultDataPoints,
				Report:     true,
			},
			{
				Name:       "motor_2",
				Priority:   2,
				Enable:     "PA10",
				In1:        "PB4",
				In2:        "PB5",
				Timer:      3,
				EncA:       "PB6",
				EncB:       "PB7",
				EncTimer:   4,
				Kp:         DefaultKp,
				Setpoint:   32000,
				DataPoints: DefaultDataPoints,
			},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Scheduler.ControllerPeriodMs <= 0 {
		return fmt.Errorf("config: controller period must be positive, got %d", c.Scheduler.ControllerPeriodMs)
	}
	if c.Scheduler.TelemetryPeriodMs <= 0 {
		return fmt.Errorf("config: telemetry period must be positive, got %d", c.Scheduler.TelemetryPeriodMs)
	}
	if len(c.Motors) == 0 {
		return fmt.Errorf("config: at least one motor is required")
	}
	reported := 0
	for i, m := range c.Motors {
		if m.Name == "" {
			return fmt.Errorf("config: motor %d has no name", i)
		}
		if m.Kp <= 0 {
			return fmt.Errorf("config: %s: kp must be a positive nonzero number, got %g", m.Name, m.Kp)
		}
		if m.DataPoints <= 0 {
			return fmt.Errorf("config: %s: data_points must be positive, got %d", m.Name, m.DataPoints)
		}
		if m.Enable == "" || m.In1 == "" || m.In2 == "" || m.EncA == "" || m.EncB == "" {
			return fmt.Errorf("config: %s: all pins must be set", m.Name)
		}
		if m.Report {
			reported++
		}
	}
	if reported != 1 {
		return fmt.Errorf("config: exactly one motor must have report: true, got %d", reported)
	}
	return nil
}

// Reported returns the motor whose samples feed the telemetry task.
func (c *Config) Reported() *MotorConfig {
	for i := range c.Motors {
		if c.Motors[i].Report {
			return &c.Motors[i]
		}
	}
	return nil
}
