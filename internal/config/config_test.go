package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(cfg.Motors) != 2 {
		t.Fatalf("expected 2 motors, got %d", len(cfg.Motors))
	}
	m1 := cfg.Motors[0]
	if m1.Enable != "PC1" || m1.In1 != "PA0" || m1.In2 != "PA1" {
		t.Errorf("motor 1 drive pins wrong: %+v", m1)
	}
	if m1.EncA != "PC6" || m1.EncB != "PC7" {
		t.Errorf("motor 1 encoder pins wrong: %+v", m1)
	}
	m2 := cfg.Motors[1]
	if m2.Enable != "PA10" || m2.In1 != "PB4" || m2.In2 != "PB5" {
		t.Errorf("motor 2 drive pins wrong: %+v", m2)
	}
	if rep := cfg.Reported(); rep == nil || rep.Name != "motor_1" {
		t.Error("motor 1 should be the reported motor")
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rig.yaml")
	doc := `
scheduler:
  controller_period_ms: 30
motors:
  - name: only
    priority: 1
    enable: PC1
    in1: PA0
    in2: PA1
    timer: 5
    enc_a: PC6
    enc_b: PC7
    enc_timer: 8
    kp: 0.06
    setpoint: 4000
    data_points: 50
    report: true
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scheduler.ControllerPeriodMs != 30 {
		t.Errorf("expected period 30, got %d", cfg.Scheduler.ControllerPeriodMs)
	}
	// untouched fields keep their defaults
	if cfg.Scheduler.TelemetryPeriodMs != DefaultTelemetryMs {
		t.Errorf("expected default telemetry period, got %d", cfg.Scheduler.TelemetryPeriodMs)
	}
	if cfg.Station.Baud != DefaultBaud {
		t.Errorf("expected default baud, got %d", cfg.Station.Baud)
	}
	if len(cfg.Motors) != 1 || cfg.Motors[0].Kp != 0.06 {
		t.Errorf("motor list not replaced: %+v", cfg.Motors)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero period", func(c *Config) { c.Scheduler.ControllerPeriodMs = 0 }},
		{"no motors", func(c *Config) { c.Motors = nil }},
		{"bad kp", func(c *Config) { c.Motors[0].Kp = -1 }},
		{"zero points", func(c *Config) { c.Motors[0].DataPoints = 0 }},
		{"missing pin", func(c *Config) { c.Motors[0].In2 = "" }},
		{"no reported motor", func(c *Config) { c.Motors[0].Report = false }},
		{"two reported motors", func(c *Config) { c.Motors[1].Report = true }},
	}
	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := Default()
	cfg.Motors[0].Kp = 0.07
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Motors[0].Kp != 0.07 {
		t.Errorf("expected kp 0.07 after round trip, got %g", loaded.Motors[0].Kp)
	}
}

func TestEnvDefaults(t *testing.T) {
	os.Unsetenv("MOTORLAB_DATA")
	os.Unsetenv("MOTORLAB_PORT")
	os.Unsetenv("MOTORLAB_DEBUG")
	e, err := LoadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if e.DataDir != ".motorlab" {
		t.Errorf("expected default data dir, got %q", e.DataDir)
	}
	if e.Debug {
		t.Error("debug should default to off")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MOTORLAB_DATA", "/tmp/runs")
	t.Setenv("MOTORLAB_DEBUG", "true")
	e, err := LoadEnv()
	if err != nil {
		t.Fatal(err)
	}
	if e.DataDir != "/tmp/runs" {
		t.Errorf("expected override, got %q", e.DataDir)
	}
	if !e.Debug {
		t.Error("expected debug on")
	}
}
