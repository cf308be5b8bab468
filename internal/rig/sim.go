package rig

import (
	"context"
	"io"
	"time"

	"github.com/mecha04/motorlab/internal/config"
	"github.com/mecha04/motorlab/internal/hal"
	"github.com/mecha04/motorlab/internal/integrators"
	"github.com/mecha04/motorlab/internal/plant"
	"github.com/mecha04/motorlab/internal/simhw"
)

// NewSim builds a rig backed by the simulated board, one plant channel
// per configured motor.
func NewSim(cfg *config.Config, out io.Writer) (*Rig, error) {
	board := simhw.New(time.Unix(0, 0))
	integ, err := integrators.ByName(cfg.Plant.Integrator)
	if err != nil {
		return nil, err
	}
	for _, mc := range cfg.Motors {
		dyn := plant.NewDCMotor(cfg.Plant.Gain, cfg.Plant.Tau)
		if err := board.AddMotor(hal.Pin(mc.Enable), mc.Timer, mc.EncTimer, dyn, integ); err != nil {
			return nil, err
		}
	}
	return New(cfg, board, board.Clock(), board, out)
}

// RunSim runs one simulated step response with the given config.
func RunSim(ctx context.Context, cfg *config.Config, out io.Writer, observers ...Observer) (*Result, error) {
	r, err := NewSim(cfg, out)
	if err != nil {
		return nil, err
	}
	for _, obs := range observers {
		r.AddObserver(obs)
	}
	return r.Run(ctx)
}
