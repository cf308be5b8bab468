package config

import "github.com/caarlos0/env/v6"

// Env carries the host-environment overrides that do not belong in the
// rig config file.
type Env struct {
	DataDir string `env:"MOTORLAB_DATA" envDefault:".motorlab"`
	Port    string `env:"MOTORLAB_PORT" envDefault:""`
	Debug   bool   `env:"MOTORLAB_DEBUG" envDefault:"false"`
}

func LoadEnv() (*Env, error) {
	e := new(Env)
	if err := env.Parse(e); err != nil {
		return nil, err
	}
	return e, nil
}
