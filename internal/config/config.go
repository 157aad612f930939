package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

const (
	ModelCSTR   = "cstr"
	ModelCSTRPI = "cstr_pi"
	ModelTank   = "thermal_tank"
)

const (
	DefaultMethod   = "bdf"
	DefaultDuration = 50.0
	DefaultSamples  = 200
	DefaultRTol     = 1e-6
	DefaultATol     = 1e-9
	DefaultDt       = 0.01
	DefaultMaxSteps = 100000
	DefaultKp       = 5e7
	DefaultKi       = 2e6
	DefaultSetpoint = 360.0
)

type Config struct {
	Model       string            `yaml:"model"`
	Method      string            `yaml:"method"`
	TStart      float64           `yaml:"t_start"`
	TEnd        float64           `yaml:"t_end"`
	Samples     int               `yaml:"samples"`
	Solver      SolverConfig      `yaml:"solver"`
	Reactor     ReactorConfig     `yaml:"reactor"`
	Tank        TankConfig        `yaml:"tank"`
	Controller  ControllerConfig  `yaml:"controller"`
	Disturbance DisturbanceConfig `yaml:"disturbance"`
	InitState   InitStateConfig   `yaml:"init_state"`
}

type SolverConfig struct {
	RTol      float64 `yaml:"rtol"`
	ATol      float64 `yaml:"atol"`
	FirstStep float64 `yaml:"first_step"`
	MaxStep   float64 `yaml:"max_step"`
	Dt        float64 `yaml:"dt"`
	MaxSteps  int     `yaml:"max_steps"`
}

type ReactorConfig struct {
	V      float64 `yaml:"v"`
	F      float64 `yaml:"f"`
	CIn    float64 `yaml:"c_in"`
	TIn    float64 `yaml:"t_in"`
	A      float64 `yaml:"a"`
	Ea     float64 `yaml:"ea"`
	R      float64 `yaml:"r"`
	DeltaH float64 `yaml:"delta_h"`
	RhoCp  float64 `yaml:"rho_cp"`
	Rho    float64 `yaml:"rho"`
	Cp     float64 `yaml:"cp"`
}

type TankConfig struct {
	V     float64 `yaml:"v"`
	F     float64 `yaml:"f"`
	TIn   float64 `yaml:"t_in"`
	TAmb  float64 `yaml:"t_amb"`
	UA    float64 `yaml:"ua"`
	RhoCp float64 `yaml:"rho_cp"`
	Rho   float64 `yaml:"rho"`
	Cp    float64 `yaml:"cp"`
}

type ControllerConfig struct {
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Setpoint  float64 `yaml:"setpoint"`
	OutputMin float64 `yaml:"output_min"`
	OutputMax float64 `yaml:"output_max"`
	TolRel    float64 `yaml:"tol_rel"`
	TolAbs    float64 `yaml:"tol_abs"`
}

// DisturbanceConfig is a heat-duty step in W: Before until At, After from At on.
type DisturbanceConfig struct {
	At     float64 `yaml:"at"`
	Before float64 `yaml:"before"`
	After  float64 `yaml:"after"`
}

func (d DisturbanceConfig) Active() bool {
	return d.Before != 0 || d.After != 0
}

type InitStateConfig struct {
	C float64 `yaml:"c"`
	T float64 `yaml:"t"`
	I float64 `yaml:"i"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:   ModelCSTR,
		Method:  DefaultMethod,
		TStart:  0,
		TEnd:    DefaultDuration,
		Samples: DefaultSamples,
		Solver: SolverConfig{
			RTol:     DefaultRTol,
			ATol:     DefaultATol,
			Dt:       DefaultDt,
			MaxSteps: DefaultMaxSteps,
		},
		Reactor: ReactorConfig{
			V:      10,
			F:      1,
			CIn:    2,
			TIn:    350,
			A:      1e7,
			Ea:     8e4,
			R:      8.314,
			DeltaH: -5e4,
			Rho:    1000,
			Cp:     4180,
		},
		Tank: TankConfig{
			V:    10,
			F:    1,
			TIn:  350,
			TAmb: 300,
			UA:   15000,
			Rho:  1000,
			Cp:   4180,
		},
		Controller: ControllerConfig{
			Kp:        DefaultKp,
			Ki:        DefaultKi,
			Setpoint:  DefaultSetpoint,
			OutputMin: -5e6,
			OutputMax: 9e7,
			TolRel:    1e-5,
			TolAbs:    1e-8,
		},
		InitState: InitStateConfig{
			C: 0.5,
			T: 350,
		},
	}
}

// Load reads a YAML file, or an INI file when the extension is .ini. Keys
// missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if isINI(path) {
		return loadINI(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if isINI(path) {
		return saveINI(path, cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isINI(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ini")
}

func (c *Config) Validate() error {
	switch c.Model {
	case ModelCSTR, ModelCSTRPI, ModelTank:
	default:
		return fmt.Errorf("unknown model %q", c.Model)
	}
	if !(c.TStart < c.TEnd) {
		return fmt.Errorf("t_end (%g) must be greater than t_start (%g)", c.TEnd, c.TStart)
	}
	if c.Samples < 0 {
		return fmt.Errorf("samples must not be negative, got %d", c.Samples)
	}
	return nil
}

func (c *Config) GetInitState() []float64 {
	switch c.Model {
	case ModelCSTRPI:
		return []float64{c.InitState.C, c.InitState.T, c.InitState.I}
	case ModelTank:
		return []float64{c.InitState.T}
	default:
		return []float64{c.InitState.C, c.InitState.T}
	}
}

// SampleTimes returns Samples evenly spaced instants over [TStart, TEnd], or
// nil when every accepted step should be reported.
func (c *Config) SampleTimes() []float64 {
	switch {
	case c.Samples <= 0:
		return nil
	case c.Samples == 1:
		return []float64{c.TEnd}
	}
	return floats.Span(make([]float64, c.Samples), c.TStart, c.TEnd)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
