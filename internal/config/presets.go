package config

import "sort"

func reactorPreset(mutate func(*Config)) *Config {
	cfg := DefaultConfig()
	mutate(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	ModelCSTR: {
		// Open-loop exothermic reactor relaxing to its operating point.
		"arrhenius": reactorPreset(func(c *Config) {
			c.Model = ModelCSTR
			c.TEnd, c.Samples = 50, 200
			c.Reactor.RhoCp = 4e6
		}),
	},
	ModelCSTRPI: {
		"step_heat": reactorPreset(func(c *Config) {
			c.Model = ModelCSTRPI
			c.TEnd, c.Samples = 50, 400
			c.Disturbance = DisturbanceConfig{At: 20, After: 1e6}
		}),
		"no_disturbance": reactorPreset(func(c *Config) {
			c.Model = ModelCSTRPI
			c.TEnd, c.Samples = 50, 400
		}),
	},
	ModelTank: {
		"step_heat": reactorPreset(func(c *Config) {
			c.Model = ModelTank
			c.Method = "rk45"
			c.TEnd, c.Samples = 100, 300
			c.InitState.T = 300
			c.Disturbance = DisturbanceConfig{At: 20, After: 2e5}
		}),
		"no_heat": reactorPreset(func(c *Config) {
			c.Model = ModelTank
			c.Method = "rk45"
			c.TEnd, c.Samples = 100, 300
			c.InitState.T = 300
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Models() []string {
	return []string{ModelCSTR, ModelCSTRPI, ModelTank}
}
