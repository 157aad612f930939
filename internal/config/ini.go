package config

import (
	"strconv"

	"gopkg.in/ini.v1"
)

func loadINI(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	loadCfg(file, cfg)
	return cfg, nil
}

func loadCfg(file *ini.File, cfg *Config) {
	run := file.Section("run")
	cfg.Model = run.Key("model").MustString(cfg.Model)
	cfg.Method = run.Key("method").MustString(cfg.Method)
	cfg.TStart = run.Key("t_start").MustFloat64(cfg.TStart)
	cfg.TEnd = run.Key("t_end").MustFloat64(cfg.TEnd)
	cfg.Samples = run.Key("samples").MustInt(cfg.Samples)

	solver := file.Section("solver")
	cfg.Solver.RTol = solver.Key("rtol").MustFloat64(cfg.Solver.RTol)
	cfg.Solver.ATol = solver.Key("atol").MustFloat64(cfg.Solver.ATol)
	cfg.Solver.FirstStep = solver.Key("first_step").MustFloat64(cfg.Solver.FirstStep)
	cfg.Solver.MaxStep = solver.Key("max_step").MustFloat64(cfg.Solver.MaxStep)
	cfg.Solver.Dt = solver.Key("dt").MustFloat64(cfg.Solver.Dt)
	cfg.Solver.MaxSteps = solver.Key("max_steps").MustInt(cfg.Solver.MaxSteps)

	for name, p := range cfg.params() {
		sec, key := splitParam(name)
		if sec == "solver" {
			continue
		}
		*p = file.Section(sec).Key(key).MustFloat64(*p)
	}
}

func saveINI(path string, cfg *Config) error {
	file := ini.Empty()

	run := file.Section("run")
	run.Key("model").SetValue(cfg.Model)
	run.Key("method").SetValue(cfg.Method)
	run.Key("t_start").SetValue(formatFloat(cfg.TStart))
	run.Key("t_end").SetValue(formatFloat(cfg.TEnd))
	run.Key("samples").SetValue(strconv.Itoa(cfg.Samples))

	solver := file.Section("solver")
	solver.Key("max_steps").SetValue(strconv.Itoa(cfg.Solver.MaxSteps))

	for _, name := range ParamNames() {
		sec, key := splitParam(name)
		file.Section(sec).Key(key).SetValue(formatFloat(*cfg.params()[name]))
	}
	return file.SaveTo(path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
