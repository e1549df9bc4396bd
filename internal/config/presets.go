package config

import "sort"

func preset(system string, tEnd, step, transient float64, params map[string]float64, initial ...float64) *Config {
	cfg := DefaultConfig()
	cfg.System = system
	cfg.TEnd = tEnd
	cfg.Step = step
	cfg.Transient = transient
	cfg.Params = params
	cfg.Initial = initial
	return cfg
}

func withSweep(cfg *Config, param string, lo, hi float64, steps int, observe string) *Config {
	cfg.Sweep.Param = param
	cfg.Sweep.Min = lo
	cfg.Sweep.Max = hi
	cfg.Sweep.Steps = steps
	cfg.Sweep.Observe = observe
	return cfg
}

var Presets = map[string]map[string]*Config{
	"lorenz": {
		"classic":  preset("lorenz", 50, 0.01, 5, map[string]float64{"rho": 28}, 1, 1, 1),
		"periodic": preset("lorenz", 80, 0.005, 40, map[string]float64{"rho": 160}, 1, 1, 1),
		"decay":    preset("lorenz", 30, 0.01, 0, map[string]float64{"rho": 0.5}, 1, 1, 1),
		"rho-sweep": withSweep(
			preset("lorenz", 200, 0.01, 0, nil, 1, 1, 1),
			"rho", 20, 200, 180, "z"),
	},
	"rossler": {
		"chaotic":  preset("rossler", 300, 0.01, 100, map[string]float64{"c": 5.7}, 1, 1, 1),
		"period-2": preset("rossler", 300, 0.01, 100, map[string]float64{"c": 3.5}, 1, 1, 1),
		"c-sweep": withSweep(
			preset("rossler", 400, 0.01, 0, nil, 1, 1, 1),
			"c", 2, 6, 200, "x"),
	},
	"duffing": {
		"chaotic": preset("duffing", 500, 0.01, 100, map[string]float64{"gamma": 0.5}, 1, 0),
		"gentle":  preset("duffing", 200, 0.01, 50, map[string]float64{"gamma": 0.2}, 1, 0),
		"gamma-sweep": withSweep(
			preset("duffing", 400, 0.01, 0, nil, 1, 0),
			"gamma", 0.2, 0.65, 150, "x"),
	},
	"vanderpol": {
		"relaxation": preset("vanderpol", 100, 0.005, 20, map[string]float64{"mu": 5}, 2, 0),
		"weak":       preset("vanderpol", 60, 0.01, 10, map[string]float64{"mu": 0.2}, 0.5, 0),
	},
	"harmonic": {
		"unit": preset("harmonic", 20, 0.01, 0, map[string]float64{"omega": 1}, 1, 0),
		"fast": preset("harmonic", 10, 0.001, 0, map[string]float64{"omega": 10}, 1, 0),
	},
	"damped": {
		"light": preset("damped", 40, 0.01, 0, map[string]float64{"gamma": 0.1}, 1, 0),
		"heavy": preset("damped", 20, 0.01, 0, map[string]float64{"gamma": 2.5}, 1, 0),
	},
	"doublewell": {
		"trapped": preset("doublewell", 60, 0.01, 0, nil, 0.1, 0),
		"hopping": preset("doublewell", 60, 0.01, 0, map[string]float64{"damping": 0.02}, 0.1, 2),
	},
	"pendulum": {
		"chaotic": preset("pendulum", 300, 0.01, 50,
			map[string]float64{"gravity": 1, "length": 1, "damping": 0.5, "drive": 1.2, "drive_freq": 2.0 / 3}, 0.2, 0),
		"free": preset("pendulum", 20, 0.01, 0, map[string]float64{"damping": 0}, 2.5, 0),
		"drive-sweep": withSweep(
			preset("pendulum", 300, 0.01, 0,
				map[string]float64{"gravity": 1, "length": 1, "damping": 0.5, "drive_freq": 2.0 / 3}, 0.2, 0),
			"drive", 0.9, 1.5, 120, "omega"),
	},
	"double": {
		"chaos":  preset("double", 30, 0.001, 0, nil, 1.5, 1.5, 0, 0),
		"gentle": preset("double", 30, 0.001, 0, nil, 0.2, 0.1, 0, 0),
	},
	"brusselator": {
		"limit-cycle": preset("brusselator", 60, 0.01, 20, map[string]float64{"b": 3}, 1, 1),
		"stable":      preset("brusselator", 60, 0.01, 0, map[string]float64{"b": 1.5}, 1, 1),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(system, name string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	cfg, ok := systemPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
