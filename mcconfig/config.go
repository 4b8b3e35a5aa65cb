// Package mcconfig loads mc.SessionConfig values and named mc.AccessOption
// presets from a YAML file. It is the ambient configuration layer: it
// validates and hands typed values to the core, and never the reverse.
package mcconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"melsec/mc"
)

// sessionYAML is the on-disk shape of one mc.SessionConfig entry.
type sessionYAML struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Network       int    `yaml:"network"`
	PC            int    `yaml:"pc"`
	ModuleIO      int    `yaml:"module_io"`
	ModuleStation int    `yaml:"module_station"`
	TimeoutTicks  int    `yaml:"timeout_ticks"`
	Series        string `yaml:"series"`
	Mode          string `yaml:"mode"`
}

// accessYAML is the on-disk shape of one named mc.AccessOption preset.
type accessYAML struct {
	Mode           string `yaml:"mode"`
	Network        int    `yaml:"network"`
	PC             int    `yaml:"pc"`
	ModuleIO       int    `yaml:"module_io"`
	ModuleStation  int    `yaml:"module_station"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// fileYAML is the top-level document shape.
type fileYAML struct {
	Sessions map[string]sessionYAML `yaml:"sessions"`
	Access   map[string]accessYAML  `yaml:"access,omitempty"`
}

// File holds every session and access-option preset loaded from a config
// file, keyed by name.
type File struct {
	Sessions map[string]mc.SessionConfig
	Access   map[string]mc.AccessOption
}

// Load reads path, parses it as YAML, and validates every session entry.
// A session naming an unknown series or mode fails with an error naming
// the offending entry; a session failing mc.SessionConfig.Validate does
// too.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mcconfig: read %s: %w", path, err)
	}

	var doc fileYAML
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("mcconfig: parse %s: %w", path, err)
	}

	out := &File{
		Sessions: make(map[string]mc.SessionConfig, len(doc.Sessions)),
		Access:   make(map[string]mc.AccessOption, len(doc.Access)),
	}

	for name, s := range doc.Sessions {
		series, err := parseSeries(s.Series)
		if err != nil {
			return nil, fmt.Errorf("mcconfig: session %q: %w", name, err)
		}
		mode, err := parseMode(s.Mode)
		if err != nil {
			return nil, fmt.Errorf("mcconfig: session %q: %w", name, err)
		}
		cfg := mc.SessionConfig{
			Host:          s.Host,
			Port:          s.Port,
			Network:       byte(s.Network),
			PC:            byte(s.PC),
			ModuleIO:      uint16(s.ModuleIO),
			ModuleStation: byte(s.ModuleStation),
			TimeoutTicks:  uint16(s.TimeoutTicks),
			Series:        series,
			Mode:          mode,
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("mcconfig: session %q: %w", name, err)
		}
		out.Sessions[name] = cfg
	}

	for name, a := range doc.Access {
		mode, err := parseMode(a.Mode)
		if err != nil {
			return nil, fmt.Errorf("mcconfig: access %q: %w", name, err)
		}
		out.Access[name] = mc.AccessOption{
			Mode:           mode,
			Network:        byte(a.Network),
			PC:             byte(a.PC),
			ModuleIO:       uint16(a.ModuleIO),
			ModuleStation:  byte(a.ModuleStation),
			TimeoutSeconds: a.TimeoutSeconds,
		}
	}

	return out, nil
}

func parseSeries(s string) (mc.PlcSeries, error) {
	switch s {
	case "Q", "q":
		return mc.SeriesQ, nil
	case "L", "l":
		return mc.SeriesL, nil
	case "QnA", "qna":
		return mc.SeriesQnA, nil
	case "iQ-L", "iql":
		return mc.SeriesIQL, nil
	case "iQ-R", "iqr":
		return mc.SeriesIQR, nil
	default:
		return 0, fmt.Errorf("unknown series %q", s)
	}
}

func parseMode(m string) (mc.CommunicationMode, error) {
	switch m {
	case "", "binary":
		return mc.Binary, nil
	case "ascii", "ASCII":
		return mc.Ascii, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", m)
	}
}
