package main

import (
	"fmt"

	"github.com/adrg/xdg"
	"gopkg.in/ini.v1"
)

// configFile is the config location relative to the XDG config directories.
const configFile = "ezark/config.ini"

// config holds settings read from config.ini. Command-line flags override
// them.
//
//	[log]
//	verbose = true
//	format  = json
//
//	[extract]
//	workers = 4
//
//	[inspect]
//	color = never
type config struct {
	Verbose   bool
	LogFormat string
	Workers   int
	Color     string
}

func defaultConfig() config {
	return config{
		LogFormat: "console",
		Workers:   1,
		Color:     "auto",
	}
}

// findConfig returns explicit if set, otherwise the first config.ini found
// in the XDG config directories. It returns "" when there is none.
func findConfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path, err := xdg.SearchConfigFile(configFile)
	if err != nil {
		return ""
	}
	return path
}

// loadConfig reads the config file at path. An empty path yields defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	logSec := f.Section("log")
	if logSec.HasKey("verbose") {
		if cfg.Verbose, err = logSec.Key("verbose").Bool(); err != nil {
			return cfg, fmt.Errorf("config %s: log.verbose: %w", path, err)
		}
	}
	cfg.LogFormat = logSec.Key("format").MustString(cfg.LogFormat)

	extractSec := f.Section("extract")
	if extractSec.HasKey("workers") {
		if cfg.Workers, err = extractSec.Key("workers").Int(); err != nil {
			return cfg, fmt.Errorf("config %s: extract.workers: %w", path, err)
		}
	}

	cfg.Color = f.Section("inspect").Key("color").MustString(cfg.Color)

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c config) validate() error {
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (want console or json)", c.LogFormat)
	}
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("unknown color mode %q (want auto, always or never)", c.Color)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
