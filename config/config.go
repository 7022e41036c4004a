/*
config.go - TOML configuration for the payroll server

PURPOSE:
  Loads server, storage, and payroll settings from an optional TOML
  file. Anything left unset falls back to the built-in defaults, so
  running without a config file at all is supported.

FILE FORMAT:

	[server]
	port = 8080

	[storage]
	path = "workstudy.db"

	[payroll]
	hourly_wage = 15.0
	cap_hours = 40.0

SEE ALSO:
  - cmd/server/main.go: Flag handling and startup
  - payroll/types.go: Constants consumed by the engine
*/
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/yqwork/payroll-engine/payroll"
)

// Config holds all server settings.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Payroll PayrollConfig `toml:"payroll"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type StorageConfig struct {
	Path string `toml:"path"`
}

type PayrollConfig struct {
	HourlyWage float64 `toml:"hourly_wage"`
	CapHours   float64 `toml:"cap_hours"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	c := payroll.DefaultConstants()
	return Config{
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{Path: "workstudy.db"},
		Payroll: PayrollConfig{
			HourlyWage: c.HourlyWage.InexactFloat64(),
			CapHours:   c.CapHours.Float64(),
		},
	}
}

// Load reads a TOML file and merges it over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("config %s: invalid server port %d", path, cfg.Server.Port)
	}
	if cfg.Payroll.HourlyWage <= 0 {
		return Config{}, fmt.Errorf("config %s: hourly_wage must be positive", path)
	}
	if cfg.Payroll.CapHours <= 0 {
		return Config{}, fmt.Errorf("config %s: cap_hours must be positive", path)
	}
	return cfg, nil
}

// Constants converts the payroll section into engine constants.
func (c Config) Constants() payroll.Constants {
	return payroll.Constants{
		HourlyWage: decimal.NewFromFloat(c.Payroll.HourlyWage),
		CapHours:   payroll.NewHours(c.Payroll.CapHours),
	}
}
