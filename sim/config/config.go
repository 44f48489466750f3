// Package config loads the hosted simulator configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v2"

	"mcv4/core"
	"mcv4/sim"
)

// Config describes one simulated board.
type Config struct {
	// Device is a serial device or pty to serve; empty serves stdin/stdout
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// FlagFile holds the bootloader handoff flag across restarts
	FlagFile string `yaml:"flag_file"`

	// Serial reported by *IDN?; empty derives one from the machine ID
	Serial string `yaml:"serial"`

	SupplyMV     uint16   `yaml:"supply_mv"`
	LoadMilliOhm []uint32 `yaml:"load_milliohm"`
	SampleRateHz int      `yaml:"sample_rate_hz"`

	Debug bool `yaml:"debug"`
}

// EnvOverrides are applied on top of the file. Unset variables leave the
// file value alone.
type EnvOverrides struct {
	Device   string `env:"MCV4_SIM_DEVICE"`
	Baud     int    `env:"MCV4_SIM_BAUD"`
	FlagFile string `env:"MCV4_SIM_FLAG_FILE"`
	Serial   string `env:"MCV4_SIM_SERIAL"`
	SupplyMV int    `env:"MCV4_SIM_SUPPLY_MV"`
	Debug    bool   `env:"MCV4_SIM_DEBUG"`
}

// LoadConfig parses YAML configuration and applies defaults.
func LoadConfig(data []byte) (*Config, error) {
	var config Config

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	applyDefaults(&config)
	return &config, nil
}

// LoadFile reads path, or returns the defaults when path is empty.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadConfig(data)
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() *Config {
	var config Config
	applyDefaults(&config)
	return &config
}

// ApplyEnv overlays the MCV4_SIM_* environment variables.
func (c *Config) ApplyEnv() error {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	if o.Device != "" {
		c.Device = o.Device
	}
	if o.Baud != 0 {
		c.Baud = o.Baud
	}
	if o.FlagFile != "" {
		c.FlagFile = o.FlagFile
	}
	if o.Serial != "" {
		c.Serial = o.Serial
	}
	if o.SupplyMV != 0 {
		if o.SupplyMV < 0 || o.SupplyMV > 0xffff {
			return fmt.Errorf("MCV4_SIM_SUPPLY_MV out of range: %d", o.SupplyMV)
		}
		c.SupplyMV = uint16(o.SupplyMV)
	}
	if o.Debug {
		c.Debug = true
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.LoadMilliOhm) > core.NumChannels {
		return fmt.Errorf("load_milliohm: %d entries for %d channels", len(c.LoadMilliOhm), core.NumChannels)
	}
	if c.Baud < 0 {
		return fmt.Errorf("baud: negative rate %d", c.Baud)
	}
	if c.SampleRateHz < 0 {
		return fmt.Errorf("sample_rate_hz: negative rate %d", c.SampleRateHz)
	}
	return nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *Config) {
	plant := sim.DefaultPlant()

	if config.Baud == 0 {
		config.Baud = 115200
	}
	if config.FlagFile == "" {
		config.FlagFile = filepath.Join(os.TempDir(), "mcv4-boot.flag")
	}
	if config.SupplyMV == 0 {
		config.SupplyMV = plant.SupplyMV
	}
	// A missing channel gets the default load; an explicit 0 is open circuit
	for len(config.LoadMilliOhm) < core.NumChannels {
		config.LoadMilliOhm = append(config.LoadMilliOhm, plant.LoadMilliOhm[len(config.LoadMilliOhm)])
	}
	if config.SampleRateHz == 0 {
		config.SampleRateHz = sim.DefaultSampleRateHz
	}
}

// Plant returns the simulated electrical environment.
func (c *Config) Plant() sim.Plant {
	p := sim.Plant{SupplyMV: c.SupplyMV}
	copy(p.LoadMilliOhm[:], c.LoadMilliOhm)
	return p
}

// SerialFromID turns a machine ID into a board serial of the placeholder's
// length.
func SerialFromID(id string) string {
	id = strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	n := len(core.SerialPlaceholder)
	if len(id) > n {
		id = id[:n]
	}
	return id
}
