package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/EigenDog/dawg/worker/channel"
	"github.com/EigenDog/dawg/worker/taskstate"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         uint16  `yaml:"port"`
	DataDir      string  `yaml:"data_dir"`
	IdentityPath string  `yaml:"identity_path"`
	SampleSeed   int64   `yaml:"sample_seed"`
	SampleFrac   float64 `yaml:"sample_frac"`
	Debug        bool    `yaml:"debug"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}

		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	return cfg, nil
}

// flagPort validates a port given on the command line; uint16 conversion
// alone would silently truncate out-of-range values.
func flagPort(v int) (uint16, error) {
	if v < 1 || v > math.MaxUint16 {
		return 0, fmt.Errorf("port %d out of range", v)
	}
	return uint16(v), nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = channel.DefaultPort
	}
	if c.DataDir == "" {
		c.DataDir = "./dawg-data"
	}
	if c.IdentityPath == "" {
		c.IdentityPath = filepath.Join(c.DataDir, "identity.json")
	}
	if c.SampleFrac == 0 {
		c.SampleFrac = taskstate.DefaultSampleFrac
	}
}
