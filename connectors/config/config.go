package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	dc "intervention-stats/domain/config"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "./config.yml"

// Load parses the YAML configuration file at path over the defaults. A
// missing file is not an error. Environment overrides are applied last.
func Load(path string) (*dc.Config, error) {
	c := dc.Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("config.default", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		slog.Info(fmt.Sprintf("Loaded config: %s", path))
	}
	applyEnv(&c)
	return &c, nil
}

// FromEnv loads the file named by CONFIG_PATH, or DefaultPath.
func FromEnv() (*dc.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

func applyEnv(c *dc.Config) {
	if v := os.Getenv("INTERVENTION_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("INTERVENTION_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("INTERVENTION_REMOTE_TOKEN"); v != "" {
		c.Remote.Token = v
	}
}
