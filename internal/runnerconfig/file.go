package runnerconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileOverride mirrors Config's fields as pointers so an absent YAML key
// leaves the corresponding Config field untouched, matching the teacher's
// optional-override-file convention in internal/config.
type fileOverride struct {
	Depth         *int    `yaml:"depth"`
	Breadth       *int    `yaml:"breadth"`
	SleepMs       *int    `yaml:"sleepMs"`
	TimeoutMs     *int    `yaml:"timeoutMs"`
	VerifyDelayMs *int    `yaml:"verifyDelayMs"`
	Tag           *string `yaml:"tag"`
	PayloadPath   *string `yaml:"payloadPath"`
	MetricsAddr   *string `yaml:"metricsAddr"`
}

// LoadFile overlays a YAML override file onto cfg. Unknown fields are
// rejected, matching the teacher's config.Load strictness.
func LoadFile(path string, cfg Config) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("runnerconfig: open %s: %w", path, err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	var override fileOverride
	if err := decoder.Decode(&override); err != nil {
		return Config{}, fmt.Errorf("runnerconfig: %s: decode: %w", path, err)
	}

	if override.Depth != nil {
		cfg.Depth = *override.Depth
	}
	if override.Breadth != nil {
		cfg.Breadth = *override.Breadth
	}
	if override.SleepMs != nil {
		cfg.SleepMs = *override.SleepMs
	}
	if override.TimeoutMs != nil {
		cfg.TimeoutMs = *override.TimeoutMs
	}
	if override.VerifyDelayMs != nil {
		cfg.VerifyDelayMs = *override.VerifyDelayMs
	}
	if override.Tag != nil {
		cfg.Tag = *override.Tag
	}
	if override.PayloadPath != nil {
		cfg.PayloadPath = *override.PayloadPath
	}
	if override.MetricsAddr != nil {
		cfg.MetricsAddr = *override.MetricsAddr
	}
	return cfg, nil
}
