package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CameraConfig mirrors the camera command's flags. Zero values mean unset.
type CameraConfig struct {
	Save             string        `yaml:"save"`
	Prefix           string        `yaml:"prefix"`
	PollTimeout      time.Duration `yaml:"poll_timeout"`
	JPEGQuality      int           `yaml:"jpeg_quality"`
	AllowOpenFailure bool          `yaml:"allow_open_failure"`
	MetricsAddr      string        `yaml:"metrics_addr"`
	NATSURL          string        `yaml:"nats_url"`
	NATSSubject      string        `yaml:"nats_subject"`
}

type Config struct {
	Camera CameraConfig `yaml:"camera"`
}

// LoadConfig reads the configuration from a YAML file.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return &cfg, nil
}
