package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/nicksanford/sanding-monitoring-web-app/internal/core/records"
)

const (
	DefaultRobotID      = "sander-01"
	DefaultPollInterval = 5 * time.Second
	DefaultPollLimit    = 100
	DefaultPageSize     = 50
	DefaultPassLimit    = 50
)

// DefaultCaptureMimeTypes keeps note documents out of the capture feed.
var DefaultCaptureMimeTypes = []string{
	"video/mp4",
	"video/webm",
	"video/quicktime",
	"image/jpeg",
	"image/png",
}

type Config struct {
	RobotID          string
	PartID           string // part the notes hang off; falls back to RobotID
	StorePath        string
	PollInterval     time.Duration
	PollLimit        int
	PageSize         int
	PassLimit        int
	CaptureMimeTypes []string
}

type tomlConfig struct {
	RobotID          string   `toml:"robot_id"`
	PartID           string   `toml:"part_id"`
	StorePath        string   `toml:"store_path"`
	PollInterval     string   `toml:"poll_interval"`
	PollLimit        int      `toml:"poll_limit"`
	PageSize         int      `toml:"page_size"`
	PassLimit        int      `toml:"pass_limit"`
	CaptureMimeTypes []string `toml:"capture_mime_types"`
}

func Default() *Config {
	cfg := &Config{
		RobotID:          DefaultRobotID,
		PollInterval:     DefaultPollInterval,
		PollLimit:        DefaultPollLimit,
		PageSize:         DefaultPageSize,
		PassLimit:        DefaultPassLimit,
		CaptureMimeTypes: append([]string(nil), DefaultCaptureMimeTypes...),
	}
	if home, err := os.UserHomeDir(); err == nil {
		cfg.StorePath = filepath.Join(home, ".config", "sandmon", "monitor.db")
	} else {
		cfg.StorePath = "monitor.db"
	}
	cfg.normalize()
	return cfg
}

// Load reads config from ~/.config/sandmon/config.toml. A missing file
// is not an error; defaults apply.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}
	path := filepath.Join(home, ".config", "sandmon", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads config from an explicit path, so a bad file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	var tc tomlConfig
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if tc.RobotID != "" {
		cfg.RobotID = tc.RobotID
		cfg.PartID = ""
	}
	if tc.PartID != "" {
		cfg.PartID = tc.PartID
	}
	if tc.StorePath != "" {
		cfg.StorePath = tc.StorePath
	}
	if tc.PollInterval != "" {
		d, err := time.ParseDuration(tc.PollInterval)
		if err != nil {
			return nil, fmt.Errorf("failed to parse poll_interval %q: %w", tc.PollInterval, err)
		}
		cfg.PollInterval = d
	}
	if tc.PollLimit > 0 {
		cfg.PollLimit = tc.PollLimit
	}
	if tc.PageSize > 0 {
		cfg.PageSize = tc.PageSize
	}
	if tc.PassLimit > 0 {
		cfg.PassLimit = tc.PassLimit
	}
	if len(tc.CaptureMimeTypes) > 0 {
		cfg.CaptureMimeTypes = tc.CaptureMimeTypes
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	if c.PartID == "" {
		c.PartID = c.RobotID
	}
}

// CaptureFilter is the record filter the feed and backfill run with.
func (c *Config) CaptureFilter() records.Filter {
	return records.Filter{
		RobotID:   c.RobotID,
		MimeTypes: append([]string(nil), c.CaptureMimeTypes...),
	}
}
