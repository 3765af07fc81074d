// Package config loads holotree settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/holotree/internal/capture"
	"github.com/ayusman/holotree/internal/detector"
	"github.com/ayusman/holotree/internal/gesture"
	"github.com/ayusman/holotree/internal/hook"
	"github.com/ayusman/holotree/internal/scene"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Camera   capture.Config  `yaml:"camera"`
	Motion   MotionConfig    `yaml:"motion"`
	Detector detector.Config `yaml:"detector"`
	Gesture  gesture.Params  `yaml:"gesture"`
	Scene    scene.Settings  `yaml:"scene"`
	Hooks    HooksConfig     `yaml:"hooks"`
	DataDir  string          `yaml:"data_dir"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string        `yaml:"addr"`
	StaticDir string        `yaml:"static_dir"`
	PushEvery time.Duration `yaml:"push_every"`
}

// MotionConfig configures the idle/active frame rate switch.
type MotionConfig struct {
	Threshold   float64       `yaml:"threshold"`
	IdleFPS     int           `yaml:"idle_fps"`
	ActiveFPS   int           `yaml:"active_fps"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// HooksConfig configures the mode-change hooks. An empty Dir means
// DataDir/hooks.
type HooksConfig struct {
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":8080",
			PushEvery: time.Second / 30,
		},
		Camera: capture.DefaultConfig(),
		Motion: MotionConfig{
			Threshold:   1.0,
			IdleFPS:     capture.DefaultIdleFPS,
			ActiveFPS:   capture.DefaultActiveFPS,
			IdleTimeout: capture.DefaultIdleTimeout,
		},
		Detector: detector.DefaultConfig(),
		Gesture:  gesture.DefaultParams(),
		Scene:    scene.DefaultSettings(),
		Hooks:    HooksConfig{Timeout: hook.DefaultTimeout},
		DataDir:  defaultDataDir(),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".holotree"
	}
	return filepath.Join(home, ".holotree")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if err := c.Gesture.Validate(); err != nil {
		return fmt.Errorf("gesture: %w", err)
	}
	if c.Motion.IdleFPS <= 0 || c.Motion.ActiveFPS <= 0 {
		return errors.New("motion: frame rates must be positive")
	}
	if c.Motion.IdleFPS > c.Motion.ActiveFPS {
		return errors.New("motion: idle_fps must not exceed active_fps")
	}
	if c.Server.Addr == "" {
		return errors.New("server: addr is required")
	}
	if c.Server.PushEvery <= 0 {
		return errors.New("server: push_every must be positive")
	}
	if c.Hooks.Timeout <= 0 {
		return errors.New("hooks: timeout must be positive")
	}
	return nil
}

// DatabasePath returns where the SQLite database lives.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "holotree.db")
}

// HooksDir returns the directory scanned for hooks.
func (c Config) HooksDir() string {
	if c.Hooks.Dir != "" {
		return c.Hooks.Dir
	}
	return filepath.Join(c.DataDir, "hooks")
}
