package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/holotree/internal/gesture"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holotree.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gesture != gesture.DefaultParams() {
		t.Errorf("expected default params, got %+v", cfg.Gesture)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
camera:
  device_id: 2
motion:
  idle_timeout: 5s
gesture:
  disperse_ratio: 1.8
  votes: 5
  yaw_sign: 1
scene:
  tree_color: "#ff0000"
data_dir: /tmp/holotree-test
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Camera.DeviceID != 2 || cfg.Camera.Width != 640 {
		t.Errorf("Camera = %+v, want device 2 with default size", cfg.Camera)
	}
	if cfg.Motion.IdleTimeout != 5*time.Second {
		t.Errorf("IdleTimeout = %v", cfg.Motion.IdleTimeout)
	}
	if cfg.Gesture.DisperseRatio != 1.8 || cfg.Gesture.Votes != 5 || cfg.Gesture.YawSign != 1 {
		t.Errorf("Gesture = %+v", cfg.Gesture)
	}
	if cfg.Gesture.AssembleRatio != 1.3 {
		t.Errorf("untouched AssembleRatio = %v, want 1.3", cfg.Gesture.AssembleRatio)
	}
	if cfg.Scene.TreeColor != "#ff0000" || cfg.Scene.ParticleCount != 25000 {
		t.Errorf("Scene = %+v", cfg.Scene)
	}
	if cfg.DatabasePath() != "/tmp/holotree-test/holotree.db" {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed yaml", "gesture: [1, 2", "parse config"},
		{"bad gesture params", "gesture:\n  assemble_ratio: 2.0\n", "gesture"},
		{"idle above active", "motion:\n  idle_fps: 60\n", "idle_fps"},
		{"empty addr", "server:\n  addr: \"\"\n", "addr"},
		{"zero hook timeout", "hooks:\n  timeout: 0s\n", "hooks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestConfig_HooksDir(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"
	if got := cfg.HooksDir(); got != filepath.Join("/data", "hooks") {
		t.Errorf("HooksDir() = %q", got)
	}

	cfg.Hooks.Dir = "/elsewhere"
	if got := cfg.HooksDir(); got != "/elsewhere" {
		t.Errorf("HooksDir() = %q, want override", got)
	}
}
