// Package hook runs user-supplied executables when the tree changes mode.
//
// Each hook lives in its own directory under the hooks directory with a
// hook.json manifest. The event is written as JSON to the executable's stdin
// and a JSON Response is expected on stdout.
package hook

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"time"
)

// ErrHookNotFound is returned when a requested hook cannot be found.
var ErrHookNotFound = errors.New("hook not found")

// Manifest describes a hook and the modes it subscribes to. An empty Modes
// list subscribes to every mode.
type Manifest struct {
	Name       string   `json:"name"`
	Executable string   `json:"executable"`
	Modes      []string `json:"modes"`
}

// Event is sent to a hook on stdin.
type Event struct {
	Mode           string    `json:"mode"`
	ExtensionRatio float64   `json:"extensionRatio"`
	SessionID      string    `json:"sessionId,omitempty"`
	At             time.Time `json:"at"`
}

// Response is what a hook writes to stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Hook is a discovered hook.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Wants reports whether the hook subscribes to mode.
func (h *Hook) Wants(mode string) bool {
	return len(h.Manifest.Modes) == 0 || slices.Contains(h.Manifest.Modes, mode)
}

// Manager discovers hooks and dispatches events to them.
type Manager struct {
	dir    string
	runner *Runner

	mu    sync.RWMutex
	hooks map[string]*Hook
	wg    sync.WaitGroup
}

// NewManager creates a Manager for dir using runner to execute hooks.
func NewManager(dir string, runner *Runner) *Manager {
	return &Manager{
		dir:    dir,
		runner: runner,
		hooks:  make(map[string]*Hook),
	}
}

// Discover scans the hooks directory. A missing directory means no hooks;
// unreadable or invalid manifests are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = make(map[string]*Hook)

	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(path, "hook.json"))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			log.Printf("hook %s: invalid manifest: %v", entry.Name(), err)
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			continue
		}

		m.hooks[manifest.Name] = &Hook{
			Manifest:   manifest,
			Path:       path,
			Executable: filepath.Join(path, manifest.Executable),
		}
	}

	return nil
}

// Get returns a hook by name.
func (m *Manager) Get(name string) (*Hook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns all discovered hooks ordered by name.
func (m *Manager) List() []*Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hooks := make([]*Hook, 0, len(m.hooks))
	for _, h := range m.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].Manifest.Name < hooks[j].Manifest.Name })
	return hooks
}

// Dir returns the hooks directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Notify runs every hook subscribed to ev.Mode in the background. Failures
// are logged; they never reach the caller.
func (m *Manager) Notify(ev Event) {
	for _, h := range m.List() {
		if !h.Wants(ev.Mode) {
			continue
		}
		m.wg.Add(1)
		go func(h *Hook) {
			defer m.wg.Done()
			resp, err := m.runner.Run(h, &ev)
			switch {
			case err != nil:
				log.Printf("hook %s: %v", h.Manifest.Name, err)
			case !resp.Success:
				log.Printf("hook %s reported failure: %s", h.Manifest.Name, resp.Error)
			}
		}(h)
	}
}

// Wait blocks until every hook started by Notify has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
