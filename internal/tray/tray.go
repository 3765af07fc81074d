// Package tray provides a system tray interface showing the holotree status.
package tray

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/ayusman/holotree/internal/scene"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	mu         sync.RWMutex

	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
	menuMode   *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback called when tracking is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback called when the settings item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback called when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It blocks until systray.Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

func (t *Tray) onReady() {
	systray.SetTitle("Holotree")
	systray.SetTooltip("Holotree gesture tracking")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(ToggleTitle(t.enabled), "Toggle gesture tracking")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(StatusLine(scene.Snapshot{}), "Tracking status")
	t.menuStatus.Disable()
	t.menuMode = systray.AddMenuItem(ModeLine(scene.Snapshot{}), "Tree mode")
	t.menuMode.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Holotree")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(ToggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status and mode items from a snapshot.
func (t *Tray) SetStatus(snap scene.Snapshot) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(StatusLine(snap))
	}
	if t.menuMode != nil {
		t.menuMode.SetTitle(ModeLine(snap))
	}
}

// Watch refreshes the status from sc every interval until ctx is done.
func (t *Tray) Watch(ctx context.Context, sc *scene.Store, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		snap := sc.Snapshot()
		line := StatusLine(snap) + ModeLine(snap)
		if line == last {
			continue
		}
		last = line
		t.SetStatus(snap)
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// ToggleTitle is the toggle item label for the given state.
func ToggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Paused"
}

// StatusLine renders the SYSTEM/HAND/FACE flags.
func StatusLine(snap scene.Snapshot) string {
	system := "BOOT"
	if snap.IsAiReady {
		system = "ON"
	}
	return fmt.Sprintf("SYSTEM: %s  HAND: %s  FACE: %s", system, onOff(snap.IsHandDetected), onOff(snap.IsFaceDetected))
}

// ModeLine renders the tree mode and any locked photo.
func ModeLine(snap scene.Snapshot) string {
	mode := string(snap.Mode)
	if mode == "" {
		mode = "ASSEMBLE"
	}
	if snap.LockedObjectID != nil {
		return fmt.Sprintf("Mode: %s (photo %d)", mode, *snap.LockedObjectID)
	}
	return "Mode: " + mode
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// Quit stops a running tray.
func Quit() {
	systray.Quit()
}
