// Package app runs the frame pump: camera frames go through the landmark
// detector and the gesture pipeline into the shared scene state.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/holotree/internal/capture"
	"github.com/ayusman/holotree/internal/detector"
	"github.com/ayusman/holotree/internal/gesture"
	"github.com/ayusman/holotree/internal/hook"
	"github.com/ayusman/holotree/internal/scene"
	"github.com/ayusman/holotree/internal/store"
)

// ErrNotReady is returned by Start when the camera or detector could not be
// acquired. The pipeline stays off; the scene keeps its defaults.
var ErrNotReady = errors.New("ai pipeline not ready")

// settingsKey is the store key holding the persisted scene settings.
const settingsKey = "scene.settings"

// HitTester resolves which object sits under the snapshot's pinch cursor.
// The renderer implements it; gallery.Tester is an in-process stand-in.
type HitTester interface {
	HitTest(s scene.Snapshot) *int
}

// Notifier receives confirmed mode changes. hook.Manager implements it.
type Notifier interface {
	Notify(ev hook.Event)
}

// Config holds the collaborators and tuning of an App.
type Config struct {
	Camera    capture.Camera
	Detector  detector.Detector
	Scene     *scene.Store
	Store     *store.Store // optional persistence
	HitTester HitTester    // optional in-process hit-tester
	Hooks     Notifier     // optional
	Frames    *capture.LatestFrame
	Params    gesture.Params

	MotionThreshold float64
	IdleFPS         int
	ActiveFPS       int
	IdleTimeout     time.Duration
}

// App owns the pipeline lifecycle.
type App struct {
	config Config

	// mu guards the lifecycle fields below.
	mu      sync.Mutex
	stopCh  chan struct{}
	done    chan struct{}
	enabled bool
	session *store.Session
	motion  *capture.MotionDetector
	gate    *capture.MotionGate

	// stepMu serializes pipeline passes.
	stepMu sync.Mutex
	state  gesture.State

	modeListeners []func(gesture.Mode)
}

// New creates an App. Nothing is acquired until Start.
func New(config Config) *App {
	if config.Scene == nil {
		config.Scene = scene.New(scene.DefaultSettings(), config.Params.PitchLimit)
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = capture.DefaultIdleTimeout
	}
	return &App{
		config:  config,
		enabled: true,
		state:   gesture.NewState(config.Params),
		gate:    capture.NewMotionGate(config.IdleFPS, config.ActiveFPS, config.IdleTimeout),
	}
}

// Scene returns the shared state the pipeline writes to.
func (a *App) Scene() *scene.Store {
	return a.config.Scene
}

// Camera returns the configured camera.
func (a *App) Camera() capture.Camera {
	return a.config.Camera
}

// Frames returns the latest-frame buffer, or nil when previews are off.
func (a *App) Frames() *capture.LatestFrame {
	return a.config.Frames
}

// SetEnabled pauses or resumes frame processing without releasing devices.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Running reports whether the frame pump is active.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

// OnModeChange registers fn to be called after every confirmed mode
// transition. Register before Start.
func (a *App) OnModeChange(fn func(gesture.Mode)) {
	a.modeListeners = append(a.modeListeners, fn)
}

// Start acquires the camera and detector and launches the frame pump. On an
// acquisition failure it logs once, leaves isAiReady false and returns an
// error wrapping ErrNotReady. It does not retry.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if a.config.Store != nil && a.session == nil {
		sess, err := a.config.Store.Sessions().Create()
		if err != nil {
			log.Printf("failed to create session: %v", err)
		} else {
			a.session = sess
		}
	}

	if err := a.acquire(); err != nil {
		log.Printf("ai pipeline unavailable: %v", err)
		a.config.Scene.SetAiReady(false)
		return err
	}

	a.config.Scene.SetAiReady(true)
	if a.session != nil {
		if err := a.config.Store.Sessions().SetAiReady(a.session.ID, true); err != nil {
			log.Printf("failed to mark session ready: %v", err)
		}
	}

	if a.config.MotionThreshold > 0 {
		a.motion = capture.NewMotionDetector(a.config.MotionThreshold)
	}
	a.config.Camera.SetFPS(a.gate.FPS())

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(ctx, a.stopCh, a.done)

	log.Println("frame pump started")
	return nil
}

func (a *App) acquire() error {
	if a.config.Camera == nil || a.config.Detector == nil {
		return fmt.Errorf("%w: camera and detector are required", ErrNotReady)
	}
	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("%w: camera: %w", ErrNotReady, err)
	}
	if err := a.config.Detector.Start(); err != nil {
		a.config.Camera.Close()
		return fmt.Errorf("%w: detector: %w", ErrNotReady, err)
	}
	return nil
}

// Stop halts the pump, waits for the in-flight frame to finish and then
// releases camera and detector. Calling it again, or before Start, only ends
// the session if one is still open.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if stopCh != nil {
		if err := a.config.Camera.Close(); err != nil {
			log.Printf("error closing camera: %v", err)
		}
		if err := a.config.Detector.Close(); err != nil {
			log.Printf("error closing detector: %v", err)
		}
		if a.motion != nil {
			a.motion.Close()
			a.motion = nil
		}
		a.config.Scene.SetAiReady(false)
		log.Println("frame pump stopped")
	}

	if a.session != nil {
		if err := a.config.Store.Sessions().End(a.session.ID); err != nil {
			log.Printf("failed to end session: %v", err)
		}
		a.session = nil
	}
}

// LoadSettings restores persisted scene settings. Missing settings are not
// an error.
func (a *App) LoadSettings() error {
	if a.config.Store == nil {
		return nil
	}

	raw, err := a.config.Store.Settings().Get(settingsKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	settings := a.config.Scene.Settings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	a.config.Scene.SetSettings(settings)
	return nil
}

// UpdateSettings publishes settings to the scene and persists them.
func (a *App) UpdateSettings(settings scene.Settings) error {
	a.config.Scene.SetSettings(settings)
	if a.config.Store == nil {
		return nil
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := a.config.Store.Settings().Set(settingsKey, string(raw)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// ModeEvents returns up to limit recent mode transitions, newest first.
func (a *App) ModeEvents(limit int) ([]*store.ModeEvent, error) {
	if a.config.Store == nil {
		return nil, nil
	}
	return a.config.Store.Events().Recent(limit)
}

// SessionID returns the current session id, or "" without persistence.
func (a *App) SessionID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.ID
}
