package app

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/holotree/internal/capture"
	"github.com/ayusman/holotree/internal/detector"
	"github.com/ayusman/holotree/internal/gesture"
	"github.com/ayusman/holotree/internal/hook"
	"github.com/ayusman/holotree/internal/scene"
	"github.com/ayusman/holotree/internal/store"
)

type fixedHitTester struct {
	mu    sync.Mutex
	id    *int
	calls int
}

type recordingNotifier struct {
	events []hook.Event
}

func (r *recordingNotifier) Notify(ev hook.Event) {
	r.events = append(r.events, ev)
}

func (f *fixedHitTester) HitTest(s scene.Snapshot) *int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.id
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T, st *store.Store) (*App, *capture.MockCamera, *detector.MockDetector) {
	t.Helper()
	cam := capture.NewMockCamera(nil, false)
	det := detector.NewMockDetector()
	a := New(Config{
		Camera:   cam,
		Detector: det,
		Store:    st,
		Params:   gesture.DefaultParams(),
	})
	return a, cam, det
}

func palmResult() detector.Result {
	return detector.Result{Hands: []detector.HandLandmarks{detector.OpenPalmLandmarks()}}
}

func TestNew_Defaults(t *testing.T) {
	a, _, _ := newTestApp(t, nil)

	if a.Scene() == nil {
		t.Fatal("expected a scene store")
	}
	if a.Running() {
		t.Error("app should not run before Start")
	}
	if !a.IsEnabled() {
		t.Error("app should start enabled")
	}
	if a.Scene().AiReady() {
		t.Error("isAiReady should be false before Start")
	}
}

func TestApp_StartStop(t *testing.T) {
	a, cam, det := newTestApp(t, nil)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !a.Running() || !a.Scene().AiReady() {
		t.Fatal("expected running and ready after Start")
	}
	if !cam.IsOpen() {
		t.Error("camera should be open")
	}

	// Second Start is a no-op.
	if err := a.Start(context.Background()); err != nil {
		t.Errorf("second Start() error = %v", err)
	}

	a.Stop()
	if a.Running() || a.Scene().AiReady() {
		t.Error("expected stopped and not ready after Stop")
	}
	if cam.IsOpen() || !det.Closed() {
		t.Error("camera and detector should be released")
	}

	// Idempotent.
	a.Stop()
	a.Stop()
}

func TestApp_StopBeforeStart(t *testing.T) {
	a, _, det := newTestApp(t, nil)
	a.Stop()
	if det.Closed() {
		t.Error("Stop before Start should not touch the detector")
	}
}

func TestApp_StartFailure(t *testing.T) {
	t.Run("camera", func(t *testing.T) {
		a, cam, _ := newTestApp(t, nil)
		cam.SetOpenError(errors.New("permission denied"))

		err := a.Start(context.Background())
		if !errors.Is(err, ErrNotReady) {
			t.Fatalf("Start() error = %v, want ErrNotReady", err)
		}
		if a.Running() || a.Scene().AiReady() {
			t.Error("pipeline must stay off after acquisition failure")
		}

		snap := a.Scene().Snapshot()
		if snap.Mode != gesture.ModeAssemble || snap.ScreenCursor != (scene.Point2{X: 0.5, Y: 0.5}) {
			t.Errorf("scene left non-default: %+v", snap)
		}
	})

	t.Run("detector", func(t *testing.T) {
		a, cam, det := newTestApp(t, nil)
		det.SetStartError(errors.New("model missing"))

		err := a.Start(context.Background())
		if !errors.Is(err, ErrNotReady) {
			t.Fatalf("Start() error = %v, want ErrNotReady", err)
		}
		if cam.IsOpen() {
			t.Error("camera should be released when the detector fails")
		}
		if a.Scene().AiReady() {
			t.Error("isAiReady should stay false")
		}
	})

	t.Run("missing collaborators", func(t *testing.T) {
		a := New(Config{Params: gesture.DefaultParams()})
		if err := a.Start(context.Background()); !errors.Is(err, ErrNotReady) {
			t.Errorf("Start() error = %v, want ErrNotReady", err)
		}
	})
}

func TestApp_ContextCancelStopsPump(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancel")
	}
}

func TestProcessResult_ModeTransition(t *testing.T) {
	a, _, _ := newTestApp(t, nil)

	var seen []gesture.Mode
	a.OnModeChange(func(m gesture.Mode) { seen = append(seen, m) })

	for i := 1; i <= 7; i++ {
		st := a.ProcessResult(palmResult())
		if i < 7 && st.ModeChanged {
			t.Fatalf("frame %d: early transition", i)
		}
	}

	if got := a.Scene().Mode(); got != gesture.ModeDisperse {
		t.Errorf("scene mode = %s, want DISPERSE", got)
	}
	if len(seen) != 1 || seen[0] != gesture.ModeDisperse {
		t.Errorf("listeners saw %v", seen)
	}
	if !a.Scene().Snapshot().IsHandDetected {
		t.Error("expected hand detected")
	}

	a.ProcessResult(detector.Result{})
	if a.Scene().Snapshot().IsHandDetected {
		t.Error("expected hand lost")
	}
	if len(a.State().History()) != 0 {
		t.Error("hand loss should clear the vote history")
	}
}

func TestProcessResult_RotationComposesWithManualNudge(t *testing.T) {
	a, _, _ := newTestApp(t, nil)
	face := detector.Result{Faces: []detector.FaceLandmarks{detector.FaceAt(0.52, 0.5, 0.5, 0.25)}}

	a.ProcessResult(face)
	rot, _ := a.Scene().Rotation()
	if math.Abs(rot-(-0.03)) > 1e-9 {
		t.Fatalf("rotation = %v, want -0.03", rot)
	}

	a.Scene().UpdateRotation(1, 0.2)
	a.ProcessResult(face)

	rot, pitch := a.Scene().Rotation()
	if math.Abs(rot-(1-0.06)) > 1e-9 {
		t.Errorf("rotation = %v, want 0.94", rot)
	}
	if pitch != 0.2 {
		t.Errorf("pitch = %v, want 0.2", pitch)
	}
}

func TestProcessResult_HitTestFeedsNextFrame(t *testing.T) {
	hits := &fixedHitTester{}
	four := 4
	hits.id = &four

	a := New(Config{
		Camera:    capture.NewMockCamera(nil, false),
		Detector:  detector.NewMockDetector(),
		HitTester: hits,
		Params:    gesture.DefaultParams(),
	})

	open := detector.Result{Hands: []detector.HandLandmarks{detector.OpenPalmLandmarks()}}
	pinch := detector.Result{Hands: []detector.HandLandmarks{detector.PinchLandmarks()}}

	// Frame 1: no previous hit-test, so nothing hovered in the step; the
	// hit-test then reports photo 4 for the next frame.
	st := a.ProcessResult(open)
	if st.Hovered != nil {
		t.Fatalf("frame 1 hovered %d, want none", *st.Hovered)
	}
	if got := a.Scene().Hovered(); got == nil || *got != 4 {
		t.Fatalf("scene hover after frame 1 = %v, want 4", got)
	}

	// Frame 2: pinch starts over photo 4.
	st = a.ProcessResult(pinch)
	if st.Locked == nil || *st.Locked != 4 {
		t.Fatalf("frame 2 lock = %v, want 4", st.Locked)
	}

	// Frame 3: hit-test now reports something else; lock and hover hold.
	nine := 9
	hits.mu.Lock()
	hits.id = &nine
	hits.mu.Unlock()
	a.ProcessResult(pinch)

	snap := a.Scene().Snapshot()
	if *snap.LockedObjectID != 4 || *snap.HoveredObjectID != 4 {
		t.Errorf("locked %d hovered %d, want 4/4", *snap.LockedObjectID, *snap.HoveredObjectID)
	}

	// Frame 4: release.
	a.ProcessResult(open)
	snap = a.Scene().Snapshot()
	if snap.LockedObjectID != nil {
		t.Error("expected release")
	}
	if snap.HoveredObjectID == nil || *snap.HoveredObjectID != 9 {
		t.Errorf("hover after release = %v, want 9", snap.HoveredObjectID)
	}
}

func TestApp_SessionAndEvents(t *testing.T) {
	st := newTestStore(t)
	a, _, _ := newTestApp(t, st)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	sid := a.SessionID()
	if sid == "" {
		t.Fatal("expected a session")
	}

	for i := 0; i < 7; i++ {
		a.ProcessResult(palmResult())
	}
	fist := detector.Result{Hands: []detector.HandLandmarks{detector.FistLandmarks()}}
	for i := 0; i < 7; i++ {
		a.ProcessResult(fist)
	}

	a.Stop()

	events, err := st.Events().BySession(sid)
	if err != nil {
		t.Fatalf("BySession() error = %v", err)
	}
	if len(events) != 2 || events[0].Mode != "DISPERSE" || events[1].Mode != "ASSEMBLE" {
		t.Fatalf("events = %+v", events)
	}

	recent, err := a.ModeEvents(1)
	if err != nil || len(recent) != 1 || recent[0].Mode != "ASSEMBLE" {
		t.Errorf("ModeEvents(1) = %+v, %v", recent, err)
	}

	sess, err := st.Sessions().GetByID(sid)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sess.EndedAt == nil || !sess.AiReady {
		t.Errorf("session = %+v, want ended and ready", sess)
	}
}

func TestApp_Settings(t *testing.T) {
	st := newTestStore(t)
	a, _, _ := newTestApp(t, st)

	if err := a.LoadSettings(); err != nil {
		t.Fatalf("LoadSettings() with empty store error = %v", err)
	}
	if a.Scene().Settings() != scene.DefaultSettings() {
		t.Error("expected defaults when nothing is stored")
	}

	want := scene.DefaultSettings()
	want.TreeColor = "#ff4da6"
	want.ParticleCount = 40000
	if err := a.UpdateSettings(want); err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}

	b, _, _ := newTestApp(t, st)
	if err := b.LoadSettings(); err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got := b.Scene().Settings(); got != want {
		t.Errorf("restored settings = %+v, want %+v", got, want)
	}
}

func TestApp_FramePump(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	cam := capture.NewMockCamera([]*gocv.Mat{&frame}, true)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	frames := &capture.LatestFrame{}

	a := New(Config{
		Camera:    cam,
		Detector:  det,
		Frames:    frames,
		Params:    gesture.DefaultParams(),
		IdleFPS:   50,
		ActiveFPS: 100,
	})
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for a.Scene().Mode() != gesture.ModeDisperse {
		if time.Now().After(deadline) {
			t.Fatalf("no transition after %d detector calls", det.Calls())
		}
		time.Sleep(10 * time.Millisecond)
	}

	if cam.FPS() != 100 {
		t.Errorf("camera fps = %d, want active rate 100", cam.FPS())
	}
	if _, seq := frames.JPEG(); seq == 0 {
		t.Error("expected the preview buffer to be filled")
	}

	a.Stop()
	calls := det.Calls()
	time.Sleep(50 * time.Millisecond)
	if det.Calls() != calls {
		t.Error("detector called after Stop returned")
	}
}

func TestProcessResult_NotifiesHooks(t *testing.T) {
	st := newTestStore(t)
	hooks := &recordingNotifier{}
	a := New(Config{
		Camera:   capture.NewMockCamera(nil, false),
		Detector: detector.NewMockDetector(),
		Store:    st,
		Hooks:    hooks,
		Params:   gesture.DefaultParams(),
	})
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	for i := 0; i < 7; i++ {
		a.ProcessResult(palmResult())
	}

	if len(hooks.events) != 1 {
		t.Fatalf("expected 1 hook event, got %d", len(hooks.events))
	}
	ev := hooks.events[0]
	if ev.Mode != "DISPERSE" || ev.SessionID != a.SessionID() || ev.ExtensionRatio <= gesture.DefaultParams().DisperseRatio {
		t.Errorf("event = %+v", ev)
	}
	if ev.At.IsZero() {
		t.Error("expected event time")
	}
}
