package app

import (
	"context"
	"log"
	"time"

	"github.com/ayusman/holotree/internal/capture"
	"github.com/ayusman/holotree/internal/detector"
	"github.com/ayusman/holotree/internal/gesture"
	"github.com/ayusman/holotree/internal/hook"
	"github.com/ayusman/holotree/internal/store"
)

// runPipeline ticks at the motion gate's rate. Ticks that arrive while a
// frame is still being processed are dropped by the ticker, so late inference
// never queues work.
func (a *App) runPipeline(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(capture.Interval(a.gate.FPS()))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			if fps, changed := a.processFrame(); changed {
				a.config.Camera.SetFPS(fps)
				ticker.Reset(capture.Interval(fps))
				log.Printf("frame rate now %d fps", fps)
			}
		}
	}
}

// processFrame runs one pass: read, detect, step, publish, hit-test. Camera
// and detector errors skip the frame and leave the scene untouched. It
// returns the frame rate the motion gate wants.
func (a *App) processFrame() (int, bool) {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		log.Printf("error reading frame: %v", err)
		return a.gate.FPS(), false
	}
	defer frame.Close()

	if a.config.Frames != nil {
		if err := a.config.Frames.Put(frame); err != nil {
			log.Printf("error buffering frame: %v", err)
		}
	}

	moving := false
	a.mu.Lock()
	motion := a.motion
	a.mu.Unlock()
	if motion != nil {
		moving, _ = motion.Detect(frame)
	}

	res, err := a.config.Detector.Detect(frame)
	if err != nil {
		log.Printf("error detecting landmarks: %v", err)
		return a.gate.FPS(), false
	}

	st := a.ProcessResult(res)
	return a.gate.Observe(moving || st.HandDetected || st.FaceDetected, time.Now())
}

// ProcessResult advances the gesture pipeline by one detection result and
// publishes it. The hover input is the hit-test result recorded for the
// previous frame; when an in-process HitTester is configured it is run on the
// published snapshot and its answer feeds the next frame.
func (a *App) ProcessResult(res detector.Result) gesture.State {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()

	sc := a.config.Scene
	prev := a.state
	next := gesture.Step(prev, gesture.Input{
		Hand:  res.PrimaryHand(),
		Face:  res.PrimaryFace(),
		Hover: sc.Hovered(),
	}, a.config.Params)
	a.state = next

	sc.Apply(next)
	if d := next.RotationY - prev.RotationY; d != 0 {
		sc.UpdateRotation(d, next.PitchX-prev.PitchX)
	}

	if a.config.HitTester != nil {
		sc.SetHoveredObject(a.config.HitTester.HitTest(sc.Snapshot()))
	}

	if next.ModeChanged {
		a.modeChanged(next)
	}

	return next
}

func (a *App) modeChanged(st gesture.State) {
	log.Printf("mode -> %s (ratio %.2f)", st.Mode, st.ExtensionRatio)

	sid := a.SessionID()
	if sid != "" {
		err := a.config.Store.Events().Record(&store.ModeEvent{
			SessionID:      sid,
			Mode:           string(st.Mode),
			ExtensionRatio: st.ExtensionRatio,
		})
		if err != nil {
			log.Printf("failed to record mode event: %v", err)
		}
	}

	if a.config.Hooks != nil {
		a.config.Hooks.Notify(hook.Event{
			Mode:           string(st.Mode),
			ExtensionRatio: st.ExtensionRatio,
			SessionID:      sid,
			At:             time.Now(),
		})
	}

	for _, fn := range a.modeListeners {
		fn(st.Mode)
	}
}

// State returns the pipeline state after the latest pass.
func (a *App) State() gesture.State {
	a.stepMu.Lock()
	defer a.stepMu.Unlock()
	return a.state
}
