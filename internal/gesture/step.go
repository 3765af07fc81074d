package gesture

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/holotree/internal/detector"
)

// Input is everything one pipeline pass consumes.
type Input struct {
	Hand *detector.HandLandmarks
	Face *detector.FaceLandmarks
	// Hover is the hit-test result the renderer reported for the previous
	// frame's cursor. It lags the cursor by one frame.
	Hover *int
}

// State is the pipeline output after one frame plus the filter state needed
// to compute the next one.
type State struct {
	Mode        Mode
	ModeChanged bool

	HandDetected bool
	FaceDetected bool

	Pinching       bool
	ExtensionRatio float64

	// Cursor is the smoothed NDC cursor; ScreenCursor is derived from it.
	Cursor       mgl64.Vec2
	ScreenCursor mgl64.Vec2
	Translation  mgl64.Vec2

	RotationY float64
	PitchX    float64

	Hovered *int
	Locked  *int

	debouncer   Debouncer
	cursor      Smoother
	translation Smoother
	lock        LockController
}

// NewState returns the initial state: ASSEMBLE, nothing detected, cursor at
// the screen center.
func NewState(p Params) State {
	return State{
		Mode:         ModeAssemble,
		ScreenCursor: ScreenCursor(mgl64.Vec2{}),
		debouncer:    NewDebouncer(p.HistorySize, p.Votes),
		cursor:       Smoother{Rate: p.CursorRate},
		translation:  Smoother{Rate: p.ParallaxRate},
	}
}

// History returns the debounce votes currently held, oldest first.
func (s State) History() []Mode {
	return s.debouncer.History()
}

// Step runs one frame through the pipeline. prev is not modified.
func Step(prev State, in Input, p Params) State {
	next := prev
	next.ModeChanged = false

	hand := ExtractHand(in.Hand, p)
	next.HandDetected = hand.Detected
	next.Pinching = hand.Pinching

	if hand.Detected {
		next.ExtensionRatio = hand.ExtensionRatio
		if vote, ok := Classify(hand.ExtensionRatio, p); ok {
			next.Mode, next.ModeChanged = next.debouncer.Observe(vote)
		}
		next.Cursor = next.cursor.Update(hand.RawCursor)
		next.ScreenCursor = ScreenCursor(next.Cursor)
	} else {
		next.debouncer.Reset()
	}

	face := ExtractFace(in.Face, p)
	next.FaceDetected = face.Detected
	if face.Detected {
		if face.Rotating {
			next.RotationY, next.PitchX = AccumulateRotation(next.RotationY, next.PitchX, face.RotationDelta, 0, p.PitchLimit)
		}
		next.Translation = next.translation.Update(face.Parallax)
	}

	next.Locked = next.lock.Update(next.Pinching, in.Hover)
	next.Hovered = next.lock.Hover(in.Hover)

	return next
}
