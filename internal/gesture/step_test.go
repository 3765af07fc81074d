package gesture

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/holotree/internal/detector"
)

func TestNewState_Defaults(t *testing.T) {
	s := NewState(DefaultParams())

	if s.Mode != ModeAssemble {
		t.Errorf("Mode = %s, want ASSEMBLE", s.Mode)
	}
	if s.ScreenCursor != (mgl64.Vec2{0.5, 0.5}) {
		t.Errorf("ScreenCursor = %v, want (0.5, 0.5)", s.ScreenCursor)
	}
	if s.Hovered != nil || s.Locked != nil {
		t.Error("expected no hover or lock")
	}
	if s.HandDetected || s.FaceDetected || s.Pinching {
		t.Error("expected nothing detected")
	}
}

func TestStep_DisperseOnSeventhFrame(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)
	palm := detector.OpenPalmLandmarks()

	for frame := 1; frame <= 8; frame++ {
		s = Step(s, Input{Hand: &palm}, p)
		if frame == 7 && (!s.ModeChanged || s.Mode != ModeDisperse) {
			t.Fatalf("frame 7: ModeChanged=%v Mode=%s, want transition to DISPERSE", s.ModeChanged, s.Mode)
		}
		if frame != 7 && s.ModeChanged {
			t.Errorf("frame %d: unexpected ModeChanged", frame)
		}
	}
	if s.Mode != ModeDisperse {
		t.Errorf("final mode %s, want DISPERSE", s.Mode)
	}
}

func TestStep_HandLossClearsHistory(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)
	palm := detector.OpenPalmLandmarks()

	for i := 0; i < 6; i++ {
		s = Step(s, Input{Hand: &palm}, p)
	}
	if len(s.History()) != 6 {
		t.Fatalf("expected 6 votes, got %d", len(s.History()))
	}

	s = Step(s, Input{}, p)
	if len(s.History()) != 0 {
		t.Fatalf("expected history cleared on hand loss, got %v", s.History())
	}
	if s.HandDetected || s.Pinching {
		t.Error("expected hand lost and pinch forced off")
	}

	s = Step(s, Input{Hand: &palm}, p)
	if s.Mode != ModeAssemble || s.ModeChanged {
		t.Error("one frame after reacquisition must not confirm a mode")
	}
}

func TestStep_AmbiguousFramesCastNoVote(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)

	s = Step(s, Input{Hand: boundaryHand()}, p)

	if !s.HandDetected {
		t.Fatal("expected hand detected")
	}
	if len(s.History()) != 0 {
		t.Errorf("expected no vote for a ratio on the boundary, got %v", s.History())
	}
}

func TestStep_CursorFreezesWithoutHand(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)
	palm := detector.OpenPalmLandmarks()

	for i := 0; i < 3; i++ {
		s = Step(s, Input{Hand: &palm}, p)
	}
	cursor := s.Cursor
	screen := s.ScreenCursor

	for i := 0; i < 5; i++ {
		s = Step(s, Input{}, p)
	}

	if s.Cursor != cursor || s.ScreenCursor != screen {
		t.Errorf("cursor moved without a hand: %v -> %v", cursor, s.Cursor)
	}
}

func TestStep_CursorSmoothing(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)
	palm := detector.OpenPalmLandmarks()
	tip := palm.Points[detector.IndexTip]
	target := ToNDC(tip.X, tip.Y)

	s = Step(s, Input{Hand: &palm}, p)

	want := target.Mul(p.CursorRate)
	if math.Abs(s.Cursor.X()-want.X()) > epsilon || math.Abs(s.Cursor.Y()-want.Y()) > epsilon {
		t.Errorf("Cursor = %v, want %v", s.Cursor, want)
	}
	if s.ScreenCursor != ScreenCursor(s.Cursor) {
		t.Errorf("ScreenCursor %v not derived from Cursor %v", s.ScreenCursor, s.Cursor)
	}
}

func TestStep_FaceYawScenario(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)
	face := detector.FaceAt(0.52, 0.5, 0.5, 0.25)

	s = Step(s, Input{Face: &face}, p)

	if !s.FaceDetected {
		t.Fatal("expected face detected")
	}
	if math.Abs(s.RotationY-(-0.03)) > 1e-9 {
		t.Errorf("RotationY = %v, want -0.03", s.RotationY)
	}
}

func TestStep_FaceLossHoldsValues(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)
	face := detector.FaceAt(0.3, 0.4, 0.25, 0.25)

	for i := 0; i < 10; i++ {
		s = Step(s, Input{Face: &face}, p)
	}
	rot, tr := s.RotationY, s.Translation

	s = Step(s, Input{}, p)

	if s.FaceDetected {
		t.Error("expected face lost")
	}
	if s.RotationY != rot || s.Translation != tr {
		t.Errorf("values moved without a face: rot %v -> %v, translation %v -> %v", rot, s.RotationY, tr, s.Translation)
	}
}

func TestStep_ParallaxSmoothing(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)
	face := detector.FaceAt(0.25, 0.75, 0.25, 0.25)

	s = Step(s, Input{Face: &face}, p)

	// target (0.25*8, -0.25*4) = (2, -1), first step moves 5% of the way
	if math.Abs(s.Translation.X()-0.1) > epsilon || math.Abs(s.Translation.Y()+0.05) > epsilon {
		t.Errorf("Translation = %v, want (0.1, -0.05)", s.Translation)
	}
}

func TestStep_PinchLockWithOneFrameLag(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)
	open := detector.OpenPalmLandmarks()
	pinch := detector.PinchLandmarks()

	// Frame 1: hovering photo 4 according to last frame's hit-test.
	s = Step(s, Input{Hand: &open, Hover: id(4)}, p)
	if s.Locked != nil || s.Hovered == nil || *s.Hovered != 4 {
		t.Fatalf("frame 1: locked %v hovered %v", deref(s.Locked), deref(s.Hovered))
	}

	// Frame 2: pinch starts, hover still reported as 4.
	s = Step(s, Input{Hand: &pinch, Hover: id(4)}, p)
	if !s.Pinching || s.Locked == nil || *s.Locked != 4 {
		t.Fatalf("frame 2: pinching %v locked %v", s.Pinching, deref(s.Locked))
	}

	// Frame 3: renderer reports a different hit; lock holds and hover follows the lock.
	s = Step(s, Input{Hand: &pinch, Hover: id(9)}, p)
	if *s.Locked != 4 || *s.Hovered != 4 {
		t.Errorf("frame 3: locked %v hovered %v, want 4/4", deref(s.Locked), deref(s.Hovered))
	}

	// Frame 4: hand lost forces pinch off and releases the lock.
	s = Step(s, Input{Hover: id(9)}, p)
	if s.Pinching || s.Locked != nil {
		t.Errorf("frame 4: pinching %v locked %v, want released", s.Pinching, deref(s.Locked))
	}
}

func TestStep_DoesNotMutatePrev(t *testing.T) {
	p := DefaultParams()
	s := NewState(p)
	palm := detector.OpenPalmLandmarks()
	pinch := detector.PinchLandmarks()
	face := detector.FaceAt(0.3, 0.5, 0.5, 0.25)

	for i := 0; i < 4; i++ {
		s = Step(s, Input{Hand: &palm, Face: &face}, p)
	}
	s = Step(s, Input{Hand: &pinch, Hover: id(2)}, p)

	snapshot := s
	history := s.History()

	_ = Step(s, Input{}, p)
	_ = Step(s, Input{Hand: &palm, Face: &face}, p)

	if len(s.History()) != len(history) {
		t.Errorf("history of prev changed: %v -> %v", history, s.History())
	}
	if s.Cursor != snapshot.Cursor || s.RotationY != snapshot.RotationY || s.Translation != snapshot.Translation {
		t.Error("prev outputs changed")
	}
	if s.Locked == nil || *s.Locked != 2 {
		t.Errorf("prev lock changed: %v", deref(s.Locked))
	}
}

func TestStep_IndependentInstances(t *testing.T) {
	p := DefaultParams()
	a := NewState(p)
	b := NewState(p)
	palm := detector.OpenPalmLandmarks()

	for i := 0; i < 7; i++ {
		a = Step(a, Input{Hand: &palm}, p)
	}

	if a.Mode != ModeDisperse {
		t.Fatalf("expected a to disperse, got %s", a.Mode)
	}
	if b.Mode != ModeAssemble || len(b.History()) != 0 {
		t.Error("b was affected by a")
	}
}
