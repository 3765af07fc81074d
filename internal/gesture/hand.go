package gesture

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/holotree/internal/detector"
)

// Mode is the discrete tree mode driven by the open palm / fist gesture.
type Mode string

const (
	// ModeAssemble gathers the particles into the tree shape.
	ModeAssemble Mode = "ASSEMBLE"
	// ModeDisperse explodes the particles outward.
	ModeDisperse Mode = "DISPERSE"
)

// HandSignal is what one frame's hand landmarks contribute to the pipeline.
type HandSignal struct {
	Detected       bool
	Scale          float64
	ExtensionRatio float64
	PinchDistance  float64
	PinchThreshold float64
	Pinching       bool
	// RawCursor is the unsmoothed cursor in mirrored normalized device coordinates.
	RawCursor mgl64.Vec2
}

// ExtractHand derives the scale-invariant hand signals from one landmark set.
// A nil hand yields a zero signal with Detected and Pinching false.
func ExtractHand(h *detector.HandLandmarks, p Params) HandSignal {
	if h == nil {
		return HandSignal{}
	}

	wrist := h.Points[detector.Wrist]
	scale := detector.Distance(wrist, h.Points[detector.MiddleMCP])
	if scale == 0 {
		scale = p.ScaleFallback
	}

	var total float64
	for _, tip := range detector.Fingertips {
		total += detector.Distance(wrist, h.Points[tip])
	}
	ratio := (total / float64(len(detector.Fingertips))) / scale

	thumb := h.Points[detector.ThumbTip]
	index := h.Points[detector.IndexTip]
	pinchDist := detector.Distance(thumb, index)
	pinching := IsPinch(pinchDist, scale, p)

	source := index
	if pinching {
		source = detector.Midpoint(thumb, index)
	}

	return HandSignal{
		Detected:       true,
		Scale:          scale,
		ExtensionRatio: ratio,
		PinchDistance:  pinchDist,
		PinchThreshold: scale * p.PinchRatio,
		Pinching:       pinching,
		RawCursor:      ToNDC(source.X, source.Y),
	}
}

// Classify maps an extension ratio to a mode vote. Ratios inside the closed
// band [AssembleRatio, DisperseRatio] are ambiguous and cast no vote.
func Classify(ratio float64, p Params) (Mode, bool) {
	switch {
	case ratio > p.DisperseRatio:
		return ModeDisperse, true
	case ratio < p.AssembleRatio:
		return ModeAssemble, true
	}
	return "", false
}

// IsPinch reports whether the thumb-index distance is strictly below the
// scale-relative threshold.
func IsPinch(distance, scale float64, p Params) bool {
	return distance < scale*p.PinchRatio
}

// ToNDC mirrors an image-space point horizontally and maps it to [-1,1].
func ToNDC(x, y float64) mgl64.Vec2 {
	return mgl64.Vec2{(1-x)*2 - 1, -(y * 2) + 1}
}

// ScreenCursor maps an NDC cursor to [0,1] screen space with Y pointing down.
func ScreenCursor(ndc mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{(ndc.X() + 1) / 2, (1 - ndc.Y()) / 2}
}
