package gesture

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/holotree/internal/detector"
)

// FaceSignal is what one frame's face mesh contributes to the pipeline.
type FaceSignal struct {
	Detected bool
	// Yaw is the nose offset from the ear midpoint; negative when looking right.
	Yaw float64
	// Rotating is false while Yaw sits inside the deadzone.
	Rotating      bool
	RotationDelta float64
	// Parallax is the unsmoothed scene translation target.
	Parallax mgl64.Vec2
}

// ExtractFace derives head yaw and parallax from one face mesh.
// A nil or truncated mesh yields a zero signal.
func ExtractFace(f *detector.FaceLandmarks, p Params) FaceSignal {
	if !f.Valid() {
		return FaceSignal{}
	}

	nose := f.Nose()
	left, right := f.Ears()
	yaw := nose.X - (left.X+right.X)/2

	sig := FaceSignal{
		Detected: true,
		Yaw:      yaw,
		Parallax: mgl64.Vec2{
			(0.5 - nose.X) * p.ParallaxScaleX,
			(0.5 - nose.Y) * p.ParallaxScaleY,
		},
	}

	if math.Abs(yaw) > p.YawDeadzone {
		sig.Rotating = true
		sig.RotationDelta = p.YawSign * yaw * p.YawSensitivity
	}

	return sig
}

// AccumulateRotation adds deltas to the orbit state. Rotation is unbounded;
// pitch is clamped to [-limit, limit].
func AccumulateRotation(rotationY, pitchX, deltaY, deltaX, limit float64) (float64, float64) {
	return rotationY + deltaY, mgl64.Clamp(pitchX+deltaX, -limit, limit)
}
