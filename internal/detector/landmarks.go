// Package detector provides hand and face landmark detection for the gesture pipeline.
package detector

import "github.com/go-gl/mathgl/mgl64"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Face mesh indices used by the pipeline.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	NoseTip  = 4
	LeftEar  = 234
	RightEar = 454

	// MinFacePoints is the smallest face mesh that contains every index above.
	MinFacePoints = RightEar + 1
)

// Fingertips lists the five tip landmarks, thumb first.
var Fingertips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Point3D represents a landmark in normalized image coordinates.
// X and Y are typically in [0,1]; Z is depth relative to the wrist or face center.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the point as a vector.
func (p Point3D) Vec() mgl64.Vec3 {
	return mgl64.Vec3{p.X, p.Y, p.Z}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point3D) float64 {
	return a.Vec().Sub(b.Vec()).Len()
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point3D) Point3D {
	m := a.Vec().Add(b.Vec()).Mul(0.5)
	return Point3D{X: m.X(), Y: m.Y(), Z: m.Z()}
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
// No identity persists across frames.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FaceLandmarks represents a face mesh detected by MediaPipe.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
	Score  float64   `json:"score"`
}

// Valid reports whether the mesh carries the nose and both ear landmarks.
func (f *FaceLandmarks) Valid() bool {
	return f != nil && len(f.Points) >= MinFacePoints
}

// Nose returns the nose tip landmark. The mesh must be Valid.
func (f *FaceLandmarks) Nose() Point3D { return f.Points[NoseTip] }

// Ears returns the left and right ear landmarks. The mesh must be Valid.
func (f *FaceLandmarks) Ears() (left, right Point3D) {
	return f.Points[LeftEar], f.Points[RightEar]
}

// Result holds everything detected in a single video frame.
type Result struct {
	Hands []HandLandmarks `json:"hands"`
	Faces []FaceLandmarks `json:"faces"`
}

// PrimaryHand returns the first detected hand, or nil when none was found.
func (r Result) PrimaryHand() *HandLandmarks {
	if len(r.Hands) == 0 {
		return nil
	}
	return &r.Hands[0]
}

// PrimaryFace returns the first usable face, or nil when none was found.
func (r Result) PrimaryFace() *FaceLandmarks {
	if len(r.Faces) == 0 || !r.Faces[0].Valid() {
		return nil
	}
	return &r.Faces[0]
}
