// Package gallery is an in-process hit-tester for the photo ring hung on the
// tree. It mirrors the renderer's camera rig closely enough to resolve which
// photo sits under the pinch cursor.
package gallery

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/holotree/internal/scene"
)

// Tree and camera geometry of the renderer.
const (
	PhotoCount = 12

	TreeHeight = 12.0
	TreeRadius = 5.0

	CameraDistance = 18.0
	CameraFOV      = 50.0
	GroupOffsetY   = -4.0

	MinPolar = math.Pi / 3
	MaxPolar = math.Pi / 1.5
)

// Photo is one gallery item in tree-local coordinates.
type Photo struct {
	ID       int
	Position mgl64.Vec3
}

// Layout returns the photos on their spiral, bottom to top.
func Layout() []Photo {
	photos := make([]Photo, PhotoCount)
	for i := range photos {
		y := float64(i)/PhotoCount*(TreeHeight*0.7) - TreeHeight*0.3
		r := (1-(y+TreeHeight/2)/TreeHeight)*TreeRadius + 0.5
		angle := float64(i) * (math.Pi / 1.5)
		photos[i] = Photo{
			ID:       i,
			Position: mgl64.Vec3{math.Cos(angle) * r, y, math.Sin(angle) * r},
		}
	}
	return photos
}

// Tester hit-tests the pinch cursor against the photo layout.
type Tester struct {
	Photos []Photo
	Aspect float64
	// Radius of the bounding sphere around each photo card.
	Radius float64
}

// NewTester creates a tester for the default layout at the given viewport aspect.
func NewTester(aspect float64) *Tester {
	if aspect <= 0 {
		aspect = 16.0 / 9.0
	}
	return &Tester{
		Photos: Layout(),
		Aspect: aspect,
		Radius: 0.75,
	}
}

// Eye returns the orbit camera position for the given rotation and pitch.
// Azimuth follows -2·rotationY and polar π/2 + 1.5·pitch, clamped to the
// orbit limits.
func Eye(rotationY, pitchX float64) mgl64.Vec3 {
	azimuth := -rotationY * 2
	polar := mgl64.Clamp(math.Pi/2+pitchX*1.5, MinPolar, MaxPolar)
	return mgl64.Vec3{
		CameraDistance * math.Sin(polar) * math.Sin(azimuth),
		CameraDistance * math.Cos(polar),
		CameraDistance * math.Sin(polar) * math.Cos(azimuth),
	}
}

// ViewProjection returns the combined camera matrix for a snapshot.
func (t *Tester) ViewProjection(s scene.Snapshot) mgl64.Mat4 {
	view := mgl64.LookAtV(Eye(s.RotationY, s.PitchX), mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	proj := mgl64.Perspective(mgl64.DegToRad(CameraFOV), t.Aspect, 0.1, 1000)
	return proj.Mul4(view)
}

// World returns a photo's position with the parallax group offset applied.
func World(p Photo, s scene.Snapshot) mgl64.Vec3 {
	offset := mgl64.Vec3{s.FaceTranslation.X, GroupOffsetY + s.FaceTranslation.Y, 0}
	return p.Position.Add(offset)
}

// Project maps a photo centre to NDC for the snapshot's camera.
func (t *Tester) Project(p Photo, s scene.Snapshot) mgl64.Vec3 {
	return mgl64.TransformCoordinate(World(p, s), t.ViewProjection(s))
}

// HitTest returns the id of the nearest photo under the snapshot's pinch
// cursor, or nil.
func (t *Tester) HitTest(s scene.Snapshot) *int {
	inv := t.ViewProjection(s).Inv()
	near := mgl64.TransformCoordinate(mgl64.Vec3{s.PinchCursor.X, s.PinchCursor.Y, -1}, inv)
	far := mgl64.TransformCoordinate(mgl64.Vec3{s.PinchCursor.X, s.PinchCursor.Y, 1}, inv)
	dir := far.Sub(near).Normalize()

	var hit *int
	best := math.Inf(1)
	for _, p := range t.Photos {
		d, ok := raySphere(near, dir, World(p, s), t.Radius)
		if ok && d < best {
			best = d
			id := p.ID
			hit = &id
		}
	}
	return hit
}

// raySphere returns the distance along dir to the first intersection.
func raySphere(origin, dir, center mgl64.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := -b - sq; t >= 0 {
		return t, true
	}
	if t := -b + sq; t >= 0 {
		return t, true
	}
	return 0, false
}
