// Package scene holds the shared app state read by the renderer: the
// gesture pipeline output plus the user-configurable scene settings.
package scene

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/ayusman/holotree/internal/gesture"
)

// Point2 is a 2D value in the snapshot wire format.
type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toPoint(v mgl64.Vec2) Point2 {
	return Point2{X: v.X(), Y: v.Y()}
}

// Settings are the values the customization panel edits.
type Settings struct {
	TreeColor      string  `json:"treeColor" yaml:"tree_color"`
	ParticleCount  int     `json:"particleCount" yaml:"particle_count"`
	AnimationSpeed float64 `json:"animationSpeed" yaml:"animation_speed"`
	TitleText      string  `json:"titleText" yaml:"title_text"`
	SubtitleText   string  `json:"subtitleText" yaml:"subtitle_text"`
}

// DefaultSettings returns the settings a fresh installation starts with.
func DefaultSettings() Settings {
	return Settings{
		TreeColor:      "#2f5e41",
		ParticleCount:  25000,
		AnimationSpeed: 1.5,
		TitleText:      "HOLOGRAPHIC XMAS",
		SubtitleText:   "AR AI Experience",
	}
}

// Snapshot is a read-only, self-consistent copy of the store.
type Snapshot struct {
	Frame uint64 `json:"frame"`

	Mode      gesture.Mode `json:"mode"`
	RotationY float64      `json:"rotationY"`
	PitchX    float64      `json:"pitchX"`

	PinchCursor     Point2 `json:"pinchCursor"`
	ScreenCursor    Point2 `json:"screenCursor"`
	FaceTranslation Point2 `json:"faceTranslation"`

	IsPinching      bool `json:"isPinching"`
	LockedObjectID  *int `json:"lockedObjectId"`
	HoveredObjectID *int `json:"hoveredObjectId"`

	IsHandDetected bool `json:"isHandDetected"`
	IsFaceDetected bool `json:"isFaceDetected"`
	IsAiReady      bool `json:"isAiReady"`

	Settings Settings `json:"settings"`
}

// Store is the single mutable app state. Every method is safe for concurrent
// use; each call replaces its slice of state in one critical section.
type Store struct {
	mu sync.RWMutex

	frame uint64

	mode       gesture.Mode
	rotationY  float64
	pitchX     float64
	pitchLimit float64

	pinchCursor     mgl64.Vec2
	screenCursor    mgl64.Vec2
	faceTranslation mgl64.Vec2

	pinching bool
	locked   *int
	hovered  *int

	handDetected bool
	faceDetected bool
	aiReady      bool

	settings Settings
}

// New creates a store holding the initial pipeline state and the given settings.
func New(settings Settings, pitchLimit float64) *Store {
	return &Store{
		mode:         gesture.ModeAssemble,
		pitchLimit:   pitchLimit,
		screenCursor: mgl64.Vec2{0.5, 0.5},
		settings:     settings,
	}
}

// Apply publishes one pipeline pass. Rotation is left alone: it only moves
// through UpdateRotation so face deltas and manual nudges add up. Hover is
// owned by SetHoveredObject except while locked, when it follows the lock.
func (s *Store) Apply(st gesture.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame++
	s.mode = st.Mode
	s.pinchCursor = st.Cursor
	s.screenCursor = st.ScreenCursor
	s.faceTranslation = st.Translation
	s.pinching = st.Pinching
	s.locked = copyID(st.Locked)
	if s.locked != nil {
		s.hovered = copyID(s.locked)
	}
	s.handDetected = st.HandDetected
	s.faceDetected = st.FaceDetected
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Frame:           s.frame,
		Mode:            s.mode,
		RotationY:       s.rotationY,
		PitchX:          s.pitchX,
		PinchCursor:     toPoint(s.pinchCursor),
		ScreenCursor:    toPoint(s.screenCursor),
		FaceTranslation: toPoint(s.faceTranslation),
		IsPinching:      s.pinching,
		LockedObjectID:  copyID(s.locked),
		HoveredObjectID: copyID(s.hovered),
		IsHandDetected:  s.handDetected,
		IsFaceDetected:  s.faceDetected,
		IsAiReady:       s.aiReady,
		Settings:        s.settings,
	}
}

// Mode returns the confirmed tree mode.
func (s *Store) Mode() gesture.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode replaces the tree mode.
func (s *Store) SetMode(m gesture.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Rotation returns the accumulated orbit rotation and pitch.
func (s *Store) Rotation() (rotationY, pitchX float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rotationY, s.pitchX
}

// UpdateRotation adds deltas to the orbit; pitch stays within the limit.
func (s *Store) UpdateRotation(deltaY, deltaX float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotationY, s.pitchX = gesture.AccumulateRotation(s.rotationY, s.pitchX, deltaY, deltaX, s.pitchLimit)
}

// SetAiReady records whether camera and detector came up.
func (s *Store) SetAiReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiReady = ready
}

// AiReady reports whether camera and detector came up.
func (s *Store) AiReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aiReady
}

// SetHandDetected replaces the hand detection flag.
func (s *Store) SetHandDetected(detected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handDetected = detected
}

// SetFaceDetected replaces the face detection flag.
func (s *Store) SetFaceDetected(detected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faceDetected = detected
}

// SetPinching replaces the pinch flag.
func (s *Store) SetPinching(pinching bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinching = pinching
}

// SetPinchCursor replaces the NDC cursor used for hit-testing.
func (s *Store) SetPinchCursor(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinchCursor = mgl64.Vec2{x, y}
}

// SetCursorPosition replaces the [0,1] screen cursor.
func (s *Store) SetCursorPosition(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screenCursor = mgl64.Vec2{x, y}
}

// SetFaceTranslation replaces the parallax offset.
func (s *Store) SetFaceTranslation(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faceTranslation = mgl64.Vec2{x, y}
}

// Hovered returns the hovered object id, or nil.
func (s *Store) Hovered() *int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyID(s.hovered)
}

// SetHoveredObject records a hit-test result. It is ignored while an object
// is locked, since hover then follows the lock.
func (s *Store) SetHoveredObject(id *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked != nil {
		return
	}
	s.hovered = copyID(id)
}

// Locked returns the locked object id, or nil.
func (s *Store) Locked() *int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyID(s.locked)
}

// Settings returns the current scene settings.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SetSettings replaces all scene settings at once.
func (s *Store) SetSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// SetTreeColor replaces the tree color.
func (s *Store) SetTreeColor(color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.TreeColor = color
}

// SetParticleCount replaces the particle count.
func (s *Store) SetParticleCount(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.ParticleCount = count
}

// SetAnimationSpeed replaces the animation speed multiplier.
func (s *Store) SetAnimationSpeed(speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.AnimationSpeed = speed
}

// SetTitleText replaces the title.
func (s *Store) SetTitleText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.TitleText = text
}

// SetSubtitleText replaces the subtitle.
func (s *Store) SetSubtitleText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.SubtitleText = text
}

func copyID(id *int) *int {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
