package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame rates for the two pump regimes.
const (
	DefaultIdleFPS     = 5
	DefaultActiveFPS   = 30
	DefaultIdleTimeout = 2 * time.Second
)

const (
	blurSize      = 21
	diffThreshold = 25
)

// MotionDetector compares consecutive frames and reports the share of
// pixels that changed.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector creates a detector that reports motion when more than
// threshold percent of pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect returns whether the frame differs from the previous one and the
// changed-pixel percentage. The first frame only primes the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurSize, Y: blurSize}, 0, 0, gocv.BorderDefault)

	if !m.primed {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)
	gocv.Threshold(diff, &diff, diffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
}

// Close releases the baseline Mat.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.primed = false
}

// MotionGate switches the pump between an idle and an active frame rate.
// Motion or a tracked hand/face keeps it active; after IdleTimeout without
// either it falls back to idle.
type MotionGate struct {
	IdleFPS     int
	ActiveFPS   int
	IdleTimeout time.Duration

	active     bool
	lastActive time.Time
}

// NewMotionGate creates a gate that starts idle.
func NewMotionGate(idleFPS, activeFPS int, idleTimeout time.Duration) *MotionGate {
	if idleFPS <= 0 {
		idleFPS = DefaultIdleFPS
	}
	if activeFPS <= 0 {
		activeFPS = DefaultActiveFPS
	}
	return &MotionGate{IdleFPS: idleFPS, ActiveFPS: activeFPS, IdleTimeout: idleTimeout}
}

// Observe feeds one frame's activity and returns the frame rate to use and
// whether it changed.
func (g *MotionGate) Observe(activity bool, now time.Time) (int, bool) {
	if activity {
		g.lastActive = now
		if !g.active {
			g.active = true
			return g.ActiveFPS, true
		}
		return g.ActiveFPS, false
	}

	if g.active && now.Sub(g.lastActive) > g.IdleTimeout {
		g.active = false
		return g.IdleFPS, true
	}
	return g.FPS(), false
}

// Active reports whether the gate is in the active regime.
func (g *MotionGate) Active() bool {
	return g.active
}

// FPS returns the frame rate of the current regime.
func (g *MotionGate) FPS() int {
	if g.active {
		return g.ActiveFPS
	}
	return g.IdleFPS
}

// Interval converts a frame rate into a ticker period.
func Interval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultIdleFPS
	}
	return time.Second / time.Duration(fps)
}
