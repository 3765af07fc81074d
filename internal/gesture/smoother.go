package gesture

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Smoother is a per-frame exponential filter over a 2D signal.
// It is frame-rate dependent: one Update moves Value a fixed fraction toward
// the target regardless of elapsed time. Frames without a detection simply
// skip Update, which freezes Value.
type Smoother struct {
	Rate  float64
	Value mgl64.Vec2
}

// Update moves Value toward target by Rate and returns the new value.
func (s *Smoother) Update(target mgl64.Vec2) mgl64.Vec2 {
	s.Value = s.Value.Add(target.Sub(s.Value).Mul(s.Rate))
	return s.Value
}

// StepsToConverge returns how many updates bring the remaining error down to
// epsilon times its starting size.
func StepsToConverge(rate, epsilon float64) int {
	if rate >= 1 {
		return 1
	}
	return int(math.Ceil(math.Log(epsilon) / math.Log(1-rate)))
}
