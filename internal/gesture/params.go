// Package gesture turns per-frame hand and face landmarks into stable scene
// controls: a debounced assemble/disperse mode, smoothed cursor and parallax
// signals, head-driven rotation and a pinch-driven object lock.
package gesture

import (
	"errors"
	"fmt"
)

// Params holds the tuning constants of the pipeline. The defaults are
// perceptual choices, so all of them can be overridden from config.
type Params struct {
	// DisperseRatio: extension ratios strictly above this vote DISPERSE.
	DisperseRatio float64 `yaml:"disperse_ratio" json:"disperseRatio"`
	// AssembleRatio: extension ratios strictly below this vote ASSEMBLE.
	AssembleRatio float64 `yaml:"assemble_ratio" json:"assembleRatio"`
	// ScaleFallback replaces a zero wrist-to-middle-MCP distance.
	ScaleFallback float64 `yaml:"scale_fallback" json:"scaleFallback"`
	// PinchRatio times the hand scale is the pinch distance threshold.
	PinchRatio float64 `yaml:"pinch_ratio" json:"pinchRatio"`

	// HistorySize is the debounce window length.
	HistorySize int `yaml:"history_size" json:"historySize"`
	// Votes is the count a mode must strictly exceed within the window to win.
	Votes int `yaml:"votes" json:"votes"`

	// CursorRate is the per-frame smoothing rate of the pinch cursor.
	CursorRate float64 `yaml:"cursor_rate" json:"cursorRate"`
	// ParallaxRate is the per-frame smoothing rate of the face translation.
	ParallaxRate float64 `yaml:"parallax_rate" json:"parallaxRate"`

	// YawDeadzone suppresses rotation while |yaw| is at or below it.
	YawDeadzone float64 `yaml:"yaw_deadzone" json:"yawDeadzone"`
	// YawSensitivity scales yaw into a rotation delta.
	YawSensitivity float64 `yaml:"yaw_sensitivity" json:"yawSensitivity"`
	// YawSign maps a physical head turn onto the camera orbit direction.
	YawSign float64 `yaml:"yaw_sign" json:"yawSign"`

	// ParallaxScaleX and ParallaxScaleY scale the nose offset from frame center.
	ParallaxScaleX float64 `yaml:"parallax_scale_x" json:"parallaxScaleX"`
	ParallaxScaleY float64 `yaml:"parallax_scale_y" json:"parallaxScaleY"`

	// PitchLimit bounds the accumulated pitch symmetrically.
	PitchLimit float64 `yaml:"pitch_limit" json:"pitchLimit"`
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		DisperseRatio:  1.6,
		AssembleRatio:  1.3,
		ScaleFallback:  0.1,
		PinchRatio:     0.4,
		HistorySize:    8,
		Votes:          6,
		CursorRate:     0.3,
		ParallaxRate:   0.05,
		YawDeadzone:    0.015,
		YawSensitivity: 1.5,
		YawSign:        -1,
		ParallaxScaleX: 8,
		ParallaxScaleY: 4,
		PitchLimit:     0.5,
	}
}

// Validate reports the first parameter combination the pipeline cannot work with.
func (p Params) Validate() error {
	switch {
	case p.AssembleRatio >= p.DisperseRatio:
		return fmt.Errorf("assemble_ratio %.3f must be below disperse_ratio %.3f", p.AssembleRatio, p.DisperseRatio)
	case p.ScaleFallback <= 0:
		return errors.New("scale_fallback must be positive")
	case p.PinchRatio <= 0:
		return errors.New("pinch_ratio must be positive")
	case p.HistorySize <= 0:
		return errors.New("history_size must be positive")
	case p.Votes < 0 || p.Votes >= p.HistorySize:
		return fmt.Errorf("votes %d must be in [0, history_size %d)", p.Votes, p.HistorySize)
	case !validRate(p.CursorRate):
		return fmt.Errorf("cursor_rate %.3f must be in (0, 1]", p.CursorRate)
	case !validRate(p.ParallaxRate):
		return fmt.Errorf("parallax_rate %.3f must be in (0, 1]", p.ParallaxRate)
	case p.YawDeadzone < 0:
		return errors.New("yaw_deadzone must not be negative")
	case p.PitchLimit < 0:
		return errors.New("pitch_limit must not be negative")
	}
	return nil
}

func validRate(r float64) bool {
	return r > 0 && r <= 1
}
