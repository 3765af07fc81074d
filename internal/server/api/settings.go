package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/ayusman/holotree/internal/scene"
)

// Settings panel limits.
const (
	MinParticles = 5000
	MaxParticles = 45000
	ParticleStep = 1000

	MinSpeed  = 0.5
	MaxSpeed  = 5.0
	SpeedStep = 0.1

	maxTextLen = 64
)

// ColorPreset is a named tree color offered by the panel.
type ColorPreset struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Presets are the panel's color swatches.
var Presets = []ColorPreset{
	{Name: "Classic", Value: "#2f5e41"},
	{Name: "Icy", Value: "#00ccff"},
	{Name: "Purple", Value: "#9900ff"},
	{Name: "Gold", Value: "#ffaa00"},
	{Name: "Night", Value: "#1a237e"},
	{Name: "Ruby", Value: "#b71c1c"},
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SettingsSaver publishes and persists scene settings.
type SettingsSaver interface {
	UpdateSettings(s scene.Settings) error
}

// SettingsHandler serves GET and PUT /api/settings.
type SettingsHandler struct {
	scene *scene.Store
	saver SettingsSaver
}

// NewSettingsHandler creates a handler. When saver is nil, updates only go
// to the scene store.
func NewSettingsHandler(sc *scene.Store, saver SettingsSaver) *SettingsHandler {
	return &SettingsHandler{scene: sc, saver: saver}
}

type rangeInt struct {
	Min  int `json:"min"`
	Max  int `json:"max"`
	Step int `json:"step"`
}

type rangeFloat struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

type settingsResponse struct {
	Settings       scene.Settings `json:"settings"`
	Presets        []ColorPreset  `json:"presets"`
	ParticleCount  rangeInt       `json:"particleCountRange"`
	AnimationSpeed rangeFloat     `json:"animationSpeedRange"`
}

// updateSettingsRequest carries only the fields the client wants to change.
type updateSettingsRequest struct {
	TreeColor      *string  `json:"treeColor"`
	ParticleCount  *int     `json:"particleCount"`
	AnimationSpeed *float64 `json:"animationSpeed"`
	TitleText      *string  `json:"titleText"`
	SubtitleText   *string  `json:"subtitleText"`
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *SettingsHandler) response() settingsResponse {
	return settingsResponse{
		Settings:       h.scene.Settings(),
		Presets:        Presets,
		ParticleCount:  rangeInt{Min: MinParticles, Max: MaxParticles, Step: ParticleStep},
		AnimationSpeed: rangeFloat{Min: MinSpeed, Max: MaxSpeed, Step: SpeedStep},
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.response())
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	settings, err := req.apply(h.scene.Settings())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.saver != nil {
		if err := h.saver.UpdateSettings(settings); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	} else {
		h.scene.SetSettings(settings)
	}

	writeJSON(w, http.StatusOK, h.response())
}

// apply validates the request and merges it over current.
func (req updateSettingsRequest) apply(current scene.Settings) (scene.Settings, error) {
	s := current
	if req.TreeColor != nil {
		if !hexColor.MatchString(*req.TreeColor) {
			return s, fmt.Errorf("treeColor must look like #rrggbb")
		}
		s.TreeColor = *req.TreeColor
	}
	if req.ParticleCount != nil {
		n := *req.ParticleCount
		if n < MinParticles || n > MaxParticles {
			return s, fmt.Errorf("particleCount must be between %d and %d", MinParticles, MaxParticles)
		}
		s.ParticleCount = n
	}
	if req.AnimationSpeed != nil {
		v := *req.AnimationSpeed
		if v < MinSpeed || v > MaxSpeed {
			return s, fmt.Errorf("animationSpeed must be between %.1f and %.1f", MinSpeed, MaxSpeed)
		}
		s.AnimationSpeed = v
	}
	if req.TitleText != nil {
		if len(*req.TitleText) > maxTextLen {
			return s, fmt.Errorf("titleText is limited to %d bytes", maxTextLen)
		}
		s.TitleText = *req.TitleText
	}
	if req.SubtitleText != nil {
		if len(*req.SubtitleText) > maxTextLen {
			return s, fmt.Errorf("subtitleText is limited to %d bytes", maxTextLen)
		}
		s.SubtitleText = *req.SubtitleText
	}
	return s, nil
}
