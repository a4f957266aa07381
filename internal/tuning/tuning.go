// Package tuning loads the server tuning file (configs/tuning.yaml).
package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int `yaml:"tick_rate_hz"`

	Stream Stream `yaml:"stream"`
}

type Stream struct {
	Enabled            bool     `yaml:"enabled"`
	MaxLoadedTiles     int      `yaml:"max_loaded_tiles"`
	MaxConcurrentLoads int      `yaml:"max_concurrent_loads"`
	TransitionFrames   int      `yaml:"transition_frames"`
	Selector           Selector `yaml:"selector"`
}

type Selector struct {
	Enabled          bool    `yaml:"enabled"`
	RefinementFovDeg float64 `yaml:"refinement_fov_deg"`
	MaxDepth         int     `yaml:"max_depth"`
	MaxSelectedTiles int     `yaml:"max_selected_tiles"`
	RadiusSlack      float64 `yaml:"radius_slack"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		TickRateHz:      20,
		Stream: Stream{
			Enabled:            true,
			MaxLoadedTiles:     20,
			MaxConcurrentLoads: 3,
			TransitionFrames:   10,
			Selector: Selector{
				Enabled:          true,
				RefinementFovDeg: 70,
				MaxDepth:         4,
				MaxSelectedTiles: 24,
				RadiusSlack:      1.35,
			},
		},
	}
}

// Digest identifies the effective tuning so clients can tell configurations
// apart across reconnects.
func (t Tuning) Digest() string {
	b, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if t.TickRateHz <= 0 {
		t.TickRateHz = Defaults().TickRateHz
	}
	return t, nil
}
