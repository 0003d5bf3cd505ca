package weights

import (
	"strconv"
	"strings"

	"github.com/couchcryptid/snow-rank/internal/domain"
)

// Preset is a named weight bundle offered as a shortcut to manual entry.
type Preset struct {
	Name    string
	Aliases []string
	Summary string
	Weights WeightMap
}

// presets is ordered; menu numbers are 1-based positions in this slice.
var presets = []Preset{
	{
		Name:    "balanced",
		Aliases: []string{"default", "standard"},
		Summary: "registry defaults",
		Weights: Defaults(),
	},
	{
		Name:    "powder hunter",
		Aliases: []string{"powder", "freshies"},
		Summary: "fresh snow above everything",
		Weights: WeightMap{
			domain.MetricSnowNew:       50,
			domain.MetricSnowDepth:     15,
			domain.MetricTemperature:   15,
			domain.MetricPrecipitation: 15,
			domain.MetricWind:          5,
		},
	},
	{
		Name:    "base builder",
		Aliases: []string{"base", "depth"},
		Summary: "deep, reliable snowpack",
		Weights: WeightMap{
			domain.MetricSnowNew:       15,
			domain.MetricSnowDepth:     50,
			domain.MetricTemperature:   20,
			domain.MetricPrecipitation: 5,
			domain.MetricWind:          10,
		},
	},
	{
		Name:    "cold smoke",
		Aliases: []string{"cold", "dry powder"},
		Summary: "cold temperatures that keep snow dry",
		Weights: WeightMap{
			domain.MetricSnowNew:       30,
			domain.MetricSnowDepth:     15,
			domain.MetricTemperature:   40,
			domain.MetricPrecipitation: 10,
			domain.MetricWind:          5,
		},
	},
	{
		Name:    "bluebird",
		Aliases: []string{"sunny", "calm"},
		Summary: "calm days on a solid base",
		Weights: WeightMap{
			domain.MetricSnowNew:       10,
			domain.MetricSnowDepth:     35,
			domain.MetricTemperature:   15,
			domain.MetricPrecipitation: 5,
			domain.MetricWind:          35,
		},
	},
}

// Presets returns the available presets in menu order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		out[i] = p
		out[i].Weights = p.Weights.Clone()
	}
	return out
}

// MatchPreset finds a preset by menu number, name or alias. Matching ignores case,
// spaces, dashes and underscores.
func MatchPreset(token string) (Preset, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Preset{}, false
	}
	if n, err := strconv.Atoi(token); err == nil {
		if n >= 1 && n <= len(presets) {
			return Presets()[n-1], true
		}
		return Preset{}, false
	}

	want := presetKey(token)
	for _, p := range Presets() {
		if presetKey(p.Name) == want {
			return p, true
		}
		for _, a := range p.Aliases {
			if presetKey(a) == want {
				return p, true
			}
		}
	}
	return Preset{}, false
}

func presetKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(s))
}
