// Package config loads run configurations from YAML, overlays them on the
// built-in defaults, and validates them eagerly: every scale, rule, scoring
// function and search parameter is resolved at load time, so a bad config
// never survives past startup.
package config

import (
	"github.com/fwachter/quintus/rules"
	"github.com/fwachter/quintus/scoring"
)

// Config is a complete run configuration.
type Config struct {
	Piece   PieceConfig   `yaml:"piece"`
	Rules   RulesConfig   `yaml:"rules"`
	Scoring ScoringConfig `yaml:"scoring"`
	Search  SearchConfig  `yaml:"search"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
}

// PieceConfig sets the scale, the cantus firmus and the counterpoint line
// constraints.
type PieceConfig struct {
	Tonic        string             `yaml:"tonic"`
	ScaleType    string             `yaml:"scale_type"`
	CantusFirmus []string           `yaml:"cantus_firmus"`
	Counterpoint CounterpointConfig `yaml:"counterpoint"`
}

// CounterpointConfig constrains the generated line.
type CounterpointConfig struct {
	StartNote           string `yaml:"start_note"`
	EndNote             string `yaml:"end_note"`
	LowestNote          string `yaml:"lowest_note"`
	HighestNote         string `yaml:"highest_note"`
	StartPauseInEighths int    `yaml:"start_pause_in_eighths"`
	MaxSkipInDegrees    int    `yaml:"max_skip_in_degrees"`
	IsAbove             bool   `yaml:"is_above"`
}

// RulesConfig selects the hard rules and their parameters.
type RulesConfig struct {
	Names  []string                  `yaml:"names"`
	Params map[string]map[string]any `yaml:"params"`
}

// ScoringConfig weights the soft scoring functions.
type ScoringConfig struct {
	Coefs  map[string]float64        `yaml:"coefs"`
	Params map[string]map[string]any `yaml:"params"`
}

// SearchConfig drives the Monte-Carlo beam search.
type SearchConfig struct {
	BeamWidth              int     `yaml:"beam_width"`
	NRecordsToKeep         int     `yaml:"n_records_to_keep"`
	NTrialsEstimationDepth int     `yaml:"n_trials_estimation_depth"`
	NTrialsEstimationWidth int     `yaml:"n_trials_estimation_width"`
	NTrialsFactor          float64 `yaml:"n_trials_factor"`
	RewardForDeadEnd       float64 `yaml:"reward_for_dead_end"`
	Workers                int     `yaml:"workers"`
	Seed                   int64   `yaml:"seed"`
}

// OutputConfig places rendered results on disk.
type OutputConfig struct {
	Dir              string  `yaml:"dir"`
	SecondsPerEighth float64 `yaml:"seconds_per_eighth"`
	Velocity         float64 `yaml:"velocity"`
}

// ServerConfig configures the progress streaming server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration: a C major piece with a short
// cantus firmus, all fifteen rules, unit scoring weights and a modest search
// budget.
func Default() Config {
	return Config{
		Piece: PieceConfig{
			Tonic:        "C",
			ScaleType:    "major",
			CantusFirmus: []string{"C4", "D4", "F4", "E4", "G4", "F4", "E4", "D4", "C4"},
			Counterpoint: CounterpointConfig{
				StartNote:           "G4",
				EndNote:             "C5",
				LowestNote:          "C4",
				HighestNote:         "C6",
				StartPauseInEighths: 4,
				MaxSkipInDegrees:    7,
				IsAbove:             true,
			},
		},
		Rules: RulesConfig{
			Names: rules.DefaultRuleNames(),
		},
		Scoring: ScoringConfig{
			Coefs: scoring.DefaultCoefs(),
		},
		Search: SearchConfig{
			BeamWidth:              5,
			NRecordsToKeep:         10,
			NTrialsEstimationDepth: 4,
			NTrialsEstimationWidth: 5,
			NTrialsFactor:          8,
			RewardForDeadEnd:       -3,
			Workers:                0,
			Seed:                   361,
		},
		Output: OutputConfig{
			Dir:              "outputs",
			SecondsPerEighth: 0.25,
			Velocity:         0.8,
		},
		Server: ServerConfig{
			Addr: "localhost:8080",
		},
	}
}
