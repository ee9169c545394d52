package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fwachter/quintus/music"
	"github.com/fwachter/quintus/piece"
	"github.com/fwachter/quintus/rules"
	"github.com/fwachter/quintus/scoring"
	"github.com/fwachter/quintus/search"
)

// ConfigError reports an invalid configuration value. It wraps the
// underlying cause, so sentinel checks like errors.Is(err,
// music.ErrUnknownScaleType) keep working through it.
type ConfigError struct {
	Section string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config section %q: %v", e.Section, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Load reads a YAML file over the defaults and validates the result. An
// empty path loads the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, &ConfigError{Section: "yaml", Err: err}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate builds every configured component once and discards it, so all
// name and parameter errors surface before a search starts.
func (c *Config) Validate() error {
	if _, err := c.BuildPiece(); err != nil {
		return err
	}
	if _, err := c.BuildEngine(); err != nil {
		return err
	}
	if _, err := c.BuildEvaluator(); err != nil {
		return err
	}
	if err := c.SearchParams().Validate(); err != nil {
		return &ConfigError{Section: "search", Err: err}
	}
	return nil
}

// BuildPiece assembles the scale and the starting piece.
func (c *Config) BuildPiece() (*piece.Piece, error) {
	scaleType, err := music.ParseScaleType(c.Piece.ScaleType)
	if err != nil {
		return nil, &ConfigError{Section: "piece", Err: err}
	}
	scale, err := music.BuildScale(c.Piece.Tonic, scaleType)
	if err != nil {
		return nil, &ConfigError{Section: "piece", Err: err}
	}
	p, err := piece.New(scale, c.Piece.CantusFirmus, piece.Spec{
		StartNote:           c.Piece.Counterpoint.StartNote,
		EndNote:             c.Piece.Counterpoint.EndNote,
		LowestNote:          c.Piece.Counterpoint.LowestNote,
		HighestNote:         c.Piece.Counterpoint.HighestNote,
		StartPauseInEighths: c.Piece.Counterpoint.StartPauseInEighths,
		MaxSkipInDegrees:    c.Piece.Counterpoint.MaxSkipInDegrees,
		IsCounterpointAbove: c.Piece.Counterpoint.IsAbove,
	})
	if err != nil {
		return nil, &ConfigError{Section: "piece", Err: err}
	}
	return p, nil
}

// BuildEngine assembles the rule engine.
func (c *Config) BuildEngine() (*rules.Engine, error) {
	engine, err := rules.NewEngine(c.Rules.Names, c.Rules.Params)
	if err != nil {
		return nil, &ConfigError{Section: "rules", Err: err}
	}
	return engine, nil
}

// BuildEvaluator assembles the scoring evaluator.
func (c *Config) BuildEvaluator() (*scoring.Evaluator, error) {
	eval, err := scoring.NewEvaluator(c.Scoring.Coefs, c.Scoring.Params)
	if err != nil {
		return nil, &ConfigError{Section: "scoring", Err: err}
	}
	return eval, nil
}

// SearchParams maps the search section onto search.Params.
func (c *Config) SearchParams() search.Params {
	return search.Params{
		BeamWidth:              c.Search.BeamWidth,
		NRecordsToKeep:         c.Search.NRecordsToKeep,
		NTrialsEstimationDepth: c.Search.NTrialsEstimationDepth,
		NTrialsEstimationWidth: c.Search.NTrialsEstimationWidth,
		NTrialsFactor:          c.Search.NTrialsFactor,
		RewardForDeadEnd:       c.Search.RewardForDeadEnd,
		Workers:                c.Search.Workers,
		Seed:                   c.Search.Seed,
	}
}
