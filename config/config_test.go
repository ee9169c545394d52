package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwachter/quintus/music"
	"github.com/fwachter/quintus/rules"
	"github.com/fwachter/quintus/scoring"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quintus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, err := cfg.BuildPiece()
	require.NoError(t, err)
	assert.Equal(t, 9, p.NMeasures())
	assert.Equal(t, "G4", p.Counterpoint[0].Note)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeConfig(t, `
piece:
  cantus_firmus: [C4, D4, E4, C4]
  counterpoint:
    end_note: C5
    highest_note: B5
search:
  beam_width: 3
  seed: 7
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"C4", "D4", "E4", "C4"}, cfg.Piece.CantusFirmus)
	assert.Equal(t, "B5", cfg.Piece.Counterpoint.HighestNote)
	assert.Equal(t, 3, cfg.Search.BeamWidth)
	assert.Equal(t, int64(7), cfg.Search.Seed)
	// Untouched sections keep their defaults.
	assert.Equal(t, "C", cfg.Piece.Tonic)
	assert.Equal(t, Default().Search.NRecordsToKeep, cfg.Search.NRecordsToKeep)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
piece:
  key: C
`)
	_, err := Load(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "yaml", cfgErr.Section)
}

func TestLoadRejectsUnknownScale(t *testing.T) {
	path := writeConfig(t, `
piece:
  scale_type: phrygian
`)
	_, err := Load(path)
	require.ErrorIs(t, err, music.ErrUnknownScaleType)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "piece", cfgErr.Section)
}

func TestLoadRejectsUnknownRule(t *testing.T) {
	path := writeConfig(t, `
rules:
  names: [rhythmic_pattern_validity, parallel_fifths]
`)
	_, err := Load(path)
	require.ErrorIs(t, err, rules.ErrUnknownRule)
}

func TestLoadRejectsUnknownScorer(t *testing.T) {
	path := writeConfig(t, `
scoring:
  coefs:
    smoothness: 1
`)
	_, err := Load(path)
	require.ErrorIs(t, err, scoring.ErrUnknownScorer)
}

func TestLoadRejectsBadRuleParams(t *testing.T) {
	path := writeConfig(t, `
rules:
  params:
    absence_of_stalled_pitches:
      max_n_repetitions: often
`)
	_, err := Load(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "rules", cfgErr.Section)
}

func TestLoadRejectsBadSearchParams(t *testing.T) {
	path := writeConfig(t, `
search:
  beam_width: 0
`)
	_, err := Load(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "search", cfgErr.Section)
}

func TestLoadRejectsBadPiece(t *testing.T) {
	path := writeConfig(t, `
piece:
  counterpoint:
    end_note: D5
`)
	_, err := Load(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "piece", cfgErr.Section)
}

func TestScorerParamsReachEvaluator(t *testing.T) {
	path := writeConfig(t, `
scoring:
  coefs:
    number_of_skips: 1
  params:
    number_of_skips:
      rewards:
        1: 0.5
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	_, err = cfg.BuildEvaluator()
	require.NoError(t, err)
}
