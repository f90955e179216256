package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

func TestDefaultMatching(t *testing.T) {
	m := DefaultMatching()
	require.NoError(t, m.Validate())
	assert.Equal(t, models.Thresholds{Name: 0.8, Address: 0.7, Phone: 0.9, Email: 0.9, Overall: 0.7}, m.Thresholds)
	assert.InDelta(t, 1.0, m.Weights.Total(), 1e-12)

	n, err := m.Normalizer()
	require.NoError(t, err)
	assert.Equal(t, models.Present("robert smith"), n.NormalizeName("Bob Smith"))

	sim, err := m.Similarity()
	require.NoError(t, err)
	assert.Equal(t, 1.0, sim.Similarity("x", "x"))
}

func TestParseMatching(t *testing.T) {
	t.Run("partial profile keeps defaults", func(t *testing.T) {
		m, err := ParseMatching([]byte(`
thresholds:
  overall: 0.85
weights:
  email: 0.5
metric: jaro_winkler
`))
		require.NoError(t, err)
		assert.Equal(t, 0.85, m.Thresholds.Overall)
		assert.Equal(t, 0.8, m.Thresholds.Name)
		assert.Equal(t, 0.5, m.Weights.Email)
		assert.Equal(t, 0.3, m.Weights.Name)
		assert.Equal(t, "jaro_winkler", m.Metric)
		assert.NotEmpty(t, m.Tables.StreetSuffixes)
	})

	t.Run("given table replaces the default", func(t *testing.T) {
		m, err := ParseMatching([]byte(`
tables:
  nicknames:
    bob: robert
`))
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"bob": "robert"}, m.Tables.Nicknames)
	})

	t.Run("empty document is the default profile", func(t *testing.T) {
		m, err := ParseMatching(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultMatching().Thresholds, m.Thresholds)
	})

	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"threshold above one", "thresholds:\n  name: 1.2\n", "thresholds.name"},
		{"negative threshold", "thresholds:\n  overall: -0.1\n", "thresholds.overall"},
		{"negative weight", "weights:\n  phone: -1\n", "weights.phone"},
		{"all weights zero", "weights:\n  name: 0\n  address: 0\n  phone: 0\n  email: 0\n", "weights"},
		{"unknown metric", "metric: soundex\n", "metric"},
		{"inconsistent table", "tables:\n  nicknames:\n    a: b\n    b: a\n", "nicknames"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMatching([]byte(tt.yaml))
			require.Error(t, err)
			require.True(t, errors.IsConfigurationError(err), err.Error())
			cfgErr := err.(*errors.ConfigurationError)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	t.Run("unknown key is rejected", func(t *testing.T) {
		_, err := ParseMatching([]byte("threshold:\n  name: 0.5\n"))
		assert.True(t, errors.IsConfigurationError(err))
	})
}

func TestLoadMatching(t *testing.T) {
	t.Run("empty path is the default", func(t *testing.T) {
		m, err := LoadMatching("")
		require.NoError(t, err)
		assert.Equal(t, DefaultMatching().Weights, m.Weights)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "match.yaml")
		require.NoError(t, os.WriteFile(path, []byte("thresholds:\n  overall: 0.9\n"), 0o600))
		m, err := LoadMatching(path)
		require.NoError(t, err)
		assert.Equal(t, 0.9, m.Thresholds.Overall)
	})

	t.Run("missing file is an io error carrying the path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope.yaml")
		_, err := LoadMatching(path)
		require.True(t, errors.IsIOError(err))
		assert.Contains(t, err.Error(), path)
	})

	t.Run("round trips through yaml", func(t *testing.T) {
		data, err := DefaultMatching().YAML()
		require.NoError(t, err)
		m, err := ParseMatching(data)
		require.NoError(t, err)
		assert.Equal(t, DefaultMatching().Thresholds, m.Thresholds)
		assert.Equal(t, DefaultMatching().Tables.States, m.Tables.States)
	})
}
