package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/errors"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("FERN_LOG_LEVEL", "error")

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const datasetA = `record_id,first_name,last_name,street,city,state,zip,phone,email
a1,Robert,Smith,12 Oak Street,Springfield,Illinois,62701,(217) 555-0100,bob@example.com
a2,Maria,Garcia,9 Elm Ave,Springfield,IL,62701,217-555-0142,
a3,,,,,,,,
`

const datasetB = `id,full_name,address,city,state,zip_code,phone_number,email_address
b1,Bob Smith,12 Oak St.,Springfield,IL,62701-4410,217.555.0100,BOB@example.com
b2,Li Wei,400 Lake Shore Dr,Chicago,IL,60611,312-555-0199,li@example.com
`

func TestResolveCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", datasetA)
	b := writeFile(t, dir, "b.csv", datasetB)
	out := filepath.Join(dir, "resolved.csv")
	audit := filepath.Join(dir, "audit.csv")

	stdout, stderr, err := execute(t, "resolve", "--a", a, "--b", b, "--out", out, "--audit", audit)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Matched")
	assert.Contains(t, stdout, "Wrote "+out)
	assert.Contains(t, stderr, "record has no data")

	resolved, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(resolved)), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "matched")
	assert.Contains(t, lines[1], "a1")
	assert.Contains(t, lines[1], "b1")

	trail, err := os.ReadFile(audit)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(trail)), "\n"), 3)
}

func TestResolveCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", datasetA)
	b := writeFile(t, dir, "b.csv", datasetB)

	stdout, _, err := execute(t, "resolve", "--a", a, "--b", b,
		"--out", filepath.Join(dir, "r.csv"), "--audit", filepath.Join(dir, "au.csv"), "--json", "--workers", "4")
	require.NoError(t, err)

	var summary struct {
		Matched     int `json:"matched"`
		UnmatchedA  int `json:"unmatched_a"`
		UnmatchedB  int `json:"unmatched_b"`
		SkippedRows int `json:"skipped_rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.UnmatchedA)
	assert.Equal(t, 1, summary.UnmatchedB)
	assert.Equal(t, 1, summary.SkippedRows)
}

func TestResolveCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "b.csv", datasetB)

	t.Run("missing flags", func(t *testing.T) {
		_, _, err := execute(t, "resolve")
		assert.ErrorContains(t, err, `required flag(s) "a", "b" not set`)
	})

	t.Run("missing dataset", func(t *testing.T) {
		_, _, err := execute(t, "resolve", "--a", filepath.Join(dir, "nope.csv"), "--b", b)
		require.Error(t, err)
		assert.True(t, errors.IsIOError(err))
	})
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()

	t.Run("show defaults", func(t *testing.T) {
		stdout, _, err := execute(t, "config", "show")
		require.NoError(t, err)
		assert.Contains(t, stdout, "thresholds:")
		assert.Contains(t, stdout, "metric: indel")
	})

	t.Run("validate profile", func(t *testing.T) {
		profile := writeFile(t, dir, "ok.yaml", "thresholds:\n  name: 0.85\n")
		stdout, _, err := execute(t, "config", "validate", "--profile", profile)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Configuration valid")
		assert.Contains(t, stdout, profile)
	})

	t.Run("invalid profile", func(t *testing.T) {
		profile := writeFile(t, dir, "bad.yaml", "weights:\n  name: -1\n")
		_, _, err := execute(t, "config", "validate", "--profile", profile)
		require.Error(t, err)
		assert.True(t, errors.IsConfigurationError(err))
	})

	t.Run("invalid settings", func(t *testing.T) {
		t.Setenv("FERN_DB_DRIVER", "oracle")
		_, _, err := execute(t, "config", "validate")
		require.Error(t, err)
		assert.True(t, errors.IsConfigurationError(err))
	})
}
