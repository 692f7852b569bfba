package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err, "missing file should not error")
	assert.Equal(t, 0.90, cfg.Engine.MasteryThreshold)
	assert.Equal(t, 1200.0, cfg.Engine.InitialElo)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "[engine]\nmastery_threshold = 0.85\nrecency_window = 3\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.Engine.MasteryThreshold)
	assert.Equal(t, 3, cfg.Engine.RecencyWindow)
	// Untouched keys keep defaults.
	assert.Equal(t, 24.0, cfg.Engine.EloK)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"mastery threshold above one", "[engine]\nmastery_threshold = 1.5\n"},
		{"learning above mastery", "[engine]\nlearning_threshold = 0.95\n"},
		{"question k above elo k", "[engine]\nquestion_k = 100.0\n"},
		{"negative recency window", "[engine]\nrecency_window = -1\n"},
		{"bad log format", "[logging]\nformat = \"xml\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestWriteSample_ParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteSample(path))

	cfg, err := Load(path)
	require.NoError(t, err, "sample config must load cleanly")
	assert.Equal(t, 0.90, cfg.Engine.MasteryThreshold, "sample should mirror defaults")

	assert.Error(t, WriteSample(path), "second write must refuse to overwrite")
}
