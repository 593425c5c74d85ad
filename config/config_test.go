package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "relevance threshold above one",
			mutate:  func(c *Config) { c.Pipeline.RelevanceThreshold = 1.5 },
			wantErr: "relevanceThreshold",
		},
		{
			name:    "similarity threshold negative",
			mutate:  func(c *Config) { c.Pipeline.SimilarityThreshold = -0.1 },
			wantErr: "similarityThreshold",
		},
		{
			name:    "title threshold above one",
			mutate:  func(c *Config) { c.Pipeline.TitleSimilarityThreshold = 2 },
			wantErr: "titleSimilarityThreshold",
		},
		{
			name:    "zero chunk target",
			mutate:  func(c *Config) { c.Pipeline.ChunkTargetWords = 0 },
			wantErr: "chunkTargetWords",
		},
		{
			name:    "zero item timeout",
			mutate:  func(c *Config) { c.Pipeline.ItemTimeout = 0 },
			wantErr: "itemTimeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Pipeline.ChunkTargetWords, cfg.Pipeline.ChunkTargetWords)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("pipeline:\n  relevanceThreshold: 0.5\n  chunkTargetWords: 300\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Pipeline.RelevanceThreshold)
	assert.Equal(t, 300, cfg.Pipeline.ChunkTargetWords)
	// untouched values keep defaults
	assert.Equal(t, Default().Pipeline.SimilarityThreshold, cfg.Pipeline.SimilarityThreshold)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("pipeline:\n  similarityThreshold: 3.0\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := Load(path)
	require.Error(t, err)
	var cerr *ConfigError
	assert.ErrorAs(t, err, &cerr)
}
