package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "./data/curo.db", config.Storage.SQLite.Path)
	assert.Equal(t, 768, config.Storage.SQLite.EmbeddingDimension)
	assert.Equal(t, "gemini", config.LLM.DefaultProvider)
	assert.Equal(t, 0.5, config.Curation.FilterThreshold)
	assert.Equal(t, 10, config.Curation.FilterLimit)
	assert.Equal(t, 6, config.Curation.Concurrency)
	assert.False(t, config.Processing.Enabled)
}

func TestLoadFromFiles_MergesInOrder(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	require.NoError(t, os.WriteFile(base, []byte(`
[server]
port = 9000

[curation]
filter_threshold = 0.3
`), 0644))

	override := filepath.Join(dir, "override.toml")
	require.NoError(t, os.WriteFile(override, []byte(`
[curation]
filter_threshold = 0.7
`), 0644))

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	// Later files win; untouched sections keep defaults.
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, 0.7, config.Curation.FilterThreshold)
	assert.Equal(t, 10, config.Curation.FilterLimit)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CURO_SERVER_PORT", "7001")
	t.Setenv("CURO_LLM_PROVIDER", "claude")
	t.Setenv("CURO_FILTER_THRESHOLD", "0.65")
	t.Setenv("CURO_LOG_OUTPUT", "stdout, file")

	config := NewDefaultConfig()
	applyEnvOverrides(config)

	assert.Equal(t, 7001, config.Server.Port)
	assert.Equal(t, "claude", config.LLM.DefaultProvider)
	assert.Equal(t, 0.65, config.Curation.FilterThreshold)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()
	ApplyFlagOverrides(config, 4242, "0.0.0.0")

	assert.Equal(t, 4242, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	// Zero values leave config untouched.
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 4242, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}

func TestValidate(t *testing.T) {
	config := NewDefaultConfig()
	assert.NoError(t, config.Validate())

	config.Gemini.EmbedDimension = 1536
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Curation.FilterThreshold = 1.5
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Curation.FilterLimit = 0
	assert.Error(t, config.Validate())
}
