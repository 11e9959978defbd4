package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	ConfigEnv, "HOST", "PORT", "LOG_LEVEL", "LOG_FILE", "DATA_FILE", "VECTOR_STORE",
	"EMBED_CACHE_DIR", "EMBED_PROVIDER", "OLLAMA_HOST", "EMBED_MODEL", "OPENAI_API_KEY",
	"QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION", "EXTRACT_MODEL", "EXTRACT_TIMEOUT",
	"EXTRACT_ENABLED", "ALLOW_ORIGINS", "MAX_UPLOAD_MB", "DEFAULT_K", "SEMANTIC_TIMEOUT",
}

// clearEnv blanks every variable Load reads; blank counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "127.0.0.1:8000", cfg.Addr())
	assert.Equal(t, "company_data.json", cfg.DataFile)
	assert.Equal(t, 100, cfg.DefaultK)
	assert.Equal(t, 5*time.Second, cfg.SemanticTimeout)
	assert.False(t, cfg.SemanticEnabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "fuid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
data_file: /var/lib/fuid/data.json
semantic_timeout: 2s
embedder:
  provider: ollama
  model: mxbai-embed-large
vector_store: qdrant
weights:
  embedding: 0.6
  fuzzy: 0.4
extractor:
  enabled: true
`), 0o644))
	t.Setenv("PORT", "9100")
	t.Setenv("ALLOW_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/var/lib/fuid/data.json", cfg.DataFile)
	assert.Equal(t, 2*time.Second, cfg.SemanticTimeout)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedder.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Embedder.Host)
	assert.Equal(t, "qdrant", cfg.VectorStore)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, WeightsConfig{Embedding: 0.6, Fuzzy: 0.4}, cfg.Weights)
	assert.True(t, cfg.Extractor.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Extractor.Timeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowOrigins)
	assert.True(t, cfg.SemanticEnabled())
}

func TestLoadConfigEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "fuid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_k: 25\n"), 0o644))
	t.Setenv(ConfigEnv, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.DefaultK)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := Load(missing)
	assert.ErrorIs(t, err, os.ErrNotExist)

	t.Setenv(ConfigEnv, missing)
	_, err = Load("")
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"PORT": "http"}, "PORT"},
		{"port range", map[string]string{"PORT": "70000"}, "port out of range"},
		{"bad duration", map[string]string{"SEMANTIC_TIMEOUT": "soon"}, "SEMANTIC_TIMEOUT"},
		{"bad bool", map[string]string{"EXTRACT_ENABLED": "maybe"}, "EXTRACT_ENABLED"},
		{"openai without key", map[string]string{"EMBED_PROVIDER": "openai"}, "api key"},
		{"unknown provider", map[string]string{"EMBED_PROVIDER": "cohere"}, "unknown embedder"},
		{"unknown store", map[string]string{"VECTOR_STORE": "faiss"}, "unknown vector store"},
		{"zero k", map[string]string{"DEFAULT_K": "0"}, "default_k"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "fuid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [1"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestNewLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	dir := t.TempDir()
	cfg := Default()
	cfg.LogLevel = "warn"
	cfg.LogFile = filepath.Join(dir, "nested", "fuid.log")

	var console bytes.Buffer
	logger := newLogger(cfg, &console)
	logger.Info().Msg("hidden")
	logger.Warn().Str("fuid", "FUID-ACMES:00001-0001-2").Msg("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fuid":"FUID-ACMES:00001-0001-2"`)
}

func TestNewLoggerBadLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())

	cfg := Default()
	cfg.LogFile = ""
	cfg.LogLevel = "loud"
	newLogger(cfg, &bytes.Buffer{})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
