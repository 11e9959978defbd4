package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the variable pointing at an optional YAML config file.
const ConfigEnv = "FUID_CONFIG"

type Config struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
	LogLevel     string   `yaml:"log_level"`
	MaxUploadMB  int      `yaml:"max_upload_mb"`
	LogFile      string   `yaml:"log_file"`

	DataFile        string        `yaml:"data_file"`
	DefaultK        int           `yaml:"default_k"`
	SemanticTimeout time.Duration `yaml:"semantic_timeout"`

	Embedder    EmbedderConfig  `yaml:"embedder"`
	VectorStore string          `yaml:"vector_store"`
	Qdrant      QdrantConfig    `yaml:"qdrant"`
	CacheDir    string          `yaml:"cache_dir"`
	Weights     WeightsConfig   `yaml:"weights"`
	Extractor   ExtractorConfig `yaml:"extractor"`
}

// EmbedderConfig selects the embedding provider. An empty provider
// disables semantic search.
type EmbedderConfig struct {
	Provider string `yaml:"provider"`
	Host     string `yaml:"host"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

type WeightsConfig struct {
	Embedding float64 `yaml:"embedding"`
	Fuzzy     float64 `yaml:"fuzzy"`
}

type ExtractorConfig struct {
	Enabled bool          `yaml:"enabled"`
	Host    string        `yaml:"host"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when neither file nor environment
// say otherwise.
func Default() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8000,
		AllowOrigins:    []string{"*"},
		LogLevel:        "info",
		MaxUploadMB:     256,
		LogFile:         "logs/fuid-service.log",
		DataFile:        "company_data.json",
		DefaultK:        100,
		SemanticTimeout: 5 * time.Second,
		Embedder: EmbedderConfig{
			Host: "http://localhost:11434",
		},
		VectorStore: "memory",
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "fuid_names",
		},
		Weights: WeightsConfig{Embedding: 0.7, Fuzzy: 0.3},
		Extractor: ExtractorConfig{
			Host:    "http://localhost:11434",
			Model:   "llama3.2",
			Timeout: 30 * time.Second,
		},
	}
}

// Load layers defaults, the YAML file at path (or $FUID_CONFIG) and the
// environment. A missing file is only an error when path was given
// explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && !explicit:
		case err != nil:
			return cfg, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.Host = getenv("HOST", c.Host)
	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogFile = getenv("LOG_FILE", c.LogFile)
	c.DataFile = getenv("DATA_FILE", c.DataFile)
	c.VectorStore = getenv("VECTOR_STORE", c.VectorStore)
	c.CacheDir = getenv("EMBED_CACHE_DIR", c.CacheDir)

	c.Embedder.Provider = getenv("EMBED_PROVIDER", c.Embedder.Provider)
	c.Embedder.Host = getenv("OLLAMA_HOST", c.Embedder.Host)
	c.Embedder.Model = getenv("EMBED_MODEL", c.Embedder.Model)
	c.Embedder.APIKey = getenv("OPENAI_API_KEY", c.Embedder.APIKey)

	c.Qdrant.Host = getenv("QDRANT_HOST", c.Qdrant.Host)
	c.Qdrant.Collection = getenv("QDRANT_COLLECTION", c.Qdrant.Collection)

	c.Extractor.Host = getenv("OLLAMA_HOST", c.Extractor.Host)
	c.Extractor.Model = getenv("EXTRACT_MODEL", c.Extractor.Model)

	if v := os.Getenv("ALLOW_ORIGINS"); v != "" {
		c.AllowOrigins = splitList(v)
	}

	var err error
	ints := []struct {
		key string
		dst *int
	}{
		{"PORT", &c.Port},
		{"MAX_UPLOAD_MB", &c.MaxUploadMB},
		{"DEFAULT_K", &c.DefaultK},
		{"QDRANT_PORT", &c.Qdrant.Port},
	}
	for _, it := range ints {
		if v := os.Getenv(it.key); v != "" {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = errors.Join(err, fmt.Errorf("%s: %w", it.key, perr))
				continue
			}
			*it.dst = n
		}
	}

	durs := []struct {
		key string
		dst *time.Duration
	}{
		{"SEMANTIC_TIMEOUT", &c.SemanticTimeout},
		{"EXTRACT_TIMEOUT", &c.Extractor.Timeout},
	}
	for _, it := range durs {
		if v := os.Getenv(it.key); v != "" {
			d, perr := time.ParseDuration(v)
			if perr != nil {
				err = errors.Join(err, fmt.Errorf("%s: %w", it.key, perr))
				continue
			}
			*it.dst = d
		}
	}

	if v := os.Getenv("EXTRACT_ENABLED"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = errors.Join(err, fmt.Errorf("EXTRACT_ENABLED: %w", perr))
		} else {
			c.Extractor.Enabled = b
		}
	}
	return err
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var err error
	if c.Port <= 0 || c.Port > 65535 {
		err = errors.Join(err, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.DataFile == "" {
		err = errors.Join(err, errors.New("data_file is required"))
	}
	if c.DefaultK <= 0 {
		err = errors.Join(err, fmt.Errorf("default_k must be positive: %d", c.DefaultK))
	}
	switch c.Embedder.Provider {
	case "", "ollama":
	case "openai":
		if c.Embedder.APIKey == "" {
			err = errors.Join(err, errors.New("openai embedder needs an api key"))
		}
	default:
		err = errors.Join(err, fmt.Errorf("unknown embedder provider %q", c.Embedder.Provider))
	}
	switch c.VectorStore {
	case "memory", "qdrant":
	default:
		err = errors.Join(err, fmt.Errorf("unknown vector store %q", c.VectorStore))
	}
	if c.Weights.Embedding < 0 || c.Weights.Fuzzy < 0 || c.Weights.Embedding+c.Weights.Fuzzy == 0 {
		err = errors.Join(err, errors.New("weights must be non-negative and not both zero"))
	}
	return err
}

// SemanticEnabled reports whether an embedder is configured.
func (c Config) SemanticEnabled() bool { return c.Embedder.Provider != "" }

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
