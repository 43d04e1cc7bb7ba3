// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (RAGNOVA_* runtime override)
//  2. Config file (~/.ragnova/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, generation model, embedder model
//   - Storage: data directory holding per-knowledge-base indexes
//   - Ingestion: chunking parameters, document converter command
//   - Crawler: depth/page budgets, timeouts, politeness rate
//   - Retrieval: top-k, query expansion and graph augmentation toggles
//
// Error handling uses sentinel errors so callers can check with errors.Is
// and wrap with fmt.Errorf("%w: details", ErrXxx).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidChunking indicates chunk size/overlap values are out of range.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidCrawlBounds indicates crawl depth or page budget is out of range.
	ErrInvalidCrawlBounds = errors.New("invalid crawl bounds")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidDataDir indicates the data directory is unusable.
	ErrInvalidDataDir = errors.New("invalid data directory")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Defaults applied when neither the environment nor the config file sets a key.
const (
	DefaultModelName     = "gemini-2.5-flash"
	DefaultEmbedderModel = "gemini-embedding-001"
	DefaultOllamaHost    = "http://localhost:11434"

	// DefaultChunkSize and DefaultChunkOverlap are measured in runes.
	DefaultChunkSize    = 1024
	DefaultChunkOverlap = 128

	DefaultCrawlMaxDepth = 1
	DefaultCrawlMaxPages = 30
	DefaultCrawlTimeout  = 15 * time.Second
	DefaultCrawlRate     = 4.0 // requests per second

	DefaultTopK = 3

	// MaxCrawlDepth bounds user-specified crawl depth (matches the 1-5 range
	// accepted by ingestion inputs).
	MaxCrawlDepth = 5
	MaxCrawlPages = 500
	MaxTopK       = 20
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider" json:"provider"`             // "gemini" (default) or "ollama"
	ModelName     string `mapstructure:"model_name" json:"model_name"`         // generation model identifier
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"` // embedding model identifier
	OllamaHost    string `mapstructure:"ollama_host" json:"ollama_host"`       // only used when provider is "ollama"

	// Storage configuration. DataDir holds one subdirectory per knowledge
	// base; HistoryDir holds per-user question/answer logs.
	DataDir    string `mapstructure:"data_dir" json:"data_dir"`
	HistoryDir string `mapstructure:"history_dir" json:"history_dir"`

	// Ingestion configuration
	ChunkSize        int    `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap     int    `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	ConverterCommand string `mapstructure:"converter_command" json:"converter_command"` // legacy .doc conversion tool

	// Crawler configuration
	CrawlMaxDepth int           `mapstructure:"crawl_max_depth" json:"crawl_max_depth"`
	CrawlMaxPages int           `mapstructure:"crawl_max_pages" json:"crawl_max_pages"`
	CrawlTimeout  time.Duration `mapstructure:"crawl_timeout" json:"crawl_timeout"`
	CrawlRate     float64       `mapstructure:"crawl_rate" json:"crawl_rate"` // requests per second

	// Retrieval configuration
	TopK        int  `mapstructure:"top_k" json:"top_k"`
	EnableHyDE  bool `mapstructure:"enable_hyde" json:"enable_hyde"`
	EnableGraph bool `mapstructure:"enable_graph" json:"enable_graph"`

	// Serve mode configuration
	ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
}

// Load reads configuration from the config file and environment.
// Missing files are not an error; defaults cover everything.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	home, err := os.UserHomeDir()
	if err == nil {
		v.AddConfigPath(filepath.Join(home, ".ragnova"))
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("RAGNOVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir(home)
	}
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = cfg.DataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("ollama_host", DefaultOllamaHost)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("converter_command", "soffice")
	v.SetDefault("crawl_max_depth", DefaultCrawlMaxDepth)
	v.SetDefault("crawl_max_pages", DefaultCrawlMaxPages)
	v.SetDefault("crawl_timeout", DefaultCrawlTimeout)
	v.SetDefault("crawl_rate", DefaultCrawlRate)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("enable_hyde", false)
	v.SetDefault("enable_graph", false)
	v.SetDefault("listen_addr", "localhost:8090")
}

func defaultDataDir(home string) string {
	if home == "" {
		return "ragnova-data"
	}
	return filepath.Join(home, ".ragnova", "data")
}
