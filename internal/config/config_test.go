package config

import (
	"errors"
	"testing"
	"time"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		Provider:      ProviderGemini,
		ModelName:     DefaultModelName,
		EmbedderModel: DefaultEmbedderModel,
		OllamaHost:    DefaultOllamaHost,
		DataDir:       "/tmp/ragnova-test",
		HistoryDir:    "/tmp/ragnova-test",
		ChunkSize:     DefaultChunkSize,
		ChunkOverlap:  DefaultChunkOverlap,
		CrawlMaxDepth: 2,
		CrawlMaxPages: 10,
		CrawlTimeout:  5 * time.Second,
		CrawlRate:     DefaultCrawlRate,
		TopK:          DefaultTopK,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() = %v, want ErrConfigNil", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "acme" },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "  " },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "empty embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name: "ollama without host",
			mutate: func(c *Config) {
				c.Provider = ProviderOllama
				c.OllamaHost = ""
			},
			wantErr: ErrInvalidOllamaHost,
		},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.ChunkSize = 0 },
			wantErr: ErrInvalidChunking,
		},
		{
			name:    "negative overlap",
			mutate:  func(c *Config) { c.ChunkOverlap = -1 },
			wantErr: ErrInvalidChunking,
		},
		{
			name: "overlap not smaller than size",
			mutate: func(c *Config) {
				c.ChunkSize = 100
				c.ChunkOverlap = 100
			},
			wantErr: ErrInvalidChunking,
		},
		{
			name:    "depth zero",
			mutate:  func(c *Config) { c.CrawlMaxDepth = 0 },
			wantErr: ErrInvalidCrawlBounds,
		},
		{
			name:    "depth above max",
			mutate:  func(c *Config) { c.CrawlMaxDepth = MaxCrawlDepth + 1 },
			wantErr: ErrInvalidCrawlBounds,
		},
		{
			name:    "page budget zero",
			mutate:  func(c *Config) { c.CrawlMaxPages = 0 },
			wantErr: ErrInvalidCrawlBounds,
		},
		{
			name:    "top-k zero",
			mutate:  func(c *Config) { c.TopK = 0 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "top-k above max",
			mutate:  func(c *Config) { c.TopK = MaxTopK + 1 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "empty data dir",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrInvalidDataDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Load must succeed with no config file present and produce a valid config.
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Provider != ProviderGemini {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderGemini)
	}
	if cfg.ChunkSize != DefaultChunkSize || cfg.ChunkOverlap != DefaultChunkOverlap {
		t.Errorf("chunking defaults = %d/%d, want %d/%d",
			cfg.ChunkSize, cfg.ChunkOverlap, DefaultChunkSize, DefaultChunkOverlap)
	}
	if cfg.DataDir == "" {
		t.Error("DataDir should default to a non-empty path")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RAGNOVA_TOP_K", "5")
	t.Setenv("RAGNOVA_PROVIDER", "ollama")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.TopK != 5 {
		t.Errorf("TopK = %d, want 5 from environment", cfg.TopK)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("Provider = %q, want ollama from environment", cfg.Provider)
	}
}
