package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for out-of-range or inconsistent values.
// It returns the first problem found, wrapped around the matching sentinel.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (must be %q or %q)",
			ErrInvalidProvider, c.Provider, ProviderGemini, ProviderOllama)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidEmbedderModel)
	}
	if c.Provider == ProviderOllama && strings.TrimSpace(c.OllamaHost) == "" {
		return fmt.Errorf("%w: empty host with ollama provider", ErrInvalidOllamaHost)
	}

	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk_size %d must be positive", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk_overlap %d must not be negative", ErrInvalidChunking, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be smaller than chunk_size %d",
			ErrInvalidChunking, c.ChunkOverlap, c.ChunkSize)
	}

	if c.CrawlMaxDepth < 1 || c.CrawlMaxDepth > MaxCrawlDepth {
		return fmt.Errorf("%w: crawl_max_depth %d outside [1, %d]",
			ErrInvalidCrawlBounds, c.CrawlMaxDepth, MaxCrawlDepth)
	}
	if c.CrawlMaxPages < 1 || c.CrawlMaxPages > MaxCrawlPages {
		return fmt.Errorf("%w: crawl_max_pages %d outside [1, %d]",
			ErrInvalidCrawlBounds, c.CrawlMaxPages, MaxCrawlPages)
	}
	if c.CrawlTimeout <= 0 {
		return fmt.Errorf("%w: crawl_timeout must be positive", ErrInvalidCrawlBounds)
	}
	if c.CrawlRate <= 0 {
		return fmt.Errorf("%w: crawl_rate must be positive", ErrInvalidCrawlBounds)
	}

	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: top_k %d outside [1, %d]", ErrInvalidTopK, c.TopK, MaxTopK)
	}

	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDataDir)
	}

	return nil
}
