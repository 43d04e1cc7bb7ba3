package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/ragnova/ragnova/internal/answer"
	"github.com/ragnova/ragnova/internal/config"
	"github.com/ragnova/ragnova/internal/crawler"
	"github.com/ragnova/ragnova/internal/history"
	"github.com/ragnova/ragnova/internal/ingest"
	"github.com/ragnova/ragnova/internal/kb"
	"github.com/ragnova/ragnova/internal/loader"
	"github.com/ragnova/ragnova/internal/log"
	"github.com/ragnova/ragnova/internal/retriever"
	"github.com/ragnova/ragnova/internal/session"
)

// Setup creates and initializes the application. Call Close on the returned
// App to release resources.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}

	a := &App{Config: cfg, Logger: logger}

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	a.Stores = kb.NewManager(cfg.DataDir, kb.NewEmbeddingFunc(embedder), logger)

	ld := loader.New(cfg.ConverterCommand, nil, logger)
	cr := crawler.New(crawler.Config{
		Timeout:           cfg.CrawlTimeout,
		RequestsPerSecond: cfg.CrawlRate,
	}, logger)
	a.Ingestor = ingest.New(ld, cr, cfg.ChunkSize, cfg.ChunkOverlap, logger)

	gen := answer.NewGenkitGenerator(g, modelRef(cfg))
	a.Retriever = retriever.New(gen, logger)
	a.History = history.NewLog(cfg.HistoryDir, logger)
	a.Answerer = answer.NewService(a.Retriever, gen, a.History, logger)
	a.Sessions = session.NewMemoryStore()

	_, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	return a, nil
}

// provideGenkit initializes Genkit with the configured AI provider. Ollama
// needs explicit model and embedder registration; Gemini discovers models
// itself.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)
		return g, nil

	default: // gemini
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized genkit with gemini provider", "model", cfg.ModelName)
		return g, nil
	}
}

// provideEmbedder looks up the embedder registered by the provider plugin.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// modelRef returns the provider-qualified model name Genkit expects. Names
// that already carry a provider prefix pass through unchanged.
func modelRef(cfg *config.Config) string {
	if strings.Contains(cfg.ModelName, "/") {
		return cfg.ModelName
	}
	if cfg.Provider == config.ProviderOllama {
		return "ollama/" + cfg.ModelName
	}
	return "googleai/" + cfg.ModelName
}
