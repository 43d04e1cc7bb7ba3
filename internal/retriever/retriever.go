// Package retriever turns a question into the context chunks most relevant
// to it. On top of plain similarity search it supports two optional
// augmentations: HyDE query expansion, where a model drafts a hypothetical
// answer that is appended to the query before embedding, and an entity
// co-occurrence graph that pulls in chunks about concepts related to the ones
// the question mentions.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragnova/ragnova/internal/kb"
	"github.com/ragnova/ragnova/internal/log"
)

// hydePrompt is the instruction used to draft a hypothetical answer for
// query expansion.
const hydePrompt = "Generate a hypothetical answer to: %s"

// Metadata stamped on chunks contributed by the entity graph rather than the
// vector search.
const (
	MetaAugmented = "augmented"
	MetaEntity    = "entity"

	augmentedGraph = "entity-graph"
)

// Generator drafts text from a prompt. The answering model satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store is the slice of the knowledge base the retriever needs.
type Store interface {
	Search(ctx context.Context, query string, opts ...kb.SearchOption) ([]kb.Result, error)
	AllChunkTexts(ctx context.Context) ([]string, error)
}

// Option configures a single retrieval.
type Option func(*config)

type config struct {
	topK        int
	enableHyDE  bool
	enableGraph bool
}

// WithTopK caps the number of returned chunks. Default is 3.
func WithTopK(k int) Option {
	return func(c *config) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithHyDE toggles hypothetical-answer query expansion.
func WithHyDE(on bool) Option {
	return func(c *config) { c.enableHyDE = on }
}

// WithGraph toggles entity co-occurrence augmentation.
func WithGraph(on bool) Option {
	return func(c *config) { c.enableGraph = on }
}

// Retriever runs retrievals against knowledge base stores. A nil generator
// disables HyDE regardless of options.
type Retriever struct {
	gen    Generator
	logger log.Logger
}

// New creates a Retriever. gen may be nil when no model is available.
func New(gen Generator, logger log.Logger) *Retriever {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{gen: gen, logger: logger}
}

// Retrieve returns up to top-k chunks relevant to query from store. An empty
// knowledge base yields an empty result, never an error. HyDE failures
// degrade silently to the raw query.
func (r *Retriever) Retrieve(ctx context.Context, store Store, query string, opts ...Option) ([]kb.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	cfg := &config{topK: 3}
	for _, opt := range opts {
		opt(cfg)
	}

	searchText := query
	if cfg.enableHyDE && r.gen != nil {
		if hypothetical := r.expand(ctx, query); hypothetical != "" {
			searchText = query + "\n" + hypothetical
		}
	}

	hits, err := store.Search(ctx, searchText, kb.WithTopK(cfg.topK))
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	if !cfg.enableGraph {
		return hits, nil
	}
	return r.augment(ctx, store, query, hits, cfg.topK)
}

// expand drafts a hypothetical answer to query. Any failure returns "" so the
// caller falls back to the raw query.
func (r *Retriever) expand(ctx context.Context, query string) string {
	hypothetical, err := r.gen.Generate(ctx, fmt.Sprintf(hydePrompt, query))
	if err != nil {
		r.logger.Warn("hypothetical answer generation failed, using raw query", "error", err)
		return ""
	}
	return strings.TrimSpace(hypothetical)
}

// augment prepends chunks about entities related to the ones the query
// mentions, then dedups and truncates to top-k. Query words are matched
// case-insensitively against graph nodes, so "what happened to acme?" reaches
// the Acme node. When a graph chunk duplicates a similarity hit the hit wins,
// keeping its score.
func (r *Retriever) augment(ctx context.Context, store Store, query string, hits []kb.Result, topK int) ([]kb.Result, error) {
	texts, err := store.AllChunkTexts(ctx)
	if err != nil {
		r.logger.Warn("reading chunks for entity graph failed, skipping augmentation", "error", err)
		return hits, nil
	}
	if len(texts) == 0 {
		return hits, nil
	}

	graph := buildEntityGraph(texts)
	matched := graph.match(query)
	if len(matched) == 0 {
		return hits, nil
	}
	related := graph.neighbors(matched)
	if len(related) == 0 {
		return hits, nil
	}

	hitTexts := make(map[string]bool, len(hits))
	for _, h := range hits {
		hitTexts[h.Chunk.Text] = true
	}

	var augmented []kb.Result
	seen := make(map[string]bool)
	for _, entity := range related {
		text := graph.chunkFor(entity)
		if text == "" || hitTexts[text] || seen[text] {
			continue
		}
		seen[text] = true
		augmented = append(augmented, kb.Result{
			Chunk: kb.Chunk{
				Text: text,
				Meta: map[string]string{
					MetaAugmented: augmentedGraph,
					MetaEntity:    entity,
				},
			},
		})
	}

	if len(augmented) > 0 {
		r.logger.Debug("entity graph augmentation",
			"matched_nodes", len(matched), "related", len(related), "added", len(augmented))
	}

	combined := append(augmented, hits...)
	if len(combined) > topK {
		combined = combined[:topK]
	}
	return combined, nil
}
