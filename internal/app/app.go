// Package app wires the application together: Genkit with the configured AI
// provider, the embedder, the knowledge base manager, ingestion, retrieval
// and answering.
package app

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/ragnova/ragnova/internal/answer"
	"github.com/ragnova/ragnova/internal/config"
	"github.com/ragnova/ragnova/internal/history"
	"github.com/ragnova/ragnova/internal/ingest"
	"github.com/ragnova/ragnova/internal/kb"
	"github.com/ragnova/ragnova/internal/log"
	"github.com/ragnova/ragnova/internal/retriever"
	"github.com/ragnova/ragnova/internal/session"
)

// App is the application container. Build one with Setup and release it with
// Close.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder

	Stores    *kb.Manager
	Ingestor  *ingest.Ingestor
	Retriever *retriever.Retriever
	Answerer  *answer.Service
	Sessions  session.TokenStore
	History   *history.Log

	cancel context.CancelFunc
}

// Close releases held resources, in particular the knowledge base directory
// locks.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Stores != nil {
		if err := a.Stores.Close(); err != nil {
			return err
		}
	}
	return nil
}

// OpenKB opens (or lazily creates) the knowledge base named name for the
// session owner.
func (a *App) OpenKB(ctx context.Context, sess *session.Session, name string) (*kb.Store, error) {
	return a.Stores.Open(ctx, kb.ID{Owner: sess.Owner, Name: name})
}
