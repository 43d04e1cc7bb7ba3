// Package api exposes the question answering and ingestion functionality
// over HTTP.
//
// Endpoints:
//
//	POST   /api/login                      issue a session token
//	POST   /api/logout                     revoke the session token
//	POST   /api/ask                        answer a question against a knowledge base
//	GET    /api/kb/{kb}/documents          list documents
//	POST   /api/kb/{kb}/documents          ingest a file path or URL
//	DELETE /api/kb/{kb}/documents/{doc}    delete a document
//	GET    /health                         liveness probe
//	GET    /ready                          readiness probe
//
// All /api routes except login require "Authorization: Bearer <token>".
//
// File structure:
//   - server.go: server setup, lifecycle, consumer interfaces
//   - middleware.go: logging and panic recovery
//   - auth.go: login/logout and token resolution
//   - ask.go: question answering endpoint
//   - documents.go: document listing, ingestion and deletion
//   - health.go: probes
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ragnova/ragnova/internal/answer"
	"github.com/ragnova/ragnova/internal/config"
	"github.com/ragnova/ragnova/internal/ingest"
	"github.com/ragnova/ragnova/internal/kb"
	"github.com/ragnova/ragnova/internal/log"
	"github.com/ragnova/ragnova/internal/retriever"
	"github.com/ragnova/ragnova/internal/session"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:3500"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to keep slow clients from
	// pinning connections.
	ReadHeaderTimeout = 10 * time.Second

	ReadTimeout  = 30 * time.Second
	WriteTimeout = 120 * time.Second
	IdleTimeout  = 120 * time.Second
)

// KnowledgeBase is what the handlers need from an open store.
type KnowledgeBase interface {
	retriever.Store
	ingest.Store
	ListDocuments() []kb.DocumentSummary
	Delete(ctx context.Context, docID string) error
}

// StoreOpener resolves a knowledge base ID to an open store.
type StoreOpener interface {
	Open(ctx context.Context, id kb.ID) (KnowledgeBase, error)
}

// Asker answers one question against a store.
type Asker interface {
	Ask(ctx context.Context, sess *session.Session, store retriever.Store, question string, opts answer.AskOptions) (*answer.Answer, error)
}

// Ingestor feeds documents into a store.
type Ingestor interface {
	AddFile(ctx context.Context, store ingest.Store, path string) (string, error)
	AddURL(ctx context.Context, store ingest.Store, startURL string, maxDepth, maxPages int) (*ingest.Report, error)
}

// Server is the HTTP server for the REST API.
type Server struct {
	mux      *http.ServeMux
	sessions session.TokenStore
	stores   StoreOpener
	asker    Asker
	ingestor Ingestor
	cfg      *config.Config
	logger   log.Logger
}

// NewServer creates a server with all routes registered.
func NewServer(sessions session.TokenStore, stores StoreOpener, asker Asker, ingestor Ingestor, cfg *config.Config, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		mux:      http.NewServeMux(),
		sessions: sessions,
		stores:   stores,
		asker:    asker,
		ingestor: ingestor,
		cfg:      cfg,
		logger:   logger,
	}

	s.mux.HandleFunc("GET /health", s.liveness)
	s.mux.HandleFunc("GET /ready", s.readiness)
	s.mux.HandleFunc("POST /api/login", s.login)
	s.mux.HandleFunc("POST /api/logout", s.logout)
	s.mux.HandleFunc("POST /api/ask", s.ask)
	s.mux.HandleFunc("GET /api/kb/{kb}/documents", s.listDocuments)
	s.mux.HandleFunc("POST /api/kb/{kb}/documents", s.ingest)
	s.mux.HandleFunc("DELETE /api/kb/{kb}/documents/{doc}", s.deleteDocument)

	return s
}

// Handler returns the handler with middleware applied.
// Middleware order: recovery, then logging, then routes.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, s.recoveryMiddleware, s.loggingMiddleware)
}

// Run starts the server and blocks until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// NewStoreOpener adapts a kb.Manager to the StoreOpener interface.
func NewStoreOpener(m *kb.Manager) StoreOpener {
	return managerOpener{m: m}
}

type managerOpener struct{ m *kb.Manager }

func (o managerOpener) Open(ctx context.Context, id kb.ID) (KnowledgeBase, error) {
	store, err := o.m.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return store, nil
}
