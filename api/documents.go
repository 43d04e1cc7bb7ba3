package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ragnova/ragnova/internal/config"
	"github.com/ragnova/ragnova/internal/kb"
	"github.com/ragnova/ragnova/internal/loader"
)

// IngestRequest is the request body for POST /api/kb/{kb}/documents. Exactly
// one of Path or URL must be set.
type IngestRequest struct {
	Path     string `json:"path,omitempty"`
	URL      string `json:"url,omitempty"`
	Depth    int    `json:"depth,omitempty"`
	MaxPages int    `json:"max_pages,omitempty"`
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	store, ok := s.openKB(w, r, sess.Owner, r.PathValue("kb"))
	if !ok {
		return
	}

	docs := store.ListDocuments()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if (req.Path == "") == (req.URL == "") {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "exactly one of path or url must be set")
		return
	}

	store, ok := s.openKB(w, r, sess.Owner, r.PathValue("kb"))
	if !ok {
		return
	}

	if req.Path != "" {
		docID, err := s.ingestor.AddFile(r.Context(), store, req.Path)
		if err != nil {
			switch {
			case errors.Is(err, kb.ErrDuplicateDocument):
				s.writeError(w, http.StatusConflict, "duplicate_document", err.Error())
			case errors.Is(err, loader.ErrUnsupportedFormat):
				s.writeError(w, http.StatusUnsupportedMediaType, "unsupported_format", err.Error())
			case errors.Is(err, loader.ErrConversionFailed):
				s.writeError(w, http.StatusUnprocessableEntity, "conversion_failed", err.Error())
			default:
				s.logger.Error("file ingestion failed", "path", req.Path, "error", err)
				s.writeError(w, http.StatusInternalServerError, "internal", "ingestion failed")
			}
			return
		}
		s.writeJSON(w, http.StatusCreated, map[string]string{"doc_id": docID})
		return
	}

	depth := req.Depth
	if depth <= 0 {
		depth = s.cfg.CrawlMaxDepth
	}
	if depth > config.MaxCrawlDepth {
		depth = config.MaxCrawlDepth
	}
	pages := req.MaxPages
	if pages <= 0 {
		pages = s.cfg.CrawlMaxPages
	}
	if pages > config.MaxCrawlPages {
		pages = config.MaxCrawlPages
	}

	report, err := s.ingestor.AddURL(r.Context(), store, req.URL, depth, pages)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, report)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	store, ok := s.openKB(w, r, sess.Owner, r.PathValue("kb"))
	if !ok {
		return
	}

	docID := r.PathValue("doc")
	if err := store.Delete(r.Context(), docID); err != nil {
		switch {
		case errors.Is(err, kb.ErrUnknownDocument):
			s.writeError(w, http.StatusNotFound, "unknown_document", err.Error())
		case errors.Is(err, kb.ErrDeletionIncomplete):
			s.writeError(w, http.StatusInternalServerError, "deletion_incomplete", err.Error())
		default:
			s.logger.Error("deleting document failed", "doc_id", docID, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal", "deletion failed")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
