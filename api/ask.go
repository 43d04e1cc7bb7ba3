package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ragnova/ragnova/internal/answer"
	"github.com/ragnova/ragnova/internal/config"
	"github.com/ragnova/ragnova/internal/kb"
)

// MaxQuestionLength bounds the question body.
const MaxQuestionLength = 10000

// AskRequest is the request body for POST /api/ask.
type AskRequest struct {
	KB                string `json:"kb"`
	Question          string `json:"question"`
	TopK              int    `json:"top_k,omitempty"`
	Expertise         string `json:"expertise,omitempty"`
	UsePreviousAnswer bool   `json:"use_previous_answer,omitempty"`
}

// AskResponse is the answer payload.
type AskResponse struct {
	Answer     string   `json:"answer"`
	References []string `json:"references,omitempty"`
	NoContext  bool     `json:"no_context,omitempty"`
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Question == "" || len(req.Question) > MaxQuestionLength {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "question missing or too long")
		return
	}
	if req.TopK > config.MaxTopK {
		req.TopK = config.MaxTopK
	}

	store, ok := s.openKB(w, r, sess.Owner, req.KB)
	if !ok {
		return
	}

	ans, err := s.asker.Ask(r.Context(), sess, store, req.Question, answer.AskOptions{
		TopK:              req.TopK,
		Expertise:         req.Expertise,
		UsePreviousAnswer: req.UsePreviousAnswer,
		HyDE:              s.cfg.EnableHyDE,
		Graph:             s.cfg.EnableGraph,
	})
	if err != nil {
		switch {
		case errors.Is(err, answer.ErrGenerationFailed):
			s.writeError(w, http.StatusBadGateway, "generation_failed", err.Error())
		default:
			s.logger.Error("answering failed", "kb", req.KB, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal", "answering failed")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, AskResponse{
		Answer:     ans.Text,
		References: ans.References,
		NoContext:  ans.NoContext,
	})
}

// openKB opens the named knowledge base for owner, mapping errors to HTTP
// statuses.
func (s *Server) openKB(w http.ResponseWriter, r *http.Request, owner, name string) (KnowledgeBase, bool) {
	store, err := s.stores.Open(r.Context(), kb.ID{Owner: owner, Name: name})
	switch {
	case err == nil:
		return store, true
	case errors.Is(err, kb.ErrInvalidID):
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, kb.ErrStoreBusy):
		s.writeError(w, http.StatusLocked, "store_busy", err.Error())
	default:
		s.logger.Error("opening knowledge base failed", "kb", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal", "opening knowledge base failed")
	}
	return nil, false
}
