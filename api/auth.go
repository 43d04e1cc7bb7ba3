package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ragnova/ragnova/internal/session"
)

// MaxUserLength bounds the login user name.
const MaxUserLength = 100

// LoginRequest is the request body for POST /api/login.
type LoginRequest struct {
	User string `json:"user"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if len(req.User) > MaxUserLength {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "user too long")
		return
	}

	sess, err := s.sessions.Issue(req.User)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.writeJSON(w, http.StatusCreated, LoginResponse{
		Token:     sess.Token,
		Owner:     sess.Owner,
		CreatedAt: sess.CreatedAt,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Revoke(sess.Token); err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", "revoking session failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authenticate resolves the bearer token to a session. On failure it writes
// a 401 and returns ok=false.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		s.writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, false
	}

	sess, err := s.sessions.Lookup(token)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, "unauthorized", "unknown session")
		return nil, false
	}
	return sess, true
}
