package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ragnova/ragnova/internal/history"
	"github.com/ragnova/ragnova/internal/kb"
	"github.com/ragnova/ragnova/internal/log"
	"github.com/ragnova/ragnova/internal/retriever"
	"github.com/ragnova/ragnova/internal/session"
)

// NoContextAnswer is returned verbatim when retrieval finds nothing; no
// model call happens in that case.
const NoContextAnswer = "I could not find relevant content in this knowledge base to answer that question."

// ContextRetriever finds the chunks relevant to a question.
type ContextRetriever interface {
	Retrieve(ctx context.Context, store retriever.Store, query string, opts ...retriever.Option) ([]kb.Result, error)
}

// HistoryAppender records answered questions.
type HistoryAppender interface {
	Append(owner string, e history.Entry) error
}

// AskOptions tune a single question.
type AskOptions struct {
	TopK              int
	Expertise         string
	UsePreviousAnswer bool
	HyDE              bool
	Graph             bool
}

// Answer is the outcome of one question.
type Answer struct {
	Text       string
	References []string
	NoContext  bool
}

// Service answers questions against a knowledge base.
type Service struct {
	retr   ContextRetriever
	gen    Generator
	hist   HistoryAppender
	logger log.Logger
}

// NewService creates a Service. hist may be nil to disable history recording.
func NewService(retr ContextRetriever, gen Generator, hist HistoryAppender, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{retr: retr, gen: gen, hist: hist, logger: logger}
}

// Ask retrieves context for question from store, generates an answer, and
// records the exchange under the session owner. An empty retrieval yields the
// no-context answer without calling the model.
func (s *Service) Ask(ctx context.Context, sess *session.Session, store retriever.Store, question string, opts AskOptions) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}

	retrOpts := []retriever.Option{
		retriever.WithHyDE(opts.HyDE),
		retriever.WithGraph(opts.Graph),
	}
	if opts.TopK > 0 {
		retrOpts = append(retrOpts, retriever.WithTopK(opts.TopK))
	}

	results, err := s.retr.Retrieve(ctx, store, question, retrOpts...)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	if len(results) == 0 {
		ans := &Answer{Text: NoContextAnswer, NoContext: true}
		s.record(sess, question, ans, nil)
		return ans, nil
	}

	contexts := make([]string, 0, len(results))
	for _, r := range results {
		contexts = append(contexts, r.Chunk.Text)
	}

	var previous string
	if opts.UsePreviousAnswer && sess != nil {
		previous = sess.PreviousAnswer()
	}

	prompt := buildPrompt(contexts, question, normalizeExpertise(opts.Expertise), previous)

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	ans := &Answer{Text: text, References: references(results)}
	if sess != nil {
		sess.SetPreviousAnswer(text)
	}
	s.record(sess, question, ans, contexts)
	return ans, nil
}

// references collects one entry per distinct source in first-appearance
// order. Chunks without provenance metadata (graph pseudo-chunks) contribute
// nothing.
func references(results []kb.Result) []string {
	seen := make(map[string]bool, len(results))
	var refs []string
	for _, r := range results {
		ref := r.Chunk.Meta[kb.MetaSourceURL]
		if ref == "" {
			ref = r.Chunk.Meta[kb.MetaFileName]
		}
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}

// record appends to history. Failures are logged, never surfaced: the answer
// already exists.
func (s *Service) record(sess *session.Session, question string, ans *Answer, contexts []string) {
	if s.hist == nil || sess == nil {
		return
	}
	err := s.hist.Append(sess.Owner, history.Entry{
		Question:   question,
		Answer:     ans.Text,
		References: ans.References,
		Contexts:   contexts,
	})
	if err != nil {
		s.logger.Warn("recording history failed", "owner", sess.Owner, "error", err)
	}
}
