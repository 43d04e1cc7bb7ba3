// Package answer produces grounded answers: retrieve context chunks, build a
// prompt around them, generate with the configured model, and record the
// exchange in the user's history.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ErrGenerationFailed indicates the model call failed. There is no retry;
// the caller decides whether to ask again.
var ErrGenerationFailed = errors.New("answer generation failed")

// Generator drafts text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenkitGenerator generates through a Genkit instance with a fixed model.
type GenkitGenerator struct {
	g     *genkit.Genkit
	model string
}

// NewGenkitGenerator creates a generator bound to model, e.g.
// "googleai/gemini-2.5-flash" or "ollama/llama3".
func NewGenkitGenerator(g *genkit.Genkit, model string) *GenkitGenerator {
	return &GenkitGenerator{g: g, model: model}
}

// Generate runs one model call and returns the response text.
func (gg *GenkitGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, gg.g,
		ai.WithModelName(gg.model),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: model returned no text", ErrGenerationFailed)
	}
	return text, nil
}
