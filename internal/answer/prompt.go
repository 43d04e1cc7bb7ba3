package answer

import (
	"fmt"
	"strings"
)

// Expertise levels accepted in the prompt. Unknown values fall back to
// intermediate.
const (
	ExpertiseBeginner     = "beginner"
	ExpertiseIntermediate = "intermediate"
	ExpertiseExpert       = "expert"
)

var expertiseHints = map[string]string{
	ExpertiseBeginner:     "Explain in simple terms, avoid jargon, and define any technical concept you use.",
	ExpertiseIntermediate: "Assume general familiarity with the topic and keep the answer focused.",
	ExpertiseExpert:       "Be precise and technical; skip introductory explanations.",
}

func normalizeExpertise(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if _, ok := expertiseHints[level]; !ok {
		return ExpertiseIntermediate
	}
	return level
}

// buildPrompt assembles the generation prompt from the retrieved context, the
// question, the audience level and, when opted in, the previous answer.
func buildPrompt(contexts []string, question, expertise, previousAnswer string) string {
	var b strings.Builder

	b.WriteString("Answer the question using only the context below. ")
	b.WriteString("If the context does not contain the answer, say so.\n\n")

	b.WriteString("Context:\n")
	for i, c := range contexts {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(c))
	}

	if previousAnswer != "" {
		b.WriteString("\nPrevious answer in this conversation:\n")
		b.WriteString(strings.TrimSpace(previousAnswer))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nQuestion: %s\n", strings.TrimSpace(question))
	fmt.Fprintf(&b, "\nAudience: %s. %s\n", expertise, expertiseHints[expertise])

	return b.String()
}
