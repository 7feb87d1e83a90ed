package biz

import (
	"context"
	"fmt"
	"strings"

	"github.com/zakon-kg/lawrag/internal/lawrag/store"
	"github.com/zakon-kg/lawrag/pkg/llm"
)

// Synthesizer turns a ranked result set into a final answer.
type Synthesizer struct {
	chat llm.ChatProvider
}

// NewSynthesizer creates an answer synthesizer.
func NewSynthesizer(chat llm.ChatProvider) *Synthesizer {
	return &Synthesizer{chat: chat}
}

// buildContext assembles the context block in result order. Order carries
// relevance information for the model and must be preserved.
func buildContext(results []RankedResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%s\nText: %s", r.Path, r.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Synthesize generates the final answer from the ranked results.
func (s *Synthesizer) Synthesize(ctx context.Context, userQuery string, results []RankedResult, lang store.Language) (string, error) {
	prompt := responsePrompt(userQuery, buildContext(results), lang)

	answer, err := s.chat.Generate(ctx, prompt, legalAssistantInstruction)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisUnavailable, err)
	}

	return answer, nil
}

// FormatCitations renders search-mode output: a language-specific header
// followed by numbered citation paths and passage texts.
func FormatCitations(results []RankedResult, lang store.Language) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(citationsHeader(lang))
	for i, r := range results {
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("%d. %s\n%s", i+1, r.Path, r.Text))
	}
	return sb.String()
}
