package biz

import (
	"context"
	"fmt"

	"github.com/zakon-kg/lawrag/internal/lawrag/store"
	"github.com/zakon-kg/lawrag/pkg/llm"
)

// Expander rewrites a user query into several retrieval queries using a
// schema-constrained LLM call.
type Expander struct {
	chat      llm.ChatProvider
	questions int
}

// NewExpander creates a query expander producing at most questions queries.
func NewExpander(chat llm.ChatProvider, questions int) *Expander {
	if questions <= 0 {
		questions = 3
	}
	return &Expander{chat: chat, questions: questions}
}

type expandedQuestions struct {
	Questions []struct {
		Question string `json:"question"`
	} `json:"questions"`
}

// Expand generates retrieval queries for the user query. The result is
// truncated to the configured count. Provider failures and responses with
// zero questions yield an error so the caller can fall back to nothing.
func (e *Expander) Expand(ctx context.Context, userQuery string, lang store.Language) ([]string, error) {
	req := &llm.StructuredRequest{
		Instructions: legalAssistantInstruction,
		Prompt:       questionsPrompt(userQuery, lang),
		Schema: llm.StructuredSchema{
			Name:   "questions",
			Schema: questionsSchema,
		},
	}

	var parsed expandedQuestions
	if err := e.chat.GenerateStructured(ctx, req, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExpansionFailed, err)
	}

	queries := make([]string, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		if q.Question == "" {
			continue
		}
		queries = append(queries, q.Question)
		if len(queries) == e.questions {
			break
		}
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: model returned no questions", ErrExpansionFailed)
	}

	return queries, nil
}
