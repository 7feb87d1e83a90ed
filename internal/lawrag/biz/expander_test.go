package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakon-kg/lawrag/internal/lawrag/store"
	"github.com/zakon-kg/lawrag/pkg/llm"
)

func TestExpandTruncatesToConfiguredCount(t *testing.T) {
	chat := &mockChat{structuredFn: structuredQuestions("q1", "q2", "q3", "q4", "q5")}
	expander := NewExpander(chat, 3)

	queries, err := expander.Expand(context.Background(), "вопрос", store.LanguageRU)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2", "q3"}, queries)
}

func TestExpandFewerThanRequested(t *testing.T) {
	chat := &mockChat{structuredFn: structuredQuestions("q1")}
	expander := NewExpander(chat, 3)

	queries, err := expander.Expand(context.Background(), "вопрос", store.LanguageRU)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, queries)
}

func TestExpandProviderError(t *testing.T) {
	chat := &mockChat{
		structuredFn: func(context.Context, *llm.StructuredRequest, any) error {
			return errors.New("provider down")
		},
	}
	expander := NewExpander(chat, 3)

	_, err := expander.Expand(context.Background(), "вопрос", store.LanguageRU)
	assert.ErrorIs(t, err, ErrExpansionFailed)
}

func TestExpandZeroQuestions(t *testing.T) {
	chat := &mockChat{structuredFn: structuredQuestions()}
	expander := NewExpander(chat, 3)

	_, err := expander.Expand(context.Background(), "вопрос", store.LanguageRU)
	assert.ErrorIs(t, err, ErrExpansionFailed)
}

func TestExpandSkipsEmptyQuestions(t *testing.T) {
	chat := &mockChat{structuredFn: structuredQuestions("", "q1", "")}
	expander := NewExpander(chat, 3)

	queries, err := expander.Expand(context.Background(), "вопрос", store.LanguageRU)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, queries)
}

func TestExpandPromptLanguage(t *testing.T) {
	var prompts []string
	chat := &mockChat{
		structuredFn: func(ctx context.Context, req *llm.StructuredRequest, out any) error {
			prompts = append(prompts, req.Prompt)
			return structuredQuestions("q")(ctx, req, out)
		},
	}
	expander := NewExpander(chat, 3)

	_, err := expander.Expand(context.Background(), "вопрос", store.LanguageRU)
	require.NoError(t, err)
	_, err = expander.Expand(context.Background(), "суроо", store.LanguageKG)
	require.NoError(t, err)

	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "Вопрос: вопрос")
	assert.Contains(t, prompts[1], "Суроо: суроо")
}
