package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakon-kg/lawrag/internal/lawrag/store"
)

func TestBuildContextPreservesOrder(t *testing.T) {
	results := []RankedResult{
		{Score: 0.9, Path: "Source: a\nSection: s1\nChapter: c1\nTitle: t1", Text: "first"},
		{Score: 0.5, Path: "Source: b\nSection: s2\nChapter: c2\nTitle: t2", Text: "second"},
	}

	context := buildContext(results)
	assert.Equal(t,
		"Source: a\nSection: s1\nChapter: c1\nTitle: t1\nText: first\n\n"+
			"Source: b\nSection: s2\nChapter: c2\nTitle: t2\nText: second",
		context)
}

func TestSynthesizeBuildsPrompt(t *testing.T) {
	var gotPrompt, gotSystem string
	chat := &mockChat{
		generateFn: func(_ context.Context, prompt, systemPrompt string) (string, error) {
			gotPrompt = prompt
			gotSystem = systemPrompt
			return "ответ", nil
		},
	}
	syn := NewSynthesizer(chat)

	answer, err := syn.Synthesize(context.Background(), "вопрос", []RankedResult{
		{Score: 0.9, Path: "Source: a\nSection: s\nChapter: c\nTitle: t", Text: "текст статьи"},
	}, store.LanguageRU)

	require.NoError(t, err)
	assert.Equal(t, "ответ", answer)
	assert.Contains(t, gotPrompt, "Вопрос: вопрос")
	assert.Contains(t, gotPrompt, "текст статьи")
	assert.Contains(t, gotSystem, "legal assistant")
}

func TestSynthesizeProviderError(t *testing.T) {
	chat := &mockChat{
		generateFn: func(context.Context, string, string) (string, error) {
			return "", errors.New("provider down")
		},
	}
	syn := NewSynthesizer(chat)

	_, err := syn.Synthesize(context.Background(), "вопрос", nil, store.LanguageRU)
	assert.ErrorIs(t, err, ErrSynthesisUnavailable)
}

func TestFormatCitations(t *testing.T) {
	results := []RankedResult{
		{Score: 0.9, Path: "Source: a\nSection: s\nChapter: c\nTitle: t", Text: "первый"},
		{Score: 0.5, Path: "Source: b\nSection: s\nChapter: c\nTitle: t", Text: "второй"},
	}

	out := FormatCitations(results, store.LanguageRU)
	assert.Equal(t,
		"Найденные статьи:\n\n"+
			"1. Source: a\nSection: s\nChapter: c\nTitle: t\nпервый\n\n"+
			"2. Source: b\nSection: s\nChapter: c\nTitle: t\nвторой",
		out)
}

func TestFormatCitationsEmpty(t *testing.T) {
	assert.Empty(t, FormatCitations(nil, store.LanguageRU))
	assert.Empty(t, FormatCitations([]RankedResult{}, store.LanguageKG))
}
