package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zakon-kg/lawrag/internal/lawrag/store"
)

func hit(score float32, text string) store.CandidateHit {
	return store.CandidateHit{
		Score:     score,
		SourceDoc: "doc",
		Section:   "section",
		Chapter:   "chapter",
		Title:     "title",
		Text:      text,
	}
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([][]store.CandidateHit{}))
	assert.Empty(t, Aggregate([][]store.CandidateHit{{}, {}}))
}

func TestAggregateDeduplicatesByText(t *testing.T) {
	sets := [][]store.CandidateHit{
		{hit(0.5, "a"), hit(0.9, "b")},
		{hit(0.8, "a"), hit(0.3, "c")},
	}

	results := Aggregate(sets)
	require.Len(t, results, 3)

	// "a" keeps the maximum of its two scores
	for _, r := range results {
		if r.Text == "a" {
			assert.Equal(t, float32(0.8), r.Score)
		}
	}
}

func TestAggregateSortedDescending(t *testing.T) {
	sets := [][]store.CandidateHit{
		{hit(0.2, "low"), hit(0.9, "high")},
		{hit(0.5, "mid")},
	}

	results := Aggregate(sets)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
	assert.Equal(t, "high", results[0].Text)
	assert.Equal(t, "low", results[2].Text)
}

func TestAggregateTieBreakFirstSeen(t *testing.T) {
	first := hit(0.7, "same-score-first")
	second := hit(0.7, "same-score-second")

	results := Aggregate([][]store.CandidateHit{{first}, {second}})
	require.Len(t, results, 2)
	assert.Equal(t, "same-score-first", results[0].Text)
	assert.Equal(t, "same-score-second", results[1].Text)
}

func TestAggregateDuplicateEqualScoreKeepsFirst(t *testing.T) {
	first := store.CandidateHit{Score: 0.7, SourceDoc: "doc-one", Text: "dup"}
	second := store.CandidateHit{Score: 0.7, SourceDoc: "doc-two", Text: "dup"}

	results := Aggregate([][]store.CandidateHit{{first, second}})
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Path, "doc-one")
}

func TestAggregateAllIdenticalText(t *testing.T) {
	sets := [][]store.CandidateHit{
		{hit(0.1, "x"), hit(0.4, "x")},
		{hit(0.3, "x")},
	}

	results := Aggregate(sets)
	require.Len(t, results, 1)
	assert.Equal(t, float32(0.4), results[0].Score)
}

func TestAggregateIdempotent(t *testing.T) {
	sets := [][]store.CandidateHit{
		{hit(0.5, "a"), hit(0.9, "b"), hit(0.5, "a")},
		{hit(0.7, "c")},
	}

	once := Aggregate(sets)

	rerun := make([][]store.CandidateHit, 1)
	for _, r := range once {
		rerun[0] = append(rerun[0], store.CandidateHit{
			Score:     r.Score,
			SourceDoc: "doc",
			Section:   "section",
			Chapter:   "chapter",
			Title:     "title",
			Text:      r.Text,
		})
	}
	twice := Aggregate(rerun)

	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.Equal(t, once[i].Text, twice[i].Text)
		assert.Equal(t, once[i].Score, twice[i].Score)
	}
}

func TestCitationPath(t *testing.T) {
	path := citationPath(store.CandidateHit{
		SourceDoc: "civil_code.pdf",
		Section:   "Section I",
		Chapter:   "Chapter 2",
		Title:     "Article 15",
	})
	assert.Equal(t, "Source: civil_code.pdf\nSection: Section I\nChapter: Chapter 2\nTitle: Article 15", path)
}
