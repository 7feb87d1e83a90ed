package biz

import (
	"fmt"
	"sort"

	"github.com/zakon-kg/lawrag/internal/lawrag/store"
)

// RankedResult is a deduplicated candidate with its winning score and the
// composed citation path.
type RankedResult struct {
	Score float32 `json:"score"`
	Path  string  `json:"path"`
	Text  string  `json:"text"`
}

// citationPath composes the display path of a hit.
func citationPath(hit store.CandidateHit) string {
	return fmt.Sprintf("Source: %s\nSection: %s\nChapter: %s\nTitle: %s",
		hit.SourceDoc, hit.Section, hit.Chapter, hit.Title)
}

// Aggregate flattens per-query candidate lists into one ranked result set.
// Candidates are deduplicated by exact passage text keeping the maximum
// score; on an exact score tie the first occurrence wins. The result is
// sorted descending by score and is not capped beyond the per-query topK
// already applied by the store.
func Aggregate(candidateSets [][]store.CandidateHit) []RankedResult {
	type ranked struct {
		RankedResult
		seen int
	}

	best := make(map[string]*ranked)
	order := 0
	for _, set := range candidateSets {
		for _, hit := range set {
			order++
			existing, ok := best[hit.Text]
			if ok && existing.Score >= hit.Score {
				continue
			}
			if ok {
				// higher score replaces, but keeps the original position
				existing.Score = hit.Score
				existing.Path = citationPath(hit)
				continue
			}
			best[hit.Text] = &ranked{
				RankedResult: RankedResult{
					Score: hit.Score,
					Path:  citationPath(hit),
					Text:  hit.Text,
				},
				seen: order,
			}
		}
	}

	results := make([]*ranked, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].seen < results[j].seen
	})

	out := make([]RankedResult, len(results))
	for i, r := range results {
		out[i] = r.RankedResult
	}
	return out
}
