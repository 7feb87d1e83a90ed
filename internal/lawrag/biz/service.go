package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"

	"github.com/zakon-kg/lawrag/internal/lawrag/metrics"
	"github.com/zakon-kg/lawrag/internal/lawrag/store"
	"github.com/zakon-kg/lawrag/pkg/llm"
	"github.com/zakon-kg/lawrag/pkg/pool"
)

// Mode selects the retrieval strategy.
type Mode string

const (
	// ModeBase embeds the user query directly.
	ModeBase Mode = "base"
	// ModePro expands the query into several retrieval queries first.
	ModePro Mode = "pro"
	// ModeSearch returns formatted citations without synthesized prose.
	ModeSearch Mode = "search"
)

// ParseMode validates a mode string, defaulting to base when empty.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeBase):
		return ModeBase, nil
	case string(ModePro):
		return ModePro, nil
	case string(ModeSearch):
		return ModeSearch, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", s)
	}
}

// Service defines the retrieval service interface.
type Service interface {
	// GetResponseText answers a text query. Stage failures are absorbed,
	// an empty string means no answer.
	GetResponseText(ctx context.Context, query string, mode Mode, lang store.Language) string

	// GetResponseFromDocument answers a query about an uploaded document.
	GetResponseFromDocument(ctx context.Context, query string, document []byte, mimeType string, mode Mode, lang store.Language) string

	// GetResponseFromImage answers a query about a photographed document.
	GetResponseFromImage(ctx context.Context, query string, image []byte, mimeType string, mode Mode, lang store.Language) string

	// Stats reports collection sizes and business counters.
	Stats(ctx context.Context) (map[string]any, error)
}

// ServiceConfig configures the search service.
type ServiceConfig struct {
	// TopK is the per-query hit cap.
	TopK int
	// Questions is the pro-mode expansion count.
	Questions int
}

// SearchService orchestrates the retrieval pipeline.
type SearchService struct {
	store       store.VectorStore
	embedder    llm.EmbeddingProvider
	expander    *Expander
	extractor   *Extractor
	synthesizer *Synthesizer
	cache       *AnswerCache
	workers     *pool.Pool
	metrics     *metrics.SearchMetrics
	topK        int
}

// NewSearchService creates the search service.
func NewSearchService(
	vectorStore store.VectorStore,
	embedder llm.EmbeddingProvider,
	chat llm.ChatProvider,
	cache *AnswerCache,
	workers *pool.Pool,
	config *ServiceConfig,
) *SearchService {
	if config == nil {
		config = &ServiceConfig{}
	}
	topK := config.TopK
	if topK <= 0 {
		topK = 3
	}

	return &SearchService{
		store:       vectorStore,
		embedder:    embedder,
		expander:    NewExpander(chat, config.Questions),
		extractor:   NewExtractor(chat),
		synthesizer: NewSynthesizer(chat),
		cache:       cache,
		workers:     workers,
		metrics:     metrics.GetSearchMetrics(),
		topK:        topK,
	}
}

// GetResponseText answers a text query.
func (s *SearchService) GetResponseText(ctx context.Context, query string, mode Mode, lang store.Language) string {
	s.metrics.RecordRequest(string(mode), "text")

	if s.cache != nil {
		if answer, ok := s.cache.Get(ctx, lang, mode, query); ok {
			s.metrics.RecordCache(true)
			return answer
		}
		s.metrics.RecordCache(false)
	}

	queries := []string{query}
	if mode == ModePro {
		expanded, err := s.expander.Expand(ctx, query, lang)
		if err != nil {
			logger.Warnw("query expansion failed", "error", err.Error(), "lang", string(lang))
			s.metrics.RecordStageError(metrics.StageExpansion)
			s.metrics.RecordEmptyAnswer()
			return ""
		}
		queries = expanded
	}

	results := Aggregate(s.searchQueries(ctx, queries, lang))
	if len(results) == 0 {
		s.metrics.RecordEmptyAnswer()
		return ""
	}

	answer := s.finish(ctx, query, results, mode, lang)
	if answer != "" && s.cache != nil {
		s.cache.Set(ctx, lang, mode, query, answer)
	}
	return answer
}

// GetResponseFromDocument answers a query about an uploaded document.
func (s *SearchService) GetResponseFromDocument(ctx context.Context, query string, document []byte, mimeType string, mode Mode, lang store.Language) string {
	s.metrics.RecordRequest(string(mode), "document")

	paragraphs, err := s.extractor.ExtractDocument(ctx, document, mimeType)
	return s.respondFromParagraphs(ctx, query, paragraphs, err, mode, lang)
}

// GetResponseFromImage answers a query about a photographed document.
func (s *SearchService) GetResponseFromImage(ctx context.Context, query string, image []byte, mimeType string, mode Mode, lang store.Language) string {
	s.metrics.RecordRequest(string(mode), "image")

	paragraphs, err := s.extractor.ExtractImage(ctx, image, mimeType)
	return s.respondFromParagraphs(ctx, query, paragraphs, err, mode, lang)
}

func (s *SearchService) respondFromParagraphs(ctx context.Context, query string, paragraphs []string, extractErr error, mode Mode, lang store.Language) string {
	if extractErr != nil {
		logger.Warnw("content extraction failed", "error", extractErr.Error(), "lang", string(lang))
		s.metrics.RecordStageError(metrics.StageExtraction)
		s.metrics.RecordEmptyAnswer()
		return ""
	}

	if query == "" {
		query = defaultDocumentQuery(lang)
	}
	userInput := concatQueryAndDoc(query, paragraphs)

	var candidateSets [][]store.CandidateHit
	if mode == ModePro {
		candidateSets = s.fanout(ctx, paragraphs, lang)
	} else {
		candidateSets = s.searchQueries(ctx, paragraphs, lang)
	}

	results := Aggregate(candidateSets)
	if len(results) == 0 {
		s.metrics.RecordEmptyAnswer()
		return ""
	}

	return s.finish(ctx, userInput, results, mode, lang)
}

// finish turns the ranked results into the final answer: formatted
// citations in search mode, a synthesized answer otherwise.
func (s *SearchService) finish(ctx context.Context, query string, results []RankedResult, mode Mode, lang store.Language) string {
	if mode == ModeSearch {
		return FormatCitations(results, lang)
	}

	start := time.Now()
	answer, err := s.synthesizer.Synthesize(ctx, query, results, lang)
	if err != nil {
		logger.Warnw("answer synthesis failed", "error", err.Error(), "lang", string(lang))
		s.metrics.RecordStageError(metrics.StageSynthesis)
		s.metrics.RecordEmptyAnswer()
		return ""
	}
	s.metrics.RecordSynthesisDuration(time.Since(start))

	if answer == "" {
		s.metrics.RecordEmptyAnswer()
	}
	return answer
}

// searchQueries embeds the queries and retrieves candidates for each.
// Failures are logged and yield no candidates.
func (s *SearchService) searchQueries(ctx context.Context, queries []string, lang store.Language) [][]store.CandidateHit {
	if len(queries) == 0 {
		return nil
	}

	vectors, err := s.embedder.Embed(ctx, queries, true)
	if err != nil {
		logger.Warnw("embedding failed",
			"error", fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err).Error(),
			"queries", len(queries),
		)
		s.metrics.RecordStageError(metrics.StageEmbedding)
		return nil
	}

	start := time.Now()
	candidateSets, err := s.store.Search(ctx, lang, vectors, s.topK)
	if err != nil {
		logger.Warnw("vector search failed",
			"error", fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err).Error(),
			"lang", string(lang),
		)
		s.metrics.RecordStageError(metrics.StageRetrieval)
		return nil
	}
	s.metrics.RecordRetrievalDuration(time.Since(start))

	return candidateSets
}

// fanout runs one expand-embed-retrieve sub-pipeline per paragraph on the
// worker pool. A failed paragraph contributes nothing and does not abort
// its siblings. Results are merged in paragraph order, not completion
// order, so equal-score tie-breaking stays deterministic.
func (s *SearchService) fanout(ctx context.Context, paragraphs []string, lang store.Language) [][]store.CandidateHit {
	perParagraph := make([][][]store.CandidateHit, len(paragraphs))

	tasks := make([]func(), len(paragraphs))
	for i, paragraph := range paragraphs {
		i, paragraph := i, paragraph
		tasks[i] = func() {
			queries, err := s.expander.Expand(ctx, paragraph, lang)
			if err != nil {
				logger.Warnw("paragraph expansion failed", "error", err.Error(), "lang", string(lang))
				s.metrics.RecordStageError(metrics.StageExpansion)
				return
			}
			perParagraph[i] = s.searchQueries(ctx, queries, lang)
		}
	}

	if s.workers != nil {
		s.workers.SubmitWait(tasks)
	} else {
		for _, task := range tasks {
			task()
		}
	}

	var combined [][]store.CandidateHit
	for _, sets := range perParagraph {
		combined = append(combined, sets...)
	}
	return combined
}

// Stats reports collection sizes and business counters.
func (s *SearchService) Stats(ctx context.Context) (map[string]any, error) {
	collections, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"collections": collections,
		"metrics":     s.metrics.Snapshot(),
	}, nil
}
