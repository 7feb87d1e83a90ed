// Package metrics collects business metrics for the retrieval service.
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Stage names a pipeline stage for error accounting.
type Stage string

const (
	StageExpansion  Stage = "expansion"
	StageEmbedding  Stage = "embedding"
	StageRetrieval  Stage = "retrieval"
	StageExtraction Stage = "extraction"
	StageSynthesis  Stage = "synthesis"
)

// SearchMetrics holds atomic counters for the retrieval pipeline.
type SearchMetrics struct {
	// requests by mode
	requestsBase   uint64
	requestsPro    uint64
	requestsSearch uint64

	// requests by input kind
	requestsText     uint64
	requestsDocument uint64
	requestsImage    uint64

	// cache
	cacheHits   uint64
	cacheMisses uint64

	// outcomes
	emptyAnswers uint64

	// absorbed stage errors
	expansionErrors  uint64
	embeddingErrors  uint64
	retrievalErrors  uint64
	extractionErrors uint64
	synthesisErrors  uint64

	// cumulative durations in seconds
	retrievalDuration float64
	synthesisDuration float64

	startTime  time.Time
	durationMu sync.Mutex
}

var (
	globalMetrics *SearchMetrics
	metricsOnce   sync.Once
)

// GetSearchMetrics returns the global metrics instance.
func GetSearchMetrics() *SearchMetrics {
	metricsOnce.Do(func() {
		globalMetrics = &SearchMetrics{
			startTime: time.Now(),
		}
	})
	return globalMetrics
}

// RecordRequest counts a request by mode and input kind.
func (m *SearchMetrics) RecordRequest(mode, kind string) {
	switch mode {
	case "pro":
		atomic.AddUint64(&m.requestsPro, 1)
	case "search":
		atomic.AddUint64(&m.requestsSearch, 1)
	default:
		atomic.AddUint64(&m.requestsBase, 1)
	}
	switch kind {
	case "document":
		atomic.AddUint64(&m.requestsDocument, 1)
	case "image":
		atomic.AddUint64(&m.requestsImage, 1)
	default:
		atomic.AddUint64(&m.requestsText, 1)
	}
}

// RecordCache counts a cache lookup.
func (m *SearchMetrics) RecordCache(hit bool) {
	if hit {
		atomic.AddUint64(&m.cacheHits, 1)
	} else {
		atomic.AddUint64(&m.cacheMisses, 1)
	}
}

// RecordEmptyAnswer counts a request that produced no answer.
func (m *SearchMetrics) RecordEmptyAnswer() {
	atomic.AddUint64(&m.emptyAnswers, 1)
}

// RecordStageError counts an absorbed stage failure.
func (m *SearchMetrics) RecordStageError(stage Stage) {
	switch stage {
	case StageExpansion:
		atomic.AddUint64(&m.expansionErrors, 1)
	case StageEmbedding:
		atomic.AddUint64(&m.embeddingErrors, 1)
	case StageRetrieval:
		atomic.AddUint64(&m.retrievalErrors, 1)
	case StageExtraction:
		atomic.AddUint64(&m.extractionErrors, 1)
	case StageSynthesis:
		atomic.AddUint64(&m.synthesisErrors, 1)
	}
}

// RecordRetrievalDuration accumulates retrieval time.
func (m *SearchMetrics) RecordRetrievalDuration(d time.Duration) {
	m.durationMu.Lock()
	m.retrievalDuration += d.Seconds()
	m.durationMu.Unlock()
}

// RecordSynthesisDuration accumulates synthesis time.
func (m *SearchMetrics) RecordSynthesisDuration(d time.Duration) {
	m.durationMu.Lock()
	m.synthesisDuration += d.Seconds()
	m.durationMu.Unlock()
}

// Snapshot returns all counters as a flat map for the stats endpoint.
func (m *SearchMetrics) Snapshot() map[string]any {
	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	synthesisDuration := m.synthesisDuration
	m.durationMu.Unlock()

	hits := atomic.LoadUint64(&m.cacheHits)
	misses := atomic.LoadUint64(&m.cacheMisses)
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	return map[string]any{
		"requests_base":                      atomic.LoadUint64(&m.requestsBase),
		"requests_pro":                       atomic.LoadUint64(&m.requestsPro),
		"requests_search":                    atomic.LoadUint64(&m.requestsSearch),
		"requests_text":                      atomic.LoadUint64(&m.requestsText),
		"requests_document":                  atomic.LoadUint64(&m.requestsDocument),
		"requests_image":                     atomic.LoadUint64(&m.requestsImage),
		"cache_hits":                         hits,
		"cache_misses":                       misses,
		"cache_hit_rate":                     hitRate,
		"empty_answers":                      atomic.LoadUint64(&m.emptyAnswers),
		"expansion_errors":                   atomic.LoadUint64(&m.expansionErrors),
		"embedding_errors":                   atomic.LoadUint64(&m.embeddingErrors),
		"retrieval_errors":                   atomic.LoadUint64(&m.retrievalErrors),
		"extraction_errors":                  atomic.LoadUint64(&m.extractionErrors),
		"synthesis_errors":                   atomic.LoadUint64(&m.synthesisErrors),
		"retrieval_duration_seconds_total":   retrievalDuration,
		"synthesis_duration_seconds_total":   synthesisDuration,
		"uptime_seconds":                     time.Since(m.startTime).Seconds(),
	}
}

// Export renders the counters in Prometheus text format.
func (m *SearchMetrics) Export(namespace, subsystem string) string {
	prefix := namespace
	if subsystem != "" {
		prefix = prefix + "_" + subsystem
	}

	var sb strings.Builder
	writeCounter := func(name, help string, value uint64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s counter\n", prefix, name))
		sb.WriteString(fmt.Sprintf("%s_%s %d\n\n", prefix, name, value))
	}
	writeGauge := func(name, help string, value float64) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s gauge\n", prefix, name))
		sb.WriteString(fmt.Sprintf("%s_%s %.6f\n\n", prefix, name, value))
	}

	writeCounter("requests_base_total", "Total base-mode requests.", atomic.LoadUint64(&m.requestsBase))
	writeCounter("requests_pro_total", "Total pro-mode requests.", atomic.LoadUint64(&m.requestsPro))
	writeCounter("requests_search_total", "Total search-mode requests.", atomic.LoadUint64(&m.requestsSearch))
	writeCounter("requests_text_total", "Total text requests.", atomic.LoadUint64(&m.requestsText))
	writeCounter("requests_document_total", "Total document requests.", atomic.LoadUint64(&m.requestsDocument))
	writeCounter("requests_image_total", "Total image requests.", atomic.LoadUint64(&m.requestsImage))
	writeCounter("cache_hits_total", "Number of answer cache hits.", atomic.LoadUint64(&m.cacheHits))
	writeCounter("cache_misses_total", "Number of answer cache misses.", atomic.LoadUint64(&m.cacheMisses))
	writeCounter("empty_answers_total", "Requests that produced no answer.", atomic.LoadUint64(&m.emptyAnswers))
	writeCounter("expansion_errors_total", "Absorbed query expansion errors.", atomic.LoadUint64(&m.expansionErrors))
	writeCounter("embedding_errors_total", "Absorbed embedding errors.", atomic.LoadUint64(&m.embeddingErrors))
	writeCounter("retrieval_errors_total", "Absorbed retrieval errors.", atomic.LoadUint64(&m.retrievalErrors))
	writeCounter("extraction_errors_total", "Absorbed extraction errors.", atomic.LoadUint64(&m.extractionErrors))
	writeCounter("synthesis_errors_total", "Absorbed synthesis errors.", atomic.LoadUint64(&m.synthesisErrors))

	m.durationMu.Lock()
	retrievalDuration := m.retrievalDuration
	synthesisDuration := m.synthesisDuration
	m.durationMu.Unlock()

	writeGauge("retrieval_duration_seconds_total", "Total retrieval duration.", retrievalDuration)
	writeGauge("synthesis_duration_seconds_total", "Total synthesis duration.", synthesisDuration)
	writeGauge("uptime_seconds", "Service uptime.", time.Since(m.startTime).Seconds())

	return sb.String()
}

// Reset zeroes all counters. Intended for tests.
func (m *SearchMetrics) Reset() {
	atomic.StoreUint64(&m.requestsBase, 0)
	atomic.StoreUint64(&m.requestsPro, 0)
	atomic.StoreUint64(&m.requestsSearch, 0)
	atomic.StoreUint64(&m.requestsText, 0)
	atomic.StoreUint64(&m.requestsDocument, 0)
	atomic.StoreUint64(&m.requestsImage, 0)
	atomic.StoreUint64(&m.cacheHits, 0)
	atomic.StoreUint64(&m.cacheMisses, 0)
	atomic.StoreUint64(&m.emptyAnswers, 0)
	atomic.StoreUint64(&m.expansionErrors, 0)
	atomic.StoreUint64(&m.embeddingErrors, 0)
	atomic.StoreUint64(&m.retrievalErrors, 0)
	atomic.StoreUint64(&m.extractionErrors, 0)
	atomic.StoreUint64(&m.synthesisErrors, 0)
	m.durationMu.Lock()
	m.retrievalDuration = 0
	m.synthesisDuration = 0
	m.durationMu.Unlock()
	m.startTime = time.Now()
}
