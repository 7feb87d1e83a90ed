package biz

import "errors"

// Stage errors of the retrieval pipeline. They are wrapped at stage
// boundaries, logged by the service and never propagated to callers.
var (
	// ErrEmbeddingUnavailable marks a failed embedding call.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrRetrievalUnavailable marks a vector store failure.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrExpansionFailed marks a failed query expansion call.
	ErrExpansionFailed = errors.New("query expansion failed")

	// ErrExtractionFailed marks a failed document or image extraction call.
	ErrExtractionFailed = errors.New("content extraction failed")

	// ErrSynthesisUnavailable marks a failed answer synthesis call.
	ErrSynthesisUnavailable = errors.New("answer synthesis unavailable")
)
