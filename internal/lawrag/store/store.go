// Package store defines the vector store boundary for law article retrieval.
package store

import (
	"context"
	"fmt"
)

// Language selects the law collection to search.
type Language string

const (
	LanguageRU Language = "ru"
	LanguageKG Language = "kg"
)

// ParseLanguage validates a language code, defaulting to Russian when empty.
func ParseLanguage(s string) (Language, error) {
	switch s {
	case "", string(LanguageRU):
		return LanguageRU, nil
	case string(LanguageKG):
		return LanguageKG, nil
	default:
		return "", fmt.Errorf("unsupported language: %s", s)
	}
}

// CandidateHit is a single retrieval hit for one query vector.
type CandidateHit struct {
	// Score is the cosine similarity, higher is more relevant.
	Score     float32
	SourceDoc string
	Section   string
	Chapter   string
	Title     string
	Text      string
}

// VectorStore defines the law article vector store interface.
type VectorStore interface {
	// Search runs similarity search for each vector against the collection
	// of the given language. Each inner slice is sorted descending by score
	// and capped at topK.
	Search(ctx context.Context, lang Language, vectors [][]float32, topK int) ([][]CandidateHit, error)

	// CheckDimensions verifies that every language collection stores
	// embeddings of the given dimension and makes them searchable.
	CheckDimensions(ctx context.Context, dim int) error

	// Stats returns the entity count per language collection.
	Stats(ctx context.Context) (map[string]int64, error)

	// Close closes the store connection.
	Close(ctx context.Context) error
}
