package store

import (
	"context"
	"fmt"

	"github.com/zakon-kg/lawrag/pkg/component/milvus"
)

// outputFields are the metadata fields stored alongside each article vector.
var outputFields = []string{"source_doc", "section", "chapter", "article_title", "article_text"}

// MilvusStore implements VectorStore on top of Milvus.
type MilvusStore struct {
	client      *milvus.Client
	collections map[Language]string
}

// NewMilvusStore creates a Milvus-backed store with per-language collections.
func NewMilvusStore(client *milvus.Client, collectionRU, collectionKG string) *MilvusStore {
	return &MilvusStore{
		client: client,
		collections: map[Language]string{
			LanguageRU: collectionRU,
			LanguageKG: collectionKG,
		},
	}
}

// Collection returns the collection name for a language.
func (s *MilvusStore) Collection(lang Language) (string, error) {
	name, ok := s.collections[lang]
	if !ok {
		return "", fmt.Errorf("no collection for language %s", lang)
	}
	return name, nil
}

// Search runs similarity search for each vector and maps the raw Milvus
// results into candidate hits.
func (s *MilvusStore) Search(ctx context.Context, lang Language, vectors [][]float32, topK int) ([][]CandidateHit, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	collection, err := s.Collection(lang)
	if err != nil {
		return nil, err
	}

	resultSets, err := s.client.SearchMulti(ctx, collection, vectors, topK, outputFields)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}

	hits := make([][]CandidateHit, len(resultSets))
	for i, set := range resultSets {
		hits[i] = make([]CandidateHit, 0, len(set))
		for _, r := range set {
			hits[i] = append(hits[i], CandidateHit{
				Score:     r.Score,
				SourceDoc: metaString(r.Metadata, "source_doc"),
				Section:   metaString(r.Metadata, "section"),
				Chapter:   metaString(r.Metadata, "chapter"),
				Title:     metaString(r.Metadata, "article_title"),
				Text:      metaString(r.Metadata, "article_text"),
			})
		}
	}

	return hits, nil
}

// CheckDimensions verifies the embedding dimension of every collection and
// loads each collection into memory. Milvus rejects searches against
// unloaded collections.
func (s *MilvusStore) CheckDimensions(ctx context.Context, dim int) error {
	for lang, collection := range s.collections {
		exists, err := s.client.HasCollection(ctx, collection)
		if err != nil {
			return fmt.Errorf("failed to check collection for %s: %w", lang, err)
		}
		if !exists {
			return fmt.Errorf("collection %s for language %s does not exist", collection, lang)
		}
		if err := s.client.CheckDimension(ctx, collection, dim); err != nil {
			return err
		}
		if err := s.client.LoadCollection(ctx, collection); err != nil {
			return fmt.Errorf("failed to load collection %s: %w", collection, err)
		}
	}
	return nil
}

// Stats returns the entity count per language collection.
func (s *MilvusStore) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, len(s.collections))
	for lang, collection := range s.collections {
		count, err := s.client.GetCollectionStats(ctx, collection)
		if err != nil {
			return nil, fmt.Errorf("failed to get stats for %s: %w", lang, err)
		}
		stats[string(lang)] = count
	}
	return stats, nil
}

// Close closes the underlying Milvus connection.
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func metaString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}
