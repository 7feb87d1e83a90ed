// Package milvus wraps the Milvus SDK client with the small surface the
// retrieval service needs: multi-vector similarity search over article
// collections plus startup health checks.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	milvusopts "github.com/zakon-kg/lawrag/pkg/options/milvus"
)

// Client wraps the Milvus SDK client.
type Client struct {
	client *milvusclient.Client
	opts   *milvusopts.Options
}

// New creates a new Milvus client.
func New(opts *milvusopts.Options) (*Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	return &Client{
		client: c,
		opts:   opts,
	}, nil
}

// Close closes the Milvus client connection.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// RawClient returns the underlying Milvus client.
func (c *Client) RawClient() *milvusclient.Client {
	return c.client
}

// HasCollection reports whether the named collection exists.
func (c *Client) HasCollection(ctx context.Context, collectionName string) (bool, error) {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(collectionName))
	if err != nil {
		return false, fmt.Errorf("failed to check collection existence: %w", err)
	}
	return exists, nil
}

// CheckDimension verifies that the embedding field of the collection has
// the expected dimension. A mismatch here means the deployed embedding
// model does not match the indexed data.
func (c *Client) CheckDimension(ctx context.Context, collectionName string, want int) error {
	coll, err := c.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(collectionName))
	if err != nil {
		return fmt.Errorf("failed to describe collection %s: %w", collectionName, err)
	}

	for _, field := range coll.Schema.Fields {
		if field.Name != "embedding" {
			continue
		}
		dimStr, ok := field.TypeParams["dim"]
		if !ok {
			return fmt.Errorf("collection %s: embedding field has no dim param", collectionName)
		}
		dim, err := strconv.Atoi(dimStr)
		if err != nil {
			return fmt.Errorf("collection %s: invalid dim param %q", collectionName, dimStr)
		}
		if dim != want {
			return fmt.Errorf("collection %s: embedding dimension %d does not match expected %d", collectionName, dim, want)
		}
		return nil
	}

	return fmt.Errorf("collection %s: no embedding field", collectionName)
}

// LoadCollection loads the collection into memory and waits for completion.
func (c *Client) LoadCollection(ctx context.Context, collectionName string) error {
	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(collectionName))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection loading: %w", err)
	}
	return nil
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID       int64
	Score    float32
	Metadata map[string]any
}

// SearchMulti performs similarity search for multiple query vectors in one
// call and returns one result set per vector, each at most topK hits.
func (c *Client) SearchMulti(ctx context.Context, collectionName string, vectors [][]float32, topK int, outputFields []string) ([][]SearchResult, error) {
	if len(vectors) == 0 {
		return nil, nil
	}

	searchVectors := make([]entity.Vector, len(vectors))
	for i, v := range vectors {
		searchVectors[i] = entity.FloatVector(v)
	}

	results, err := c.client.Search(ctx, milvusclient.NewSearchOption(
		collectionName,
		topK,
		searchVectors,
	).WithANNSField("embedding").
		WithSearchParam("nprobe", "16").
		WithOutputFields(outputFields...))
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	resultSets := make([][]SearchResult, 0, len(results))
	for _, rs := range results {
		set := make([]SearchResult, 0, rs.ResultCount)
		for i := 0; i < rs.ResultCount; i++ {
			result := SearchResult{
				Score:    rs.Scores[i],
				Metadata: make(map[string]any),
			}

			if idCol, ok := rs.IDs.(*column.ColumnInt64); ok {
				result.ID = idCol.Data()[i]
			}

			for _, field := range rs.Fields {
				switch col := field.(type) {
				case *column.ColumnVarChar:
					result.Metadata[col.Name()] = col.Data()[i]
				case *column.ColumnInt64:
					result.Metadata[col.Name()] = col.Data()[i]
				}
			}

			set = append(set, result)
		}
		resultSets = append(resultSets, set)
	}

	return resultSets, nil
}

// GetCollectionStats returns the number of entities in a collection.
func (c *Client) GetCollectionStats(ctx context.Context, collectionName string) (int64, error) {
	stats, err := c.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(collectionName))
	if err != nil {
		return 0, fmt.Errorf("failed to get collection stats: %w", err)
	}

	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}
