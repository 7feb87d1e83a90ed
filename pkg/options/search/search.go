// Package search provides retrieval pipeline configuration options.
package search

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/zakon-kg/lawrag/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains retrieval pipeline configuration.
type Options struct {
	// TopK is the number of candidate passages retrieved per query vector.
	TopK int `json:"top-k" mapstructure:"top-k"`

	// Questions is the number of expanded search queries requested in pro mode.
	Questions int `json:"questions" mapstructure:"questions"`

	// CollectionRU is the Milvus collection holding Russian-language articles.
	CollectionRU string `json:"collection-ru" mapstructure:"collection-ru"`

	// CollectionKG is the Milvus collection holding Kyrgyz-language articles.
	CollectionKG string `json:"collection-kg" mapstructure:"collection-kg"`

	// EmbeddingDim is the dimension of embedding vectors. It must match the
	// vector field dimension of both collections; the server refuses to start
	// on a mismatch.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// FanoutWorkers bounds the number of concurrent per-paragraph
	// sub-pipelines in document pro mode.
	FanoutWorkers int `json:"fanout-workers" mapstructure:"fanout-workers"`

	// RequestTimeout is the per-request deadline applied by the HTTP handlers.
	RequestTimeout time.Duration `json:"request-timeout" mapstructure:"request-timeout"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		TopK:           3,
		Questions:      3,
		CollectionRU:   "law_articles_ru",
		CollectionKG:   "law_articles_kg",
		EmbeddingDim:   768, // embeddinggemma-300m dimension
		FanoutWorkers:  4,
		RequestTimeout: 60 * time.Second,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"top-k", o.TopK, "Number of candidate passages per query vector.")
	fs.IntVar(&o.Questions, options.Join(prefixes...)+"questions", o.Questions, "Number of expanded queries in pro mode.")
	fs.StringVar(&o.CollectionRU, options.Join(prefixes...)+"collection-ru", o.CollectionRU, "Milvus collection for Russian articles.")
	fs.StringVar(&o.CollectionKG, options.Join(prefixes...)+"collection-kg", o.CollectionKG, "Milvus collection for Kyrgyz articles.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.IntVar(&o.FanoutWorkers, options.Join(prefixes...)+"fanout-workers", o.FanoutWorkers, "Concurrent paragraph sub-pipelines in document pro mode.")
	fs.DurationVar(&o.RequestTimeout, options.Join(prefixes...)+"request-timeout", o.RequestTimeout, "Per-request deadline.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	if o.Questions <= 0 {
		errs = append(errs, fmt.Errorf("questions must be positive"))
	}
	if o.CollectionRU == "" || o.CollectionKG == "" {
		errs = append(errs, fmt.Errorf("both collection names are required"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding-dim must be positive"))
	}
	if o.FanoutWorkers <= 0 {
		errs = append(errs, fmt.Errorf("fanout-workers must be positive"))
	}
	return errs
}
