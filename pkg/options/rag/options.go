// Package rag provides retrieval pipeline configuration options.
package rag

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/openrag/ragserver/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains retrieval pipeline configuration.
type Options struct {
	// Collection is the name of the Milvus collection.
	Collection string `json:"collection" mapstructure:"collection"`

	// EmbeddingDim is the dimension of embedding vectors.
	EmbeddingDim int `json:"embedding-dim" mapstructure:"embedding-dim"`

	// MaxTokens is the chunk budget in whitespace-delimited tokens.
	MaxTokens int `json:"max-tokens" mapstructure:"max-tokens"`

	// TopK is the default number of results from similarity search.
	TopK int `json:"top-k" mapstructure:"top-k"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Collection:   "my_rag_collection",
		EmbeddingDim: 1536, // text-embedding-3-small dimension
		MaxTokens:    256,
		TopK:         3,
	}
}

// AddFlags adds flags for RAG options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Collection, options.Join(prefixes...)+"rag.collection", o.Collection, "Milvus collection name.")
	fs.IntVar(&o.EmbeddingDim, options.Join(prefixes...)+"rag.embedding-dim", o.EmbeddingDim, "Embedding vector dimension.")
	fs.IntVar(&o.MaxTokens, options.Join(prefixes...)+"rag.max-tokens", o.MaxTokens, "Maximum tokens per chunk.")
	fs.IntVar(&o.TopK, options.Join(prefixes...)+"rag.top-k", o.TopK, "Default number of results from similarity search.")
}

// Validate validates the RAG options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Collection == "" {
		errs = append(errs, fmt.Errorf("collection must not be empty"))
	}
	if o.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("embedding-dim must be positive"))
	}
	if o.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max-tokens must be positive"))
	}
	if o.TopK <= 0 {
		errs = append(errs, fmt.Errorf("top-k must be positive"))
	}
	return errs
}

// Complete completes the RAG options from environment variables.
func (o *Options) Complete() error {
	if name := os.Getenv("COLLECTION_NAME"); name != "" && o.Collection == NewOptions().Collection {
		o.Collection = name
	}
	return nil
}
