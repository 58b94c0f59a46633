// Package apiserver provides the RAG API server application.
package apiserver

import (
	"errors"
	"time"

	"github.com/spf13/pflag"

	cacheopts "github.com/openrag/ragserver/pkg/options/cache"
	embeddingopts "github.com/openrag/ragserver/pkg/options/embedding"
	httpopts "github.com/openrag/ragserver/pkg/options/http"
	logopts "github.com/openrag/ragserver/pkg/options/logger"
	milvusopts "github.com/openrag/ragserver/pkg/options/milvus"
	ragopts "github.com/openrag/ragserver/pkg/options/rag"
)

// ServerOptions contains all API server options.
type ServerOptions struct {
	// HTTP contains HTTP server configuration.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// Log contains logger configuration.
	Log *logopts.Options `json:"log" mapstructure:"log"`

	// Milvus contains Milvus database configuration.
	Milvus *milvusopts.Options `json:"milvus" mapstructure:"milvus"`

	// Embedding contains embedding provider configuration.
	Embedding *embeddingopts.Options `json:"embedding" mapstructure:"embedding"`

	// RAG contains retrieval pipeline configuration.
	RAG *ragopts.Options `json:"rag" mapstructure:"rag"`

	// Cache contains query cache configuration.
	Cache *cacheopts.Options `json:"cache" mapstructure:"cache"`

	// ShutdownTimeout is the timeout for graceful shutdown.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewServerOptions creates a ServerOptions instance with default values.
func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		HTTP:            httpopts.NewOptions(),
		Log:             logopts.NewOptions(),
		Milvus:          milvusopts.NewOptions(),
		Embedding:       embeddingopts.NewOptions(),
		RAG:             ragopts.NewOptions(),
		Cache:           cacheopts.NewOptions(),
		ShutdownTimeout: 30 * time.Second,
	}
}

// AddFlags adds all server flags to the flagset.
func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	o.HTTP.AddFlags(fs)
	o.Log.AddFlags(fs)
	o.Milvus.AddFlags(fs)
	o.Embedding.AddFlags(fs)
	o.RAG.AddFlags(fs)
	o.Cache.AddFlags(fs)

	fs.DurationVar(&o.ShutdownTimeout, "shutdown-timeout", o.ShutdownTimeout, "Graceful shutdown timeout")
}

// Complete completes all the required options.
func (o *ServerOptions) Complete() error {
	if err := o.Milvus.Complete(); err != nil {
		return err
	}
	if err := o.Embedding.Complete(); err != nil {
		return err
	}
	if err := o.RAG.Complete(); err != nil {
		return err
	}
	return o.Cache.Complete()
}

// Validate checks whether the options in ServerOptions are valid.
func (o *ServerOptions) Validate() error {
	var errs []error

	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	errs = append(errs, o.Milvus.Validate()...)
	errs = append(errs, o.Embedding.Validate()...)
	errs = append(errs, o.RAG.Validate()...)
	errs = append(errs, o.Cache.Validate()...)

	return errors.Join(errs...)
}
