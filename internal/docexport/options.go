// Package docexport implements the docexport batch conversion tool.
package docexport

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/pflag"

	"github.com/openrag/ragserver/internal/pkg/chunker"
	logopts "github.com/openrag/ragserver/pkg/options/logger"
)

// Options holds the docexport command configuration.
type Options struct {
	Input     string           `json:"input" mapstructure:"input"`
	Output    string           `json:"output" mapstructure:"output"`
	Workers   int              `json:"workers" mapstructure:"workers"`
	MaxTokens int              `json:"max-tokens" mapstructure:"max-tokens"`
	Log       *logopts.Options `json:"log" mapstructure:"log"`
}

// NewOptions creates Options with default values.
func NewOptions() *Options {
	return &Options{
		Input:     ".",
		Output:    "scratch",
		Workers:   runtime.NumCPU(),
		MaxTokens: chunker.DefaultMaxTokens,
		Log:       logopts.NewOptions(),
	}
}

// AddFlags adds docexport flags to the given FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Input, "input", "i", o.Input, "Directory containing documents to convert")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Directory to write converted files to")
	fs.IntVarP(&o.Workers, "workers", "w", o.Workers, "Number of concurrent conversion workers")
	fs.IntVar(&o.MaxTokens, "max-tokens", o.MaxTokens, "Maximum tokens per chunk in the chunks output")
	o.Log.AddFlags(fs)
}

// Complete fills in any missing derived values.
func (o *Options) Complete() error {
	return nil
}

// Validate checks the options for correctness.
func (o *Options) Validate() error {
	var errs []error

	if o.Input == "" {
		errs = append(errs, errors.New("--input directory is required"))
	}
	if o.Output == "" {
		errs = append(errs, errors.New("--output directory is required"))
	}
	if o.Workers <= 0 {
		errs = append(errs, fmt.Errorf("--workers must be positive, got %d", o.Workers))
	}
	if o.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("--max-tokens must be positive, got %d", o.MaxTokens))
	}
	errs = append(errs, o.Log.Validate()...)

	return errors.Join(errs...)
}
