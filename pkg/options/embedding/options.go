// Package embedding provides options for the embedding provider.
package embedding

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/openrag/ragserver/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains embedding provider configuration.
type Options struct {
	// BaseURL API 基础地址，可指向任意兼容 OpenAI 的服务。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥。Excluded from JSON serialization.
	APIKey string `json:"-" mapstructure:"api-key"`

	// Model 用于生成嵌入的模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// Organization 组织 ID（可选）。
	Organization string `json:"organization" mapstructure:"organization"`
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// AddFlags adds flags to the flagset.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.BaseURL, options.Join(prefixes...)+"embedding.base-url", o.BaseURL, "Embedding API base URL.")
	fs.StringVar(&o.APIKey, options.Join(prefixes...)+"embedding.api-key", o.APIKey, "Embedding API key (DEPRECATED: use OPENAI_API_KEY env var instead).")
	fs.StringVar(&o.Model, options.Join(prefixes...)+"embedding.model", o.Model, "Embedding model name.")
	fs.DurationVar(&o.Timeout, options.Join(prefixes...)+"embedding.timeout", o.Timeout, "Embedding request timeout.")
	fs.IntVar(&o.MaxRetries, options.Join(prefixes...)+"embedding.max-retries", o.MaxRetries, "Maximum retries for embedding requests.")
	fs.StringVar(&o.Organization, options.Join(prefixes...)+"embedding.organization", o.Organization, "OpenAI organization ID.")
}

// Validate validates the options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.BaseURL == "" {
		errs = append(errs, fmt.Errorf("embedding base-url is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("embedding model is required"))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("embedding api key is required (set OPENAI_API_KEY)"))
	}
	return errs
}

// Complete reads the API key from the environment when not set by flag.
func (o *Options) Complete() error {
	if o.APIKey == "" {
		o.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return nil
}
