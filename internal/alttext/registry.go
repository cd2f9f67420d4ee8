package alttext

import (
	"time"

	"github.com/ericmwalk/obsidian-bunny-publisher/internal/config"
)

// Options overrides provider endpoints, mainly for tests.
type Options struct {
	OpenAIBaseURL     string
	GeminiBaseURL     string
	PerplexityBaseURL string
	Timeout           time.Duration
}

// Select returns the provider configured in cfg. It returns ErrNoProvider when
// the provider is "none", unknown, or has no key.
//
// There is no null provider value: a nil Provider with ErrNoProvider plays
// that part, and Generator.Describe answers it with the file name caption.
func Select(cfg config.AltText, opts Options) (Provider, error) {
	if cfg.Provider == config.ProviderNone || cfg.ProviderKey() == "" {
		return nil, ErrNoProvider
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel, opts.OpenAIBaseURL, opts.Timeout), nil
	case config.ProviderGemini:
		return NewGeminiProvider(cfg.GeminiKey, cfg.GeminiModel, opts.GeminiBaseURL, opts.Timeout), nil
	case config.ProviderPerplexity:
		return NewPerplexityProvider(cfg.PerplexityKey, cfg.PerplexityModel, opts.PerplexityBaseURL, opts.Timeout), nil
	default:
		return nil, ErrNoProvider
	}
}
