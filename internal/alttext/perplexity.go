package alttext

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	PerplexityBaseURL      = "https://api.perplexity.ai"
	DefaultPerplexityModel = "sonar"
)

// PerplexityProvider captions images with Perplexity's chat completions API.
type PerplexityProvider struct {
	chat  *chatClient
	model string
}

// NewPerplexityProvider creates a Perplexity provider. An empty baseURL or
// model selects the defaults.
func NewPerplexityProvider(apiKey, model, baseURL string, timeout time.Duration) *PerplexityProvider {
	if model == "" {
		model = DefaultPerplexityModel
	}
	if baseURL == "" {
		baseURL = PerplexityBaseURL
	}
	return &PerplexityProvider{chat: newChatClient("perplexity", baseURL, apiKey, timeout), model: model}
}

// Name implements Provider.
func (p *PerplexityProvider) Name() string {
	return "perplexity"
}

// GenerateAltText implements Provider.
func (p *PerplexityProvider) GenerateAltText(ctx context.Context, req Request) (string, error) {
	body := newChatRequest(p.model, req)
	zero := 0.0
	body.Temperature = &zero

	raw, err := p.chat.complete(ctx, body)
	if err != nil {
		return "", err
	}
	resp, err := decodeChatResponse(p.Name(), raw)
	if err != nil {
		return "", err
	}

	text := resp.messageText()
	if text == "" {
		text = resp.choiceText()
	}
	log.Info().Str("model", p.model).Str("file", req.Filename).Int("chars", len(text)).Msg("perplexity alt text call")
	return text, nil
}
