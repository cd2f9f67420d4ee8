package alttext

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	OpenAIBaseURL      = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4o-mini"
	openAIMaxTokens    = 80
)

// OpenAIProvider captions images with OpenAI's chat completions API.
type OpenAIProvider struct {
	chat  *chatClient
	model string
}

// NewOpenAIProvider creates an OpenAI provider. An empty baseURL or model
// selects the defaults.
func NewOpenAIProvider(apiKey, model, baseURL string, timeout time.Duration) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = OpenAIBaseURL
	}
	return &OpenAIProvider{chat: newChatClient("openai", baseURL, apiKey, timeout), model: model}
}

// Name implements Provider.
func (o *OpenAIProvider) Name() string {
	return "openai"
}

// GenerateAltText implements Provider.
func (o *OpenAIProvider) GenerateAltText(ctx context.Context, req Request) (string, error) {
	body := newChatRequest(o.model, req)
	body.MaxTokens = openAIMaxTokens

	raw, err := o.chat.complete(ctx, body)
	if err != nil {
		return "", err
	}
	resp, err := decodeChatResponse(o.Name(), raw)
	if err != nil {
		return "", err
	}

	text := resp.messageText()
	log.Info().Str("model", o.model).Str("file", req.Filename).Int("chars", len(text)).Msg("openai alt text call")
	return text, nil
}
