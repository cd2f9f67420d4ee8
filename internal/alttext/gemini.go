package alttext

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiProvider captions images with Google's Gemini API.
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	client  *genai.Client
}

// NewGeminiProvider creates a Gemini provider. The client is created lazily
// on first use so that a missing key fails at call time.
func NewGeminiProvider(apiKey, model, baseURL string, timeout time.Duration) *GeminiProvider {
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	return &GeminiProvider{apiKey: apiKey, model: model, baseURL: baseURL, timeout: timeout}
}

// Name implements Provider.
func (g *GeminiProvider) Name() string {
	return "gemini"
}

func (g *GeminiProvider) getClient(ctx context.Context) (*genai.Client, error) {
	if g.client != nil {
		return g.client, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: g.timeout},
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL, APIVersion: "v1"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

// GenerateAltText implements Provider.
func (g *GeminiProvider) GenerateAltText(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", missingCredential(g.Name())
	}

	imageData, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode image payload: %w", err)
	}

	client, err := g.getClient(ctx)
	if err != nil {
		return "", &Error{Kind: KindUnavailable, Provider: g.Name(), Err: err}
	}

	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
		{InlineData: &genai.Blob{Data: imageData, MIMEType: req.MIMEType}},
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", &Error{Kind: KindUnavailable, Provider: g.Name(), Err: fmt.Errorf("failed to generate content: %w", err)}
	}

	text := candidateText(result)

	usage := Usage{}
	if result != nil && result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
	}
	log.Info().
		Str("model", g.model).
		Str("file", req.Filename).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Int64("totalTokens", usage.TotalTokens).
		Msg("gemini alt text call")

	return text, nil
}

// candidateText joins the text parts of the first candidate, skipping
// thought parts. Any missing level yields "".
func candidateText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}
	candidate := result.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		texts = append(texts, part.Text)
	}
	return strings.TrimSpace(strings.Join(texts, " "))
}

// Usage contains token usage information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}
