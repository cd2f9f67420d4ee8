package alttext

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog/log"
)

const defaultRequestTimeout = 60 * time.Second

// chatClient talks to an OpenAI-compatible chat completions endpoint.
type chatClient struct {
	name       string
	apiKey     string
	httpClient *resty.Client
}

func newChatClient(name, baseURL, apiKey string, timeout time.Duration) *chatClient {
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	return &chatClient{
		name:   name,
		apiKey: apiKey,
		httpClient: resty.New().
			SetDebug(false).
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

func newChatRequest(model string, req Request) chatRequest {
	dataURL := fmt.Sprintf("data:%s;base64,%s", req.MIMEType, req.ImageBase64)
	return chatRequest{
		Model: model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL}},
			},
		}},
	}
}

// complete posts body and returns the raw response body.
func (c *chatClient) complete(ctx context.Context, body chatRequest) ([]byte, error) {
	if c.apiKey == "" {
		return nil, missingCredential(c.name)
	}

	res, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Provider: c.name, Err: err}
	}
	if res.IsError() {
		return nil, &Error{
			Kind:     KindUnavailable,
			Provider: c.name,
			Err:      fmt.Errorf("request failed (status: %d): %s", res.StatusCode(), truncate(res.String(), 200)),
		}
	}
	return res.Body(), nil
}

// chatResponse holds only the fields we read; everything else in the payload
// is ignored. Content stays raw because backends send either a string or an
// array of typed parts.
type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		Text json.RawMessage `json:"text"`
	} `json:"choices"`
}

// decodeChatResponse parses body, repairing it first if it is not valid JSON.
func decodeChatResponse(provider string, body []byte) (*chatResponse, error) {
	var resp chatResponse
	err := json.Unmarshal(body, &resp)
	if err == nil {
		return &resp, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(body))
	if repairErr != nil {
		return nil, &Error{Kind: KindMalformedResponse, Provider: provider, Err: err}
	}
	if err := json.Unmarshal([]byte(repaired), &resp); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Provider: provider, Err: err}
	}
	log.Debug().Str("provider", provider).Msg("repaired malformed response body")
	return &resp, nil
}

// messageText extracts the first choice's message content, which is either a
// plain string or an array of parts where the first "text" part wins.
func (r *chatResponse) messageText() string {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return contentText(r.Choices[0].Message.Content)
}

// choiceText returns the legacy completions-style choices[0].text.
func (r *chatResponse) choiceText() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return stringValue(r.Choices[0].Text)
}

func contentText(raw json.RawMessage) string {
	if s := stringValue(raw); s != "" {
		return s
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	for _, p := range parts {
		var part struct {
			Type string          `json:"type"`
			Text json.RawMessage `json:"text"`
		}
		if err := json.Unmarshal(p, &part); err != nil || part.Type != "text" {
			continue
		}
		if s := stringValue(part.Text); s != "" {
			return s
		}
	}
	return ""
}

func stringValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
