package alttext

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"  A red bicycle.  "`, "A red bicycle."},
		{"parts", `[{"type":"image_url","image_url":{"url":"x"}},{"type":"text","text":"A dog."}]`, "A dog."},
		{"parts without text", `[{"type":"image_url"}]`, ""},
		{"text part with non-string", `[{"type":"text","text":42},{"type":"text","text":"Second."}]`, "Second."},
		{"number", `17`, ""},
		{"null", `null`, ""},
		{"object", `{"text":"nope"}`, ""},
		{"empty", ``, ""},
		{"mixed garbage array", `[1, "two", null, {"type":"text"}]`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentText(json.RawMessage(tt.raw)))
		})
	}
}

func TestDecodeChatResponseShapes(t *testing.T) {
	resp, err := decodeChatResponse("openai", []byte(`{"choices":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "", resp.messageText())

	resp, err = decodeChatResponse("openai", []byte(`{"choices":[{"message":null}]}`))
	require.NoError(t, err)
	assert.Equal(t, "", resp.messageText())

	resp, err = decodeChatResponse("openai", []byte(`{"unexpected":true}`))
	require.NoError(t, err)
	assert.Equal(t, "", resp.messageText())
	assert.Equal(t, "", resp.choiceText())

	resp, err = decodeChatResponse("perplexity", []byte(`{"choices":[{"text":"Legacy."}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Legacy.", resp.choiceText())
}

func TestDecodeChatResponseRepairsTruncatedJSON(t *testing.T) {
	resp, err := decodeChatResponse("openai", []byte(`{"choices":[{"message":{"content":"A cat."}}]`))
	require.NoError(t, err)
	assert.Equal(t, "A cat.", resp.messageText())
}

func TestDecodeChatResponseTypeMismatch(t *testing.T) {
	_, err := decodeChatResponse("openai", []byte(`{"choices":"nope"}`))
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestOpenAIProvider(t *testing.T) {
	var req *http.Request
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req = r
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":" A tabby cat asleep. "}]}}]}`))
	}))
	defer ts.Close()

	p := NewOpenAIProvider("sk-test", "", ts.URL, 0)
	text, err := p.GenerateAltText(context.Background(), Request{
		ImageBase64: "QUJD",
		MIMEType:    "image/png",
		Filename:    "cat.png",
		Prompt:      DefaultPrompt,
	})
	require.NoError(t, err)

	assert.Equal(t, "A tabby cat asleep.", text)
	assert.Equal(t, "/chat/completions", req.URL.Path)
	assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, float64(80), body["max_tokens"])

	messages := body["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	assert.Equal(t, DefaultPrompt, content[0].(map[string]any)["text"])
	imageURL := content[1].(map[string]any)["image_url"].(map[string]any)["url"]
	assert.Equal(t, "data:image/png;base64,QUJD", imageURL)
}

func TestOpenAIProviderMissingKey(t *testing.T) {
	p := NewOpenAIProvider("", "", "http://127.0.0.1:1", 0)
	_, err := p.GenerateAltText(context.Background(), Request{})
	assert.Equal(t, KindMissingCredential, KindOf(err))
}

func TestOpenAIProviderHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer ts.Close()

	p := NewOpenAIProvider("sk", "", ts.URL, 0)
	_, err := p.GenerateAltText(context.Background(), Request{})
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Contains(t, err.Error(), "429")
}

func TestOpenAIProviderGarbageBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[1,2,3]`))
	}))
	defer ts.Close()

	p := NewOpenAIProvider("sk", "", ts.URL, 0)
	_, err := p.GenerateAltText(context.Background(), Request{})
	assert.Equal(t, KindMalformedResponse, KindOf(err))
}

func TestPerplexityProvider(t *testing.T) {
	var body map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","choices":[{"index":0,"message":{"content":"Mountains at dusk."}}]}`))
	}))
	defer ts.Close()

	p := NewPerplexityProvider("pplx", "", ts.URL, 0)
	text, err := p.GenerateAltText(context.Background(), Request{ImageBase64: "QQ==", MIMEType: "image/jpeg", Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, "Mountains at dusk.", text)
	assert.Equal(t, "sonar", body["model"])
	assert.Equal(t, float64(0), body["temperature"])
	assert.NotContains(t, body, "max_tokens")
}

func TestPerplexityProviderFallsBackToChoiceText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":null},"text":"From text field."}]}`))
	}))
	defer ts.Close()

	p := NewPerplexityProvider("pplx", "", ts.URL, 0)
	text, err := p.GenerateAltText(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "From text field.", text)
}
