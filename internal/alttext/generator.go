package alttext

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Image is a readable image file.
type Image interface {
	Filename() string
	ReadAll() ([]byte, error)
}

// Caption is the outcome of Describe. Text is never empty.
type Caption struct {
	Text      string
	Provider  string // Backend that produced Text; empty for the fallback
	Generated bool
	// Warning is set when a provider was tried and failed; Text then holds
	// the fallback.
	Warning error
}

// Generator decides whether and how to ask a provider for alt text and falls
// back to a file-name caption whenever that is not possible.
type Generator struct {
	enabled  bool
	provider Provider
	prompt   string
}

// NewGenerator creates a generator. provider may be nil.
func NewGenerator(enabled bool, provider Provider) *Generator {
	return &Generator{enabled: enabled, provider: provider, prompt: DefaultPrompt}
}

// Enabled reports whether captions are requested from a provider at all.
func (g *Generator) Enabled() bool {
	return g.enabled && g.provider != nil
}

// Describe returns alt text for img. It never fails: provider problems are
// reported through Caption.Warning and the file-name caption is used instead.
func (g *Generator) Describe(ctx context.Context, img Image) Caption {
	fallback := Caption{Text: FallbackCaption(img.Filename())}

	if !g.enabled || g.provider == nil {
		return fallback
	}

	data, err := img.ReadAll()
	if err != nil {
		fallback.Warning = fmt.Errorf("failed to read %s: %w", img.Filename(), err)
		return fallback
	}

	req := Request{
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MIMEType:    GuessMIMEType(img.Filename()),
		Filename:    img.Filename(),
		Prompt:      g.prompt,
	}

	text, err := g.provider.GenerateAltText(ctx, req)
	switch {
	case err != nil && KindOf(err) == KindMissingCredential:
		// Same as having no provider at all.
		return fallback
	case err != nil:
		log.Warn().Err(err).Str("file", img.Filename()).Str("provider", g.provider.Name()).Msg("alt text generation failed")
		fallback.Warning = err
		return fallback
	}

	text = strings.TrimSpace(text)
	if text == "" {
		fallback.Warning = &Error{Kind: KindMalformedResponse, Provider: g.provider.Name(), Err: errors.New("empty alt text")}
		return fallback
	}

	return Caption{Text: text, Provider: g.provider.Name(), Generated: true}
}
