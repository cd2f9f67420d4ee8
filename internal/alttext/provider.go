package alttext

import (
	"context"
	"errors"
	"fmt"
)

// DefaultPrompt is the instruction sent with every image.
const DefaultPrompt = "Provide a clear, concise alt text (max 1 sentence) describing this image."

// Request is a provider-agnostic caption request.
type Request struct {
	ImageBase64 string
	MIMEType    string
	Filename    string
	Prompt      string
}

// Provider generates alt text for an image.
type Provider interface {
	// Name identifies the backend, e.g. "openai".
	Name() string
	// GenerateAltText returns the caption text, or "" if the backend answered
	// without any usable text.
	GenerateAltText(ctx context.Context, req Request) (string, error)
}

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	KindMissingCredential ErrorKind = iota + 1
	KindUnavailable
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing credential"
	case KindUnavailable:
		return "provider unavailable"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return "unknown"
	}
}

// Error is returned by providers.
type Error struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNoProvider means alt text generation has no usable backend configured.
var ErrNoProvider = errors.New("no alt text provider available")

// KindOf returns the ErrorKind carried by err, or 0 if err is not an *Error.
func KindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return 0
}

func missingCredential(provider string) error {
	return &Error{Kind: KindMissingCredential, Provider: provider, Err: fmt.Errorf("%s API key not configured", provider)}
}
