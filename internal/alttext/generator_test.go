package alttext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImage struct {
	name string
	data []byte
	err  error
}

func (f fakeImage) Filename() string         { return f.name }
func (f fakeImage) ReadAll() ([]byte, error) { return f.data, f.err }

type fakeProvider struct {
	text  string
	err   error
	calls int
	last  Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) GenerateAltText(ctx context.Context, req Request) (string, error) {
	f.calls++
	f.last = req
	return f.text, f.err
}

func TestGeneratorDisabled(t *testing.T) {
	p := &fakeProvider{text: "ignored"}
	g := NewGenerator(false, p)

	c := g.Describe(context.Background(), fakeImage{name: "my_photo-01.png"})
	assert.Equal(t, "my photo 01", c.Text)
	assert.False(t, c.Generated)
	assert.NoError(t, c.Warning)
	assert.Zero(t, p.calls)
	assert.False(t, g.Enabled())
}

func TestGeneratorNoProvider(t *testing.T) {
	g := NewGenerator(true, nil)
	c := g.Describe(context.Background(), fakeImage{name: "sunset.jpg"})
	assert.Equal(t, "sunset", c.Text)
	assert.NoError(t, c.Warning)
}

func TestGeneratorSuccess(t *testing.T) {
	p := &fakeProvider{text: "  A sunset over water.\n"}
	g := NewGenerator(true, p)
	require.True(t, g.Enabled())

	c := g.Describe(context.Background(), fakeImage{name: "sunset.jpg", data: []byte("ABC")})
	assert.Equal(t, "A sunset over water.", c.Text)
	assert.Equal(t, "fake", c.Provider)
	assert.True(t, c.Generated)
	assert.NoError(t, c.Warning)

	assert.Equal(t, "QUJD", p.last.ImageBase64)
	assert.Equal(t, "image/jpeg", p.last.MIMEType)
	assert.Equal(t, "sunset.jpg", p.last.Filename)
	assert.Equal(t, DefaultPrompt, p.last.Prompt)
}

func TestGeneratorEmptyResult(t *testing.T) {
	g := NewGenerator(true, &fakeProvider{text: "   "})
	c := g.Describe(context.Background(), fakeImage{name: "cat.png"})
	assert.Equal(t, "cat", c.Text)
	assert.False(t, c.Generated)
	assert.Equal(t, KindMalformedResponse, KindOf(c.Warning))
}

func TestGeneratorProviderFailure(t *testing.T) {
	err := &Error{Kind: KindUnavailable, Provider: "fake", Err: errors.New("timeout")}
	g := NewGenerator(true, &fakeProvider{err: err})

	c := g.Describe(context.Background(), fakeImage{name: "cat.png"})
	assert.Equal(t, "cat", c.Text)
	assert.ErrorIs(t, c.Warning, err)
}

func TestGeneratorMissingCredentialIsSilent(t *testing.T) {
	g := NewGenerator(true, &fakeProvider{err: missingCredential("fake")})
	c := g.Describe(context.Background(), fakeImage{name: "cat.png"})
	assert.Equal(t, "cat", c.Text)
	assert.NoError(t, c.Warning)
}

func TestGeneratorReadFailure(t *testing.T) {
	p := &fakeProvider{text: "never"}
	g := NewGenerator(true, p)
	c := g.Describe(context.Background(), fakeImage{name: "cat.png", err: errors.New("permission denied")})
	assert.Equal(t, "cat", c.Text)
	assert.Error(t, c.Warning)
	assert.Zero(t, p.calls)
}
