package alttext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuessMIMEType(t *testing.T) {
	tests := map[string]string{
		"a.png":      "image/png",
		"a.JPG":      "image/jpeg",
		"a.jpeg":     "image/jpeg",
		"a.gif":      "image/gif",
		"a.webp":     "image/webp",
		"a.avif":     "image/avif",
		"a.heic":     "image/*",
		"no-ext":     "image/*",
		"dir.v2/pic": "image/*",
	}
	for name, want := range tests {
		assert.Equal(t, want, GuessMIMEType(name), name)
	}
}

func TestFallbackCaption(t *testing.T) {
	tests := map[string]string{
		"my_photo-01.png":      "my photo 01",
		"cat.png":              "cat",
		"a__b--c.jpg":          "a b c",
		"  spaced   name .gif": "spaced name",
		"archive.tar.gz":       "archive.tar",
		"noext":                "noext",
		".png":                 "image",
		"___.png":              "image",
		"":                     "image",
	}
	for in, want := range tests {
		assert.Equal(t, want, FallbackCaption(in), in)
	}
}
