package upload

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cat.png", "cat.png"},
		{"  My Photo  (1).png ", "My-Photo-1.png"},
		{"über café.jpg", "ber-caf.jpg"},
		{"a - - b.gif", "a-b.gif"},
		{"tabs\tand\nnewlines.webp", "tabs-and-newlines.webp"},
		{"---dash.png---", "dash.png"},
		{"日本語", "file"},
		{"", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilenameProperties(t *testing.T) {
	allowed := regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	inputs := []string{
		"hello world.png", " -x- ", "a b", "!!!", "a--b---c", "-", "  ..  ", "x/y\\z.png",
		"émoji 😀 file.gif", strings.Repeat("- ", 20),
	}
	for _, in := range inputs {
		out := SanitizeFilename(in)
		assert.Regexp(t, allowed, out, "input %q", in)
		assert.NotContains(t, out, "--", "input %q", in)
		assert.False(t, strings.HasPrefix(out, "-") || strings.HasSuffix(out, "-"), "input %q gave %q", in, out)
		assert.Equal(t, out, SanitizeFilename(in))
	}
}

func TestExpandPath(t *testing.T) {
	now := time.Date(2024, time.May, 9, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "media/2024/05", ExpandPath("media/{{YYYY}}/{{MM}}", now))
	assert.Equal(t, "2024-05-09/{{YY}}", ExpandPath("/{{YYYY}}-{{MM}}-{{DD}}/{{YY}}/", now))
	assert.Equal(t, "images", ExpandPath("images", now))
	assert.Equal(t, "", ExpandPath("", now))
}

func TestNewRequest(t *testing.T) {
	now := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)

	req := NewRequest("My Cat.png", []byte("x"), "img/{{YYYY}}", now)
	assert.Equal(t, "img/2025", req.Dir)
	assert.Equal(t, "My-Cat.png", req.Name)
	assert.Equal(t, "img/2025/My-Cat.png", req.Key)
	assert.Equal(t, "application/octet-stream", req.ContentType)

	req = NewRequest("cat.png", nil, "", now)
	assert.Equal(t, "cat.png", req.Key)
}
