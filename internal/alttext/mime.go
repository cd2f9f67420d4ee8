package alttext

import (
	"path"
	"regexp"
	"strings"
)

// GuessMIMEType maps an image file name to its MIME type, defaulting to image/*.
func GuessMIMEType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".avif":
		return "image/avif"
	default:
		return "image/*"
	}
}

var (
	extPattern       = regexp.MustCompile(`\.[^.]+$`)
	separatorPattern = regexp.MustCompile(`[_\-]+`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// FallbackCaption derives alt text from a file name: the extension is
// dropped, underscores and dashes become spaces and whitespace is collapsed.
func FallbackCaption(filename string) string {
	s := extPattern.ReplaceAllString(filename, "")
	s = separatorPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return "image"
	}
	return s
}
