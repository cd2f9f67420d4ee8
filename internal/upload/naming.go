package upload

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	dashRun       = regexp.MustCompile(`-+`)
)

// SanitizeFilename turns name into a key segment that is safe to publish:
// whitespace becomes dashes, anything outside [A-Za-z0-9._-] is dropped and
// dash runs collapse to one.
func SanitizeFilename(name string) string {
	s := strings.TrimSpace(name)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = unsafeChars.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "file"
	}
	return s
}

// ExpandPath substitutes {{YYYY}}, {{MM}} and {{DD}} in template with the date
// of now and trims surrounding slashes.
func ExpandPath(template string, now time.Time) string {
	r := strings.NewReplacer(
		"{{YYYY}}", fmt.Sprintf("%04d", now.Year()),
		"{{MM}}", fmt.Sprintf("%02d", int(now.Month())),
		"{{DD}}", fmt.Sprintf("%02d", now.Day()),
	)
	return strings.Trim(r.Replace(template), "/")
}

// JoinKey joins a destination folder and a file name into an object key.
func JoinKey(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
