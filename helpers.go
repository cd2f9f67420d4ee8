package main

import (
	"strings"

	"github.com/lithammer/dedent"
)

// dedentText strips the common indentation of a raw string literal.
// The text is not a format string.
func dedentText(text string) string {
	return strings.TrimSpace(dedent.Dedent(text))
}
