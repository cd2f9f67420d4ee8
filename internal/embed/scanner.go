package embed

import (
	"iter"
	"regexp"
	"strings"
)

// embedPattern matches Obsidian media embeds such as ![[photo.png]] or
// ![[clips/demo.mp4|640]].
var embedPattern = regexp.MustCompile(`!\[\[(.*?)\]\]`)

// Token is a single embed occurrence in a note.
type Token struct {
	Raw    string // Full matched text, e.g. "![[cat.png|300]]"
	Target string // Referenced link path without alias or subpath, e.g. "cat.png"
	Alias  string // Text after "|", if any
	Start  int    // Byte offset of Raw in the document
	End    int    // Byte offset just past Raw
}

// Scan returns the embeds of doc in document order. The sequence is lazy and
// can be ranged over any number of times.
func Scan(doc string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		offset := 0
		for offset <= len(doc) {
			loc := embedPattern.FindStringSubmatchIndex(doc[offset:])
			if loc == nil {
				return
			}
			start, end := offset+loc[0], offset+loc[1]
			inner := doc[offset+loc[2] : offset+loc[3]]
			if !yield(newToken(doc[start:end], inner, start, end)) {
				return
			}
			offset = end
		}
	}
}

// ScanAll collects every embed in doc.
func ScanAll(doc string) []Token {
	var tokens []Token
	for t := range Scan(doc) {
		tokens = append(tokens, t)
	}
	return tokens
}

func newToken(raw, inner string, start, end int) Token {
	target, alias, _ := strings.Cut(inner, "|")
	// "#heading" and "#^block" subpaths only make sense for notes
	if i := strings.Index(target, "#"); i >= 0 {
		target = target[:i]
	}
	return Token{
		Raw:    raw,
		Target: strings.TrimSpace(target),
		Alias:  strings.TrimSpace(alias),
		Start:  start,
		End:    end,
	}
}
