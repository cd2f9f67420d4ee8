package embed

import (
	"fmt"
	"sort"
	"strings"
)

type substitution struct {
	token       Token
	replacement string
}

// Rewriter collects replacements for scanned tokens and applies them to the
// document they were scanned from in a single pass.
type Rewriter struct {
	subs []substitution
}

// Record schedules token to be replaced by replacement. Recording the same
// token twice keeps the last replacement.
func (r *Rewriter) Record(token Token, replacement string) {
	for i, s := range r.subs {
		if s.token.Start == token.Start && s.token.End == token.End {
			r.subs[i].replacement = replacement
			return
		}
	}
	r.subs = append(r.subs, substitution{token: token, replacement: replacement})
}

// Len returns the number of recorded replacements.
func (r *Rewriter) Len() int {
	return len(r.subs)
}

// Apply returns doc with every recorded token replaced. Replacements are
// applied back-to-front by offset so that earlier offsets stay valid and
// identical embeds each receive their own replacement. A token whose offsets
// no longer match doc is left alone.
func (r *Rewriter) Apply(doc string) string {
	if len(r.subs) == 0 {
		return doc
	}

	subs := make([]substitution, len(r.subs))
	copy(subs, r.subs)
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].token.Start > subs[j].token.Start
	})

	out := doc
	limit := len(doc)
	for _, s := range subs {
		t := s.token
		if t.Start < 0 || t.End > limit || t.Start > t.End || out[t.Start:t.End] != t.Raw {
			continue
		}
		out = out[:t.Start] + s.replacement + out[t.End:]
		limit = t.Start
	}
	return out
}

// ImageMarkdown renders the publish form of an image embed.
func ImageMarkdown(caption, url string) string {
	return fmt.Sprintf("![%s](%s)", escapeAlt(caption), url)
}

// VideoTag renders the publish form of a video embed.
func VideoTag(url string) string {
	return fmt.Sprintf(`<video controls src="%s" style="max-width:100%%;border-radius:8px;"></video>`, url)
}

var altEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, "\n", " ")

func escapeAlt(s string) string {
	return altEscaper.Replace(s)
}
