package publish

import (
	"fmt"
	"strings"
)

// Summary tallies the outcome of one run.
type Summary struct {
	Uploaded int
	Deleted  int
	Failed   int
}

func pluralize(singular string, plural string, count int) string {
	var s string
	if count == 1 {
		s = singular
	} else {
		s = plural
	}
	return fmt.Sprintf("%d %s", count, s)
}

// String renders the summary line, e.g. "Uploaded 2 files • deleted 2.".
func (s Summary) String() string {
	var b strings.Builder
	b.WriteString("Uploaded ")
	b.WriteString(pluralize("file", "files", s.Uploaded))
	if s.Deleted > 0 {
		fmt.Fprintf(&b, " • deleted %d", s.Deleted)
	}
	if s.Failed > 0 {
		fmt.Fprintf(&b, " • failed %d", s.Failed)
	}
	b.WriteString(".")
	return b.String()
}

// Add accumulates other into s.
func (s *Summary) Add(other Summary) {
	s.Uploaded += other.Uploaded
	s.Deleted += other.Deleted
	s.Failed += other.Failed
}
