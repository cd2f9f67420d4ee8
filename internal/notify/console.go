package notify

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// Console writes messages to a terminal, coloured by level.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	styles map[Level]*color.Color
	quiet  bool
}

// NewConsole creates a console notifier writing to out. With noColor set no
// escape codes are written. A quiet console only prints warnings, errors and
// the summary.
func NewConsole(out io.Writer, noColor, quiet bool) *Console {
	styles := map[Level]*color.Color{
		LevelInfo:    color.New(color.FgCyan),
		LevelWarn:    color.New(color.FgYellow),
		LevelError:   color.New(color.FgRed, color.Bold),
		LevelSummary: color.New(color.FgGreen, color.Bold),
	}
	for _, c := range styles {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return &Console{out: out, styles: styles, quiet: quiet}
}

// Notify implements Notifier.
func (c *Console) Notify(level Level, msg string) {
	if c.quiet && level == LevelInfo {
		return
	}
	style, ok := c.styles[level]
	if !ok {
		style = c.styles[LevelInfo]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	style.Fprintln(c.out, msg)
}
