package notify

// Level classifies a status message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
	// LevelSummary is the single end-of-run report.
	LevelSummary
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// Notifier shows a transient status message to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// Multi fans a message out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(level Level, msg string) {
	for _, n := range m {
		if n != nil {
			n.Notify(level, msg)
		}
	}
}

// Discard drops every message.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Notify(Level, string) {}
