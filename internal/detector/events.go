package detector

import "time"

// EventKind identifies a debounced state transition.
type EventKind int

const (
	EventYawnStart EventKind = iota
	EventYawnEnd
	EventSleepStart
	EventSleepEnd
)

func (k EventKind) String() string {
	switch k {
	case EventYawnStart:
		return "yawn_start"
	case EventYawnEnd:
		return "yawn_end"
	case EventSleepStart:
		return "sleep_start"
	case EventSleepEnd:
		return "sleep_end"
	default:
		return "unknown"
	}
}

// Event is one emitted transition. Only end events carry a score, and only
// yawn ends carry the running average duration.
type Event struct {
	Kind EventKind
	At   time.Time

	// AttentionScore is set on EventYawnEnd and EventSleepEnd.
	AttentionScore float64

	// AvgYawnDuration is the mean of all completed yawn durations this
	// session, in seconds rounded to two decimals. Set on EventYawnEnd.
	AvgYawnDuration float64
}
