package models

import (
	"fmt"
	"time"
)

// EventTimeLayout is the wire timestamp format for detector events.
const EventTimeLayout = "2006-01-02 15:04:05"

// Wire type tags. Both channels open with "start"; the closing tags differ
// per channel. "drowys_end" is a legacy misspelling of "drowsy_end" that is
// preserved verbatim: persisted logs and downstream consumers match on it.
const (
	WireStart     = "start"
	WireYawnEnd   = "yawn_end"
	WireDrowsyEnd = "drowys_end"
)

// Event channels.
const (
	ChannelYawn  = "yawn"
	ChannelSleep = "sleep"
)

// SessionEvent is one detector event appended to a session's event log.
// Rows are append-only and never mutated after creation.
type SessionEvent struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"index;size:36"`
	Channel   string `gorm:"size:10"` // "yawn" or "sleep"
	Type      string `gorm:"size:16"` // wire tag: "start", "yawn_end", "drowys_end"
	Timestamp time.Time

	// Only end events carry these.
	AvgYawnDuration *float64
	AttentionScore  *float64

	CreatedAt time.Time
}

// YawnEvent is the wire shape for yawn-channel events. Only the yawn_end
// variant carries the optional fields.
type YawnEvent struct {
	Type            string   `json:"type"`
	Timestamp       string   `json:"timestamp"`
	AvgYawnDuration *float64 `json:"avg_yawn_duration,omitempty"`
	AttentionScore  *float64 `json:"attention_score,omitempty"`
}

// SleepEvent is the wire shape for sleep-channel events. Only the drowys_end
// variant carries the score.
type SleepEvent struct {
	Type           string   `json:"type"`
	Timestamp      string   `json:"timestamp"`
	AttentionScore *float64 `json:"attention_score,omitempty"`
}

// Wire converts the stored event into its channel-specific wire shape.
func (e *SessionEvent) Wire() (any, error) {
	ts := e.Timestamp.Format(EventTimeLayout)
	switch e.Channel {
	case ChannelYawn:
		return &YawnEvent{
			Type:            e.Type,
			Timestamp:       ts,
			AvgYawnDuration: e.AvgYawnDuration,
			AttentionScore:  e.AttentionScore,
		}, nil
	case ChannelSleep:
		return &SleepEvent{
			Type:           e.Type,
			Timestamp:      ts,
			AttentionScore: e.AttentionScore,
		}, nil
	default:
		return nil, fmt.Errorf("unknown event channel %q", e.Channel)
	}
}

// ParseEventTime parses a wire timestamp. Callers reject the single event on
// error rather than aborting the batch it arrived in.
func ParseEventTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(EventTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed event timestamp %q: %w", s, err)
	}
	return t, nil
}
