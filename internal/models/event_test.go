package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWirePreservesLegacyDrowsyTag(t *testing.T) {
	score := 85.0
	row := SessionEvent{
		Channel:        ChannelSleep,
		Type:           WireDrowsyEnd,
		Timestamp:      time.Date(2025, 6, 2, 14, 30, 15, 0, time.Local),
		AttentionScore: &score,
	}

	wire, err := row.Wire()
	require.NoError(t, err)
	raw, err := json.Marshal(wire)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"type":"drowys_end","timestamp":"2025-06-02 14:30:15","attention_score":85}`,
		string(raw))
}

func TestWireOmitsFieldsOnStart(t *testing.T) {
	row := SessionEvent{
		Channel:   ChannelYawn,
		Type:      WireStart,
		Timestamp: time.Date(2025, 6, 2, 14, 30, 15, 0, time.Local),
	}

	wire, err := row.Wire()
	require.NoError(t, err)
	raw, err := json.Marshal(wire)
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"start","timestamp":"2025-06-02 14:30:15"}`, string(raw))
}

func TestWireYawnEndCarriesAverages(t *testing.T) {
	avg, score := 4.25, 92.0
	row := SessionEvent{
		Channel:         ChannelYawn,
		Type:            WireYawnEnd,
		Timestamp:       time.Date(2025, 6, 2, 9, 5, 0, 0, time.Local),
		AvgYawnDuration: &avg,
		AttentionScore:  &score,
	}

	wire, err := row.Wire()
	require.NoError(t, err)
	raw, err := json.Marshal(wire)
	require.NoError(t, err)

	assert.JSONEq(t,
		`{"type":"yawn_end","timestamp":"2025-06-02 09:05:00","avg_yawn_duration":4.25,"attention_score":92}`,
		string(raw))
}

func TestWireRejectsUnknownChannel(t *testing.T) {
	row := SessionEvent{Channel: "posture"}
	_, err := row.Wire()
	assert.Error(t, err)
}

func TestParseEventTime(t *testing.T) {
	ts, err := ParseEventTime("2025-06-02 14:30:15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 2, 14, 30, 15, 0, time.Local), ts)

	_, err = ParseEventTime("02/06/2025 14:30")
	assert.Error(t, err)
}
