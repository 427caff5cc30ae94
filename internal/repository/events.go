package repository

import (
	"context"

	"focustrack-go/internal/database"
	"focustrack-go/internal/detector"
	"focustrack-go/internal/models"

	"go.uber.org/zap"
)

// SaveDetectorEvent appends one emitted detector event to the session's
// event log, translating it to the wire tags.
func SaveDetectorEvent(ctx context.Context, sessionID string, ev detector.Event) error {
	row := models.SessionEvent{
		SessionID: sessionID,
		Timestamp: ev.At,
	}
	switch ev.Kind {
	case detector.EventYawnStart:
		row.Channel = models.ChannelYawn
		row.Type = models.WireStart
	case detector.EventYawnEnd:
		row.Channel = models.ChannelYawn
		row.Type = models.WireYawnEnd
		avg, score := ev.AvgYawnDuration, ev.AttentionScore
		row.AvgYawnDuration = &avg
		row.AttentionScore = &score
	case detector.EventSleepStart:
		row.Channel = models.ChannelSleep
		row.Type = models.WireStart
	case detector.EventSleepEnd:
		row.Channel = models.ChannelSleep
		row.Type = models.WireDrowsyEnd
		score := ev.AttentionScore
		row.AttentionScore = &score
	}
	return database.DB.WithContext(ctx).Create(&row).Error
}

// ImportEvents appends a batch of already-serialized events (the offline
// client upload path). A malformed timestamp rejects that single event and
// the rest of the batch still lands; the number of stored events is
// returned.
func ImportEvents(ctx context.Context, log *zap.Logger, sessionID string, raw []RawEvent) (int, error) {
	stored := 0
	for _, r := range raw {
		ts, err := models.ParseEventTime(r.Timestamp)
		if err != nil {
			log.Warn("Skipping event with malformed timestamp",
				zap.String("session_id", sessionID),
				zap.String("timestamp", r.Timestamp),
				zap.Error(err))
			continue
		}
		row := models.SessionEvent{
			SessionID:       sessionID,
			Channel:         r.Channel,
			Type:            r.Type,
			Timestamp:       ts,
			AvgYawnDuration: r.AvgYawnDuration,
			AttentionScore:  r.AttentionScore,
		}
		if err := database.DB.WithContext(ctx).Create(&row).Error; err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// RawEvent is the client-supplied event shape for batch import.
type RawEvent struct {
	Channel         string   `json:"channel"`
	Type            string   `json:"type"`
	Timestamp       string   `json:"timestamp"`
	AvgYawnDuration *float64 `json:"avg_yawn_duration"`
	AttentionScore  *float64 `json:"attention_score"`
}

// EventsForSession returns the session's event log in order.
func EventsForSession(ctx context.Context, sessionID string) ([]models.SessionEvent, error) {
	var events []models.SessionEvent
	err := database.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		Find(&events).Error
	return events, err
}
