package repository

import (
	"context"
	"errors"
	"time"

	"focustrack-go/internal/database"
	"focustrack-go/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrNoOpenSession is returned when an operation needs an open session and
// the user has none.
var ErrNoOpenSession = errors.New("no open session")

// FinalizePayload is the session finalize input. Every field is optional;
// omitted fields leave the corresponding column unset.
type FinalizePayload struct {
	FocusScore   *float64 `json:"focus_score"`
	YawnCount    *int     `json:"yawn_count"`
	AvgYawn      *float64 `json:"avg_yawn"`
	SumStudyTime *float64 `json:"sum_study_time"`

	// BlinkCounts comes from the live pipeline, not the client.
	BlinkCounts []int64 `json:"-"`
}

// StartSession opens a new session for the user. Any session still open for
// that user is force-closed first, so at most one open session per user ever
// exists.
func StartSession(ctx context.Context, userID uint, now time.Time) (*models.StudySession, error) {
	session := &models.StudySession{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: now,
	}
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var openIDs []string
		if err := tx.Model(&models.StudySession{}).
			Where("user_id = ? AND end_time IS NULL", userID).
			Pluck("id", &openIDs).Error; err != nil {
			return err
		}
		if len(openIDs) > 0 {
			if err := tx.Model(&models.StudySession{}).
				Where("id IN ?", openIDs).
				Update("end_time", now).Error; err != nil {
				return err
			}
			// Close any break those sessions left dangling.
			if err := tx.Model(&models.Break{}).
				Where("session_id IN ? AND end_time IS NULL", openIDs).
				Update("end_time", now).Error; err != nil {
				return err
			}
		}
		return tx.Create(session).Error
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetOpenSession returns the user's open session, or ErrNoOpenSession.
func GetOpenSession(ctx context.Context, userID uint) (*models.StudySession, error) {
	var session models.StudySession
	err := database.DB.WithContext(ctx).
		Where("user_id = ? AND end_time IS NULL", userID).
		Order("start_time DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession loads a session with its breaks.
func GetSession(ctx context.Context, id string) (*models.StudySession, error) {
	var session models.StudySession
	err := database.DB.WithContext(ctx).Preload("Breaks").First(&session, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// FinishSession closes the session at now and applies the finalize payload.
// Finishing an already-finished session only re-applies the payload fields;
// the original end time stays. An open break is closed with the session.
func FinishSession(ctx context.Context, id string, now time.Time, payload FinalizePayload) (*models.StudySession, error) {
	var session models.StudySession
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Breaks").First(&session, "id = ?", id).Error; err != nil {
			return err
		}

		if session.EndTime == nil {
			session.EndTime = &now
			if err := tx.Model(&models.Break{}).
				Where("session_id = ? AND end_time IS NULL", id).
				Update("end_time", now).Error; err != nil {
				return err
			}
		}
		if payload.FocusScore != nil {
			session.FocusScore = payload.FocusScore
		}
		if payload.YawnCount != nil {
			session.YawnCount = *payload.YawnCount
		}
		if payload.AvgYawn != nil {
			session.AvgYawn = payload.AvgYawn
		}
		if payload.SumStudyTime != nil {
			session.SumStudyTimeSeconds = payload.SumStudyTime
		}
		if payload.BlinkCounts != nil {
			session.BlinkCounts = pq.Int64Array(payload.BlinkCounts)
		}
		return tx.Save(&session).Error
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// StartBreak opens a break on the session. At most one break per session is
// open at a time; an existing open break is closed first.
func StartBreak(ctx context.Context, sessionID, reason string, focusScore *float64, now time.Time) (*models.Break, error) {
	brk := &models.Break{
		SessionID:  sessionID,
		StartTime:  now,
		Reason:     reason,
		FocusScore: focusScore,
	}
	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Break{}).
			Where("session_id = ? AND end_time IS NULL", sessionID).
			Update("end_time", now).Error; err != nil {
			return err
		}
		return tx.Create(brk).Error
	})
	if err != nil {
		return nil, err
	}
	return brk, nil
}

// EndBreak closes the session's open break, if any.
func EndBreak(ctx context.Context, sessionID string, now time.Time) error {
	return database.DB.WithContext(ctx).Model(&models.Break{}).
		Where("session_id = ? AND end_time IS NULL", sessionID).
		Update("end_time", now).Error
}

// OpenSessionsStartedBefore lists sessions that have been open since before
// the cutoff. Used by the stale-session sweeper.
func OpenSessionsStartedBefore(ctx context.Context, cutoff time.Time) ([]models.StudySession, error) {
	var sessions []models.StudySession
	err := database.DB.WithContext(ctx).
		Where("end_time IS NULL AND start_time < ?", cutoff).
		Find(&sessions).Error
	return sessions, err
}
