package models

import (
	"time"

	"github.com/lib/pq"
)

// StudySession is one monitored study activity. A user has at most one open
// session (EndTime == nil) at a time; starting a new session force-closes any
// prior open one. Sessions are archival records and are never deleted.
type StudySession struct {
	ID     string `gorm:"primaryKey;size:36"`
	UserID uint   `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	StartTime time.Time
	EndTime   *time.Time `gorm:"index"`

	// Aggregate telemetry, set on finalize. All nullable: a finalize payload
	// may omit any of them and the column is then left unset.
	FocusScore          *float64
	YawnCount           int `gorm:"not null;default:0"`
	AvgYawn             *float64
	SumStudyTimeSeconds *float64

	// BlinkCounts holds the per-minute blink counts observed while the
	// session was monitored, oldest first.
	BlinkCounts pq.Int64Array `gorm:"type:integer[]"`

	Breaks []Break `gorm:"foreignKey:SessionID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open reports whether the session has not been finalized yet.
func (s *StudySession) Open() bool {
	return s.EndTime == nil
}

// Break is a pause within a single session. At most one break per session is
// open at a time.
type Break struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"index;size:36"`
	StartTime  time.Time
	EndTime    *time.Time
	Reason     string
	FocusScore *float64

	CreatedAt time.Time
}

// Duration returns the completed break length, or zero while the break is
// still open.
func (b *Break) Duration() time.Duration {
	if b.EndTime == nil {
		return 0
	}
	return b.EndTime.Sub(b.StartTime)
}
