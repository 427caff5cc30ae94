// Package points converts finalized session telemetry into idempotent,
// auditable reward transactions. Every award opportunity is identified by a
// reason string unique per user; the storage layer's uniqueness constraint
// on (user_id, reason) is the final arbiter, so retried or concurrent
// finalize calls can never double-award.
package points

import (
	"context"
	"errors"
	"time"

	"focustrack-go/internal/models"
)

// Error kinds surfaced to callers. A duplicate award is NOT an error: it is
// an idempotent no-op reported as awarded=false.
var (
	// ErrInsufficientFunds means a debit would take the balance negative.
	// The balance is left unchanged and no transaction is recorded.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrStorageUnavailable means the ledger could not be read or written.
	// Callers retry the whole finalize; idempotency keys make that safe.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Store is the transactionally-consistent view of a user's ledger. The gorm
// repository implements it for production; tests use an in-memory one.
type Store interface {
	// Award records amount for reason and bumps the user's balance in the
	// same storage transaction. Returns false with a nil error when the
	// (user, reason) pair already exists.
	Award(ctx context.Context, userID uint, amount int, reason string) (bool, error)

	// HasAward reports whether reason was ever granted to the user.
	HasAward(ctx context.Context, userID uint, reason string) (bool, error)

	// CountAwards counts the user's transactions whose reason starts with
	// prefix.
	CountAwards(ctx context.Context, userID uint, prefix string) (int, error)

	// SessionsEndedBetween returns the user's finalized sessions with
	// end_time in [from, to), breaks included.
	SessionsEndedBetween(ctx context.Context, userID uint, from, to time.Time) ([]models.StudySession, error)

	// Streak returns the user's attendance streak counter.
	Streak(ctx context.Context, userID uint) (int, error)

	// SetStreak overwrites the user's attendance streak counter.
	SetStreak(ctx context.Context, userID uint, count int) error

	// Debit atomically checks the balance, subtracts amount and records a
	// negative transaction. Returns ErrInsufficientFunds without side
	// effects when the balance cannot cover it.
	Debit(ctx context.Context, userID uint, amount int, reason string) error
}

// Config holds the reward rule parameters.
type Config struct {
	AttentionMinMinutes  int
	AttentionMinScore    int
	AttentionBonus       int
	HourlyBonus          int
	AttendanceMinSeconds int
	AttendanceBonus      int
	StreakInterval       int
	StreakBonus          int
}

// DefaultConfig mirrors the application config defaults.
func DefaultConfig() Config {
	return Config{
		AttentionMinMinutes:  25,
		AttentionMinScore:    60,
		AttentionBonus:       2,
		HourlyBonus:          5,
		AttendanceMinSeconds: 3600,
		AttendanceBonus:      2,
		StreakInterval:       7,
		StreakBonus:          2,
	}
}

// Engine evaluates the three reward rules against a Store.
type Engine struct {
	store Store
	cfg   Config
}

// NewEngine creates a points engine.
func NewEngine(store Store, cfg Config) *Engine {
	return &Engine{store: store, cfg: cfg}
}

// NetDuration is the session's study time with breaks taken out: the
// directly supplied aggregate wins when present, otherwise it is computed
// from the timestamps minus completed breaks. Open sessions have no net
// duration yet.
func NetDuration(s *models.StudySession) time.Duration {
	if s.SumStudyTimeSeconds != nil && *s.SumStudyTimeSeconds > 0 {
		return time.Duration(*s.SumStudyTimeSeconds * float64(time.Second))
	}
	if s.EndTime == nil {
		return 0
	}
	d := s.EndTime.Sub(s.StartTime)
	for i := range s.Breaks {
		d -= s.Breaks[i].Duration()
	}
	if d < 0 {
		return 0
	}
	return d
}

const dayLayout = "2006-01-02"
