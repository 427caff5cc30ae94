package points

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"focustrack-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory points.Store with the same idempotency contract
// as the gorm-backed one.
type memStore struct {
	mu       sync.Mutex
	awards   map[uint]map[string]int
	sessions []models.StudySession
	streaks  map[uint]int
	balances map[uint]int
}

func newMemStore() *memStore {
	return &memStore{
		awards:   make(map[uint]map[string]int),
		streaks:  make(map[uint]int),
		balances: make(map[uint]int),
	}
}

func (m *memStore) Award(_ context.Context, userID uint, amount int, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.awards[userID] == nil {
		m.awards[userID] = make(map[string]int)
	}
	if _, exists := m.awards[userID][reason]; exists {
		return false, nil
	}
	m.awards[userID][reason] = amount
	m.balances[userID] += amount
	return true, nil
}

func (m *memStore) HasAward(_ context.Context, userID uint, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.awards[userID][reason]
	return ok, nil
}

func (m *memStore) CountAwards(_ context.Context, userID uint, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for reason := range m.awards[userID] {
		if strings.HasPrefix(reason, prefix) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) SessionsEndedBetween(_ context.Context, userID uint, from, to time.Time) ([]models.StudySession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudySession
	for _, s := range m.sessions {
		if s.UserID != userID || s.EndTime == nil {
			continue
		}
		if !s.EndTime.Before(from) && s.EndTime.Before(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) Streak(_ context.Context, userID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streaks[userID], nil
}

func (m *memStore) SetStreak(_ context.Context, userID uint, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streaks[userID] = count
	return nil
}

func (m *memStore) Debit(_ context.Context, userID uint, amount int, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.awards[userID] == nil {
		m.awards[userID] = make(map[string]int)
	}
	if _, exists := m.awards[userID][reason]; exists {
		return nil
	}
	if m.balances[userID] < amount {
		return ErrInsufficientFunds
	}
	m.awards[userID][reason] = -amount
	m.balances[userID] -= amount
	return nil
}

func (m *memStore) balance(userID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID]
}

func floatPtr(v float64) *float64 { return &v }

// sessionEnding builds a finalized session with the given net minutes,
// ending at end, for user 1.
func sessionEnding(id string, end time.Time, netMinutes int, focus *float64) models.StudySession {
	start := end.Add(-time.Duration(netMinutes) * time.Minute)
	return models.StudySession{
		ID:         id,
		UserID:     1,
		StartTime:  start,
		EndTime:    &end,
		FocusScore: focus,
	}
}

func fixedDay(hour, min int) time.Time {
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.Local)
}

func TestNetDuration(t *testing.T) {
	end := fixedDay(10, 0)
	s := sessionEnding("s1", end, 60, nil)

	assert.Equal(t, time.Hour, NetDuration(&s))

	// Completed breaks come out of the wall-clock span.
	breakEnd := end.Add(-10 * time.Minute)
	s.Breaks = []models.Break{{
		StartTime: breakEnd.Add(-15 * time.Minute),
		EndTime:   &breakEnd,
	}}
	assert.Equal(t, 45*time.Minute, NetDuration(&s))

	// An open break contributes nothing.
	s.Breaks = append(s.Breaks, models.Break{StartTime: end.Add(-5 * time.Minute)})
	assert.Equal(t, 45*time.Minute, NetDuration(&s))

	// A directly supplied aggregate wins over the timestamps.
	s.SumStudyTimeSeconds = floatPtr(1800)
	assert.Equal(t, 30*time.Minute, NetDuration(&s))

	// Open sessions have no net duration.
	open := models.StudySession{StartTime: fixedDay(9, 0)}
	assert.Equal(t, time.Duration(0), NetDuration(&open))
}

func TestAttentionBonus(t *testing.T) {
	tests := []struct {
		name       string
		netMinutes int
		focus      *float64
		want       int
	}{
		{"long focused session earns it", 30, floatPtr(75), 2},
		{"too short", 20, floatPtr(75), 0},
		{"score too low", 30, floatPtr(59), 0},
		{"no score reported", 30, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			engine := NewEngine(store, DefaultConfig())

			s := sessionEnding("s1", fixedDay(10, 0), tt.netMinutes, tt.focus)
			store.sessions = append(store.sessions, s)

			added, err := engine.attentionBonus(context.Background(), &s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, added)
		})
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, DefaultConfig())

	// 3h12m of net study in one session, good focus.
	s := sessionEnding("s1", fixedDay(15, 0), 192, floatPtr(80))
	store.sessions = append(store.sessions, s)

	added, err := engine.FinalizeAwards(context.Background(), &s)
	require.NoError(t, err)
	// +2 attention, 3 × +5 hourly, +2 attendance.
	assert.Equal(t, 19, added)
	balance := store.balance(1)

	again, err := engine.FinalizeAwards(context.Background(), &s)
	require.NoError(t, err)
	assert.Zero(t, again)
	assert.Equal(t, balance, store.balance(1))
}

func TestHourlyBonusGrantsOnlyDelta(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, DefaultConfig())

	// First session of the day: 1h30m. One hourly award.
	s1 := sessionEnding("s1", fixedDay(10, 0), 90, nil)
	store.sessions = append(store.sessions, s1)
	added, err := engine.hourlyBonus(context.Background(), 1, *s1.EndTime)
	require.NoError(t, err)
	assert.Equal(t, 5, added)

	// Second session pushes the day total to 3h12m: exactly two more.
	s2 := sessionEnding("s2", fixedDay(15, 0), 102, nil)
	store.sessions = append(store.sessions, s2)
	added, err = engine.hourlyBonus(context.Background(), 1, *s2.EndTime)
	require.NoError(t, err)
	assert.Equal(t, 10, added)

	// Re-evaluation grants nothing further.
	added, err = engine.hourlyBonus(context.Background(), 1, *s2.EndTime)
	require.NoError(t, err)
	assert.Zero(t, added)

	keys, err := store.CountAwards(context.Background(), 1, "HOUR_2025-06-02_")
	require.NoError(t, err)
	assert.Equal(t, 3, keys)
}

func TestAttendanceRequiresAnHour(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, DefaultConfig())

	s := sessionEnding("s1", fixedDay(10, 0), 45, nil)
	store.sessions = append(store.sessions, s)

	added, err := engine.attendanceBonus(context.Background(), 1, *s.EndTime)
	require.NoError(t, err)
	assert.Zero(t, added)

	streak, _ := store.Streak(context.Background(), 1)
	assert.Zero(t, streak)
}

func TestAttendanceStreakWeeklyBonus(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, DefaultConfig())

	day1 := time.Date(2025, 6, 2, 20, 0, 0, 0, time.Local)
	for day := 0; day < 7; day++ {
		end := day1.AddDate(0, 0, day)
		s := sessionEnding("s"+end.Format("0102"), end, 90, nil)
		store.sessions = append(store.sessions, s)

		added, err := engine.attendanceBonus(context.Background(), 1, end)
		require.NoError(t, err)

		if day == 6 {
			// Day 7: attendance +2 and the weekly streak bonus +2.
			assert.Equal(t, 4, added)
		} else {
			assert.Equal(t, 2, added)
		}

		streak, _ := store.Streak(context.Background(), 1)
		assert.Equal(t, day+1, streak)
	}

	// Re-evaluating day 7 repeats nothing.
	added, err := engine.attendanceBonus(context.Background(), 1, day1.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Zero(t, added)

	streak, _ := store.Streak(context.Background(), 1)
	assert.Equal(t, 7, streak)
}

func TestAttendanceStreakResetsAfterGap(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, DefaultConfig())

	day1 := time.Date(2025, 6, 2, 20, 0, 0, 0, time.Local)
	for _, day := range []int{0, 1, 3} { // a gap on day 2
		end := day1.AddDate(0, 0, day)
		s := sessionEnding("s"+end.Format("0102"), end, 90, nil)
		store.sessions = append(store.sessions, s)

		_, err := engine.attendanceBonus(context.Background(), 1, end)
		require.NoError(t, err)
	}

	streak, _ := store.Streak(context.Background(), 1)
	assert.Equal(t, 1, streak)
}

func TestDebitInsufficientFunds(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, DefaultConfig())

	_, err := store.Award(context.Background(), 1, 10, "seed")
	require.NoError(t, err)

	err = engine.Debit(context.Background(), 1, 25, "WAGER_1")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 10, store.balance(1))

	require.NoError(t, engine.Debit(context.Background(), 1, 6, "WAGER_2"))
	assert.Equal(t, 4, store.balance(1))

	// Retrying the same wager is a no-op.
	require.NoError(t, engine.Debit(context.Background(), 1, 6, "WAGER_2"))
	assert.Equal(t, 4, store.balance(1))
}

func TestFinalizeRejectsOpenSession(t *testing.T) {
	engine := NewEngine(newMemStore(), DefaultConfig())
	open := models.StudySession{ID: "s1", UserID: 1, StartTime: fixedDay(9, 0)}

	_, err := engine.FinalizeAwards(context.Background(), &open)
	assert.Error(t, err)
}
