package points

import (
	"context"
	"fmt"
	"time"

	"focustrack-go/internal/models"
)

// FinalizeAwards runs all three reward rules for a just-finalized session
// and returns the total points actually added. Safe to call repeatedly for
// the same session: every grant is keyed, so a second pass adds nothing.
func (e *Engine) FinalizeAwards(ctx context.Context, session *models.StudySession) (int, error) {
	if session.EndTime == nil {
		return 0, fmt.Errorf("session %s is still open", session.ID)
	}

	total := 0

	added, err := e.attentionBonus(ctx, session)
	if err != nil {
		return total, err
	}
	total += added

	added, err = e.hourlyBonus(ctx, session.UserID, *session.EndTime)
	if err != nil {
		return total, err
	}
	total += added

	added, err = e.attendanceBonus(ctx, session.UserID, *session.EndTime)
	if err != nil {
		return total, err
	}
	total += added

	return total, nil
}

// Debit spends points from the user's balance, e.g. for a wager. Fails with
// ErrInsufficientFunds when the balance cannot cover the amount.
func (e *Engine) Debit(ctx context.Context, userID uint, amount int, reason string) error {
	return e.store.Debit(ctx, userID, amount, reason)
}

// attentionBonus: one bonus per session when the session ran long enough at
// a high enough average focus score.
func (e *Engine) attentionBonus(ctx context.Context, session *models.StudySession) (int, error) {
	if NetDuration(session) < time.Duration(e.cfg.AttentionMinMinutes)*time.Minute {
		return 0, nil
	}
	if session.FocusScore == nil || *session.FocusScore < float64(e.cfg.AttentionMinScore) {
		return 0, nil
	}

	reason := fmt.Sprintf("ATTN_%s_session:%s", session.EndTime.Format(dayLayout), session.ID)
	awarded, err := e.store.Award(ctx, session.UserID, e.cfg.AttentionBonus, reason)
	if err != nil || !awarded {
		return 0, err
	}
	return e.cfg.AttentionBonus, nil
}

// hourlyBonus: one bonus per full hour of net study accumulated across the
// calendar day of the session's end. Keys are HOUR_<date>_<k> for k=1,2,...
// strictly increasing with no gaps, so re-evaluation after every finalize
// grants only the delta.
func (e *Engine) hourlyBonus(ctx context.Context, userID uint, endedAt time.Time) (int, error) {
	dayStart, dayEnd := dayBounds(endedAt)
	date := endedAt.Format(dayLayout)

	totalSeconds, err := e.netSecondsBetween(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return 0, err
	}
	totalHours := int(totalSeconds) / 3600

	given, err := e.store.CountAwards(ctx, userID, fmt.Sprintf("HOUR_%s_", date))
	if err != nil {
		return 0, err
	}

	total := 0
	for k := given + 1; k <= totalHours; k++ {
		awarded, err := e.store.Award(ctx, userID, e.cfg.HourlyBonus, fmt.Sprintf("HOUR_%s_%d", date, k))
		if err != nil {
			return total, err
		}
		if awarded {
			total += e.cfg.HourlyBonus
		}
	}
	return total, nil
}

// attendanceBonus: one daily bonus once the day's net study crosses the
// attendance threshold, plus streak upkeep and a weekly bonus every
// StreakInterval consecutive attended days.
func (e *Engine) attendanceBonus(ctx context.Context, userID uint, endedAt time.Time) (int, error) {
	date := endedAt.Format(dayLayout)
	reason := "ATTEND_" + date

	has, err := e.store.HasAward(ctx, userID, reason)
	if err != nil {
		return 0, err
	}
	if has {
		return 0, nil
	}

	dayStart, dayEnd := dayBounds(endedAt)
	totalSeconds, err := e.netSecondsBetween(ctx, userID, dayStart, dayEnd)
	if err != nil {
		return 0, err
	}
	if totalSeconds < float64(e.cfg.AttendanceMinSeconds) {
		return 0, nil
	}

	awarded, err := e.store.Award(ctx, userID, e.cfg.AttendanceBonus, reason)
	if err != nil {
		return 0, err
	}
	if !awarded {
		// Lost a race against a concurrent finalize; that call owns the
		// streak update too.
		return 0, nil
	}
	total := e.cfg.AttendanceBonus

	yesterday := "ATTEND_" + dayStart.AddDate(0, 0, -1).Format(dayLayout)
	attendedYesterday, err := e.store.HasAward(ctx, userID, yesterday)
	if err != nil {
		return total, err
	}

	streak := 1
	if attendedYesterday {
		prev, err := e.store.Streak(ctx, userID)
		if err != nil {
			return total, err
		}
		streak = prev + 1
	}
	if err := e.store.SetStreak(ctx, userID, streak); err != nil {
		return total, err
	}

	if e.cfg.StreakInterval > 0 && streak%e.cfg.StreakInterval == 0 {
		awarded, err := e.store.Award(ctx, userID, e.cfg.StreakBonus, "ATTEND_WEEK_"+date)
		if err != nil {
			return total, err
		}
		if awarded {
			total += e.cfg.StreakBonus
		}
	}
	return total, nil
}

// netSecondsBetween sums net study duration over the user's sessions that
// ended inside [from, to).
func (e *Engine) netSecondsBetween(ctx context.Context, userID uint, from, to time.Time) (float64, error) {
	sessions, err := e.store.SessionsEndedBetween(ctx, userID, from, to)
	if err != nil {
		return 0, err
	}
	var total float64
	for i := range sessions {
		total += NetDuration(&sessions[i]).Seconds()
	}
	return total, nil
}

// dayBounds returns the local-timezone midnight bounds of t's calendar day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.Local()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
