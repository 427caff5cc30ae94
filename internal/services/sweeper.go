package services

import (
	"context"
	"time"

	"focustrack-go/internal/config"
	"focustrack-go/internal/points"
	"focustrack-go/internal/repository"

	"go.uber.org/zap"
)

// Sweeper force-finishes sessions that were left open past the configured
// horizon (browser crashes, dropped connections). Finalizing through the
// points engine keeps abandoned sessions eligible for the same rewards.
type Sweeper struct {
	log     *zap.Logger
	monitor *Monitor
	engine  *points.Engine
}

func NewSweeper(log *zap.Logger, monitor *Monitor, engine *points.Engine) *Sweeper {
	return &Sweeper{
		log:     log,
		monitor: monitor,
		engine:  engine,
	}
}

// Start runs the sweeper in a goroutine.
func (s *Sweeper) Start() {
	s.log.Info("Starting stale session sweeper...")
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			<-ticker.C
			s.sweep()
		}
	}()
}

func (s *Sweeper) sweep() {
	cutoff := time.Now().Add(-time.Duration(config.Conf.Session.MaxOpenHours) * time.Hour)
	sessions, err := repository.OpenSessionsStartedBefore(context.Background(), cutoff)
	if err != nil {
		s.log.Error("Failed to list stale sessions", zap.Error(err))
		return
	}

	for i := range sessions {
		stale := &sessions[i]

		payload := repository.FinalizePayload{}
		if summary, ok := s.monitor.End(stale.ID); ok {
			payload.FocusScore = &summary.AttentionScore
			payload.YawnCount = &summary.YawnCount
			payload.BlinkCounts = summary.BlinkCounts
			if summary.YawnCount > 0 {
				payload.AvgYawn = &summary.AvgYawnDuration
			}
		}

		finished, err := repository.FinishSession(context.Background(), stale.ID, time.Now(), payload)
		if err != nil {
			s.log.Error("Failed to force-finish stale session",
				zap.String("session_id", stale.ID), zap.Error(err))
			continue
		}

		added, err := s.engine.FinalizeAwards(context.Background(), finished)
		if err != nil {
			s.log.Error("Points evaluation failed for stale session",
				zap.String("session_id", stale.ID), zap.Error(err))
			continue
		}
		s.log.Info("Force-finished stale session",
			zap.String("session_id", stale.ID),
			zap.Uint("user_id", stale.UserID),
			zap.Int("points_added", added))
	}
}
