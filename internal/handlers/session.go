package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"focustrack-go/internal/detector"
	"focustrack-go/internal/models"
	"focustrack-go/internal/points"
	"focustrack-go/internal/repository"
	"focustrack-go/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	log     *zap.Logger
	monitor *services.Monitor
	engine  *points.Engine
}

func NewSessionHandler(log *zap.Logger, monitor *services.Monitor, engine *points.Engine) *SessionHandler {
	return &SessionHandler{log: log, monitor: monitor, engine: engine}
}

// Start opens a new study session for the logged-in user and spins up its
// monitoring pipeline. Any previous open session is force-closed.
func (h *SessionHandler) Start(c *gin.Context) {
	user := currentUser(c)

	session, err := repository.StartSession(c.Request.Context(), user.ID, time.Now())
	if err != nil {
		h.log.Error("Failed to start session", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}

	h.monitor.Begin(session.ID, user.ID, detector.FromConf())
	c.JSON(http.StatusCreated, gin.H{
		"session_id": session.ID,
		"start_time": session.StartTime,
	})
}

// Finish finalizes the session and runs the points engine. The call is
// idempotent: retries re-apply the payload but every reward is keyed, so
// points_added reflects only what this call actually granted.
func (h *SessionHandler) Finish(c *gin.Context) {
	user := currentUser(c)
	sessionID := c.Param("id")

	if !h.ownsSession(c, user, sessionID) {
		return
	}

	// An empty body is a valid finalize: every field is optional.
	var payload repository.FinalizePayload
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid finalize payload"})
		return
	}

	// The client's aggregates win; the live pipeline fills whatever the
	// client did not report.
	if summary, ok := h.monitor.End(sessionID); ok {
		if payload.FocusScore == nil {
			payload.FocusScore = &summary.AttentionScore
		}
		if payload.YawnCount == nil {
			payload.YawnCount = &summary.YawnCount
		}
		if payload.AvgYawn == nil && summary.YawnCount > 0 {
			payload.AvgYawn = &summary.AvgYawnDuration
		}
		payload.BlinkCounts = summary.BlinkCounts
	}

	session, err := repository.FinishSession(c.Request.Context(), sessionID, time.Now(), payload)
	if err != nil {
		h.log.Error("Failed to finish session", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finish session"})
		return
	}

	added, err := h.engine.FinalizeAwards(c.Request.Context(), session)
	if err != nil {
		if errors.Is(err, points.ErrStorageUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ledger unavailable, retry finalize"})
			return
		}
		h.log.Error("Points evaluation failed", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Points evaluation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"points_added": added})
}

type breakRequest struct {
	Reason     string   `json:"reason"`
	FocusScore *float64 `json:"focus_score"`
}

// StartBreak opens a break on the user's session.
func (h *SessionHandler) StartBreak(c *gin.Context) {
	user := currentUser(c)
	sessionID := c.Param("id")

	if !h.ownsSession(c, user, sessionID) {
		return
	}

	var req breakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	brk, err := repository.StartBreak(c.Request.Context(), sessionID, req.Reason, req.FocusScore, time.Now())
	if err != nil {
		h.log.Error("Failed to start break", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start break"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"break_id": brk.ID, "start_time": brk.StartTime})
}

// EndBreak closes the session's open break.
func (h *SessionHandler) EndBreak(c *gin.Context) {
	user := currentUser(c)
	sessionID := c.Param("id")

	if !h.ownsSession(c, user, sessionID) {
		return
	}

	if err := repository.EndBreak(c.Request.Context(), sessionID, time.Now()); err != nil {
		h.log.Error("Failed to end break", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end break"})
		return
	}
	c.Status(http.StatusOK)
}

// Events returns the session's event log in wire shape.
func (h *SessionHandler) Events(c *gin.Context) {
	user := currentUser(c)
	sessionID := c.Param("id")

	if !h.ownsSession(c, user, sessionID) {
		return
	}

	events, err := repository.EventsForSession(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error("Failed to load events", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load events"})
		return
	}

	wire := make([]any, 0, len(events))
	for i := range events {
		w, err := events[i].Wire()
		if err != nil {
			h.log.Warn("Skipping event with unknown channel",
				zap.Uint("event_id", events[i].ID), zap.Error(err))
			continue
		}
		wire = append(wire, w)
	}
	c.JSON(http.StatusOK, gin.H{"events": wire})
}

// ImportEvents accepts a batch of client-recorded events (offline capture).
// Events with malformed timestamps are skipped, the rest still land.
func (h *SessionHandler) ImportEvents(c *gin.Context) {
	user := currentUser(c)
	sessionID := c.Param("id")

	if !h.ownsSession(c, user, sessionID) {
		return
	}

	var raw []repository.RawEvent
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event batch"})
		return
	}

	stored, err := repository.ImportEvents(c.Request.Context(), h.log, sessionID, raw)
	if err != nil {
		h.log.Error("Failed to import events", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": stored, "skipped": len(raw) - stored})
}

// Status reports the live detector state for an actively monitored session.
func (h *SessionHandler) Status(c *gin.Context) {
	user := currentUser(c)
	sessionID := c.Param("id")

	if !h.ownsSession(c, user, sessionID) {
		return
	}

	summary, ok := h.monitor.Snapshot(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session is not being monitored"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ownsSession loads the session and rejects the request when it belongs to
// someone else. Writes the error response itself.
func (h *SessionHandler) ownsSession(c *gin.Context, user *models.User, sessionID string) bool {
	session, err := repository.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return false
	}
	if session.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your session"})
		return false
	}
	return true
}

// currentUser returns the user loaded by the router middleware. Routes using
// it sit behind AuthRequired, so the value is always present.
func currentUser(c *gin.Context) *models.User {
	user, _ := c.Get("user")
	return user.(*models.User)
}
