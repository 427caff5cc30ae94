package handlers

import (
	"net/http"
	"time"

	"focustrack-go/internal/config"
	"focustrack-go/internal/detector"
	"focustrack-go/internal/repository"
	"focustrack-go/internal/services"
	"focustrack-go/internal/vision"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type MonitorHandler struct {
	log      *zap.Logger
	monitor  *services.Monitor
	upgrader websocket.Upgrader
}

func NewMonitorHandler(log *zap.Logger, monitor *services.Monitor) *MonitorHandler {
	return &MonitorHandler{
		log:     log,
		monitor: monitor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// Cookie-session auth already ran; same-origin is enforced by
			// the browser sending the session cookie.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// framePayload is one websocket message: the landmark set the client's face
// mesh produced for a frame, or landmarks=null when no face was found.
// Timestamp is client capture time in Unix milliseconds; zero means "now".
type framePayload struct {
	Timestamp int64                 `json:"timestamp"`
	Landmarks *vision.FaceLandmarks `json:"landmarks"`
}

// statusPayload is pushed back periodically so the client can render the
// live score without a second request channel.
type statusPayload struct {
	Type string `json:"type"`
	services.Summary
}

// statusEvery is how many frames pass between status pushes.
const statusEvery = 30

// Stream is the per-session frame ingestion socket. Frames are classified
// here (pure math) and handed to the session's single worker; this keeps
// the websocket read loop as the one producer for that session.
func (h *MonitorHandler) Stream(c *gin.Context) {
	user := currentUser(c)
	sessionID := c.Param("id")

	session, err := repository.GetSession(c.Request.Context(), sessionID)
	if err != nil || session.UserID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if _, ok := h.monitor.Snapshot(sessionID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session is not being monitored"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.log.Info("Frame stream opened",
		zap.String("session_id", sessionID),
		zap.Uint("user_id", user.ID))

	det := config.Conf.Detection
	frames := 0
	for {
		var payload framePayload
		if err := conn.ReadJSON(&payload); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("Frame stream closed unexpectedly",
					zap.String("session_id", sessionID), zap.Error(err))
			}
			return
		}

		frame := detector.Frame{At: time.Now()}
		if payload.Timestamp > 0 {
			frame.At = time.UnixMilli(payload.Timestamp)
		}
		if payload.Landmarks != nil {
			frame.FaceDetected = true
			frame.EyesClosed = vision.EyesClosed(payload.Landmarks, det.EyeClosedArea)
			_, frame.MouthOpenRatio = vision.MouthOpenRatio(payload.Landmarks, det.YawnRatio)
		}

		if !h.monitor.Feed(sessionID, frame) {
			// Session was finished underneath us; tell the client and stop.
			conn.WriteJSON(gin.H{"type": "ended"})
			return
		}

		frames++
		if frames%statusEvery == 0 {
			if summary, ok := h.monitor.Snapshot(sessionID); ok {
				if err := conn.WriteJSON(statusPayload{Type: "status", Summary: summary}); err != nil {
					return
				}
			}
		}
	}
}
