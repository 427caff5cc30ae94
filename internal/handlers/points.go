package handlers

import (
	"errors"
	"net/http"

	"focustrack-go/internal/points"
	"focustrack-go/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PointsHandler struct {
	log    *zap.Logger
	engine *points.Engine
}

func NewPointsHandler(log *zap.Logger, engine *points.Engine) *PointsHandler {
	return &PointsHandler{log: log, engine: engine}
}

// Balance returns the user's current balance and ledger history.
func (h *PointsHandler) Balance(c *gin.Context) {
	user := currentUser(c)

	txns, err := repository.GetTransactions(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("Failed to load transactions", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transactions"})
		return
	}

	history := make([]gin.H, 0, len(txns))
	for _, t := range txns {
		history = append(history, gin.H{
			"amount":    t.Amount,
			"reason":    t.Reason,
			"timestamp": t.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"points":           user.Points,
		"continuous_count": user.ContinuousCount,
		"transactions":     history,
	})
}

type debitRequest struct {
	Amount int    `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason" binding:"required"`
}

// Spend debits points from the balance, e.g. a wagered reservation. The
// reason doubles as the idempotency key, so a retried spend is harmless.
func (h *PointsHandler) Spend(c *gin.Context) {
	user := currentUser(c)

	var req debitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err := h.engine.Debit(c.Request.Context(), user.ID, req.Amount, req.Reason)
	switch {
	case errors.Is(err, points.ErrInsufficientFunds):
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient points"})
	case errors.Is(err, points.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ledger unavailable, retry"})
	case err != nil:
		h.log.Error("Debit failed", zap.Uint("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Debit failed"})
	default:
		c.Status(http.StatusOK)
	}
}
