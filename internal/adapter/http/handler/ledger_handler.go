package handler

import (
	"multiledger/internal/adapter/http/dto"
	"multiledger/internal/core/ports"
	"multiledger/pkg/apperror"
	"multiledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// LedgerHandler handles the movement endpoints.
type LedgerHandler struct {
	engine ports.TransactionEngine
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(engine ports.TransactionEngine) *LedgerHandler {
	return &LedgerHandler{engine: engine}
}

// Deposit handles POST /deposit.
func (h *LedgerHandler) Deposit(c *gin.Context) {
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidInput(err.Error()))
		return
	}

	rec, err := h.engine.Deposit(c.Request.Context(), req.UserID, req.Currency, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewMovementResponse(rec))
}

// Withdraw handles POST /withdraw.
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.ErrInvalidInput(err.Error()))
		return
	}

	rec, err := h.engine.Withdraw(c.Request.Context(), req.UserID, req.Currency, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewMovementResponse(rec))
}
