package handler

import (
	"net/http"
	"strconv"
	"strings"

	"multiledger/internal/adapter/http/dto"
	"multiledger/internal/core/ports"
	"multiledger/pkg/apperror"
	"multiledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// QueryHandler handles the read-only endpoints.
type QueryHandler struct {
	query ports.QueryService
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(query ports.QueryService) *QueryHandler {
	return &QueryHandler{query: query}
}

// Balance handles GET /balance/:user_id. An optional ?currency= query
// narrows the listing to a single wallet.
func (h *QueryHandler) Balance(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	if currency := c.Query("currency"); currency != "" {
		balance, err := h.query.Balance(c.Request.Context(), userID, currency)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, dto.NewBalancesResponse(userID, map[string]decimal.Decimal{
			strings.ToUpper(strings.TrimSpace(currency)): balance,
		}))
		return
	}

	balances, err := h.query.AllBalances(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewBalancesResponse(userID, balances))
}

// Transactions handles GET /transactions/:user_id.
func (h *QueryHandler) Transactions(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	records, err := h.query.History(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewTransactionsResponse(records))
}

func parseUserID(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID < 1 {
		response.Error(c, apperror.ErrInvalidInput("user_id must be a positive integer"))
		return 0, false
	}
	return userID, true
}

// HealthCheck handles GET /health with deep dependency checks.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
