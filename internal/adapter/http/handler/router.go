package handler

import (
	"net/http"
	"time"

	"multiledger/internal/adapter/http/middleware"
	redisStore "multiledger/internal/adapter/storage/redis"
	"multiledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Engine           ports.TransactionEngine
	Query            ports.QueryService
	RateLimitStore   *redisStore.RateLimitStore   // nil = rate limiting disabled
	IdempotencyCache *redisStore.IdempotencyCache // nil = idempotency disabled
	IdempotencyTTL   time.Duration
	HealthCheckers   []ports.HealthChecker
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS())
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Liveness probe
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "API running"})
	})

	// Health check (deep — verifies configured storage backends)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// Idempotency dedup for movements, keyed by the optional header.
	idem := func(c *gin.Context) { c.Next() }
	if deps.IdempotencyCache != nil {
		idem = middleware.Idempotency(deps.IdempotencyCache, deps.IdempotencyTTL, deps.Logger)
	}

	ledgerHandler := NewLedgerHandler(deps.Engine)
	queryHandler := NewQueryHandler(deps.Query)

	r.GET("/balance/:user_id", rl("queries"), queryHandler.Balance)
	r.GET("/transactions/:user_id", rl("queries"), queryHandler.Transactions)
	r.POST("/deposit", rl("movements"), idem, ledgerHandler.Deposit)
	r.POST("/withdraw", rl("movements"), idem, ledgerHandler.Withdraw)

	return r
}
