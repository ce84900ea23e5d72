package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"multiledger/internal/adapter/http/middleware"
	redisStore "multiledger/internal/adapter/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIdempotencyRouter(t *testing.T, status int, body gin.H) (*gin.Engine, *miniredis.Miniredis, *int) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache := redisStore.NewIdempotencyCache(client)

	gin.SetMode(gin.TestMode)
	r := gin.New()

	calls := 0
	r.POST("/deposit", middleware.Idempotency(cache, time.Hour, zerolog.Nop()), func(c *gin.Context) {
		calls++
		c.JSON(status, body)
	})
	return r, mr, &calls
}

func post(r *gin.Engine, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/deposit", nil)
	if key != "" {
		req.Header.Set(middleware.HeaderIdempotencyKey, key)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	r, _, calls := setupIdempotencyRouter(t, 200, gin.H{"status": "SUCCESS"})

	post(r, "")
	post(r, "")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_ReplayServesCachedResponse(t *testing.T) {
	r, _, calls := setupIdempotencyRouter(t, 200, gin.H{"status": "SUCCESS", "new_balance": "100.00"})

	first := post(r, "key-1")
	require.Equal(t, 200, first.Code)

	second := post(r, "key-1")
	assert.Equal(t, 200, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, *calls, "handler must run exactly once per key")
}

func TestIdempotency_DistinctKeysRunSeparately(t *testing.T) {
	r, _, calls := setupIdempotencyRouter(t, 200, gin.H{"status": "SUCCESS"})

	post(r, "key-1")
	post(r, "key-2")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_InFlightReplayConflicts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := redisStore.NewIdempotencyCache(client)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/deposit", middleware.Idempotency(cache, time.Hour, zerolog.Nop()), func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "SUCCESS"})
	})

	// Simulate the original request still holding its reservation.
	mr.Set("idempotency:key-1", redisStore.InProgressMarker)

	w := post(r, "key-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"detail":"Duplicate request currently processing","code":"LED_006"}`, w.Body.String())
}

func TestIdempotency_ServerErrorIsNotPinned(t *testing.T) {
	r, _, calls := setupIdempotencyRouter(t, 500, gin.H{"detail": "Internal server error"})

	first := post(r, "key-1")
	require.Equal(t, 500, first.Code)

	// The failure released the key; a retry runs the handler again.
	second := post(r, "key-1")
	assert.Equal(t, 500, second.Code)
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_DegradedModeOnCacheFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := redisStore.NewIdempotencyCache(client)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	calls := 0
	r.POST("/deposit", middleware.Idempotency(cache, time.Hour, zerolog.Nop()), func(c *gin.Context) {
		calls++
		c.JSON(200, gin.H{"status": "SUCCESS"})
	})

	mr.Close()

	w := post(r, "key-1")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, 1, calls)
}
