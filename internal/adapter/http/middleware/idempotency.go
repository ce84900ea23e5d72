package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	redisStore "multiledger/internal/adapter/storage/redis"
	"multiledger/pkg/apperror"
	"multiledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HeaderIdempotencyKey is the optional client-supplied dedup key for
// movement requests.
const HeaderIdempotencyKey = "Idempotency-Key"

// storedResponse is the cached form of a completed movement response.
type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bodyCapture tees the response body so a successful movement can be cached
// for replay.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency deduplicates movement requests carrying an Idempotency-Key
// header. A replay of a completed request gets the original response; a
// replay racing the original gets a conflict. Requests without the header
// pass through untouched, and cache failures degrade to normal processing.
func Idempotency(cache *redisStore.IdempotencyCache, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()

		cached, err := cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency cache read failed, processing request (degraded mode)")
			c.Next()
			return
		}
		if cached != nil {
			if string(cached) == redisStore.InProgressMarker {
				response.Error(c, apperror.ErrDuplicateRequest())
				c.Abort()
				return
			}
			var stored storedResponse
			if err := json.Unmarshal(cached, &stored); err != nil {
				log.Warn().Err(err).Msg("corrupt idempotency cache entry, processing request")
			} else {
				c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
				c.Abort()
				return
			}
		}

		reserved, err := cache.Reserve(ctx, key, ttl)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency reserve failed, processing request (degraded mode)")
			c.Next()
			return
		}
		if !reserved {
			response.Error(c, apperror.ErrDuplicateRequest())
			c.Abort()
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		status := capture.Status()
		if status >= http.StatusInternalServerError {
			// Do not pin a server-side failure; let the client retry.
			if err := cache.Release(ctx, key); err != nil {
				log.Warn().Err(err).Msg("failed to release idempotency reservation")
			}
			return
		}

		payload, err := json.Marshal(storedResponse{Status: status, Body: capture.buf.Bytes()})
		if err == nil {
			err = cache.Set(ctx, key, payload, ttl)
		}
		if err != nil {
			log.Warn().Err(err).Msg("failed to store idempotent response")
			if relErr := cache.Release(ctx, key); relErr != nil {
				log.Warn().Err(relErr).Msg("failed to release idempotency reservation")
			}
		}
	}
}
