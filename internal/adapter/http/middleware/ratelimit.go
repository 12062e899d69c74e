package middleware

import (
	"fmt"
	"strconv"
	"time"

	"bank-transfer-saga/internal/core/ports"
	"bank-transfer-saga/pkg/apperror"
	"bank-transfer-saga/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitRule defines a rate limit for an endpoint group.
type RateLimitRule struct {
	Limit  int64
	Window time.Duration
}

// RateLimiter throttles an endpoint group per client. Store errors let the
// request through.
func RateLimiter(store ports.RateLimitStore, group string, rule RateLimitRule, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", extractIdentifier(c), group)

		result, err := store.Allow(c.Request.Context(), key, rule.Limit, rule.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group).Msg("rate limit check failed, allowing request (degraded mode)")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt, 10))

		if !result.Allowed {
			retryAfter := result.ResetAt - time.Now().Unix()
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			response.Abort(c, apperror.ErrRateLimitExceeded())
			return
		}

		c.Next()
	}
}

// extractIdentifier keys the limit on the account being debited when the
// route has one, falling back to the client address.
func extractIdentifier(c *gin.Context) string {
	if id := c.Param("accountId"); id != "" {
		return "account:" + id
	}
	return "ip:" + c.ClientIP()
}
