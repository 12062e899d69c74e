package middleware

import (
	"net/http"
	"strings"
	"time"

	"bank-transfer-saga/internal/core/ports"
	"bank-transfer-saga/pkg/apperror"
	"bank-transfer-saga/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	HeaderRequestID = "X-Request-ID"

	// Context keys
	CtxRequestID = "request_id"
	CtxSubject   = "subject"

	bearerPrefix = "Bearer "
	maxRequestID = 64
)

// RequestID propagates the caller's X-Request-ID or assigns a fresh one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestID {
			id = uuid.New().String()
		}
		c.Set(CtxRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// JWTAuth guards admin routes with a bearer token. A nil token service
// leaves the routes open.
func JWTAuth(tokenSvc ports.TokenService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenSvc == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, apperror.ErrMissingToken())
			return
		}
		if !strings.HasPrefix(authHeader, bearerPrefix) || len(authHeader) == len(bearerPrefix) {
			response.Abort(c, apperror.ErrInvalidToken())
			return
		}

		claims, err := tokenSvc.Validate(authHeader[len(bearerPrefix):])
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("rejected bearer token")
			response.Abort(c, apperror.ErrInvalidToken())
			return
		}

		c.Set(CtxSubject, claims.Subject)
		c.Next()
	}
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Msg("http request")
	}
}

// Recovery turns a handler panic into a 500 envelope.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				response.Abort(c, apperror.New("SYS_001", "Internal server error", http.StatusInternalServerError))
			}
		}()
		c.Next()
	}
}
