package handler

import (
	"bank-transfer-saga/internal/adapter/http/middleware"
	"bank-transfer-saga/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	BankSvc        ports.BankService
	AuthSvc        ports.AuthService    // nil = token endpoint disabled
	TokenSvc       ports.TokenService   // nil = admin routes unauthenticated
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	TransferLimit  middleware.RateLimitRule
	AuditSvc       ports.AuditService // nil = audit logging disabled
	HealthCheckers []ports.HealthChecker
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(deps.MaxBodyBytes))
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	rl := func(group string, rule middleware.RateLimitRule) gin.HandlerFunc {
		if deps.RateLimitStore == nil || rule.Limit <= 0 {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}
	admin := middleware.JWTAuth(deps.TokenSvc, deps.Logger)

	v1 := r.Group("/api/v1")

	if deps.AuthSvc != nil {
		authHandler := NewAuthHandler(deps.AuthSvc)
		v1.POST("/auth/token", authHandler.Token)
	}

	accountHandler := NewAccountHandler(deps.BankSvc)
	transferHandler := NewTransferHandler(deps.BankSvc)
	accounts := v1.Group("/accounts")
	{
		accounts.POST("", admin, accountHandler.Open)
		accounts.GET("", admin, accountHandler.List)
		accounts.GET("/:accountId", accountHandler.Get)
		accounts.GET("/:accountId/transfers", accountHandler.PendingTransfers)
		accounts.PUT("/:accountId/transfers/:transferId", rl("transfers", deps.TransferLimit), transferHandler.Request)
		accounts.POST("/:accountId/deposits", admin, accountHandler.Deposit)
	}

	adminHandler := NewAdminHandler(deps.BankSvc)
	adm := v1.Group("/admin", admin)
	{
		adm.GET("/suspension", adminHandler.Suspension)
		adm.PUT("/suspension", adminHandler.SetSuspension)
		adm.GET("/dead-letters", adminHandler.DeadLetters)
	}

	return r
}
