package handler

import (
	"net/http"

	"bank-transfer-saga/internal/adapter/http/dto"
	"bank-transfer-saga/internal/core/ports"
	"bank-transfer-saga/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler issues admin bearer tokens.
type AuthHandler struct {
	authSvc ports.AuthService
}

func NewAuthHandler(authSvc ports.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Token handles POST /api/v1/auth/token.
func (h *AuthHandler) Token(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	req.Normalize()

	token, expiry, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Key)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.TokenResponse{
		Token:  token,
		Expiry: expiry.Unix(),
	})
}

// HealthCheck handles GET /health. Every configured dependency is pinged;
// one failure degrades the whole response to 503.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus, len(checkers))
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
