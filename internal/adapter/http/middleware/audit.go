package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog records successful write operations. It maps the matched route
// to an audit action.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		fields := map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		}
		if subject := c.GetString(CtxSubject); subject != "" {
			fields["subject"] = subject
		}
		if action == domain.AuditActionSuspensionChanged {
			fields["suspend"] = c.Query("suspend")
		}
		details, _ := json.Marshal(fields)

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   resourceID(c, action),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func resourceID(c *gin.Context, action domain.AuditAction) string {
	switch action {
	case domain.AuditActionTransferRequested:
		return c.Param("transferId")
	case domain.AuditActionDeposit:
		return c.Param("accountId")
	case domain.AuditActionAccountOpened:
		return c.GetString(CtxResourceID)
	}
	return ""
}

// CtxResourceID lets a handler report the id of a resource it created.
const CtxResourceID = "resource_id"

func mapRouteToAction(route, method string) (domain.AuditAction, string) {
	route = strings.TrimSuffix(route, "/")
	switch {
	case route == "/api/v1/accounts" && method == http.MethodPost:
		return domain.AuditActionAccountOpened, "account"
	case route == "/api/v1/accounts/:accountId/deposits" && method == http.MethodPost:
		return domain.AuditActionDeposit, "account"
	case route == "/api/v1/accounts/:accountId/transfers/:transferId" && method == http.MethodPut:
		return domain.AuditActionTransferRequested, "transfer"
	case route == "/api/v1/admin/suspension" && method == http.MethodPut:
		return domain.AuditActionSuspensionChanged, "event_channel"
	case route == "/api/v1/auth/token" && method == http.MethodPost:
		return domain.AuditActionTokenIssued, "session"
	}
	return "", ""
}
