package handler

import (
	"bank-transfer-saga/internal/adapter/http/dto"
	"bank-transfer-saga/internal/core/ports"
	"bank-transfer-saga/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes event channel control and the dead-letter record.
type AdminHandler struct {
	bankSvc ports.BankService
}

func NewAdminHandler(bankSvc ports.BankService) *AdminHandler {
	return &AdminHandler{bankSvc: bankSvc}
}

// SetSuspension handles PUT /api/v1/admin/suspension?suspend=bool.
func (h *AdminHandler) SetSuspension(c *gin.Context) {
	var q dto.SuspensionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, bindError(err))
		return
	}

	h.bankSvc.SetEventSuspension(*q.Suspend)
	h.Suspension(c)
}

// Suspension handles GET /api/v1/admin/suspension.
func (h *AdminHandler) Suspension(c *gin.Context) {
	response.OK(c, dto.SuspensionResponse{
		Suspended:     h.bankSvc.EventSuspended(),
		PendingEvents: h.bankSvc.PendingEvents(),
	})
}

// DeadLetters handles GET /api/v1/admin/dead-letters.
func (h *AdminHandler) DeadLetters(c *gin.Context) {
	letters, err := h.bankSvc.DeadLetters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewDeadLetterResponses(letters))
}
