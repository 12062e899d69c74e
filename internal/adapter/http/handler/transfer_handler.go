package handler

import (
	"bank-transfer-saga/internal/adapter/http/dto"
	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/internal/core/ports"
	"bank-transfer-saga/pkg/apperror"
	"bank-transfer-saga/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransferHandler starts transfers. Settlement happens asynchronously, so a
// successful request answers 202 once the funds are blocked.
type TransferHandler struct {
	bankSvc ports.BankService
}

func NewTransferHandler(bankSvc ports.BankService) *TransferHandler {
	return &TransferHandler{bankSvc: bankSvc}
}

// Request handles PUT /api/v1/accounts/:accountId/transfers/:transferId.
// The caller picks the transfer id, which makes the request safe to repeat:
// a replay is rejected as a duplicate instead of moving money twice.
func (h *TransferHandler) Request(c *gin.Context) {
	var uri dto.TransferURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, bindError(err))
		return
	}
	transferID, err := uuid.Parse(uri.TransferID)
	if err != nil {
		response.Error(c, apperror.Validation("transferId must be a UUID"))
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	evt, err := h.bankSvc.RequestTransfer(c.Request.Context(), ports.TransferRequest{
		TransferID: transferID,
		Source:     domain.AccountID(uri.AccountID),
		Target:     domain.AccountID(req.TargetAccount),
		Amount:     req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Accepted(c, dto.NewTransferResponse(*evt))
}
