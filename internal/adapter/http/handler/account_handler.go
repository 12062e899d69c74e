package handler

import (
	"bank-transfer-saga/internal/adapter/http/dto"
	"bank-transfer-saga/internal/adapter/http/middleware"
	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/internal/core/ports"
	"bank-transfer-saga/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler serves account creation, funding and read views.
type AccountHandler struct {
	bankSvc ports.BankService
}

func NewAccountHandler(bankSvc ports.BankService) *AccountHandler {
	return &AccountHandler{bankSvc: bankSvc}
}

// Open handles POST /api/v1/accounts.
func (h *AccountHandler) Open(c *gin.Context) {
	var req dto.OpenAccountRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err))
			return
		}
	}

	view, err := h.bankSvc.OpenAccount(c.Request.Context(), req.InitialBalance)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxResourceID, view.ID.String())
	response.Created(c, dto.NewAccountResponse(*view))
}

// List handles GET /api/v1/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	views, err := h.bankSvc.Accounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.AccountResponse, 0, len(views))
	for _, v := range views {
		out = append(out, dto.NewAccountResponse(v))
	}
	response.OK(c, out)
}

// Get handles GET /api/v1/accounts/:accountId.
func (h *AccountHandler) Get(c *gin.Context) {
	var uri dto.AccountURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, bindError(err))
		return
	}

	view, err := h.bankSvc.Account(c.Request.Context(), domain.AccountID(uri.AccountID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAccountResponse(*view))
}

// PendingTransfers handles GET /api/v1/accounts/:accountId/transfers.
func (h *AccountHandler) PendingTransfers(c *gin.Context) {
	var uri dto.AccountURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, bindError(err))
		return
	}

	transfers, err := h.bankSvc.PendingTransfers(c.Request.Context(), domain.AccountID(uri.AccountID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewPendingTransferResponses(transfers))
}

// Deposit handles POST /api/v1/accounts/:accountId/deposits.
func (h *AccountHandler) Deposit(c *gin.Context) {
	var uri dto.AccountURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, bindError(err))
		return
	}
	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	view, err := h.bankSvc.Deposit(c.Request.Context(), domain.AccountID(uri.AccountID), req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewAccountResponse(*view))
}
