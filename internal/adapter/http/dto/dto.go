package dto

import (
	"strings"
	"time"

	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/internal/core/ports"
)

// TokenRequest is the request body for exchanging the admin key for a JWT.
type TokenRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Key      string `json:"key" binding:"required,max=256"`
}

// Normalize trims the username. The key is compared byte for byte against
// its hash and is left as sent.
func (r *TokenRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

// TokenResponse is the response body for a successful token exchange.
type TokenResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// OpenAccountRequest is the request body for account creation.
type OpenAccountRequest struct {
	InitialBalance int64 `json:"initial_balance" binding:"gte=0"`
}

// DepositRequest is the request body for external funding.
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// AccountURI binds the account path parameter.
type AccountURI struct {
	AccountID string `uri:"accountId" binding:"required,account_id"`
}

// TransferURI binds the path parameters of a transfer request.
type TransferURI struct {
	AccountID  string `uri:"accountId" binding:"required,account_id"`
	TransferID string `uri:"transferId" binding:"required,uuid"`
}

// TransferRequest is the request body for requestTransfer.
type TransferRequest struct {
	TargetAccount string `json:"target_account" binding:"required,account_id"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
}

// SuspensionQuery binds ?suspend= on the admin suspension route.
type SuspensionQuery struct {
	Suspend *bool `form:"suspend" binding:"required"`
}

// AccountResponse is the read view of an account.
type AccountResponse struct {
	AccountID       string `json:"account_id"`
	Currency        string `json:"currency"`
	Balance         string `json:"balance"`
	Blocked         string `json:"blocked"`
	BalanceAmount   int64  `json:"balance_amount"`
	BlockedAmount   int64  `json:"blocked_amount"`
	AvailableAmount int64  `json:"available_amount"`
}

// NewAccountResponse renders an account view.
func NewAccountResponse(v ports.AccountView) AccountResponse {
	return AccountResponse{
		AccountID:       v.ID.String(),
		Currency:        string(v.Currency),
		Balance:         v.Balance.String(),
		Blocked:         v.Blocked.String(),
		BalanceAmount:   v.Balance.Amount(),
		BlockedAmount:   v.Blocked.Amount(),
		AvailableAmount: v.Available.Amount(),
	}
}

// PendingTransferResponse is one outgoing transfer still awaiting settlement.
type PendingTransferResponse struct {
	TransferID    string `json:"transfer_id"`
	TargetAccount string `json:"target_account"`
	Blocked       string `json:"blocked"`
	Amount        int64  `json:"amount"`
}

func NewPendingTransferResponses(transfers []domain.MoneyTransfer) []PendingTransferResponse {
	out := make([]PendingTransferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, PendingTransferResponse{
			TransferID:    t.ID.String(),
			TargetAccount: t.Target.String(),
			Blocked:       t.Amount.String(),
			Amount:        t.Amount.Amount(),
		})
	}
	return out
}

// TransferResponse acknowledges a transfer whose funds are now blocked.
type TransferResponse struct {
	TransferID    string `json:"transfer_id"`
	EventID       string `json:"event_id"`
	SourceAccount string `json:"source_account"`
	TargetAccount string `json:"target_account"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
}

func NewTransferResponse(evt domain.TransferEvent) TransferResponse {
	return TransferResponse{
		TransferID:    evt.Transfer.ID.String(),
		EventID:       evt.ID.String(),
		SourceAccount: evt.Transfer.Source.String(),
		TargetAccount: evt.Transfer.Target.String(),
		Amount:        evt.Transfer.Amount.Amount(),
		Currency:      string(evt.Transfer.Amount.Currency()),
		Status:        string(evt.Kind),
	}
}

// SuspensionResponse reports the state of the event channel.
type SuspensionResponse struct {
	Suspended     bool `json:"suspended"`
	PendingEvents int  `json:"pending_events"`
}

// DeadLetterResponse is one failed event handling.
type DeadLetterResponse struct {
	ID            string `json:"id"`
	EventID       string `json:"event_id"`
	EventKind     string `json:"event_kind"`
	Handler       string `json:"handler"`
	Reason        string `json:"reason"`
	TransferID    string `json:"transfer_id"`
	SourceAccount string `json:"source_account"`
	TargetAccount string `json:"target_account"`
	Amount        string `json:"amount"`
	FailedAt      string `json:"failed_at"`
}

func NewDeadLetterResponses(letters []domain.DeadLetter) []DeadLetterResponse {
	out := make([]DeadLetterResponse, 0, len(letters))
	for _, dl := range letters {
		t := dl.Event.Transfer
		out = append(out, DeadLetterResponse{
			ID:            dl.ID.String(),
			EventID:       dl.Event.ID.String(),
			EventKind:     string(dl.Event.Kind),
			Handler:       dl.Handler,
			Reason:        dl.Reason,
			TransferID:    t.ID.String(),
			SourceAccount: t.Source.String(),
			TargetAccount: t.Target.String(),
			Amount:        t.Amount.String(),
			FailedAt:      dl.FailedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
