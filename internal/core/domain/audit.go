package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionAccountOpened     AuditAction = "ACCOUNT_OPENED"
	AuditActionDeposit           AuditAction = "DEPOSIT"
	AuditActionTransferRequested AuditAction = "TRANSFER_REQUESTED"
	AuditActionSuspensionChanged AuditAction = "SUSPENSION_CHANGED"
	AuditActionTokenIssued       AuditAction = "TOKEN_ISSUED"
)

// AuditLog records a single audited write against the bank.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
