package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"
	"time"

	"bank-transfer-saga/internal/core/domain"

	"github.com/google/uuid"
)

// HashService handles admin key hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(subject string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// AuditService records audit entries without blocking the caller.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// AuthService exchanges the admin key for a bearer token.
type AuthService interface {
	Login(ctx context.Context, username, key string) (string, time.Time, error) // token, expiry, error
}

// --- Event channel ---

// EventHandler consumes one transfer lifecycle event.
type EventHandler func(ctx context.Context, evt domain.TransferEvent)

// EventBus delivers transfer events asynchronously.
type EventBus interface {
	Subscribe(kind domain.EventKind, handler EventHandler)
	// Publish never blocks. While suspended, events are queued in order.
	Publish(evt domain.TransferEvent)
	SetSuspended(suspended bool)
	Suspended() bool
	// Pending is the number of events held back by suspension.
	Pending() int
}

// --- Service Ports (Business Logic) ---

// BankService opens accounts and runs transfers between them.
type BankService interface {
	OpenAccount(ctx context.Context, initial int64) (*AccountView, error)
	Deposit(ctx context.Context, id domain.AccountID, amount int64) (*AccountView, error)
	Account(ctx context.Context, id domain.AccountID) (*AccountView, error)
	Accounts(ctx context.Context) ([]AccountView, error)
	PendingTransfers(ctx context.Context, id domain.AccountID) ([]domain.MoneyTransfer, error)
	RequestTransfer(ctx context.Context, req TransferRequest) (*domain.TransferEvent, error)
	StartTransfer(ctx context.Context, transfer domain.MoneyTransfer) (*domain.TransferEvent, error)

	SetEventSuspension(suspended bool)
	EventSuspended() bool
	PendingEvents() int
	DeadLetters(ctx context.Context) ([]domain.DeadLetter, error)
}

// TransferRequest holds validated input for a transfer.
type TransferRequest struct {
	TransferID uuid.UUID
	Source     domain.AccountID
	Target     domain.AccountID
	Amount     int64
}

// AccountView is the read model of an account.
type AccountView struct {
	ID        domain.AccountID
	Currency  domain.Currency
	Balance   domain.Money
	Blocked   domain.Money
	Available domain.Money
}

// NewAccountView builds the read model from a snapshot.
func NewAccountView(a *domain.Account) AccountView {
	return AccountView{
		ID:        a.ID(),
		Currency:  a.Currency(),
		Balance:   a.Balance(),
		Blocked:   a.Blocked(),
		Available: a.Available(),
	}
}
