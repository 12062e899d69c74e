package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MoneyTransfer is a request to move Amount from Source to Target.
type MoneyTransfer struct {
	ID     uuid.UUID `json:"transfer_id"`
	Source AccountID `json:"source_account"`
	Target AccountID `json:"target_account"`
	Amount Money     `json:"-"`
}

// NewMoneyTransfer validates a transfer before it reaches any account.
func NewMoneyTransfer(id uuid.UUID, source, target AccountID, amount Money) (MoneyTransfer, error) {
	if id == uuid.Nil {
		return MoneyTransfer{}, ErrInvalidTransferID
	}
	if source == "" || target == "" {
		return MoneyTransfer{}, ErrInvalidAccountID
	}
	if source == target {
		return MoneyTransfer{}, fmt.Errorf("%w: %s", ErrSameAccountTransfer, source)
	}
	if amount.IsZero() {
		return MoneyTransfer{}, ErrInvalidAmount
	}
	return MoneyTransfer{ID: id, Source: source, Target: target, Amount: amount}, nil
}

// EventKind names a transfer lifecycle step.
type EventKind string

const (
	EventFundsBlocked EventKind = "FUNDS_BLOCKED"
	EventFundsSettled EventKind = "FUNDS_SETTLED"
)

// TransferEvent is a lifecycle notification carrying the full transfer.
type TransferEvent struct {
	ID         uuid.UUID
	Kind       EventKind
	Transfer   MoneyTransfer
	OccurredAt time.Time
}

// NewFundsBlocked is emitted once the source account has blocked the funds.
func NewFundsBlocked(t MoneyTransfer) TransferEvent {
	return newTransferEvent(EventFundsBlocked, t)
}

// NewFundsSettled is emitted once the target side has been credited.
func NewFundsSettled(t MoneyTransfer) TransferEvent {
	return newTransferEvent(EventFundsSettled, t)
}

func newTransferEvent(kind EventKind, t MoneyTransfer) TransferEvent {
	return TransferEvent{
		ID:         uuid.New(),
		Kind:       kind,
		Transfer:   t,
		OccurredAt: time.Now().UTC(),
	}
}

// DeadLetter records an event whose handler gave up. Dead letters are kept
// for inspection and are not retried.
type DeadLetter struct {
	ID       uuid.UUID
	Event    TransferEvent
	Handler  string
	Reason   string
	FailedAt time.Time
}

// NewDeadLetter captures evt and the failure that stopped handler.
func NewDeadLetter(evt TransferEvent, handler string, cause error) DeadLetter {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	return DeadLetter{
		ID:       uuid.New(),
		Event:    evt,
		Handler:  handler,
		Reason:   reason,
		FailedAt: time.Now().UTC(),
	}
}
