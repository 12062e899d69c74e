package domain

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

// Replay filter sizing used when no AccountOption overrides it.
const (
	DefaultReplayFilterCapacity = 1000
	DefaultReplayFilterFPRate   = 0.01
)

// OutgoingTransfer is money blocked on the source account for an in-flight transfer.
type OutgoingTransfer struct {
	Target AccountID
	Amount Money
}

// Account is the aggregate holding one account's funds. It is the consistency
// boundary for every rule about that account's money.
//
// Transitions mutate the receiver, so they are applied to a copy obtained from
// the store and the copy is then saved back. A stored snapshot is never
// mutated in place.
type Account struct {
	revision  uuid.UUID
	id        AccountID
	balance   Money
	outgoing  map[uuid.UUID]OutgoingTransfer
	processed *bloom.BloomFilter
}

// AccountOption configures NewAccount.
type AccountOption func(*accountOptions)

type accountOptions struct {
	filterCapacity uint
	filterFPRate   float64
}

// WithReplayFilter sizes the probabilistic set of settled transfer ids.
// Larger capacity or a lower rate trades memory for fewer false duplicates.
func WithReplayFilter(capacity uint, fpRate float64) AccountOption {
	return func(o *accountOptions) {
		if capacity > 0 {
			o.filterCapacity = capacity
		}
		if fpRate > 0 && fpRate < 1 {
			o.filterFPRate = fpRate
		}
	}
}

// NewAccount opens an empty account in currency.
func NewAccount(revision uuid.UUID, id AccountID, currency Currency, opts ...AccountOption) *Account {
	o := accountOptions{
		filterCapacity: DefaultReplayFilterCapacity,
		filterFPRate:   DefaultReplayFilterFPRate,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Account{
		revision:  revision,
		id:        id,
		balance:   Zero(currency),
		outgoing:  make(map[uuid.UUID]OutgoingTransfer),
		processed: bloom.NewWithEstimates(o.filterCapacity, o.filterFPRate),
	}
}

func (a *Account) ID() AccountID       { return a.id }
func (a *Account) Revision() uuid.UUID { return a.revision }
func (a *Account) Currency() Currency  { return a.balance.Currency() }
func (a *Account) Balance() Money      { return a.balance }

// Blocked is the sum of all outgoing transfers not yet settled.
func (a *Account) Blocked() Money {
	var sum int64
	for _, t := range a.outgoing {
		sum += t.Amount.Amount()
	}
	return Money{currency: a.Currency(), amount: sum}
}

// Available is balance minus blocked funds.
func (a *Account) Available() Money {
	return Money{currency: a.Currency(), amount: a.balance.Amount() - a.Blocked().Amount()}
}

func (a *Account) checkCurrency(m Money) error {
	if !a.balance.SameCurrency(m) {
		return fmt.Errorf("%w: account %s holds %s, got %s", ErrCurrencyMismatch, a.id, a.Currency(), m.Currency())
	}
	return nil
}

// StartOutgoingTransfer blocks amount for transferID. The balance is untouched
// until the transfer is confirmed.
func (a *Account) StartOutgoingTransfer(transferID uuid.UUID, target AccountID, amount Money) error {
	if err := a.checkCurrency(amount); err != nil {
		return err
	}
	if a.processed.Test(transferID[:]) {
		return fmt.Errorf("%w: %s", ErrDuplicateTransfer, transferID)
	}
	if _, pending := a.outgoing[transferID]; pending {
		return fmt.Errorf("%w: %s is already blocked", ErrDuplicateTransfer, transferID)
	}

	available := a.Available()
	if available.LessThan(amount) {
		return &InsufficientFundsError{AccountID: a.id, Required: amount, Available: available}
	}

	a.outgoing[transferID] = OutgoingTransfer{Target: target, Amount: amount}
	return nil
}

// ReceiveIncomingTransfer credits amount. Used for the local side of a
// transfer and for funding.
func (a *Account) ReceiveIncomingTransfer(amount Money) error {
	if err := a.checkCurrency(amount); err != nil {
		return err
	}
	balance, err := a.balance.Add(amount)
	if err != nil {
		return err
	}
	a.balance = balance
	return nil
}

// ConfirmOutgoingTransfer settles transferID: the blocked amount is debited and
// the id is recorded as processed. An unknown id is treated as already
// confirmed and ignored.
func (a *Account) ConfirmOutgoingTransfer(transferID uuid.UUID) error {
	transfer, ok := a.outgoing[transferID]
	if !ok {
		return nil
	}

	balance, err := a.balance.Subtract(transfer.Amount)
	if err != nil {
		return err
	}

	delete(a.outgoing, transferID)
	a.processed.Add(transferID[:])
	a.balance = balance
	return nil
}

// PendingTransfers lists outgoing transfers ordered by transfer id.
func (a *Account) PendingTransfers() []MoneyTransfer {
	out := make([]MoneyTransfer, 0, len(a.outgoing))
	for id, t := range a.outgoing {
		out = append(out, MoneyTransfer{ID: id, Source: a.id, Target: t.Target, Amount: t.Amount})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

// Copy returns an independent deep copy with the same revision.
func (a *Account) Copy() *Account {
	return a.WithRevision(a.revision)
}

// WithRevision returns an independent deep copy carrying revision.
func (a *Account) WithRevision(revision uuid.UUID) *Account {
	outgoing := make(map[uuid.UUID]OutgoingTransfer, len(a.outgoing))
	for id, t := range a.outgoing {
		outgoing[id] = t
	}
	return &Account{
		revision:  revision,
		id:        a.id,
		balance:   a.balance,
		outgoing:  outgoing,
		processed: a.processed.Copy(),
	}
}

func (a *Account) String() string {
	return fmt.Sprintf("%s balance: %s blockades: %s", a.id, a.balance, a.Blocked())
}
