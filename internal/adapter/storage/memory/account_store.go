package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"bank-transfer-saga/internal/core/domain"

	"github.com/google/uuid"
)

// AccountStore keeps account snapshots in a sync.Map keyed by AccountID.
// Stored snapshots are never mutated; a successful Save swaps in a new
// pointer carrying a fresh revision.
type AccountStore struct {
	bank     domain.Bank
	accounts sync.Map // domain.AccountID -> *domain.Account
	seq      atomic.Int64
}

// NewAccountStore creates an empty store issuing identifiers for bank.
func NewAccountStore(bank domain.Bank) *AccountStore {
	return &AccountStore{bank: bank}
}

// GenerateIdentifier returns the next identifier: <prefix>1, <prefix>2, ...
func (s *AccountStore) GenerateIdentifier() domain.AccountID {
	return s.bank.FormatAccountID(s.seq.Add(1))
}

// Get returns a copy of the latest snapshot.
func (s *AccountStore) Get(_ context.Context, id domain.AccountID) (*domain.Account, error) {
	v, ok := s.accounts.Load(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return v.(*domain.Account).Copy(), nil
}

// Save stores account. The first save of an id always succeeds. Later saves
// succeed only if the stored snapshot still carries account's revision.
func (s *AccountStore) Save(_ context.Context, account *domain.Account) error {
	if account == nil {
		return errors.New("save account: nil account")
	}

	if _, loaded := s.accounts.LoadOrStore(account.ID(), account.Copy()); !loaded {
		return nil
	}

	v, ok := s.accounts.Load(account.ID())
	if !ok {
		return fmt.Errorf("%w: %s vanished", domain.ErrConflict, account.ID())
	}
	current := v.(*domain.Account)
	if current.Revision() != account.Revision() {
		return fmt.Errorf("%w: %s", domain.ErrConflict, account.ID())
	}

	if !s.accounts.CompareAndSwap(account.ID(), current, account.WithRevision(uuid.New())) {
		return fmt.Errorf("%w: %s", domain.ErrConflict, account.ID())
	}
	return nil
}

// List returns copies of every account ordered by id.
func (s *AccountStore) List(_ context.Context) ([]*domain.Account, error) {
	var out []*domain.Account
	s.accounts.Range(func(_, v any) bool {
		out = append(out, v.(*domain.Account).Copy())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}
