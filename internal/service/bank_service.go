package service

import (
	"context"
	"errors"
	"fmt"

	"bank-transfer-saga/internal/core/domain"
	"bank-transfer-saga/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxAttempts is the number of read-modify-save cycles tried before a
// write against a contended account gives up.
const DefaultMaxAttempts = 10

// Handler names recorded on dead letters.
const (
	HandlerFundsBlocked = "funds-blocked"
	HandlerFundsSettled = "funds-settled"
)

// BankConfig holds the tunables of BankServiceImpl.
type BankConfig struct {
	Bank                 domain.Bank
	MaxAttempts          int
	ReplayFilterCapacity uint
	ReplayFilterFPRate   float64
}

// BankServiceImpl implements ports.BankService.
//
// A transfer runs in two asynchronous steps after the funds are blocked on
// the source: FundsBlocked credits the target (local accounts only, external
// banks are assumed to accept), then FundsSettled confirms the debit on the
// source. Every account write goes through mutateAccount.
type BankServiceImpl struct {
	cfg         BankConfig
	store       ports.AccountStore
	bus         ports.EventBus
	deadLetters ports.DeadLetterRepository
	log         zerolog.Logger
}

// NewBankService creates a BankServiceImpl and subscribes its handlers to bus.
func NewBankService(
	cfg BankConfig,
	store ports.AccountStore,
	bus ports.EventBus,
	deadLetters ports.DeadLetterRepository,
	log zerolog.Logger,
) *BankServiceImpl {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Bank.Currency == "" {
		cfg.Bank = domain.DefaultBank()
	}

	s := &BankServiceImpl{
		cfg:         cfg,
		store:       store,
		bus:         bus,
		deadLetters: deadLetters,
		log:         log,
	}
	bus.Subscribe(domain.EventFundsBlocked, s.handleFundsBlocked)
	bus.Subscribe(domain.EventFundsSettled, s.handleFundsSettled)
	return s
}

func (s *BankServiceImpl) money(amount int64) (domain.Money, error) {
	return domain.NewMoney(s.cfg.Bank.Currency, amount)
}

// OpenAccount creates an account in the bank currency funded with initial.
func (s *BankServiceImpl) OpenAccount(ctx context.Context, initial int64) (*ports.AccountView, error) {
	amount, err := s.money(initial)
	if err != nil {
		return nil, translate(err)
	}

	var opts []domain.AccountOption
	if s.cfg.ReplayFilterCapacity > 0 {
		opts = append(opts, domain.WithReplayFilter(s.cfg.ReplayFilterCapacity, s.cfg.ReplayFilterFPRate))
	}

	id := s.store.GenerateIdentifier()
	acct := domain.NewAccount(uuid.New(), id, s.cfg.Bank.Currency, opts...)
	if err := acct.ReceiveIncomingTransfer(amount); err != nil {
		return nil, translate(err)
	}
	if err := s.store.Save(ctx, acct); err != nil {
		return nil, translate(fmt.Errorf("save new account %s: %w", id, err))
	}

	s.log.Info().Str("account_id", id.String()).Str("balance", amount.String()).Msg("account opened")

	view := ports.NewAccountView(acct)
	return &view, nil
}

// Deposit credits money arriving from outside the bank.
func (s *BankServiceImpl) Deposit(ctx context.Context, id domain.AccountID, amount int64) (*ports.AccountView, error) {
	money, err := s.money(amount)
	if err != nil {
		return nil, translate(err)
	}
	if money.IsZero() {
		return nil, translate(domain.ErrInvalidAmount)
	}

	acct, err := s.mutateAccount(ctx, id, func(a *domain.Account) error {
		return a.ReceiveIncomingTransfer(money)
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().Str("account_id", id.String()).Str("amount", money.String()).Msg("deposit applied")

	view := ports.NewAccountView(acct)
	return &view, nil
}

// Account returns the read view of id.
func (s *BankServiceImpl) Account(ctx context.Context, id domain.AccountID) (*ports.AccountView, error) {
	acct, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	view := ports.NewAccountView(acct)
	return &view, nil
}

// Accounts lists every account ordered by id.
func (s *BankServiceImpl) Accounts(ctx context.Context) ([]ports.AccountView, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	views := make([]ports.AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, ports.NewAccountView(a))
	}
	return views, nil
}

// PendingTransfers lists the transfers still blocking funds on id.
func (s *BankServiceImpl) PendingTransfers(ctx context.Context, id domain.AccountID) ([]domain.MoneyTransfer, error) {
	acct, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return acct.PendingTransfers(), nil
}

// RequestTransfer validates req and starts the transfer.
func (s *BankServiceImpl) RequestTransfer(ctx context.Context, req ports.TransferRequest) (*domain.TransferEvent, error) {
	amount, err := s.money(req.Amount)
	if err != nil {
		return nil, translate(err)
	}
	transfer, err := domain.NewMoneyTransfer(req.TransferID, req.Source, req.Target, amount)
	if err != nil {
		return nil, translate(err)
	}
	return s.StartTransfer(ctx, transfer)
}

// StartTransfer blocks the funds on the source account and publishes
// FundsBlocked. The rest of the transfer happens asynchronously.
func (s *BankServiceImpl) StartTransfer(ctx context.Context, transfer domain.MoneyTransfer) (*domain.TransferEvent, error) {
	_, err := s.mutateAccount(ctx, transfer.Source, func(a *domain.Account) error {
		return a.StartOutgoingTransfer(transfer.ID, transfer.Target, transfer.Amount)
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("transfer_id", transfer.ID.String()).
			Str("source", transfer.Source.String()).
			Msg("transfer rejected")
		return nil, translate(err)
	}

	evt := domain.NewFundsBlocked(transfer)
	s.bus.Publish(evt)

	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("source", transfer.Source.String()).
		Str("target", transfer.Target.String()).
		Str("amount", transfer.Amount.String()).
		Msg("funds blocked")

	return &evt, nil
}

func (s *BankServiceImpl) handleFundsBlocked(ctx context.Context, evt domain.TransferEvent) {
	t := evt.Transfer

	if s.cfg.Bank.Owns(t.Target) {
		_, err := s.mutateAccount(ctx, t.Target, func(a *domain.Account) error {
			return a.ReceiveIncomingTransfer(t.Amount)
		})
		if err != nil {
			s.deadLetter(ctx, evt, HandlerFundsBlocked, err)
			return
		}
	} else {
		s.log.Debug().Str("transfer_id", t.ID.String()).Str("target", t.Target.String()).Msg("external target, assuming delivery")
	}

	s.bus.Publish(domain.NewFundsSettled(t))
}

func (s *BankServiceImpl) handleFundsSettled(ctx context.Context, evt domain.TransferEvent) {
	t := evt.Transfer

	_, err := s.mutateAccount(ctx, t.Source, func(a *domain.Account) error {
		return a.ConfirmOutgoingTransfer(t.ID)
	})
	if err != nil {
		s.deadLetter(ctx, evt, HandlerFundsSettled, err)
		return
	}

	s.log.Info().Str("transfer_id", t.ID.String()).Str("source", t.Source.String()).Msg("transfer settled")
}

func (s *BankServiceImpl) deadLetter(ctx context.Context, evt domain.TransferEvent, handler string, cause error) {
	dl := domain.NewDeadLetter(evt, handler, cause)

	s.log.Error().Err(cause).
		Str("handler", handler).
		Str("event", string(evt.Kind)).
		Str("transfer_id", evt.Transfer.ID.String()).
		Msg("event dead-lettered")

	if err := s.deadLetters.Append(ctx, dl); err != nil {
		s.log.Error().Err(err).Str("dead_letter_id", dl.ID.String()).Msg("failed to record dead letter")
	}
}

// mutateAccount applies fn to a fresh copy of the account and saves it,
// starting over from a new read whenever the save loses a race. Errors from
// fn end the loop immediately.
func (s *BankServiceImpl) mutateAccount(ctx context.Context, id domain.AccountID, fn func(*domain.Account) error) (*domain.Account, error) {
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		acct, err := s.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(acct); err != nil {
			return nil, err
		}

		err = s.store.Save(ctx, acct)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}

		s.log.Debug().Str("account_id", id.String()).Int("attempt", attempt).Msg("concurrent modification, retrying")
	}
	return nil, fmt.Errorf("%w: account %s after %d attempts", domain.ErrRetryExhausted, id, s.cfg.MaxAttempts)
}

// SetEventSuspension pauses or resumes asynchronous transfer processing.
func (s *BankServiceImpl) SetEventSuspension(suspended bool) {
	s.bus.SetSuspended(suspended)
}

func (s *BankServiceImpl) EventSuspended() bool { return s.bus.Suspended() }
func (s *BankServiceImpl) PendingEvents() int   { return s.bus.Pending() }

// DeadLetters returns every event the handlers gave up on.
func (s *BankServiceImpl) DeadLetters(ctx context.Context) ([]domain.DeadLetter, error) {
	letters, err := s.deadLetters.List(ctx)
	if err != nil {
		return nil, translate(fmt.Errorf("list dead letters: %w", err))
	}
	return letters, nil
}
