package subledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/hook"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/oracle"
	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscriber"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

// Default thresholds applied when no option overrides them.
var (
	// DefaultUSDFloor is the minimum USD value a provider fee must reach.
	// Subscriber deposits must reach twice this floor.
	DefaultUSDFloor = types.USD(50)
)

// DefaultMaxProviders caps the provider table size.
const DefaultMaxProviders = 200

// Engine is the provider/subscriber accounting ledger. Its in-memory
// tables are the authoritative state; every mutation validates, commits
// to the tables, performs any outbound token transfer, and only then
// mirrors the result to the store as a journal event plus snapshots.
//
// All mutating operations are serialized: one runs to completion before
// the next begins. Token and oracle collaborators are called while the
// ledger is locked and must never call back into the engine.
type Engine struct {
	store  store.Store
	tokens token.Service
	prices *oracle.Reader
	hooks  *hook.Registry
	logger *slog.Logger

	// Ledger state, guarded by mu. Counters track table cardinality.
	mu              sync.RWMutex
	providers       map[uint64]*provider.Provider
	subscribers     map[uint64]*subscriber.Subscriber
	providerCount   uint64
	subscriberCount uint64
	started         bool

	// Configuration
	admin        id.AccountID
	account      id.AccountID
	maxProviders uint64
	usdFloor     types.Amount
}

// New creates an Engine over the given store, token service and price
// reader. The custody account defaults to a fresh account ID; admin-only
// operations are disabled until WithAdmin supplies an administrator.
func New(s store.Store, tokens token.Service, prices *oracle.Reader, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		tokens:       tokens,
		prices:       prices,
		hooks:        hook.NewRegistry(),
		logger:       slog.Default(),
		providers:    make(map[uint64]*provider.Provider),
		subscribers:  make(map[uint64]*subscriber.Subscriber),
		maxProviders: DefaultMaxProviders,
		usdFloor:     DefaultUSDFloor,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.account.IsNil() {
		e.account = id.NewAccountID()
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.hooks.WithLogger(logger)
	}
}

// WithHook registers a hook.
func WithHook(h hook.Hook) Option {
	return func(e *Engine) {
		_ = e.hooks.Register(h) //nolint:errcheck // best-effort hook registration during init
	}
}

// WithAdmin sets the administrator allowed to toggle provider state.
func WithAdmin(admin id.AccountID) Option {
	return func(e *Engine) {
		e.admin = admin
	}
}

// WithAccount sets the custody account deposits are pulled into and
// payouts are drawn from. Callers must approve this account before
// registering as subscribers.
func WithAccount(account id.AccountID) Option {
	return func(e *Engine) {
		e.account = account
	}
}

// WithMaxProviders overrides the provider table capacity.
func WithMaxProviders(limit uint64) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.maxProviders = limit
		}
	}
}

// WithUSDFloor overrides the minimum USD value for provider fees. The
// subscriber deposit minimum is always twice the floor.
func WithUSDFloor(floor types.Amount) Option {
	return func(e *Engine) {
		if floor.Unit() == types.UnitUSD {
			e.usdFloor = floor
		}
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Start migrates the store and restores the ledger tables from the last
// persisted snapshots. It must be called before operations when the
// engine fronts a persistent store.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()

	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}

	if err := e.store.Migrate(ctx); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrMigrationFailed, err)
	}

	providers, err := e.store.ListProviders(ctx)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("subledger: failed to restore providers: %w", err)
	}

	subscribers, err := e.store.ListSubscribers(ctx)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("subledger: failed to restore subscribers: %w", err)
	}

	e.providers = make(map[uint64]*provider.Provider, len(providers))
	for _, p := range providers {
		e.providers[p.ID] = p
	}
	e.subscribers = make(map[uint64]*subscriber.Subscriber, len(subscribers))
	for _, s := range subscribers {
		e.subscribers[s.ID] = s
	}
	e.providerCount = uint64(len(e.providers))
	e.subscriberCount = uint64(len(e.subscribers))
	e.started = true

	e.mu.Unlock()

	e.hooks.EmitInit(ctx, e)

	e.logger.Info("subledger started",
		"providers", len(providers),
		"subscribers", len(subscribers),
		"custody_account", e.account.String(),
	)

	return nil
}

// Stop shuts down the engine and closes the store.
func (e *Engine) Stop() error {
	e.mu.Lock()
	e.started = false
	e.mu.Unlock()

	ctx := context.Background()
	e.hooks.EmitShutdown(ctx)

	e.logger.Info("subledger stopped")

	return e.store.Close()
}

// Account returns the custody account deposits flow through.
func (e *Engine) Account() id.AccountID {
	return e.account
}

// ──────────────────────────────────────────────────
// Provider registration & removal
// ──────────────────────────────────────────────────

// RegisterProvider inserts a new provider under the caller-chosen ID.
// The fee is validated against the USD floor at the current oracle price.
func (e *Engine) RegisterProvider(ctx context.Context, caller id.AccountID, providerID uint64, fee types.Amount) error {
	if fee.Unit() != types.UnitToken {
		return fmt.Errorf("%w: fee must be a token amount", ErrInvalidInput)
	}

	e.mu.Lock()
	o, err := e.registerProviderLocked(ctx, caller, providerID, fee)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.finish(ctx, o)
	return nil
}

func (e *Engine) registerProviderLocked(ctx context.Context, caller id.AccountID, providerID uint64, fee types.Amount) (*outcome, error) {
	if e.providerCount >= e.maxProviders {
		return nil, ErrCapacityExceeded
	}

	if _, exists := e.providers[providerID]; exists {
		return nil, ErrAlreadyRegistered
	}

	feeUSD, err := e.prices.Value(ctx, fee)
	if err != nil {
		return nil, err
	}
	if feeUSD.LessThan(e.usdFloor) {
		return nil, fmt.Errorf("%w: fee is worth %s, floor is %s", ErrFeeBelowMinimum, feeUSD, e.usdFloor)
	}

	p := &provider.Provider{
		Entity:  types.NewEntity(),
		ID:      providerID,
		Owner:   caller,
		Fee:     fee,
		Balance: types.Zero(types.UnitToken),
		Active:  true,
	}
	e.providers[providerID] = p
	e.providerCount++

	evt := &event.Event{
		ID:         id.NewEventID(),
		Type:       event.TypeProviderRegistered,
		Time:       now(),
		Account:    caller,
		ProviderID: providerID,
		Amount:     fee,
		USDValue:   feeUSD,
	}
	snapshot := *p
	jerr := e.journal(ctx, evt, func() error { return e.store.SaveProvider(ctx, &snapshot) })

	e.logger.Info("provider registered",
		"provider_id", providerID,
		"owner", caller.String(),
		"fee", fee.String(),
		"fee_usd", feeUSD.String(),
	)

	return &outcome{
		evt:        evt,
		journalErr: jerr,
		emit: func(ctx context.Context) {
			e.hooks.EmitProviderRegistered(ctx, &snapshot)
		},
	}, nil
}

// RemoveProvider deletes the caller's provider record and pays out any
// accrued balance. The record is cleared before the transfer; a later
// registration under the same ID succeeds.
func (e *Engine) RemoveProvider(ctx context.Context, caller id.AccountID, providerID uint64) error {
	e.mu.Lock()
	o, err := e.removeProviderLocked(ctx, caller, providerID)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.finish(ctx, o)
	return nil
}

func (e *Engine) removeProviderLocked(ctx context.Context, caller id.AccountID, providerID uint64) (*outcome, error) {
	p, ok := e.providers[providerID]
	if !ok {
		return nil, ErrProviderNotFound
	}
	if !p.OwnedBy(caller) {
		return nil, ErrNotOwner
	}

	payout := p.Balance

	// Clear state strictly before the outbound transfer.
	delete(e.providers, providerID)
	e.providerCount--

	if err := e.tokens.Transfer(ctx, e.account, caller, payout); err != nil {
		e.providers[providerID] = p
		e.providerCount++
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	evt := &event.Event{
		ID:         id.NewEventID(),
		Type:       event.TypeProviderRemoved,
		Time:       now(),
		Account:    caller,
		ProviderID: providerID,
		Amount:     payout,
	}
	jerr := e.journal(ctx, evt, func() error { return e.store.DeleteProvider(ctx, providerID) })

	e.logger.Info("provider removed",
		"provider_id", providerID,
		"owner", caller.String(),
		"payout", payout.String(),
	)

	removed := *p
	return &outcome{
		evt:        evt,
		journalErr: jerr,
		emit: func(ctx context.Context) {
			e.hooks.EmitProviderRemoved(ctx, &removed, payout)
		},
	}, nil
}

// UpdateProviderState flips a provider's active flag. Only the
// administrator may call this.
func (e *Engine) UpdateProviderState(ctx context.Context, caller id.AccountID, providerID uint64, active bool) error {
	e.mu.Lock()
	o, err := e.updateProviderStateLocked(ctx, caller, providerID, active)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.finish(ctx, o)
	return nil
}

func (e *Engine) updateProviderStateLocked(ctx context.Context, caller id.AccountID, providerID uint64, active bool) (*outcome, error) {
	if e.admin.IsNil() || caller != e.admin {
		return nil, ErrNotAdmin
	}

	p, ok := e.providers[providerID]
	if !ok {
		return nil, ErrProviderNotFound
	}

	p.Active = active
	p.Touch()

	evt := &event.Event{
		ID:         id.NewEventID(),
		Type:       event.TypeProviderStateUpdated,
		Time:       now(),
		Account:    caller,
		ProviderID: providerID,
		Active:     &active,
	}
	snapshot := *p
	jerr := e.journal(ctx, evt, func() error { return e.store.SaveProvider(ctx, &snapshot) })

	e.logger.Info("provider state updated",
		"provider_id", providerID,
		"active", active,
	)

	return &outcome{
		evt:        evt,
		journalErr: jerr,
		emit: func(ctx context.Context) {
			e.hooks.EmitProviderStateUpdated(ctx, &snapshot)
		},
	}, nil
}

// ──────────────────────────────────────────────────
// Subscriber registration & deposits
// ──────────────────────────────────────────────────

// RegisterSubscriber creates a subscriber under the caller-chosen ID,
// taking the caller's entire token balance as the deposit. Fees for every
// listed provider are debited from a running remainder and credited to
// the providers, in list order, duplicates included. Any failing entry
// aborts the whole call with no state change.
func (e *Engine) RegisterSubscriber(ctx context.Context, caller id.AccountID, subscriberID uint64, providerIDs []uint64) error {
	e.mu.Lock()
	o, err := e.registerSubscriberLocked(ctx, caller, subscriberID, providerIDs)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.finish(ctx, o)
	return nil
}

func (e *Engine) registerSubscriberLocked(ctx context.Context, caller id.AccountID, subscriberID uint64, providerIDs []uint64) (*outcome, error) {
	if len(providerIDs) == 0 {
		return nil, ErrEmptyProviderList
	}

	deposit, err := e.tokens.BalanceOf(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	depositUSD, err := e.prices.Value(ctx, deposit)
	if err != nil {
		return nil, err
	}
	minDeposit := e.usdFloor.Add(e.usdFloor)
	if depositUSD.LessThan(minDeposit) {
		return nil, fmt.Errorf("%w: deposit is worth %s, minimum is %s", ErrDepositBelowMinimum, depositUSD, minDeposit)
	}

	// Stage fee debits on copies. A provider missing from the table is
	// indistinguishable from an inactive one for this operation.
	staged := make(map[uint64]*provider.Provider)
	remaining := deposit
	for _, pid := range providerIDs {
		p, ok := staged[pid]
		if !ok {
			live, exists := e.providers[pid]
			if !exists {
				return nil, fmt.Errorf("%w: provider %d", ErrProviderInactive, pid)
			}
			cp := *live
			p = &cp
		}
		if !p.Active {
			return nil, fmt.Errorf("%w: provider %d", ErrProviderInactive, pid)
		}

		remaining, ok = remaining.SubChecked(p.Fee)
		if !ok {
			return nil, fmt.Errorf("%w: provider %d fee %s exceeds remaining deposit", ErrInsufficientDeposit, pid, p.Fee)
		}

		p.Balance = p.Balance.Add(p.Fee)
		p.Subscribers++
		p.Touch()
		staged[pid] = p
	}

	sub := &subscriber.Subscriber{
		Entity:    types.NewEntity(),
		ID:        subscriberID,
		Owner:     caller,
		Balance:   deposit,
		Providers: append([]uint64(nil), providerIDs...),
	}

	// Commit, keeping pre-images for rollback.
	preProviders := make(map[uint64]*provider.Provider, len(staged))
	for pid, p := range staged {
		preProviders[pid] = e.providers[pid]
		e.providers[pid] = p
	}
	preSubscriber, existed := e.subscribers[subscriberID]
	e.subscribers[subscriberID] = sub
	if !existed {
		e.subscriberCount++
	}

	if err := e.tokens.TransferFrom(ctx, e.account, caller, e.account, deposit); err != nil {
		for pid, pre := range preProviders {
			e.providers[pid] = pre
		}
		if existed {
			e.subscribers[subscriberID] = preSubscriber
		} else {
			delete(e.subscribers, subscriberID)
			e.subscriberCount--
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	evt := &event.Event{
		ID:           id.NewEventID(),
		Type:         event.TypeSubscriberRegistered,
		Time:         now(),
		Account:      caller,
		SubscriberID: subscriberID,
		Amount:       deposit,
		USDValue:     depositUSD,
		ProviderIDs:  append([]uint64(nil), providerIDs...),
	}

	persist := make([]func() error, 0, len(staged)+1)
	snapshot := sub.Clone()
	persist = append(persist, func() error { return e.store.SaveSubscriber(ctx, snapshot) })
	for _, p := range staged {
		cp := *p
		persist = append(persist, func() error { return e.store.SaveProvider(ctx, &cp) })
	}
	jerr := e.journal(ctx, evt, persist...)

	e.logger.Info("subscriber registered",
		"subscriber_id", subscriberID,
		"owner", caller.String(),
		"deposit", deposit.String(),
		"deposit_usd", depositUSD.String(),
		"providers", len(providerIDs),
	)

	return &outcome{
		evt:        evt,
		journalErr: jerr,
		emit: func(ctx context.Context) {
			e.hooks.EmitSubscriberRegistered(ctx, snapshot)
		},
	}, nil
}

// IncreaseDeposit tops up the caller's subscriber deposit by amount,
// pulling the funds from the caller's token holdings.
func (e *Engine) IncreaseDeposit(ctx context.Context, caller id.AccountID, subscriberID uint64, amount types.Amount) error {
	if amount.Unit() != types.UnitToken {
		return fmt.Errorf("%w: amount must be a token amount", ErrInvalidInput)
	}

	e.mu.Lock()
	o, err := e.increaseDepositLocked(ctx, caller, subscriberID, amount)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.finish(ctx, o)
	return nil
}

func (e *Engine) increaseDepositLocked(ctx context.Context, caller id.AccountID, subscriberID uint64, amount types.Amount) (*outcome, error) {
	sub, ok := e.subscribers[subscriberID]
	if !ok {
		return nil, ErrSubscriberNotFound
	}
	if !sub.OwnedBy(caller) {
		return nil, ErrNotOwner
	}

	updated := sub.Clone()
	updated.Balance = updated.Balance.Add(amount)
	updated.Touch()
	e.subscribers[subscriberID] = updated

	if err := e.tokens.TransferFrom(ctx, e.account, caller, e.account, amount); err != nil {
		e.subscribers[subscriberID] = sub
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	evt := &event.Event{
		ID:           id.NewEventID(),
		Type:         event.TypeDepositIncreased,
		Time:         now(),
		Account:      caller,
		SubscriberID: subscriberID,
		Amount:       amount,
	}
	snapshot := updated.Clone()
	jerr := e.journal(ctx, evt, func() error { return e.store.SaveSubscriber(ctx, snapshot) })

	e.logger.Info("deposit increased",
		"subscriber_id", subscriberID,
		"amount", amount.String(),
		"balance", updated.Balance.String(),
	)

	return &outcome{
		evt:        evt,
		journalErr: jerr,
		emit: func(ctx context.Context) {
			e.hooks.EmitDepositIncreased(ctx, snapshot, amount)
		},
	}, nil
}

// ──────────────────────────────────────────────────
// Withdrawal
// ──────────────────────────────────────────────────

// WithdrawEarnings pays out the caller's accrued provider balance and
// returns the withdrawn amount. The balance is zeroed before the
// transfer; withdrawing an empty balance transfers nothing and succeeds.
func (e *Engine) WithdrawEarnings(ctx context.Context, caller id.AccountID, providerID uint64) (types.Amount, error) {
	e.mu.Lock()
	withdrawn, o, err := e.withdrawEarningsLocked(ctx, caller, providerID)
	e.mu.Unlock()
	if err != nil {
		return types.Amount{}, err
	}

	e.finish(ctx, o)
	return withdrawn, nil
}

func (e *Engine) withdrawEarningsLocked(ctx context.Context, caller id.AccountID, providerID uint64) (types.Amount, *outcome, error) {
	p, ok := e.providers[providerID]
	if !ok {
		return types.Amount{}, nil, ErrProviderNotFound
	}
	if !p.OwnedBy(caller) {
		return types.Amount{}, nil, ErrNotOwner
	}

	withdrawn := p.Balance

	// Value the balance before any mutation so an oracle failure aborts
	// the operation cleanly.
	withdrawnUSD, err := e.prices.Value(ctx, withdrawn)
	if err != nil {
		return types.Amount{}, nil, err
	}

	// Zero the balance strictly before the outbound transfer.
	p.Balance = types.Zero(types.UnitToken)
	p.Touch()

	if err := e.tokens.Transfer(ctx, e.account, caller, withdrawn); err != nil {
		p.Balance = withdrawn
		return types.Amount{}, nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	evt := &event.Event{
		ID:         id.NewEventID(),
		Type:       event.TypeEarningsWithdrawn,
		Time:       now(),
		Account:    caller,
		ProviderID: providerID,
		Amount:     withdrawn,
		USDValue:   withdrawnUSD,
	}
	snapshot := *p
	jerr := e.journal(ctx, evt, func() error { return e.store.SaveProvider(ctx, &snapshot) })

	e.logger.Info("earnings withdrawn",
		"provider_id", providerID,
		"owner", caller.String(),
		"amount", withdrawn.String(),
		"amount_usd", withdrawnUSD.String(),
	)

	return withdrawn, &outcome{
		evt:        evt,
		journalErr: jerr,
		emit: func(ctx context.Context) {
			e.hooks.EmitEarningsWithdrawn(ctx, providerID, caller, withdrawn, withdrawnUSD)
		},
	}, nil
}

// ──────────────────────────────────────────────────
// Journal access
// ──────────────────────────────────────────────────

// Events reads journal events from the store.
func (e *Engine) Events(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	return e.store.ListEvents(ctx, opts)
}

// PurgeEvents deletes journal events older than before, returning how
// many were removed. Entity snapshots are unaffected.
func (e *Engine) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	return e.store.PurgeEvents(ctx, before)
}

// ──────────────────────────────────────────────────
// Commit plumbing
// ──────────────────────────────────────────────────

// outcome carries what a committed operation must report after the
// ledger lock is released.
type outcome struct {
	evt        *event.Event
	journalErr error
	emit       func(ctx context.Context)
}

// journal appends evt and runs the snapshot writers. The operation has
// already committed and any transfer already happened, so failures are
// reported to the caller via the outcome, never unwound.
func (e *Engine) journal(ctx context.Context, evt *event.Event, persist ...func() error) error {
	errs := make([]error, 0, len(persist)+1)
	if err := e.store.AppendEvent(ctx, evt); err != nil {
		errs = append(errs, fmt.Errorf("append event: %w", err))
	}
	for _, fn := range persist {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// finish reports journal failures and emits hooks for a committed
// operation. Hook delivery order across concurrent operations is
// unspecified; the journal is the authoritative record.
func (e *Engine) finish(ctx context.Context, o *outcome) {
	if o.journalErr != nil {
		e.logger.Error("journal persistence failed",
			"event_id", o.evt.ID.String(),
			"event_type", string(o.evt.Type),
			"error", o.journalErr,
		)
		e.hooks.EmitJournalError(ctx, o.evt, o.journalErr)
	}
	if o.emit != nil {
		o.emit(ctx)
	}
}

func now() time.Time {
	return time.Now().UTC()
}
