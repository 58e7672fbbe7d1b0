// Package hook provides an extensible notification system for Subledger.
// Hooks observe completed ledger operations and lifecycle transitions.
//
// Hooks run after the engine has committed an operation and must not call
// back into the engine; emission happens inside non-reentrant sections.
package hook

import (
	"context"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/subscriber"
	"github.com/xraph/subledger/types"
)

// Hook is the base interface that all hooks must implement.
type Hook interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. The payload is the engine
// itself, untyped to avoid an import cycle.
type OnInit interface {
	Hook
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Hook
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Provider lifecycle hooks
// ──────────────────────────────────────────────────

// OnProviderRegistered is called after a provider joins the registry.
type OnProviderRegistered interface {
	Hook
	OnProviderRegistered(ctx context.Context, p *provider.Provider) error
}

// OnProviderRemoved is called after a provider leaves the registry.
// payout is the accrued balance transferred to the owner on the way out.
type OnProviderRemoved interface {
	Hook
	OnProviderRemoved(ctx context.Context, p *provider.Provider, payout types.Amount) error
}

// OnProviderStateUpdated is called after an admin flips a provider's
// active flag. p carries the new state.
type OnProviderStateUpdated interface {
	Hook
	OnProviderStateUpdated(ctx context.Context, p *provider.Provider) error
}

// ──────────────────────────────────────────────────
// Subscriber lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriberRegistered is called after a subscriber deposit clears.
type OnSubscriberRegistered interface {
	Hook
	OnSubscriberRegistered(ctx context.Context, s *subscriber.Subscriber) error
}

// OnDepositIncreased is called after a subscriber tops up their deposit.
type OnDepositIncreased interface {
	Hook
	OnDepositIncreased(ctx context.Context, s *subscriber.Subscriber, amount types.Amount) error
}

// ──────────────────────────────────────────────────
// Withdrawal hooks
// ──────────────────────────────────────────────────

// OnEarningsWithdrawn is called after a provider owner withdraws accrued
// earnings. usdValue is the oracle valuation at withdrawal time.
type OnEarningsWithdrawn interface {
	Hook
	OnEarningsWithdrawn(ctx context.Context, providerID uint64, owner id.AccountID, amount, usdValue types.Amount) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalError is called when the engine fails to persist a journal
// event after an operation already committed. The operation itself is not
// rolled back.
type OnJournalError interface {
	Hook
	OnJournalError(ctx context.Context, evt *event.Event, err error) error
}
