package subledger

import (
	"context"
	"fmt"

	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/subscriber"
	"github.com/xraph/subledger/types"
)

// Views are pure reads over the ledger tables. They return copies; the
// engine's internal records are never aliased to callers.

// GetProvider returns a snapshot of the provider record.
func (e *Engine) GetProvider(providerID uint64) (*provider.Provider, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.providers[providerID]
	if !ok {
		return nil, ErrProviderNotFound
	}

	cp := *p
	return &cp, nil
}

// ProviderEarnings returns the provider's accrued, unwithdrawn balance.
func (e *Engine) ProviderEarnings(providerID uint64) (types.Amount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.providers[providerID]
	if !ok {
		return types.Amount{}, ErrProviderNotFound
	}

	return p.Balance, nil
}

// GetSubscriber returns a snapshot of the subscriber record.
func (e *Engine) GetSubscriber(subscriberID uint64) (*subscriber.Subscriber, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.subscribers[subscriberID]
	if !ok {
		return nil, ErrSubscriberNotFound
	}

	return s.Clone(), nil
}

// LiveBalance returns the subscriber's deposit minus the sum of the
// current fees of every subscribed provider, duplicates included.
// Providers removed since subscription contribute nothing. Fees are
// immutable after registration, so a deposit that covered them once
// covers them still; the underflow check guards the invariant anyway.
func (e *Engine) LiveBalance(subscriberID uint64) (types.Amount, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s, ok := e.subscribers[subscriberID]
	if !ok {
		return types.Amount{}, ErrSubscriberNotFound
	}

	fees := types.Zero(types.UnitToken)
	for _, pid := range s.Providers {
		if p, exists := e.providers[pid]; exists {
			fees = fees.Add(p.Fee)
		}
	}

	live, ok := s.Balance.SubChecked(fees)
	if !ok {
		return types.Amount{}, fmt.Errorf("%w: fees %s exceed deposit %s", ErrInsufficientDeposit, fees, s.Balance)
	}

	return live, nil
}

// DepositValueUSD returns the subscriber's deposit valued at the current
// oracle price.
func (e *Engine) DepositValueUSD(ctx context.Context, subscriberID uint64) (types.Amount, error) {
	e.mu.RLock()
	deposit, ok := types.Amount{}, false
	if s, exists := e.subscribers[subscriberID]; exists {
		deposit, ok = s.Balance, true
	}
	e.mu.RUnlock()

	if !ok {
		return types.Amount{}, ErrSubscriberNotFound
	}

	return e.prices.Value(ctx, deposit)
}

// ProviderCount returns the current provider table cardinality.
func (e *Engine) ProviderCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.providerCount
}

// SubscriberCount returns the current subscriber table cardinality.
func (e *Engine) SubscriberCount() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.subscriberCount
}

// ListProviders returns snapshots of every provider record, in no
// particular order.
func (e *Engine) ListProviders() []*provider.Provider {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]*provider.Provider, 0, len(e.providers))
	for _, p := range e.providers {
		cp := *p
		result = append(result, &cp)
	}
	return result
}

// ListSubscribers returns snapshots of every subscriber record, in no
// particular order.
func (e *Engine) ListSubscribers() []*subscriber.Subscriber {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]*subscriber.Subscriber, 0, len(e.subscribers))
	for _, s := range e.subscribers {
		result = append(result, s.Clone())
	}
	return result
}
