package hook

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/subscriber"
	"github.com/xraph/subledger/types"
)

// Registry manages all registered hooks and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu     sync.RWMutex
	hooks  []Hook
	logger *slog.Logger

	// Type-cached hook lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onProviderRegistered   []OnProviderRegistered
	onProviderRemoved      []OnProviderRemoved
	onProviderStateUpdated []OnProviderStateUpdated
	onSubscriberRegistered []OnSubscriberRegistered
	onDepositIncreased     []OnDepositIncreased
	onEarningsWithdrawn    []OnEarningsWithdrawn
	onJournalError         []OnJournalError
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a hook to the registry and caches its interfaces.
func (r *Registry) Register(h Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.hooks {
		if existing.Name() == h.Name() {
			return fmt.Errorf("hook: duplicate registration: %s", h.Name())
		}
	}

	r.hooks = append(r.hooks, h)

	// Type-switch to cache interfaces
	if v, ok := h.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := h.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := h.(OnProviderRegistered); ok {
		r.onProviderRegistered = append(r.onProviderRegistered, v)
	}
	if v, ok := h.(OnProviderRemoved); ok {
		r.onProviderRemoved = append(r.onProviderRemoved, v)
	}
	if v, ok := h.(OnProviderStateUpdated); ok {
		r.onProviderStateUpdated = append(r.onProviderStateUpdated, v)
	}
	if v, ok := h.(OnSubscriberRegistered); ok {
		r.onSubscriberRegistered = append(r.onSubscriberRegistered, v)
	}
	if v, ok := h.(OnDepositIncreased); ok {
		r.onDepositIncreased = append(r.onDepositIncreased, v)
	}
	if v, ok := h.(OnEarningsWithdrawn); ok {
		r.onEarningsWithdrawn = append(r.onEarningsWithdrawn, v)
	}
	if v, ok := h.(OnJournalError); ok {
		r.onJournalError = append(r.onJournalError, v)
	}

	r.logger.Info("hook registered",
		"name", h.Name(),
		"interfaces", r.getImplementedInterfaces(h),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the hook.
func (r *Registry) getImplementedInterfaces(h Hook) []string {
	var interfaces []string
	v := reflect.TypeOf(h)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnProviderRegistered)(nil)).Elem(), "OnProviderRegistered")
	checkInterface(reflect.TypeOf((*OnProviderRemoved)(nil)).Elem(), "OnProviderRemoved")
	checkInterface(reflect.TypeOf((*OnProviderStateUpdated)(nil)).Elem(), "OnProviderStateUpdated")
	checkInterface(reflect.TypeOf((*OnSubscriberRegistered)(nil)).Elem(), "OnSubscriberRegistered")
	checkInterface(reflect.TypeOf((*OnDepositIncreased)(nil)).Elem(), "OnDepositIncreased")
	checkInterface(reflect.TypeOf((*OnEarningsWithdrawn)(nil)).Elem(), "OnEarningsWithdrawn")
	checkInterface(reflect.TypeOf((*OnJournalError)(nil)).Elem(), "OnJournalError")

	return interfaces
}

// Get returns a hook by name.
func (r *Registry) Get(name string) Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.hooks {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

// List returns all registered hooks.
func (r *Registry) List() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Hook, len(r.hooks))
	copy(result, r.hooks)
	return result
}

// Count returns the number of registered hooks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all hooks that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("hook OnInit failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all hooks that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("hook OnShutdown failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitProviderRegistered emits a provider registered event.
func (r *Registry) EmitProviderRegistered(ctx context.Context, p *provider.Provider) {
	r.mu.RLock()
	hooks := r.onProviderRegistered
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnProviderRegistered(ctx, p)
		}); err != nil {
			r.logger.Warn("hook OnProviderRegistered failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitProviderRemoved emits a provider removed event.
func (r *Registry) EmitProviderRemoved(ctx context.Context, p *provider.Provider, payout types.Amount) {
	r.mu.RLock()
	hooks := r.onProviderRemoved
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnProviderRemoved(ctx, p, payout)
		}); err != nil {
			r.logger.Warn("hook OnProviderRemoved failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitProviderStateUpdated emits a provider state updated event.
func (r *Registry) EmitProviderStateUpdated(ctx context.Context, p *provider.Provider) {
	r.mu.RLock()
	hooks := r.onProviderStateUpdated
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnProviderStateUpdated(ctx, p)
		}); err != nil {
			r.logger.Warn("hook OnProviderStateUpdated failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitSubscriberRegistered emits a subscriber registered event.
func (r *Registry) EmitSubscriberRegistered(ctx context.Context, s *subscriber.Subscriber) {
	r.mu.RLock()
	hooks := r.onSubscriberRegistered
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnSubscriberRegistered(ctx, s)
		}); err != nil {
			r.logger.Warn("hook OnSubscriberRegistered failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitDepositIncreased emits a deposit increased event.
func (r *Registry) EmitDepositIncreased(ctx context.Context, s *subscriber.Subscriber, amount types.Amount) {
	r.mu.RLock()
	hooks := r.onDepositIncreased
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnDepositIncreased(ctx, s, amount)
		}); err != nil {
			r.logger.Warn("hook OnDepositIncreased failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitEarningsWithdrawn emits an earnings withdrawn event.
func (r *Registry) EmitEarningsWithdrawn(ctx context.Context, providerID uint64, owner id.AccountID, amount, usdValue types.Amount) {
	r.mu.RLock()
	hooks := r.onEarningsWithdrawn
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnEarningsWithdrawn(ctx, providerID, owner, amount, usdValue)
		}); err != nil {
			r.logger.Warn("hook OnEarningsWithdrawn failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitJournalError emits a journal persistence failure event.
func (r *Registry) EmitJournalError(ctx context.Context, evt *event.Event, persistErr error) {
	r.mu.RLock()
	hooks := r.onJournalError
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnJournalError(ctx, evt, persistErr)
		}); err != nil {
			r.logger.Warn("hook OnJournalError failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a hook function with a timeout.
// Hooks should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, hookName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("hook timeout: %s", hookName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
