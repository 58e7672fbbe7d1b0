package memory

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/subscriber"
)

type Store struct {
	mu sync.RWMutex

	// Journal storage, append order is chronological
	events []*event.Event

	// Provider snapshots
	providers map[uint64]*provider.Provider

	// Subscriber snapshots
	subscribers map[uint64]*subscriber.Subscriber

	closed bool
}

func New() *Store {
	return &Store{
		events:      make([]*event.Event, 0),
		providers:   make(map[uint64]*provider.Provider),
		subscribers: make(map[uint64]*subscriber.Subscriber),
	}
}

// Journal implementation
func (s *Store) AppendEvent(_ context.Context, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subledger.ErrStoreClosed
	}

	s.events = append(s.events, evt)
	return nil
}

func (s *Store) ListEvents(_ context.Context, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*event.Event, 0)
	for _, evt := range s.events {
		if !matches(evt, opts) {
			continue
		}
		result = append(result, evt)
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result, nil
}

func (s *Store) PurgeEvents(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, subledger.ErrStoreClosed
	}

	var count int64
	kept := make([]*event.Event, 0)
	for _, evt := range s.events {
		if evt.Time.Before(before) {
			count++
		} else {
			kept = append(kept, evt)
		}
	}
	s.events = kept
	return count, nil
}

// Provider snapshot implementation
func (s *Store) SaveProvider(_ context.Context, p *provider.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subledger.ErrStoreClosed
	}

	s.providers[p.ID] = p
	return nil
}

func (s *Store) GetProvider(_ context.Context, providerID uint64) (*provider.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.providers[providerID]; ok {
		return p, nil
	}
	return nil, subledger.ErrProviderNotFound
}

func (s *Store) ListProviders(_ context.Context) ([]*provider.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*provider.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		result = append(result, p)
	}
	return result, nil
}

func (s *Store) DeleteProvider(_ context.Context, providerID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subledger.ErrStoreClosed
	}

	delete(s.providers, providerID)
	return nil
}

// Subscriber snapshot implementation
func (s *Store) SaveSubscriber(_ context.Context, sub *subscriber.Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return subledger.ErrStoreClosed
	}

	s.subscribers[sub.ID] = sub
	return nil
}

func (s *Store) GetSubscriber(_ context.Context, subscriberID uint64) (*subscriber.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscribers[subscriberID]; ok {
		return sub, nil
	}
	return nil, subledger.ErrSubscriberNotFound
}

func (s *Store) ListSubscribers(_ context.Context) ([]*subscriber.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscriber.Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		result = append(result, sub)
	}
	return result, nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return subledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// matches applies ListOpts filters to a single event.
func matches(evt *event.Event, opts event.ListOpts) bool {
	if len(opts.Types) > 0 {
		found := false
		for _, t := range opts.Types {
			if evt.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !opts.Account.IsNil() && evt.Account != opts.Account {
		return false
	}
	if opts.ProviderID != 0 && evt.ProviderID != opts.ProviderID {
		return false
	}
	if opts.SubscriberID != 0 && evt.SubscriberID != opts.SubscriberID {
		return false
	}
	if !opts.Since.IsZero() && evt.Time.Before(opts.Since) {
		return false
	}
	if !opts.Until.IsZero() && !evt.Time.Before(opts.Until) {
		return false
	}
	return true
}
