package store

import (
	"context"
	"time"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/provider"
	"github.com/xraph/subledger/subscriber"
)

// Store is the unified storage interface for the Subledger journal and
// entity snapshots. The engine's in-memory tables are authoritative; a
// Store mirrors them durably and replays them on startup. Instead of
// embedding sub-interfaces, all methods are explicitly declared to avoid
// naming conflicts.
type Store interface {
	// Journal methods
	AppendEvent(ctx context.Context, evt *event.Event) error
	ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error)
	PurgeEvents(ctx context.Context, before time.Time) (int64, error)

	// Provider snapshot methods
	SaveProvider(ctx context.Context, p *provider.Provider) error
	GetProvider(ctx context.Context, providerID uint64) (*provider.Provider, error)
	ListProviders(ctx context.Context) ([]*provider.Provider, error)
	DeleteProvider(ctx context.Context, providerID uint64) error

	// Subscriber snapshot methods
	SaveSubscriber(ctx context.Context, s *subscriber.Subscriber) error
	GetSubscriber(ctx context.Context, subscriberID uint64) (*subscriber.Subscriber, error)
	ListSubscribers(ctx context.Context) ([]*subscriber.Subscriber, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
