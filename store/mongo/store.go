package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	subledger "github.com/xraph/subledger"
	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/provider"
	ledgerstore "github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscriber"
)

// Collection name constants.
const (
	colProviders   = "subledger_providers"
	colSubscribers = "subledger_subscribers"
	colEvents      = "subledger_events"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all subledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("subledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Journal ====================

func (s *Store) AppendEvent(ctx context.Context, evt *event.Event) error {
	m := toEventModel(evt)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: append event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	filter := bson.M{}

	if len(opts.Types) > 0 {
		typeStrs := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			typeStrs[i] = string(t)
		}
		filter["type"] = bson.M{"$in": typeStrs}
	}
	if !opts.Account.IsNil() {
		filter["account"] = opts.Account.String()
	}
	if opts.ProviderID != 0 {
		filter["provider_id"] = int64(opts.ProviderID)
	}
	if opts.SubscriberID != 0 {
		filter["subscriber_id"] = int64(opts.SubscriberID)
	}
	timeFilter := bson.M{}
	if !opts.Since.IsZero() {
		timeFilter["$gte"] = opts.Since
	}
	if !opts.Until.IsZero() {
		timeFilter["$lt"] = opts.Until
	}
	if len(timeFilter) > 0 {
		filter["time"] = timeFilter
	}

	var models []eventModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "time", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("subledger/mongo: list events: %w", err)
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		evt, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = evt
	}
	return result, nil
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*eventModel)(nil)).
		Filter(bson.M{"time": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("subledger/mongo: purge events: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Provider snapshots ====================

func (s *Store) SaveProvider(ctx context.Context, p *provider.Provider) error {
	m := toProviderModel(p)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":         m.ID,
			"owner":       m.Owner,
			"fee":         m.Fee,
			"balance":     m.Balance,
			"subscribers": m.Subscribers,
			"active":      m.Active,
			"created_at":  m.CreatedAt,
			"updated_at":  m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: save provider: %w", err)
	}
	return nil
}

func (s *Store) GetProvider(ctx context.Context, providerID uint64) (*provider.Provider, error) {
	var m providerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(providerID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subledger.ErrProviderNotFound
		}
		return nil, fmt.Errorf("subledger/mongo: get provider: %w", err)
	}
	return fromProviderModel(&m)
}

func (s *Store) ListProviders(ctx context.Context) ([]*provider.Provider, error) {
	var models []providerModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("subledger/mongo: list providers: %w", err)
	}

	result := make([]*provider.Provider, len(models))
	for i := range models {
		p, err := fromProviderModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) DeleteProvider(ctx context.Context, providerID uint64) error {
	_, err := s.mdb.NewDelete((*providerModel)(nil)).
		Filter(bson.M{"_id": int64(providerID)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: delete provider: %w", err)
	}
	return nil
}

// ==================== Subscriber snapshots ====================

func (s *Store) SaveSubscriber(ctx context.Context, sub *subscriber.Subscriber) error {
	m := toSubscriberModel(sub)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        m.ID,
			"owner":      m.Owner,
			"balance":    m.Balance,
			"providers":  m.Providers,
			"created_at": m.CreatedAt,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: save subscriber: %w", err)
	}
	return nil
}

func (s *Store) GetSubscriber(ctx context.Context, subscriberID uint64) (*subscriber.Subscriber, error) {
	var m subscriberModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(subscriberID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subledger.ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("subledger/mongo: get subscriber: %w", err)
	}
	return fromSubscriberModel(&m)
}

func (s *Store) ListSubscribers(ctx context.Context) ([]*subscriber.Subscriber, error) {
	var models []subscriberModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("subledger/mongo: list subscribers: %w", err)
	}

	result := make([]*subscriber.Subscriber, len(models))
	for i := range models {
		sub, err := fromSubscriberModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sub
	}
	return result, nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all subledger collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colProviders: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
			{Keys: bson.D{{Key: "active", Value: 1}}},
		},
		colSubscribers: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "time", Value: 1}}},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "time", Value: 1}}},
			{Keys: bson.D{{Key: "account", Value: 1}}},
			{Keys: bson.D{{Key: "provider_id", Value: 1}}},
			{Keys: bson.D{{Key: "subscriber_id", Value: 1}}},
		},
	}
}
