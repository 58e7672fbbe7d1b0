package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	subledger "github.com/xraph/subledger"
	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/provider"
	ledgerstore "github.com/xraph/subledger/store"
	"github.com/xraph/subledger/subscriber"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("subledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("subledger/postgres: migration failed: %w", err)
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
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if len(opts.Types) > 0 {
		typeStrs := make([]string, len(opts.Types))
		for i, t := range opts.Types {
			typeStrs[i] = string(t)
		}
		argIdx++
		q = q.Where(fmt.Sprintf("type = ANY($%d)", argIdx), typeStrs)
	}
	if !opts.Account.IsNil() {
		argIdx++
		q = q.Where(fmt.Sprintf("account = $%d", argIdx), opts.Account.String())
	}
	if opts.ProviderID != 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("provider_id = $%d", argIdx), int64(opts.ProviderID))
	}
	if opts.SubscriberID != 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("subscriber_id = $%d", argIdx), int64(opts.SubscriberID))
	}
	if !opts.Since.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("time >= $%d", argIdx), opts.Since)
	}
	if !opts.Until.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("time < $%d", argIdx), opts.Until)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	q = q.OrderExpr("time ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.pg.NewDelete((*eventModel)(nil)).
		Where("time < $1", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// ==================== Provider snapshots ====================

func (s *Store) SaveProvider(ctx context.Context, p *provider.Provider) error {
	m := toProviderModel(p)
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("owner = EXCLUDED.owner").
		Set("fee = EXCLUDED.fee").
		Set("balance = EXCLUDED.balance").
		Set("subscribers = EXCLUDED.subscribers").
		Set("active = EXCLUDED.active").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetProvider(ctx context.Context, providerID uint64) (*provider.Provider, error) {
	m := new(providerModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(providerID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, subledger.ErrProviderNotFound
		}
		return nil, err
	}
	return fromProviderModel(m)
}

func (s *Store) ListProviders(ctx context.Context) ([]*provider.Provider, error) {
	var models []providerModel
	err := s.pg.NewSelect(&models).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	_, err := s.pg.NewDelete((*providerModel)(nil)).
		Where("id = $1", int64(providerID)).
		Exec(ctx)
	return err
}

// ==================== Subscriber snapshots ====================

func (s *Store) SaveSubscriber(ctx context.Context, sub *subscriber.Subscriber) error {
	m := toSubscriberModel(sub)
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("owner = EXCLUDED.owner").
		Set("balance = EXCLUDED.balance").
		Set("providers = EXCLUDED.providers").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetSubscriber(ctx context.Context, subscriberID uint64) (*subscriber.Subscriber, error) {
	m := new(subscriberModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(subscriberID)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, subledger.ErrSubscriberNotFound
		}
		return nil, err
	}
	return fromSubscriberModel(m)
}

func (s *Store) ListSubscribers(ctx context.Context) ([]*subscriber.Subscriber, error) {
	var models []subscriberModel
	err := s.pg.NewSelect(&models).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
