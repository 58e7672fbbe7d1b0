package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Subledger store.
var Migrations = migrate.NewGroup("subledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_subledger_providers",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_providers (
    id          BIGINT PRIMARY KEY,
    owner       TEXT NOT NULL DEFAULT '',
    fee         TEXT NOT NULL DEFAULT '0',
    balance     TEXT NOT NULL DEFAULT '0',
    subscribers BIGINT NOT NULL DEFAULT 0,
    active      BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_subledger_providers_owner ON subledger_providers (owner);
CREATE INDEX IF NOT EXISTS idx_subledger_providers_active ON subledger_providers (active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subledger_providers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_subledger_subscribers",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_subscribers (
    id         BIGINT PRIMARY KEY,
    owner      TEXT NOT NULL DEFAULT '',
    balance    TEXT NOT NULL DEFAULT '0',
    providers  JSONB NOT NULL DEFAULT '[]',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_subledger_subscribers_owner ON subledger_subscribers (owner);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subledger_subscribers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_subledger_events",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS subledger_events (
    id            TEXT PRIMARY KEY,
    type          TEXT NOT NULL DEFAULT '',
    time          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    account       TEXT NOT NULL DEFAULT '',
    provider_id   BIGINT NOT NULL DEFAULT 0,
    subscriber_id BIGINT NOT NULL DEFAULT 0,
    amount        TEXT NOT NULL DEFAULT '0',
    amount_unit   TEXT NOT NULL DEFAULT '',
    usd_value     TEXT NOT NULL DEFAULT '0',
    usd_unit      TEXT NOT NULL DEFAULT '',
    provider_ids  JSONB NOT NULL DEFAULT '[]',
    active        BOOLEAN
);

CREATE INDEX IF NOT EXISTS idx_subledger_events_time ON subledger_events (time);
CREATE INDEX IF NOT EXISTS idx_subledger_events_type_time ON subledger_events (type, time);
CREATE INDEX IF NOT EXISTS idx_subledger_events_account ON subledger_events (account);
CREATE INDEX IF NOT EXISTS idx_subledger_events_provider ON subledger_events (provider_id);
CREATE INDEX IF NOT EXISTS idx_subledger_events_subscriber ON subledger_events (subscriber_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS subledger_events`)
				return err
			},
		},
	)
}
