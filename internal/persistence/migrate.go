package persistence

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the idempotent DDL for every container. The change_log and
// leases tables back the change-feed emulation: writers append to
// change_log in the same transaction as the document write, and consumers
// persist their cursor in leases.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS raw_articles (
		id             TEXT PRIMARY KEY,
		source         TEXT NOT NULL,
		source_tier    INTEGER NOT NULL DEFAULT 3,
		url            TEXT NOT NULL,
		title          TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		content        TEXT NOT NULL DEFAULT '',
		published_at   TIMESTAMPTZ,
		fetched_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		category       TEXT NOT NULL,
		language       TEXT NOT NULL DEFAULT 'en',
		entities       TEXT NOT NULL DEFAULT '{}',
		fingerprint    TEXT NOT NULL DEFAULT '',
		published_date DATE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_raw_articles_fetched ON raw_articles (fetched_at)`,

	`CREATE TABLE IF NOT EXISTS story_clusters (
		id                 TEXT PRIMARY KEY,
		category           TEXT NOT NULL,
		title              TEXT NOT NULL,
		summary            TEXT,
		source_articles    TEXT NOT NULL DEFAULT '[]',
		status             TEXT NOT NULL,
		verification_level INTEGER NOT NULL DEFAULT 1,
		first_seen         TIMESTAMPTZ NOT NULL,
		last_updated       TIMESTAMPTZ NOT NULL,
		update_count       INTEGER NOT NULL DEFAULT 0,
		title_checked      INTEGER NOT NULL DEFAULT 0,
		entities           TEXT NOT NULL DEFAULT '{}',
		fingerprint        TEXT NOT NULL DEFAULT '',
		etag               BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_story_clusters_category ON story_clusters (category, last_updated)`,
	`CREATE INDEX IF NOT EXISTS idx_story_clusters_fingerprint ON story_clusters (fingerprint)`,
	`CREATE INDEX IF NOT EXISTS idx_story_clusters_status ON story_clusters (status)`,

	`CREATE TABLE IF NOT EXISTS batch_tracking (
		batch_id        TEXT PRIMARY KEY,
		status          TEXT NOT NULL,
		cluster_ids     TEXT NOT NULL DEFAULT '[]',
		submitted_at    TIMESTAMPTZ NOT NULL,
		ended_at        TIMESTAMPTZ,
		request_count   INTEGER NOT NULL DEFAULT 0,
		succeeded_count INTEGER NOT NULL DEFAULT 0,
		errored_count   INTEGER NOT NULL DEFAULT 0,
		total_cost_usd  DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS feed_state (
		feed_url          TEXT PRIMARY KEY,
		source            TEXT NOT NULL,
		last_polled_at    TIMESTAMPTZ NOT NULL,
		last_outcome      TEXT NOT NULL DEFAULT '',
		failure_count     INTEGER NOT NULL DEFAULT 0,
		quarantined_until TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		id            TEXT PRIMARY KEY,
		categories    TEXT NOT NULL DEFAULT '[]',
		device_tokens TEXT NOT NULL DEFAULT '[]',
		last_feed_at  TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS user_interactions (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		cluster_id TEXT NOT NULL,
		kind       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_interactions_user ON user_interactions (user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS change_log (
		seq        BIGSERIAL PRIMARY KEY,
		container  TEXT NOT NULL,
		doc_id     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_change_log_container ON change_log (container, seq)`,

	`CREATE TABLE IF NOT EXISTS leases (
		id         TEXT PRIMARY KEY,
		cursor     BIGINT NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates all tables and indexes. Safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
