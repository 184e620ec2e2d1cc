package storage

import (
	"context"
	"fmt"
)

// schemaStatements creates the queue tables, invocation logs, trigger
// configuration tables, and the stats view consumed by the materializer.
// Statements are idempotent so every engine instance can run them on boot.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS event_log (
		id            VARCHAR(36)  NOT NULL,
		schema_name   VARCHAR(255) NOT NULL,
		table_name    VARCHAR(255) NOT NULL,
		trigger_name  VARCHAR(255) NOT NULL,
		payload       JSON         NOT NULL,
		tries         INT          NOT NULL DEFAULT 0,
		created_at    TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		locked        BOOLEAN      NOT NULL DEFAULT FALSE,
		delivered     BOOLEAN      NOT NULL DEFAULT FALSE,
		error         BOOLEAN      NOT NULL DEFAULT FALSE,
		archived      BOOLEAN      NOT NULL DEFAULT FALSE,
		next_retry_at TIMESTAMP(6) NULL,
		PRIMARY KEY (id),
		KEY idx_event_log_fetch (locked, next_retry_at, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS hdb_scheduled_events (
		id                 VARCHAR(36)  NOT NULL,
		name               VARCHAR(255) NOT NULL,
		scheduled_time     TIMESTAMP(6) NOT NULL,
		additional_payload JSON         NULL,
		tries              INT          NOT NULL DEFAULT 0,
		locked             BOOLEAN      NOT NULL DEFAULT FALSE,
		delivered          BOOLEAN      NOT NULL DEFAULT FALSE,
		error              BOOLEAN      NOT NULL DEFAULT FALSE,
		dead               BOOLEAN      NOT NULL DEFAULT FALSE,
		cancelled          BOOLEAN      NOT NULL DEFAULT FALSE,
		next_retry_at      TIMESTAMP(6) NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_scheduled_events_name_time (name, scheduled_time),
		KEY idx_scheduled_events_fetch (locked, scheduled_time, next_retry_at)
	)`,
	`CREATE TABLE IF NOT EXISTS event_invocation_logs (
		id         VARCHAR(36)  NOT NULL,
		event_id   VARCHAR(36)  NOT NULL,
		status     INT          NOT NULL,
		request    JSON         NOT NULL,
		response   JSON         NOT NULL,
		created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (id),
		KEY idx_event_invocation_event (event_id)
	)`,
	`CREATE TABLE IF NOT EXISTS hdb_scheduled_event_invocation_logs (
		id         VARCHAR(36)  NOT NULL,
		event_id   VARCHAR(36)  NOT NULL,
		status     INT          NOT NULL,
		request    JSON         NOT NULL,
		response   JSON         NOT NULL,
		created_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (id),
		KEY idx_scheduled_invocation_event (event_id)
	)`,
	`CREATE TABLE IF NOT EXISTS event_triggers (
		name             VARCHAR(255) NOT NULL,
		webhook_url      TEXT         NOT NULL,
		headers          JSON         NULL,
		num_retries      INT          NOT NULL DEFAULT 0,
		interval_seconds INT          NOT NULL DEFAULT 10,
		timeout_seconds  INT          NOT NULL DEFAULT 60,
		PRIMARY KEY (name)
	)`,
	`CREATE TABLE IF NOT EXISTS hdb_scheduled_trigger (
		name              VARCHAR(255) NOT NULL,
		webhook_url       TEXT         NOT NULL,
		headers           JSON         NULL,
		schedule_type     VARCHAR(16)  NOT NULL,
		cron_expr         VARCHAR(255) NULL,
		payload           JSON         NULL,
		payload_schema    JSON         NULL,
		tolerance_seconds BIGINT       NOT NULL DEFAULT 21600,
		num_retries       INT          NOT NULL DEFAULT 0,
		interval_seconds  INT          NOT NULL DEFAULT 10,
		timeout_seconds   INT          NOT NULL DEFAULT 60,
		PRIMARY KEY (name)
	)`,
	`CREATE OR REPLACE VIEW hdb_scheduled_events_stats AS
		SELECT name,
		       COUNT(*)            AS upcoming_events_count,
		       MAX(scheduled_time) AS max_scheduled_time
		FROM hdb_scheduled_events
		WHERE delivered = FALSE
		  AND error     = FALSE
		  AND dead      = FALSE
		  AND cancelled = FALSE
		  AND scheduled_time > NOW(6)
		GROUP BY name`,
}

// EnsureSchema creates the tables, indexes, and stats view if missing.
func (c *MySQLClient) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
