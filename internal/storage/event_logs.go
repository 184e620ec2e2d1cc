package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dhima/webhook-delivery-engine/internal/models"
)

// LeaseEvents atomically claims up to limit due, unlocked, non-terminal
// event_log rows: rows are selected FOR UPDATE SKIP LOCKED so concurrent
// engine instances never double-deliver, flipped to locked=true, and
// returned. Ordering is approximately by created_at within the batch.
func (c *MySQLClient) LeaseEvents(ctx context.Context, limit int) ([]models.Event, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin lease transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, schema_name, table_name, trigger_name, payload, tries,
		       created_at, locked, delivered, error, archived, next_retry_at
		FROM event_log
		WHERE locked = FALSE
		  AND delivered = FALSE
		  AND error = FALSE
		  AND archived = FALSE
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW(6))
		ORDER BY created_at ASC
		LIMIT ?
		FOR UPDATE SKIP LOCKED`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select leasable events: %w", err)
	}

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}

	if len(events) == 0 {
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit empty lease: %w", err)
		}
		return nil, nil
	}

	ids := make([]interface{}, 0, len(events))
	for i := range events {
		events[i].Locked = true
		ids = append(ids, events[i].ID)
	}

	if _, err = tx.ExecContext(ctx,
		fmt.Sprintf(`UPDATE event_log SET locked = TRUE WHERE id IN (%s)`, placeholders(len(ids))),
		ids...,
	); err != nil {
		return nil, fmt.Errorf("lock leased events: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit lease: %w", err)
	}

	return events, nil
}

// UnlockAllEvents resets locked=true rows to locked=false. Run on startup
// so rows leaked by an ungraceful exit become leasable again.
func (c *MySQLClient) UnlockAllEvents(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `UPDATE event_log SET locked = FALSE WHERE locked = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("unlock events: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// InsertEvent enqueues one event_log row. In production the rows come from
// database triggers; this insert serves bootstrap tooling and tests.
func (c *MySQLClient) InsertEvent(ctx context.Context, ev *models.Event) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO event_log (id, schema_name, table_name, trigger_name, payload, created_at)
		VALUES (?, ?, ?, ?, ?, NOW(6))`,
		ev.ID, ev.SchemaName, ev.TableName, ev.TriggerName, string(ev.Payload),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var ev models.Event
		var payload sql.NullString
		var nextRetryAt sql.NullTime

		if err := rows.Scan(
			&ev.ID, &ev.SchemaName, &ev.TableName, &ev.TriggerName, &payload,
			&ev.Tries, &ev.CreatedAt, &ev.Locked, &ev.Delivered, &ev.Error,
			&ev.Archived, &nextRetryAt,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		if payload.Valid {
			ev.Payload = []byte(payload.String)
		}
		if nextRetryAt.Valid {
			t := nextRetryAt.Time
			ev.NextRetryAt = &t
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
