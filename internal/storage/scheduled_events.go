package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dhima/webhook-delivery-engine/internal/models"
)

// ErrScheduledEventNotFound is returned when a scheduled event does not exist.
var ErrScheduledEventNotFound = errors.New("scheduled event not found")

// ErrScheduledEventNotCancellable is returned when a cancel request hits a
// row that is already terminal or currently leased by a worker.
var ErrScheduledEventNotCancellable = errors.New("scheduled event is terminal or in flight")

const scheduledEventColumns = `id, name, scheduled_time, additional_payload, tries,
	locked, delivered, error, dead, cancelled, next_retry_at`

// LeaseScheduledEvents atomically claims up to limit due scheduled rows.
// A row is due when it is unlocked, non-terminal, and either its retry time
// has arrived or (absent one) its scheduled time has. Uses SKIP LOCKED so
// concurrent engine instances never double-deliver.
func (c *MySQLClient) LeaseScheduledEvents(ctx context.Context, limit int) ([]models.ScheduledEvent, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin lease transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM hdb_scheduled_events
		WHERE locked = FALSE
		  AND delivered = FALSE
		  AND error = FALSE
		  AND dead = FALSE
		  AND cancelled = FALSE
		  AND ((next_retry_at IS NULL AND scheduled_time <= NOW(6))
		       OR next_retry_at <= NOW(6))
		LIMIT ?
		FOR UPDATE SKIP LOCKED`, scheduledEventColumns),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select leasable scheduled events: %w", err)
	}

	events, err := scanScheduledEvents(rows)
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
		fmt.Sprintf(`UPDATE hdb_scheduled_events SET locked = TRUE WHERE id IN (%s)`, placeholders(len(ids))),
		ids...,
	); err != nil {
		return nil, fmt.Errorf("lock leased scheduled events: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit lease: %w", err)
	}

	return events, nil
}

// UnlockAllScheduledEvents resets locked rows on startup, mirroring
// UnlockAllEvents on the event queue.
func (c *MySQLClient) UnlockAllScheduledEvents(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `UPDATE hdb_scheduled_events SET locked = FALSE WHERE locked = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("unlock scheduled events: %w", err)
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

// CronStats reads the hdb_scheduled_events_stats view keyed by trigger name.
func (c *MySQLClient) CronStats(ctx context.Context) (map[string]models.CronStats, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, upcoming_events_count, max_scheduled_time
		FROM hdb_scheduled_events_stats`,
	)
	if err != nil {
		return nil, fmt.Errorf("query scheduled events stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]models.CronStats)
	for rows.Next() {
		var s models.CronStats
		var maxTime sql.NullTime
		if err := rows.Scan(&s.TriggerName, &s.UpcomingCount, &maxTime); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		if maxTime.Valid {
			t := maxTime.Time
			s.MaxScheduledTime = &t
		}
		stats[s.TriggerName] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats rows: %w", err)
	}

	return stats, nil
}

// InsertScheduledEvents bulk-inserts materialized cron rows. INSERT IGNORE
// against the (name, scheduled_time) unique key makes re-runs idempotent.
func (c *MySQLClient) InsertScheduledEvents(ctx context.Context, events []models.ScheduledEvent) error {
	if len(events) == 0 {
		return nil
	}

	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*3)
	for i := range events {
		values = append(values, "(?, ?, ?)")
		args = append(args, events[i].ID, events[i].Name, events[i].ScheduledTime.UTC())
	}

	query := fmt.Sprintf(
		`INSERT IGNORE INTO hdb_scheduled_events (id, name, scheduled_time) VALUES %s`,
		strings.Join(values, ", "),
	)
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert scheduled events: %w", err)
	}

	return nil
}

// InsertAdhocEvent inserts one API-created scheduled event. Unlike cron
// materialization this is not INSERT IGNORE: a duplicate surfaces as an error.
func (c *MySQLClient) InsertAdhocEvent(ctx context.Context, ev *models.ScheduledEvent) error {
	var payload interface{}
	if ev.AdditionalPayload != nil {
		payload = string(ev.AdditionalPayload)
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO hdb_scheduled_events (id, name, scheduled_time, additional_payload)
		VALUES (?, ?, ?, ?)`,
		ev.ID, ev.Name, ev.ScheduledTime.UTC(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert ad-hoc scheduled event: %w", err)
	}
	return nil
}

// GetScheduledEvent fetches one scheduled event row.
func (c *MySQLClient) GetScheduledEvent(ctx context.Context, id string) (*models.ScheduledEvent, error) {
	row := c.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM hdb_scheduled_events WHERE id = ?`, scheduledEventColumns),
		id,
	)

	ev, err := scanScheduledEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduledEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scheduled event: %w", err)
	}
	return ev, nil
}

// CancelScheduledEvent marks an unlocked, non-terminal row cancelled.
func (c *MySQLClient) CancelScheduledEvent(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE hdb_scheduled_events
		SET cancelled = TRUE, next_retry_at = NULL
		WHERE id = ?
		  AND locked = FALSE
		  AND delivered = FALSE
		  AND error = FALSE
		  AND dead = FALSE
		  AND cancelled = FALSE`,
		id,
	)
	if err != nil {
		return fmt.Errorf("cancel scheduled event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := c.GetScheduledEvent(ctx, id); err != nil {
			return err
		}
		return ErrScheduledEventNotCancellable
	}
	return nil
}

// MarkScheduledDead declares a row dead without a delivery attempt. Used
// when the event missed its tolerance window; no invocation row is written.
func (c *MySQLClient) MarkScheduledDead(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE hdb_scheduled_events
		SET dead = TRUE, locked = FALSE
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark scheduled event dead: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScheduledEvent(row rowScanner) (*models.ScheduledEvent, error) {
	var ev models.ScheduledEvent
	var payload sql.NullString
	var nextRetryAt sql.NullTime

	if err := row.Scan(
		&ev.ID, &ev.Name, &ev.ScheduledTime, &payload, &ev.Tries,
		&ev.Locked, &ev.Delivered, &ev.Error, &ev.Dead, &ev.Cancelled, &nextRetryAt,
	); err != nil {
		return nil, err
	}

	if payload.Valid {
		ev.AdditionalPayload = []byte(payload.String)
	}
	if nextRetryAt.Valid {
		t := nextRetryAt.Time
		ev.NextRetryAt = &t
	}
	return &ev, nil
}

func scanScheduledEvents(rows *sql.Rows) ([]models.ScheduledEvent, error) {
	defer rows.Close()

	var events []models.ScheduledEvent
	for rows.Next() {
		ev, err := scanScheduledEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scheduled event row: %w", err)
		}
		events = append(events, *ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled event rows: %w", err)
	}

	return events, nil
}
