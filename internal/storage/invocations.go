package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/google/uuid"
)

// RecordEventInvocation writes one invocation log row and applies the state
// transition to the event_log row in a single REPEATABLE READ transaction.
// The tries bump lives here so every recorded attempt increments it exactly
// once.
func (c *MySQLClient) RecordEventInvocation(ctx context.Context, inv *models.Invocation, t EventTransition) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin invocation transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertInvocation(ctx, tx, "event_invocation_logs", inv); err != nil {
		return err
	}

	var update string
	args := []interface{}{}
	switch t.Kind {
	case TransitionSuccess:
		update = `UPDATE event_log
			SET tries = tries + 1, delivered = TRUE, next_retry_at = NULL, locked = FALSE
			WHERE id = ?`
	case TransitionError:
		update = `UPDATE event_log
			SET tries = tries + 1, error = TRUE, next_retry_at = NULL, locked = FALSE
			WHERE id = ?`
	case TransitionRetry:
		update = `UPDATE event_log
			SET tries = tries + 1, next_retry_at = ?, locked = FALSE
			WHERE id = ?`
		args = append(args, t.RetryAt.UTC())
	default:
		err = fmt.Errorf("unknown event transition kind: %d", t.Kind)
		return err
	}
	args = append(args, inv.EventID)

	if _, err = tx.ExecContext(ctx, update, args...); err != nil {
		return fmt.Errorf("apply event transition: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit invocation transaction: %w", err)
	}
	return nil
}

// RecordScheduledInvocation is RecordEventInvocation for the scheduled
// queue. Note the error transition keeps next_retry_at in place.
func (c *MySQLClient) RecordScheduledInvocation(ctx context.Context, inv *models.Invocation, t ScheduledTransition) error {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("begin invocation transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertInvocation(ctx, tx, "hdb_scheduled_event_invocation_logs", inv); err != nil {
		return err
	}

	var update string
	args := []interface{}{}
	switch t.Kind {
	case TransitionSuccess:
		update = `UPDATE hdb_scheduled_events
			SET tries = tries + 1, delivered = TRUE, next_retry_at = NULL, locked = FALSE
			WHERE id = ?`
	case TransitionError:
		update = `UPDATE hdb_scheduled_events
			SET tries = tries + 1, error = TRUE, locked = FALSE
			WHERE id = ?`
	case TransitionRetry:
		update = `UPDATE hdb_scheduled_events
			SET tries = tries + 1, next_retry_at = ?, locked = FALSE
			WHERE id = ?`
		args = append(args, t.RetryAt.UTC())
	default:
		err = fmt.Errorf("unknown scheduled transition kind: %d", t.Kind)
		return err
	}
	args = append(args, inv.EventID)

	if _, err = tx.ExecContext(ctx, update, args...); err != nil {
		return fmt.Errorf("apply scheduled transition: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit invocation transaction: %w", err)
	}
	return nil
}

// ListInvocations returns the invocation history of one event across both
// invocation tables, newest first.
func (c *MySQLClient) ListInvocations(ctx context.Context, eventID string, page, limit int) ([]models.Invocation, int64, error) {
	const fromBoth = `(
		SELECT event_id, status, request, response, created_at FROM event_invocation_logs WHERE event_id = ?
		UNION ALL
		SELECT event_id, status, request, response, created_at FROM hdb_scheduled_event_invocation_logs WHERE event_id = ?
	) AS invocations`

	var total int64
	if err := c.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s`, fromBoth), eventID, eventID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invocations: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	rows, err := c.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT event_id, status, request, response, created_at
			FROM %s ORDER BY created_at DESC LIMIT ? OFFSET ?`, fromBoth),
		eventID, eventID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var invocations []models.Invocation
	for rows.Next() {
		var inv models.Invocation
		var request, response string
		if err := rows.Scan(&inv.EventID, &inv.Status, &request, &response, &inv.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan invocation row: %w", err)
		}
		inv.Request = []byte(request)
		inv.Response = []byte(response)
		invocations = append(invocations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate invocation rows: %w", err)
	}

	return invocations, total, nil
}

func insertInvocation(ctx context.Context, tx *sql.Tx, table string, inv *models.Invocation) error {
	_, err := tx.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, event_id, status, request, response) VALUES (?, ?, ?, ?, ?)`, table),
		uuid.New().String(), inv.EventID, inv.Status, string(inv.Request), string(inv.Response),
	)
	if err != nil {
		return fmt.Errorf("insert invocation log: %w", err)
	}
	return nil
}
