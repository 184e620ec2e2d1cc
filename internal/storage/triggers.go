package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/dhima/webhook-delivery-engine/internal/registry"
)

// LoadRegistry builds a trigger configuration snapshot from the
// event_triggers and hdb_scheduled_trigger tables. The engine calls this
// once per processing cycle (see registry.SnapshotProvider), so updates to
// trigger rows take effect without a restart.
func (c *MySQLClient) LoadRegistry(ctx context.Context) (*registry.Registry, error) {
	eventTriggers, err := c.loadEventTriggers(ctx)
	if err != nil {
		return nil, err
	}

	scheduledTriggers, err := c.loadScheduledTriggers(ctx)
	if err != nil {
		return nil, err
	}

	return registry.New(eventTriggers, scheduledTriggers), nil
}

func (c *MySQLClient) loadEventTriggers(ctx context.Context) ([]models.EventTriggerConf, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, webhook_url, headers, num_retries, interval_seconds, timeout_seconds
		FROM event_triggers`,
	)
	if err != nil {
		return nil, fmt.Errorf("query event triggers: %w", err)
	}
	defer rows.Close()

	var confs []models.EventTriggerConf
	for rows.Next() {
		var conf models.EventTriggerConf
		var headers sql.NullString
		if err := rows.Scan(
			&conf.Name, &conf.WebhookURL, &headers,
			&conf.Retry.NumRetries, &conf.Retry.IntervalSeconds, &conf.Retry.TimeoutSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan event trigger row: %w", err)
		}
		if conf.Headers, err = parseHeaders(headers); err != nil {
			return nil, fmt.Errorf("trigger %s: %w", conf.Name, err)
		}
		confs = append(confs, conf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event trigger rows: %w", err)
	}
	return confs, nil
}

func (c *MySQLClient) loadScheduledTriggers(ctx context.Context) ([]models.ScheduledTriggerConf, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, webhook_url, headers, schedule_type, cron_expr, payload,
		       payload_schema, tolerance_seconds, num_retries, interval_seconds, timeout_seconds
		FROM hdb_scheduled_trigger`,
	)
	if err != nil {
		return nil, fmt.Errorf("query scheduled triggers: %w", err)
	}
	defer rows.Close()

	var confs []models.ScheduledTriggerConf
	for rows.Next() {
		var conf models.ScheduledTriggerConf
		var headers, cronExpr, payload, payloadSchema sql.NullString
		var scheduleType string
		if err := rows.Scan(
			&conf.Name, &conf.WebhookURL, &headers, &scheduleType, &cronExpr,
			&payload, &payloadSchema, &conf.ToleranceSeconds,
			&conf.Retry.NumRetries, &conf.Retry.IntervalSeconds, &conf.Retry.TimeoutSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan scheduled trigger row: %w", err)
		}

		conf.Schedule = models.ScheduleKind(scheduleType)
		if cronExpr.Valid {
			conf.CronExpr = cronExpr.String
		}
		if payload.Valid {
			conf.Payload = json.RawMessage(payload.String)
		}
		if payloadSchema.Valid {
			if err := json.Unmarshal([]byte(payloadSchema.String), &conf.PayloadSchema); err != nil {
				return nil, fmt.Errorf("trigger %s: parse payload schema: %w", conf.Name, err)
			}
		}
		if conf.Headers, err = parseHeaders(headers); err != nil {
			return nil, fmt.Errorf("trigger %s: %w", conf.Name, err)
		}

		confs = append(confs, conf)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled trigger rows: %w", err)
	}
	return confs, nil
}

func parseHeaders(value sql.NullString) ([]models.Header, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var headers []models.Header
	if err := json.Unmarshal([]byte(value.String), &headers); err != nil {
		return nil, fmt.Errorf("parse headers: %w", err)
	}
	return headers, nil
}
