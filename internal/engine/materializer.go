package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/dhima/webhook-delivery-engine/internal/registry"
	"github.com/dhima/webhook-delivery-engine/internal/schedule"
)

// materialize tops up the scheduled queue for every cron trigger whose
// count of upcoming events has dropped below the horizon. Generation
// resumes from the latest already-materialized time so re-runs and
// concurrent instances produce the same rows; the (name, scheduled_time)
// unique key absorbs any overlap.
func (e *Engine) materialize(ctx context.Context, reg *registry.Registry) error {
	crons := reg.CronTriggers()
	if len(crons) == 0 {
		return nil
	}

	stats, err := e.scheduled.CronStats(ctx)
	if err != nil {
		return fmt.Errorf("read cron stats: %w", err)
	}

	now := e.clock.Now()
	var rows []models.ScheduledEvent
	for _, conf := range crons {
		s := stats[conf.Name]
		if s.UpcomingCount >= e.cfg.CronHorizon {
			continue
		}

		from := now
		if s.MaxScheduledTime != nil && s.MaxScheduledTime.After(from) {
			from = *s.MaxScheduledTime
		}

		times, err := schedule.GenerateScheduleTimes(conf.CronExpr, from, e.cfg.CronHorizon)
		if err != nil {
			e.logger.Error("generate schedule times",
				logging.Category(logging.CategoryScheduledTrigger),
				zap.String("trigger", conf.Name),
				zap.String("cron", conf.CronExpr),
				zap.Error(err),
			)
			continue
		}

		for _, t := range times {
			rows = append(rows, models.ScheduledEvent{
				ID:            uuid.New().String(),
				Name:          conf.Name,
				ScheduledTime: t,
			})
		}

		e.logger.Debug("materializing cron events",
			logging.Category(logging.CategoryScheduledTrigger),
			zap.String("trigger", conf.Name),
			zap.Int("upcoming", s.UpcomingCount),
			zap.Int("generated", len(times)),
		)
	}

	if len(rows) == 0 {
		return nil
	}
	if err := e.scheduled.InsertScheduledEvents(ctx, rows); err != nil {
		return err
	}

	e.logger.Info("materialized cron events",
		logging.Category(logging.CategoryScheduledTrigger),
		zap.Int("count", len(rows)),
	)
	return nil
}
