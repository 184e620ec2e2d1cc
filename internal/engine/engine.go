// Package engine drains the two delivery queues: event_log rows produced
// by database triggers and hdb_scheduled_events rows produced by cron
// materialization or the API. Rows are leased in batches, delivered over
// HTTP, and transitioned in lockstep with their invocation log entries.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dhima/webhook-delivery-engine/internal/delivery"
	"github.com/dhima/webhook-delivery-engine/internal/logging"
	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/dhima/webhook-delivery-engine/internal/registry"
	"github.com/dhima/webhook-delivery-engine/internal/storage"
	"github.com/dhima/webhook-delivery-engine/pkg/clock"
	"github.com/dhima/webhook-delivery-engine/platform/events"
)

// fullBatchWarnThreshold is how many consecutive full event batches are
// tolerated before the engine warns that the queue is falling behind.
const fullBatchWarnThreshold = 3

// Config tunes the engine loops.
type Config struct {
	// BatchSize caps how many rows one lease claims. Default 100.
	BatchSize int
	// FetchInterval is the event loop's sleep after an empty batch. Default 1s.
	FetchInterval time.Duration
	// ScheduledInterval is the scheduled loop's tick. Default 60s.
	ScheduledInterval time.Duration
	// CronHorizon is how many upcoming events each cron trigger keeps
	// materialized. Default 100.
	CronHorizon int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.FetchInterval <= 0 {
		c.FetchInterval = time.Second
	}
	if c.ScheduledInterval <= 0 {
		c.ScheduledInterval = 60 * time.Second
	}
	if c.CronHorizon <= 0 {
		c.CronHorizon = 100
	}
	return c
}

// Engine supervises the event and scheduled delivery loops.
type Engine struct {
	cfg       Config
	events    EventQueue
	scheduled ScheduledQueue
	deliverer Deliverer
	snapshot  registry.SnapshotProvider
	publisher OutcomePublisher // optional
	clock     clock.Clock
	logger    logging.Logger

	// Backlog tracking, touched only by the event loop goroutine.
	fullBatches int
}

// New builds an engine. publisher may be nil to disable Kafka output.
func New(
	cfg Config,
	eventQueue EventQueue,
	scheduledQueue ScheduledQueue,
	deliverer Deliverer,
	snapshot registry.SnapshotProvider,
	publisher OutcomePublisher,
	clk clock.Clock,
	logger logging.Logger,
) *Engine {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Engine{
		cfg:       cfg.withDefaults(),
		events:    eventQueue,
		scheduled: scheduledQueue,
		deliverer: deliverer,
		snapshot:  snapshot,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

// Run sweeps stale locks from both queues, then runs the event and
// scheduled loops until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.sweepLocks(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.runEventLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.runScheduledLoop(ctx)
	}()
	wg.Wait()

	return ctx.Err()
}

// sweepLocks releases rows left locked by an ungraceful shutdown. Safe
// because no worker of this process can hold a lease yet.
func (e *Engine) sweepLocks(ctx context.Context) error {
	unlocked, err := e.events.UnlockAllEvents(ctx)
	if err != nil {
		return err
	}
	if unlocked > 0 {
		e.logger.Info("released stale event locks",
			logging.Category(logging.CategoryEventTrigger),
			zap.Int64("count", unlocked),
		)
	}

	unlocked, err = e.scheduled.UnlockAllScheduledEvents(ctx)
	if err != nil {
		return err
	}
	if unlocked > 0 {
		e.logger.Info("released stale scheduled event locks",
			logging.Category(logging.CategoryScheduledTrigger),
			zap.Int64("count", unlocked),
		)
	}
	return nil
}

// runEventLoop drains event_log with a double-buffered fetch: while one
// batch is being dispatched the next is already being leased, so delivery
// latency does not stack on query latency.
func (e *Engine) runEventLoop(ctx context.Context) {
	pending := e.leaseEvents(ctx)
	for ctx.Err() == nil {
		next := make(chan []models.Event, 1)
		go func() {
			next <- e.leaseEvents(ctx)
		}()

		e.dispatchEvents(ctx, pending)
		pending = <-next
		e.trackBacklog(len(pending))

		if len(pending) == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(e.cfg.FetchInterval):
			}
		}
	}
}

func (e *Engine) leaseEvents(ctx context.Context) []models.Event {
	if ctx.Err() != nil {
		return nil
	}
	batch, err := e.events.LeaseEvents(ctx, e.cfg.BatchSize)
	if err != nil {
		e.logger.Error("lease events",
			logging.Category(logging.CategoryEventTrigger),
			zap.Error(err),
		)
		return nil
	}
	return batch
}

func (e *Engine) trackBacklog(batchLen int) {
	if batchLen >= e.cfg.BatchSize {
		e.fullBatches++
		if e.fullBatches == fullBatchWarnThreshold {
			e.logger.Warn("event queue is falling behind, leases keep returning full batches",
				logging.Category(logging.CategoryEventTrigger),
				zap.Int("batch_size", e.cfg.BatchSize),
			)
		}
		return
	}
	if e.fullBatches >= fullBatchWarnThreshold {
		e.logger.Info("event queue caught up",
			logging.Category(logging.CategoryEventTrigger),
		)
	}
	e.fullBatches = 0
}

// dispatchEvents delivers one leased batch, one goroutine per event. The
// deliverer's permit pool bounds actual HTTP concurrency.
func (e *Engine) dispatchEvents(ctx context.Context, batch []models.Event) {
	if len(batch) == 0 {
		return
	}

	reg, err := e.snapshot(ctx)
	if err != nil {
		e.logger.Error("load trigger registry, leaving batch locked for the startup sweep",
			logging.Category(logging.CategoryEventTrigger),
			zap.Error(err),
		)
		return
	}

	var wg sync.WaitGroup
	for i := range batch {
		ev := batch[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.processEvent(ctx, reg, &ev)
		}()
	}
	wg.Wait()
}

// processEvent runs one delivery attempt for an event_log row and records
// its outcome. A row whose trigger no longer exists is logged and left
// locked so it cannot spin; the startup sweep returns it to the pool.
func (e *Engine) processEvent(ctx context.Context, reg *registry.Registry, ev *models.Event) {
	conf, ok := reg.EventTrigger(ev.TriggerName)
	if !ok {
		e.logger.Error("no configuration for event trigger, leaving row locked",
			logging.Category(logging.CategoryEventTrigger),
			zap.String("event_id", ev.ID),
			zap.String("trigger", ev.TriggerName),
		)
		return
	}

	body, err := delivery.EventRequestBody(ev, conf)
	var outcome delivery.Outcome
	if err != nil {
		outcome = delivery.Outcome{
			Kind:    delivery.OutcomeClientError,
			Status:  models.StatusOtherError,
			Message: err.Error(),
		}
	} else {
		outcome = e.deliverer.Deliver(ctx, delivery.Request{
			EventID: ev.ID,
			URL:     conf.WebhookURL,
			Headers: conf.Headers,
			Body:    body,
			Timeout: time.Duration(conf.Retry.Timeout()) * time.Second,
		})
	}

	plan := delivery.Decide(outcome, conf.Retry, ev.Tries, e.clock.Now())

	var t storage.EventTransition
	switch plan.Decision {
	case delivery.DecisionSuccess:
		t = storage.EventSuccess()
	case delivery.DecisionRetry:
		t = storage.EventRetry(plan.RetryAt)
	default:
		t = storage.EventError()
	}

	inv := &models.Invocation{
		EventID:  ev.ID,
		Status:   outcome.Status,
		Request:  models.NewInvocationRequest(body, conf.Headers),
		Response: outcome.ResponseBody(),
	}
	if err := e.events.RecordEventInvocation(ctx, inv, t); err != nil {
		e.logger.Error("record event invocation",
			logging.Category(logging.CategoryEventTrigger),
			zap.String("event_id", ev.ID),
			zap.Error(err),
		)
		return
	}

	e.publish(ctx, events.InvocationRecord{
		EventID:    ev.ID,
		Trigger:    ev.TriggerName,
		Queue:      events.QueueEvent,
		Status:     outcome.Status,
		Tries:      ev.Tries + 1,
		OccurredAt: e.clock.Now().UTC(),
	})
}

// runScheduledLoop materializes cron events and drains due scheduled rows
// once per tick. Scheduled deliveries run sequentially; volume on this
// queue is set by cron cadence, not row-change rate.
func (e *Engine) runScheduledLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.ScheduledInterval)
	defer ticker.Stop()

	for {
		e.scheduledPass(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (e *Engine) scheduledPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	reg, err := e.snapshot(ctx)
	if err != nil {
		e.logger.Error("load trigger registry",
			logging.Category(logging.CategoryScheduledTrigger),
			zap.Error(err),
		)
		return
	}

	if err := e.materialize(ctx, reg); err != nil {
		e.logger.Error("materialize cron events",
			logging.Category(logging.CategoryScheduledTrigger),
			zap.Error(err),
		)
	}

	batch, err := e.scheduled.LeaseScheduledEvents(ctx, e.cfg.BatchSize)
	if err != nil {
		e.logger.Error("lease scheduled events",
			logging.Category(logging.CategoryScheduledTrigger),
			zap.Error(err),
		)
		return
	}

	for i := range batch {
		if ctx.Err() != nil {
			return
		}
		e.processScheduled(ctx, reg, &batch[i])
	}
}

// processScheduled runs one delivery attempt for a scheduled row. Rows
// past their trigger's tolerance window are declared dead without an HTTP
// attempt or an invocation log entry.
func (e *Engine) processScheduled(ctx context.Context, reg *registry.Registry, ev *models.ScheduledEvent) {
	conf, ok := reg.ScheduledTrigger(ev.Name)
	if !ok {
		e.logger.Error("no configuration for scheduled trigger, leaving row locked",
			logging.Category(logging.CategoryScheduledTrigger),
			zap.String("event_id", ev.ID),
			zap.String("trigger", ev.Name),
		)
		return
	}

	now := e.clock.Now()
	if conf.ToleranceSeconds > 0 &&
		now.Sub(ev.ScheduledTime) > time.Duration(conf.ToleranceSeconds)*time.Second {
		if err := e.scheduled.MarkScheduledDead(ctx, ev.ID); err != nil {
			e.logger.Error("mark scheduled event dead",
				logging.Category(logging.CategoryScheduledTrigger),
				zap.String("event_id", ev.ID),
				zap.Error(err),
			)
			return
		}
		e.logger.Info("scheduled event missed its tolerance window",
			logging.Category(logging.CategoryScheduledTrigger),
			zap.String("event_id", ev.ID),
			zap.String("trigger", ev.Name),
			zap.Time("scheduled_time", ev.ScheduledTime),
		)
		return
	}

	body, err := delivery.ScheduledRequestBody(ev, conf)
	var outcome delivery.Outcome
	if err != nil {
		outcome = delivery.Outcome{
			Kind:    delivery.OutcomeClientError,
			Status:  models.StatusOtherError,
			Message: err.Error(),
		}
	} else {
		outcome = e.deliverer.Deliver(ctx, delivery.Request{
			EventID: ev.ID,
			URL:     conf.WebhookURL,
			Headers: conf.Headers,
			Body:    body,
			Timeout: time.Duration(conf.Retry.Timeout()) * time.Second,
		})
	}

	plan := delivery.Decide(outcome, conf.Retry, ev.Tries, now)

	var t storage.ScheduledTransition
	switch plan.Decision {
	case delivery.DecisionSuccess:
		t = storage.ScheduledSuccess()
	case delivery.DecisionRetry:
		t = storage.ScheduledRetry(plan.RetryAt)
	default:
		t = storage.ScheduledError()
	}

	inv := &models.Invocation{
		EventID:  ev.ID,
		Status:   outcome.Status,
		Request:  models.NewInvocationRequest(body, conf.Headers),
		Response: outcome.ResponseBody(),
	}
	if err := e.scheduled.RecordScheduledInvocation(ctx, inv, t); err != nil {
		e.logger.Error("record scheduled invocation",
			logging.Category(logging.CategoryScheduledTrigger),
			zap.String("event_id", ev.ID),
			zap.Error(err),
		)
		return
	}

	e.publish(ctx, events.InvocationRecord{
		EventID:    ev.ID,
		Trigger:    ev.Name,
		Queue:      events.QueueScheduled,
		Status:     outcome.Status,
		Tries:      ev.Tries + 1,
		OccurredAt: e.clock.Now().UTC(),
	})
}

func (e *Engine) publish(ctx context.Context, rec events.InvocationRecord) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, rec); err != nil {
		e.logger.Warn("publish invocation record",
			zap.String("event_id", rec.EventID),
			zap.Error(err),
		)
	}
}
