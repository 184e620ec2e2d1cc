package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhima/webhook-delivery-engine/internal/models"
	"github.com/dhima/webhook-delivery-engine/internal/registry"
	"github.com/dhima/webhook-delivery-engine/platform/events"
)

func scheduledTriggerRegistry(conf models.ScheduledTriggerConf) *registry.Registry {
	return registry.New(nil, []models.ScheduledTriggerConf{conf})
}

func TestProcessScheduled_WhenWebhookSucceeds_ThenRowDelivered(t *testing.T) {
	reg := scheduledTriggerRegistry(models.ScheduledTriggerConf{
		Name:       "nightly-report",
		WebhookURL: "https://example.com/report",
		Schedule:   models.ScheduleKindAdhoc,
		Retry:      models.RetryConf{NumRetries: 1, IntervalSeconds: 10},
	})
	fix := newEngineFixture(t, Config{}, reg)
	fix.scheduled.Add(models.ScheduledEvent{
		ID:                "se-1",
		Name:              "nightly-report",
		ScheduledTime:     testNow.Add(-time.Minute),
		AdditionalPayload: json.RawMessage(`{"report":"daily"}`),
	})

	fix.engine.scheduledPass(context.Background())

	se, ok := fix.scheduled.ScheduledEvent("se-1")
	require.True(t, ok)
	assert.True(t, se.Delivered)
	assert.False(t, se.Locked)
	assert.Equal(t, 1, se.Tries)

	reqs := fix.deliverer.RequestsFor("se-1")
	require.Len(t, reqs, 1)
	assert.Contains(t, string(reqs[0].Body), `"report":"daily"`)

	records := fix.publisher.Records()
	require.Len(t, records, 1)
	assert.Equal(t, events.QueueScheduled, records[0].Queue)
}

func TestProcessScheduled_WhenToleranceExceeded_ThenDeadWithoutAttempt(t *testing.T) {
	reg := scheduledTriggerRegistry(models.ScheduledTriggerConf{
		Name:             "nightly-report",
		WebhookURL:       "https://example.com/report",
		Schedule:         models.ScheduleKindAdhoc,
		ToleranceSeconds: 60,
		Retry:            models.RetryConf{NumRetries: 3, IntervalSeconds: 10},
	})
	fix := newEngineFixture(t, Config{}, reg)
	fix.scheduled.Add(models.ScheduledEvent{
		ID:            "se-1",
		Name:          "nightly-report",
		ScheduledTime: testNow.Add(-2 * time.Minute),
	})

	fix.engine.scheduledPass(context.Background())

	se, _ := fix.scheduled.ScheduledEvent("se-1")
	assert.True(t, se.Dead)
	assert.False(t, se.Locked)
	assert.Equal(t, 0, se.Tries)
	assert.Empty(t, fix.deliverer.Requests(), "a dead event must never reach the webhook")
	assert.Empty(t, fix.scheduled.Invocations(), "tolerance deaths are not invocations")
}

func TestProcessScheduled_WhenTerminalError_ThenNextRetryAtKept(t *testing.T) {
	reg := scheduledTriggerRegistry(models.ScheduledTriggerConf{
		Name:       "nightly-report",
		WebhookURL: "https://example.com/report",
		Schedule:   models.ScheduleKindAdhoc,
		Retry:      models.RetryConf{NumRetries: 1, IntervalSeconds: 10},
	})
	fix := newEngineFixture(t, Config{}, reg)

	lastRetry := testNow.Add(-time.Second)
	fix.scheduled.Add(models.ScheduledEvent{
		ID:            "se-1",
		Name:          "nightly-report",
		ScheduledTime: testNow.Add(-time.Hour),
		Tries:         1,
		NextRetryAt:   &lastRetry,
	})
	fix.deliverer.Script("se-1", serverError())

	fix.engine.scheduledPass(context.Background())

	se, _ := fix.scheduled.ScheduledEvent("se-1")
	assert.True(t, se.Error)
	require.NotNil(t, se.NextRetryAt, "the scheduled queue keeps next_retry_at on terminal error")
	assert.Equal(t, lastRetry, *se.NextRetryAt)
}

func TestProcessScheduled_WhenTriggerMissing_ThenRowStaysLocked(t *testing.T) {
	fix := newEngineFixture(t, Config{}, registry.New(nil, nil))
	fix.scheduled.Add(models.ScheduledEvent{
		ID:            "se-1",
		Name:          "gone-trigger",
		ScheduledTime: testNow.Add(-time.Minute),
	})

	fix.engine.scheduledPass(context.Background())

	se, _ := fix.scheduled.ScheduledEvent("se-1")
	assert.True(t, se.Locked)
	assert.Equal(t, 0, se.Tries)
	assert.Empty(t, fix.deliverer.Requests())
}

func TestMaterialize_WhenNoRowsExist_ThenGeneratesFullHorizon(t *testing.T) {
	reg := scheduledTriggerRegistry(models.ScheduledTriggerConf{
		Name:       "every-five",
		WebhookURL: "https://example.com/tick",
		Schedule:   models.ScheduleKindCron,
		CronExpr:   "*/5 * * * *",
	})
	fix := newEngineFixture(t, Config{CronHorizon: 10}, reg)

	require.NoError(t, fix.engine.materialize(context.Background(), reg))

	assert.Equal(t, 10, fix.scheduled.CountByName("every-five"))

	stats, err := fix.scheduled.CronStats(context.Background())
	require.NoError(t, err)
	s := stats["every-five"]
	assert.Equal(t, 10, s.UpcomingCount)
	require.NotNil(t, s.MaxScheduledTime)
	assert.Equal(t, testNow.Add(50*time.Minute), *s.MaxScheduledTime)
}

func TestMaterialize_WhenBelowHorizon_ThenTopsUpFromLatestRow(t *testing.T) {
	reg := scheduledTriggerRegistry(models.ScheduledTriggerConf{
		Name:       "every-five",
		WebhookURL: "https://example.com/tick",
		Schedule:   models.ScheduleKindCron,
		CronExpr:   "*/5 * * * *",
	})
	fix := newEngineFixture(t, Config{CronHorizon: 10}, reg)

	for i := 1; i <= 3; i++ {
		fix.scheduled.Add(models.ScheduledEvent{
			ID:            string(rune('a' + i)),
			Name:          "every-five",
			ScheduledTime: testNow.Add(time.Duration(i) * 5 * time.Minute),
		})
	}

	require.NoError(t, fix.engine.materialize(context.Background(), reg))

	// 3 existing plus a fresh horizon generated past the latest row.
	assert.Equal(t, 13, fix.scheduled.CountByName("every-five"))

	stats, err := fix.scheduled.CronStats(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats["every-five"].MaxScheduledTime)
	assert.Equal(t, testNow.Add(65*time.Minute), *stats["every-five"].MaxScheduledTime)
}

func TestMaterialize_WhenAtHorizon_ThenNoInsert(t *testing.T) {
	reg := scheduledTriggerRegistry(models.ScheduledTriggerConf{
		Name:       "every-five",
		WebhookURL: "https://example.com/tick",
		Schedule:   models.ScheduleKindCron,
		CronExpr:   "*/5 * * * *",
	})
	fix := newEngineFixture(t, Config{CronHorizon: 10}, reg)

	require.NoError(t, fix.engine.materialize(context.Background(), reg))
	require.Equal(t, 10, fix.scheduled.CountByName("every-five"))

	// A second run sees a full horizon and inserts nothing.
	require.NoError(t, fix.engine.materialize(context.Background(), reg))
	assert.Equal(t, 10, fix.scheduled.CountByName("every-five"))
}

func TestMaterialize_WhenTriggerIsAdhoc_ThenSkipped(t *testing.T) {
	reg := scheduledTriggerRegistry(models.ScheduledTriggerConf{
		Name:       "on-demand",
		WebhookURL: "https://example.com/hook",
		Schedule:   models.ScheduleKindAdhoc,
	})
	fix := newEngineFixture(t, Config{CronHorizon: 10}, reg)

	require.NoError(t, fix.engine.materialize(context.Background(), reg))
	assert.Equal(t, 0, fix.scheduled.CountByName("on-demand"))
}

func TestMaterialize_WhenCronExprInvalid_ThenOtherTriggersStillMaterialize(t *testing.T) {
	reg := registry.New(nil, []models.ScheduledTriggerConf{
		{
			Name:       "broken",
			WebhookURL: "https://example.com/broken",
			Schedule:   models.ScheduleKindCron,
			CronExpr:   "not a cron",
		},
		{
			Name:       "every-five",
			WebhookURL: "https://example.com/tick",
			Schedule:   models.ScheduleKindCron,
			CronExpr:   "*/5 * * * *",
		},
	})
	fix := newEngineFixture(t, Config{CronHorizon: 5}, reg)

	require.NoError(t, fix.engine.materialize(context.Background(), reg))
	assert.Equal(t, 0, fix.scheduled.CountByName("broken"))
	assert.Equal(t, 5, fix.scheduled.CountByName("every-five"))
}
