package listeners

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inspection-system/internal/core/inspection"
	"inspection-system/internal/events"
	"inspection-system/pkg/eventbus"
	"inspection-system/pkg/tasknotify"
)

type recorder struct {
	mu        sync.Mutex
	tasks     []tasknotify.Payload
	reports   map[uint64][]string
	alerts    []string
	purged    []string
	broadcast []string
	failTask  bool
}

func newRecorder() *recorder {
	return &recorder{reports: map[uint64][]string{}}
}

func (r *recorder) Notify(_ context.Context, p tasknotify.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTask {
		return errors.New("503")
	}
	r.tasks = append(r.tasks, p)
	return nil
}

func (r *recorder) SendReport(_ context.Context, id uint64, to []string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[id] = to
	return "<id@test>", nil
}

func (r *recorder) SendAlert(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, text)
	return nil
}

func (r *recorder) PurgeObjects(_ context.Context, keys []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purged = append(r.purged, keys...)
	return len(keys)
}

func (r *recorder) Broadcast(_ context.Context, messageType string, _ interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast = append(r.broadcast, messageType)
	return nil
}

func setup(t *testing.T) (*eventbus.Bus, *recorder) {
	t.Helper()
	rec := newRecorder()
	bus := eventbus.New(zap.NewNop(), time.Second)
	NewNotificationListener(rec, rec, rec, rec, rec, zap.NewNop()).Register(bus)
	return bus, rec
}

func TestCompletionEffectsAreExecuted(t *testing.T) {
	bus, rec := setup(t)
	ctx := context.Background()
	freight := "FR-1"
	completedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	bus.Publish(ctx, events.EffectEvent{Effect: inspection.TaskNotifyEffect{
		InspectionID: 7, TaskID: "T-1", FreightID: &freight, EquipmentStatus: "OPERATIONAL", CompletedAt: completedAt,
	}})
	bus.Publish(ctx, events.EffectEvent{Effect: inspection.ReportEmailEffect{InspectionID: 7, To: []string{"ops@example.com"}}})
	bus.Publish(ctx, events.EffectEvent{Effect: inspection.ChatAlertEffect{InspectionID: 7, Text: "крит"}})
	bus.Publish(ctx, events.EffectEvent{Effect: inspection.MediaPurgeEffect{ObjectKeys: []string{"media/a", "media/b"}}})
	bus.Wait()

	require.Len(t, rec.tasks, 1)
	assert.Equal(t, tasknotify.Payload{
		TaskID: "T-1", FreightID: "FR-1", InspectionID: 7, EquipmentStatus: "OPERATIONAL", CompletedAt: completedAt,
	}, rec.tasks[0])
	assert.Equal(t, []string{"ops@example.com"}, rec.reports[7])
	assert.Equal(t, []string{"крит"}, rec.alerts)
	assert.ElementsMatch(t, []string{"media/a", "media/b"}, rec.purged)
}

func TestFailingEffectDoesNotBlockOthers(t *testing.T) {
	bus, rec := setup(t)
	rec.failTask = true
	ctx := context.Background()

	bus.Publish(ctx, events.EffectEvent{Effect: inspection.TaskNotifyEffect{InspectionID: 1, TaskID: "T-1"}})
	bus.Publish(ctx, events.EffectEvent{Effect: inspection.ChatAlertEffect{InspectionID: 1, Text: "x"}})
	bus.Wait()

	assert.Empty(t, rec.tasks)
	assert.Equal(t, []string{"x"}, rec.alerts)
}

func TestLifecycleEventsAreBroadcast(t *testing.T) {
	bus, rec := setup(t)
	ctx := context.Background()

	bus.Publish(ctx, events.InspectionCreatedEvent{InspectionID: 1, EquipmentID: 2, TechnicianID: 3})
	bus.Publish(ctx, events.CheckpointUpdatedEvent{InspectionID: 1})
	bus.Publish(ctx, events.InspectionCompletedEvent{InspectionID: 1, EquipmentID: 2, EquipmentStatus: "OPERATIONAL"})
	bus.Publish(ctx, events.InspectionStoppedEvent{InspectionID: 1, EquipmentID: 2})
	bus.Wait()

	assert.ElementsMatch(t, []string{
		events.InspectionCreated,
		events.CheckpointUpdated,
		events.InspectionCompleted,
		events.InspectionStopped,
	}, rec.broadcast)
}
