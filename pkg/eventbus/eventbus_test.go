package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type testEvent struct{ name string }

func (e testEvent) Name() string { return e.name }

func TestBus_PublishRunsEveryListener(t *testing.T) {
	bus := New(zap.NewNop(), time.Second)
	var calls int32

	for i := 0; i < 3; i++ {
		bus.Subscribe("inspection.completed", func(ctx context.Context, event Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}
	bus.Subscribe("other", func(ctx context.Context, event Event) error {
		t.Error("слушатель другого события не должен вызываться")
		return nil
	})

	bus.Publish(context.Background(), testEvent{name: "inspection.completed"})
	bus.Wait()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestBus_ListenerFailuresAreIsolated(t *testing.T) {
	bus := New(zap.NewNop(), time.Second)
	var ok int32

	bus.Subscribe("e", func(ctx context.Context, event Event) error { return errors.New("smtp down") })
	bus.Subscribe("e", func(ctx context.Context, event Event) error { panic("boom") })
	bus.Subscribe("e", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&ok, 1)
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), testEvent{name: "e"})
		bus.Wait()
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&ok))
}

func TestBus_ListenerContextOutlivesCaller(t *testing.T) {
	bus := New(zap.NewNop(), 50*time.Millisecond)
	var deadlineHit int32

	bus.Subscribe("slow", func(ctx context.Context, event Event) error {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			atomic.StoreInt32(&deadlineHit, 1)
		}
		return ctx.Err()
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	bus.Publish(reqCtx, testEvent{name: "slow"})
	cancel()
	bus.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&deadlineHit), "обработчик завершается по своему таймауту, а не по отмене запроса")
}
