package events

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"repair_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func newTestBus() *InMemoryBus {
	return NewInMemoryBus(logger.NewWithWriter("production", io.Discard))
}

func TestPublishSyncRunsHandlersInOrder(t *testing.T) {
	bus := newTestBus()
	var order []int
	bus.Subscribe("a", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 1)
		return nil
	}))
	bus.Subscribe("a", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 2)
		return nil
	}))
	bus.Subscribe("b", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 99)
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{name: "a"}); err != nil {
		t.Fatalf("PublishSync() error = %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected handler order %v", order)
	}
}

func TestPublishSyncJoinsErrorsAndRecoversPanics(t *testing.T) {
	bus := newTestBus()
	boom := errors.New("boom")
	bus.Subscribe("a", HandlerFunc(func(context.Context, Event) error { return boom }))
	bus.Subscribe("a", HandlerFunc(func(context.Context, Event) error { panic("bad handler") }))

	err := bus.PublishSync(context.Background(), testEvent{name: "a"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain boom, got %v", err)
	}
}

func TestPublishDetachesFromCallerCancellation(t *testing.T) {
	bus := newTestBus()
	var ctxErr atomic.Value
	bus.Subscribe("a", HandlerFunc(func(ctx context.Context, _ Event) error {
		ctxErr.Store(ctx.Err() == nil)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{name: "a"})
	bus.Wait()

	if ok, _ := ctxErr.Load().(bool); !ok {
		t.Fatal("expected async handler context to be detached from caller cancellation")
	}
}
