package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	Value int
}

func (e testEvent) EventName() string { return "test.event" }

func TestPublishSyncInvokesAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var got []int
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, ev Event) error {
		got = append(got, ev.(testEvent).Value)
		return nil
	}))
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, ev Event) error {
		got = append(got, ev.(testEvent).Value*10)
		return nil
	}))

	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), 3}); err != nil {
		t.Fatalf("PublishSync returned error: %v", err)
	}
	if len(got) != 2 || got[0] != 3 || got[1] != 30 {
		t.Fatalf("unexpected handler results: %v", got)
	}
}

func TestPublishSyncReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus(nil)

	first := errors.New("first")
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return first }))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return errors.New("second") }))

	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), 0}); !errors.Is(err, first) {
		t.Fatalf("expected first handler error, got %v", err)
	}
}

func TestPublishIsAsynchronous(t *testing.T) {
	bus := NewInMemoryBus(nil)

	done := make(chan int, 1)
	bus.Subscribe("test.event", HandlerFunc(func(_ context.Context, ev Event) error {
		done <- ev.(testEvent).Value
		return nil
	}))

	bus.Publish(context.Background(), testEvent{NewBaseEvent(), 7})

	select {
	case v := <-done:
		if v != 7 {
			t.Fatalf("unexpected value %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)
	bus.Publish(context.Background(), testEvent{NewBaseEvent(), 1})
	if err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), 1}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
