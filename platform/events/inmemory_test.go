package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSync_RunsAllHandlersAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var calls int
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, e Event) error {
		calls++
		return errors.New("first failed")
	}))
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, e Event) error {
		calls++
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{name: "thing.happened"})
	if err == nil {
		t.Fatal("expected joined error from failing handler")
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d calls", calls)
	}
}

func TestPublishSync_NoHandlersIsNoop(t *testing.T) {
	bus := NewInMemoryBus(nil)

	if err := bus.PublishSync(context.Background(), testEvent{name: "nobody.listens"}); err != nil {
		t.Fatalf("expected nil error without handlers, got %v", err)
	}
}

func TestPublish_DeliversAsynchronously(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var mu sync.Mutex
	var got string
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, e Event) error {
		mu.Lock()
		got = e.EventName()
		mu.Unlock()
		wg.Done()
		return nil
	}))

	bus.Publish(context.Background(), testEvent{name: "thing.happened"})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if got != "thing.happened" {
		t.Fatalf("expected event name thing.happened, got %s", got)
	}
}

func TestPublish_HandlerPanicDoesNotCrash(t *testing.T) {
	bus := NewInMemoryBus(nil)

	delivered := make(chan struct{})
	bus.Subscribe("thing.happened", HandlerFunc(func(ctx context.Context, e Event) error {
		close(delivered)
		panic("boom")
	}))

	bus.Publish(context.Background(), testEvent{name: "thing.happened"})

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}
