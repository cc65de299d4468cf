package watcher

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellbyte/backend/internal/domain/events"
)

func newDatasetEvent(eventType events.EventType, name string) *events.DatasetFileEvent {
	return &events.DatasetFileEvent{
		EventType: eventType,
		FileName:  name,
		EventTime: time.Now(),
	}
}

func TestSubscribeAndPublish(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	bus.Subscribe(events.DatasetFileCreated, events.HandlerFunc(func(e events.Event) error {
		defer wg.Done()
		received.Add(1)
		assert.Equal(t, events.DatasetFileCreated, e.Type())
		return nil
	}))

	bus.Publish(newDatasetEvent(events.DatasetFileCreated, "sales.csv"))
	wg.Wait()

	assert.Equal(t, int32(1), received.Load())
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	// 没有订阅者时发布不会阻塞或崩溃
	bus.Publish(newDatasetEvent(events.DatasetFileDeleted, "gone.csv"))
}

func TestSubscribeMultiple(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup
	wg.Add(2)

	bus.SubscribeMultiple(
		[]events.EventType{events.DatasetFileCreated, events.DatasetFileModified},
		events.HandlerFunc(func(e events.Event) error {
			defer wg.Done()
			received.Add(1)
			return nil
		}),
	)

	bus.Publish(newDatasetEvent(events.DatasetFileCreated, "a.csv"))
	bus.Publish(newDatasetEvent(events.DatasetFileModified, "a.csv"))
	wg.Wait()

	assert.Equal(t, int32(2), received.Load())
}

func TestHandlerPanicDoesNotAffectOthers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	var wg sync.WaitGroup
	wg.Add(1)

	bus.Subscribe(events.DatasetFileCreated, events.HandlerFunc(func(e events.Event) error {
		panic("boom")
	}))
	bus.Subscribe(events.DatasetFileCreated, events.HandlerFunc(func(e events.Event) error {
		defer wg.Done()
		return nil
	}))

	bus.Publish(newDatasetEvent(events.DatasetFileCreated, "sales.csv"))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler was not invoked")
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := NewEventBus()

	var received atomic.Int32
	bus.Subscribe(events.CatalogFileIngested, events.HandlerFunc(func(e events.Event) error {
		received.Add(1)
		return nil
	}))

	bus.Close()
	bus.Publish(&events.CatalogEvent{
		EventType: events.CatalogFileIngested,
		FileName:  "late.csv",
		EventTime: time.Now(),
	})

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(0), received.Load())
}
