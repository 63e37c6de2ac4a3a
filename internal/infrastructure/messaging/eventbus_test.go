package messaging_test

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/domain/shared"
	"github.com/ChoraichiFadwa/ECOLead-Finance/internal/infrastructure/messaging"
)

type countingObserver struct {
	ok, failed atomic.Int32
}

func (o *countingObserver) ObserveHandler(_ string, _ time.Duration, ok bool) {
	if ok {
		o.ok.Add(1)
	} else {
		o.failed.Add(1)
	}
}

func newBus(async bool, obs messaging.HandlerObserver) *messaging.InMemoryEventBus {
	return messaging.NewInMemoryEventBus(messaging.InMemoryEventBusConfig{
		AsyncMode:      async,
		WorkerPoolSize: 2,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observer:       obs,
	})
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := newBus(false, nil)
	var typed, all int
	require.NoError(t, bus.Subscribe(shared.EventMissionCompleted, func(shared.Event) error { typed++; return nil }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { all++; return nil }))

	require.NoError(t, bus.Publish(shared.NewMissionCompletedEvent("s1", "m1", "c1")))
	require.NoError(t, bus.Publish(shared.NewStudentRegisteredEvent("s1", "Ada", "ada@example.com")))

	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, all)
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	obs := &countingObserver{}
	bus := newBus(false, obs)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("oops") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return nil }))

	assert.NoError(t, bus.Publish(shared.NewMissionCompletedEvent("s1", "m1", "c1")))
	assert.Equal(t, int32(1), obs.ok.Load())
	assert.Equal(t, int32(2), obs.failed.Load())
}

func TestInMemoryEventBus_AsyncDrainsOnClose(t *testing.T) {
	bus := newBus(true, nil)
	var n atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		time.Sleep(time.Millisecond)
		n.Add(1)
		return nil
	}))

	for range 10 {
		require.NoError(t, bus.Publish(shared.NewMissionCompletedEvent("s1", "m1", "c1")))
	}
	require.NoError(t, bus.Close())
	assert.Equal(t, int32(10), n.Load())

	assert.ErrorIs(t, bus.Publish(shared.NewMissionCompletedEvent("s1", "m1", "c1")), messaging.ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), messaging.ErrEventBusClosed)
}
