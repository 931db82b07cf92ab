package status_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuikaDLC/Kincord/status"
)

type memoryStore struct {
	mu    sync.Mutex
	beats []status.Heartbeat
	ttl   time.Duration
	err   error
}

func (m *memoryStore) SetHeartbeat(_ context.Context, hb status.Heartbeat, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.beats = append(m.beats, hb)
	m.ttl = ttl
	return nil
}

func (m *memoryStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.beats)
}

func (m *memoryStore) last() status.Heartbeat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.beats[len(m.beats)-1]
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()

	t.Run("publish", func(t *testing.T) {
		store := &memoryStore{}
		p := status.NewPublisher(store, func() (string, string) { return "running", "127.0.0.1:3000" },
			time.Minute, "1.0.0", zerolog.Nop())

		require.NoError(t, p.Publish(ctx))

		hb := store.last()
		assert.Equal(t, p.InstanceID(), hb.InstanceID)
		assert.Equal(t, "running", hb.State)
		assert.Equal(t, "127.0.0.1:3000", hb.Addr)
		assert.Equal(t, "1.0.0", hb.Version)
		assert.Equal(t, time.Minute, store.ttl)
	})

	t.Run("error - store failure is wrapped", func(t *testing.T) {
		store := &memoryStore{err: errors.New("connection refused")}
		p := status.NewPublisher(store, func() (string, string) { return "stopped", "" }, time.Minute, "1.0.0", zerolog.Nop())

		err := p.Publish(ctx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "publishing heartbeat")
	})

	t.Run("run publishes on trigger", func(t *testing.T) {
		store := &memoryStore{}
		var mu sync.Mutex
		state := "stopped"
		p := status.NewPublisher(store, func() (string, string) {
			mu.Lock()
			defer mu.Unlock()
			return state, ""
		}, time.Hour, "1.0.0", zerolog.Nop())

		ctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			p.Run(ctx)
			close(done)
		}()
		require.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)

		mu.Lock()
		state = "running"
		mu.Unlock()
		p.Trigger()

		require.Eventually(t, func() bool { return store.count() == 2 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, "running", store.last().State)

		cancel()
		<-done
	})
}
