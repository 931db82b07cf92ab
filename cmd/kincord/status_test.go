package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuikaDLC/Kincord/status"
	statusredis "github.com/tuikaDLC/Kincord/status/redis"
)

type fakeStatusReader struct {
	beats  []status.Heartbeat
	counts map[string]int64
	err    error
}

func (f fakeStatusReader) GetHeartbeat(_ context.Context, id string) (status.Heartbeat, error) {
	for _, hb := range f.beats {
		if hb.InstanceID == id {
			return hb, nil
		}
	}
	return status.Heartbeat{}, statusredis.ErrNotFound
}

func (f fakeStatusReader) ListHeartbeats(context.Context) ([]status.Heartbeat, error) {
	return append([]status.Heartbeat(nil), f.beats...), f.err
}

func (f fakeStatusReader) ResultCounts(context.Context) (map[string]int64, error) {
	return f.counts, nil
}

func TestCollectStatus(t *testing.T) {
	ctx := context.Background()
	updated := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	reader := fakeStatusReader{
		beats: []status.Heartbeat{
			{InstanceID: "b", Hostname: "relay-b", State: "stopped", UpdatedAt: updated},
			{InstanceID: "a", Hostname: "relay-a", State: "running", Addr: "127.0.0.1:3000", UpdatedAt: updated},
		},
		counts: map[string]int64{"accepted": 3, "unauthorized": 1},
	}

	t.Run("success - all instances sorted", func(t *testing.T) {
		st, err := collectStatus(ctx, reader, "")

		require.NoError(t, err)
		require.Len(t, st.Instances, 2)
		assert.Equal(t, "a", st.Instances[0].InstanceID)
		assert.Equal(t, "b", st.Instances[1].InstanceID)
		assert.Equal(t, reader.counts, st.Results)
	})

	t.Run("success - single instance", func(t *testing.T) {
		st, err := collectStatus(ctx, reader, "b")

		require.NoError(t, err)
		require.Len(t, st.Instances, 1)
		assert.Equal(t, "relay-b", st.Instances[0].Hostname)
	})

	t.Run("error - unknown instance", func(t *testing.T) {
		_, err := collectStatus(ctx, reader, "gone")

		assert.EqualError(t, err, "instance gone has no live heartbeat")
	})

	t.Run("error - listing fails", func(t *testing.T) {
		_, err := collectStatus(ctx, fakeStatusReader{err: errors.New("connection refused")}, "")

		assert.EqualError(t, err, "connection refused")
	})
}

func TestWriteStatus(t *testing.T) {
	st := clusterStatus{
		Instances: []status.Heartbeat{{InstanceID: "a", Hostname: "relay-a", State: "running", Addr: "127.0.0.1:3000"}},
		Results:   map[string]int64{"unauthorized": 1, "accepted": 3},
	}

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer

		require.NoError(t, writeStatus(&out, st, "text"))

		assert.Contains(t, out.String(), "INSTANCE")
		assert.Contains(t, out.String(), "relay-a")
		assert.Contains(t, out.String(), "Events: accepted=3 unauthorized=1")
	})

	t.Run("text without instances", func(t *testing.T) {
		var out bytes.Buffer

		require.NoError(t, writeStatus(&out, clusterStatus{}, "text"))

		assert.Contains(t, out.String(), "No live instances.")
		assert.Contains(t, out.String(), "Events: none")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer

		require.NoError(t, writeStatus(&out, st, "json"))

		var got clusterStatus
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "a", got.Instances[0].InstanceID)
		assert.Equal(t, int64(3), got.Results["accepted"])
	})

	t.Run("error - unknown format", func(t *testing.T) {
		assert.Error(t, writeStatus(&bytes.Buffer{}, st, "xml"))
	})
}

func TestStatusCmdRequiresRedis(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 3100\n")

	_, err := execute(t, "status", "--config", path)

	assert.EqualError(t, err, "redis.addr is not configured")
}
