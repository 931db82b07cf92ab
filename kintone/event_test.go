package kintone_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuikaDLC/Kincord/kintone"
)

func TestParse(t *testing.T) {
	t.Run("success - record added", func(t *testing.T) {
		body := []byte(`{
			"type": "ADD_RECORD",
			"app": {"id": "1", "name": "Tasks"},
			"record": {"id": "42", "creator": {"code": "alice", "name": "Alice"}, "modifier": {"name": "Bob"}},
			"url": "https://example.cybozu.com/k/1/show#record=42"
		}`)

		ev, err := kintone.Parse(body)

		require.NoError(t, err)
		assert.Equal(t, kintone.RecordAdded, ev.Type)
		assert.Equal(t, "ADD_RECORD", ev.RawType)
		assert.Equal(t, "1", ev.AppID)
		assert.Equal(t, "Tasks", ev.AppName)
		assert.Equal(t, "42", ev.RecordID)
		assert.Equal(t, "Alice", ev.CreatorName)
		assert.Equal(t, "Bob", ev.ModifierName)
		assert.Equal(t, "https://example.cybozu.com/k/1/show#record=42", ev.RecordURL)
	})

	t.Run("success - numeric ids", func(t *testing.T) {
		ev, err := kintone.Parse([]byte(`{"type":"UPDATE_RECORD","app":{"id":7,"name":"CRM"},"record":{"id":1001}}`))

		require.NoError(t, err)
		assert.Equal(t, "7", ev.AppID)
		assert.Equal(t, "1001", ev.RecordID)
	})

	t.Run("success - delete carries top-level record id", func(t *testing.T) {
		ev, err := kintone.Parse([]byte(`{"type":"DELETE_RECORD","app":{"id":"3","name":"Leads"},"recordId":"9"}`))

		require.NoError(t, err)
		assert.Equal(t, kintone.RecordDeleted, ev.Type)
		assert.Equal(t, "9", ev.RecordID)
	})

	t.Run("success - unknown type maps to other", func(t *testing.T) {
		ev, err := kintone.Parse([]byte(`{"type":"ADD_RECORD_COMMENT","app":{"name":"Tasks"}}`))

		require.NoError(t, err)
		assert.Equal(t, kintone.Other, ev.Type)
		assert.Equal(t, "ADD_RECORD_COMMENT", ev.RawType)
	})

	t.Run("error - not json", func(t *testing.T) {
		_, err := kintone.Parse([]byte(`not json`))

		require.Error(t, err)
		assert.ErrorIs(t, err, kintone.ErrMalformedPayload)
	})

	t.Run("error - wrong field type", func(t *testing.T) {
		_, err := kintone.Parse([]byte(`{"type":"ADD_RECORD","app":{"id":{"nested":true}}}`))

		assert.ErrorIs(t, err, kintone.ErrMalformedPayload)
	})

	t.Run("success - missing type parses as other", func(t *testing.T) {
		ev, err := kintone.Parse([]byte(`{"app":{"id":"1","name":"Tasks"},"record":{"id":"42"}}`))

		require.NoError(t, err)
		assert.Equal(t, kintone.Other, ev.Type)
		assert.Empty(t, ev.RawType)
		assert.Equal(t, "Tasks", ev.AppName)
		assert.Equal(t, "42", ev.RecordID)
	})

	t.Run("error - json null", func(t *testing.T) {
		_, err := kintone.Parse([]byte(`null`))

		require.Error(t, err)
		assert.ErrorIs(t, err, kintone.ErrInvalidPayload)
		assert.NotErrorIs(t, err, kintone.ErrMalformedPayload)
	})
}

func TestEventType(t *testing.T) {
	tests := []struct {
		wire string
		want kintone.EventType
	}{
		{"ADD_RECORD", kintone.RecordAdded},
		{"UPDATE_RECORD", kintone.RecordUpdated},
		{"DELETE_RECORD", kintone.RecordDeleted},
		{"UPDATE_STATUS", kintone.Other},
		{"", kintone.Other},
	}
	for _, tt := range tests {
		t.Run(tt.wire, func(t *testing.T) {
			got := kintone.NewEventType(tt.wire)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}

	assert.Error(t, kintone.EventType(0).Validate())
	assert.Equal(t, "unknown", kintone.EventType(99).String())
}
