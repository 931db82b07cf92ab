package discord_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuikaDLC/Kincord/discord"
	"github.com/tuikaDLC/Kincord/kintone"
)

func fixedFormatter(locale string) discord.Formatter {
	f := discord.NewFormatter(locale)
	f.Now = func() time.Time {
		return time.Date(2024, 5, 1, 9, 30, 15, 123_000_000, time.FixedZone("JST", 9*3600))
	}
	return f
}

func TestFormat(t *testing.T) {
	f := fixedFormatter("en")

	t.Run("record added", func(t *testing.T) {
		ev := kintone.Event{
			Type:        kintone.RecordAdded,
			AppName:     "Tasks",
			RecordID:    "42",
			CreatorName: "Alice",
			RecordURL:   "https://example.cybozu.com/k/1/show#record=42",
		}

		msg := f.Format(ev, "kintone Bot", "")

		require.Len(t, msg.Embeds, 1)
		embed := msg.Embeds[0]
		assert.Equal(t, "kintone Bot", msg.Username)
		assert.Equal(t, "Record created", embed.Title)
		assert.Equal(t, discord.ColorAdded, embed.Color)
		assert.Equal(t, `There was an update in app "Tasks"`, embed.Description)
		assert.Equal(t, ev.RecordURL, embed.URL)
		assert.Equal(t, []discord.Field{
			{Name: "Record ID", Value: "42", Inline: true},
			{Name: "Creator", Value: "Alice", Inline: true},
		}, embed.Fields)
		assert.Equal(t, "2024-05-01T00:30:15.123Z", embed.Timestamp)
		require.NotNil(t, embed.Footer)
		assert.Equal(t, "kintone-Discord relay", embed.Footer.Text)
	})

	t.Run("colours and titles per type", func(t *testing.T) {
		tests := []struct {
			typ   kintone.EventType
			color int
			title string
		}{
			{kintone.RecordAdded, 0x00FF00, "Record created"},
			{kintone.RecordUpdated, 0xFFA500, "Record updated"},
			{kintone.RecordDeleted, 0xFF0000, "Record deleted"},
			{kintone.Other, 0x0099FF, "Record changed"},
			{kintone.EventType(0), 0x0099FF, "Record changed"},
		}
		for _, tt := range tests {
			t.Run(tt.typ.String(), func(t *testing.T) {
				msg := f.Format(kintone.Event{Type: tt.typ}, "bot", "")
				assert.Equal(t, tt.color, msg.Embeds[0].Color)
				assert.Equal(t, tt.title, msg.Embeds[0].Title)
			})
		}
	})

	t.Run("creator only on record added", func(t *testing.T) {
		ev := kintone.Event{Type: kintone.RecordUpdated, RecordID: "7", ModifierName: "Bob", CreatorName: "Alice"}

		msg := f.Format(ev, "bot", "")

		assert.Equal(t, []discord.Field{
			{Name: "Record ID", Value: "7", Inline: true},
			{Name: "Modifier", Value: "Bob", Inline: true},
		}, msg.Embeds[0].Fields)
	})

	t.Run("record id field is always present", func(t *testing.T) {
		msg := f.Format(kintone.Event{Type: kintone.RecordDeleted}, "bot", "")

		require.Len(t, msg.Embeds[0].Fields, 1)
		assert.Equal(t, "Record ID", msg.Embeds[0].Fields[0].Name)
	})

	t.Run("avatar omitted from json when empty", func(t *testing.T) {
		data, err := json.Marshal(f.Format(kintone.Event{Type: kintone.RecordAdded}, "bot", ""))
		require.NoError(t, err)
		assert.NotContains(t, string(data), "avatar_url")

		data, err = json.Marshal(f.Format(kintone.Event{Type: kintone.RecordAdded}, "bot", "https://img.test/a.png"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"avatar_url":"https://img.test/a.png"`)
	})

	t.Run("japanese catalogue", func(t *testing.T) {
		ja := fixedFormatter("ja")

		msg := ja.Format(kintone.Event{Type: kintone.RecordAdded, AppName: "案件", CreatorName: "佐藤"}, "bot", "")

		assert.Equal(t, "レコードが作成されました", msg.Embeds[0].Title)
		assert.Equal(t, "アプリ「案件」で更新がありました", msg.Embeds[0].Description)
		assert.Equal(t, "作成者", msg.Embeds[0].Fields[1].Name)
		assert.Equal(t, "レコード作成の通知を送信しました", discord.Japanese.NotificationText(kintone.RecordAdded))
	})
}

func TestNotificationText(t *testing.T) {
	assert.Equal(t, "Record created notification sent", discord.English.NotificationText(kintone.RecordAdded))
	assert.Equal(t, "Record changed notification sent", discord.English.NotificationText(kintone.Other))
}
