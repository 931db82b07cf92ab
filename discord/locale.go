package discord

import (
	"fmt"

	"github.com/tuikaDLC/Kincord/kintone"
)

// Locale holds the fixed texts of outbound messages.
type Locale struct {
	Titles       map[kintone.EventType]string
	Verbs        map[kintone.EventType]string
	Description  string // printf format taking the app name
	RecordID     string
	Modifier     string
	Creator      string
	Footer       string
	ProbeContent string
	Notification string // printf format taking the verb
}

var English = Locale{
	Titles: map[kintone.EventType]string{
		kintone.RecordAdded:   "Record created",
		kintone.RecordUpdated: "Record updated",
		kintone.RecordDeleted: "Record deleted",
		kintone.Other:         "Record changed",
	},
	Verbs: map[kintone.EventType]string{
		kintone.RecordAdded:   "created",
		kintone.RecordUpdated: "updated",
		kintone.RecordDeleted: "deleted",
		kintone.Other:         "changed",
	},
	Description:  "There was an update in app \"%s\"",
	RecordID:     "Record ID",
	Modifier:     "Modifier",
	Creator:      "Creator",
	Footer:       "kintone-Discord relay",
	ProbeContent: "Connection test message - the kintone-Discord relay is working.",
	Notification: "Record %s notification sent",
}

var Japanese = Locale{
	Titles: map[kintone.EventType]string{
		kintone.RecordAdded:   "レコードが作成されました",
		kintone.RecordUpdated: "レコードが更新されました",
		kintone.RecordDeleted: "レコードが削除されました",
		kintone.Other:         "レコードイベント",
	},
	Verbs: map[kintone.EventType]string{
		kintone.RecordAdded:   "作成",
		kintone.RecordUpdated: "更新",
		kintone.RecordDeleted: "削除",
		kintone.Other:         "変更",
	},
	Description:  "アプリ「%s」で更新がありました",
	RecordID:     "レコード番号",
	Modifier:     "更新者",
	Creator:      "作成者",
	Footer:       "kintone-Discord連携",
	ProbeContent: "接続テストメッセージ - kintone-Discord連携アプリケーションが正常に動作しています。",
	Notification: "レコード%sの通知を送信しました",
}

// LocaleFor returns the catalogue for a locale tag, English by default.
func LocaleFor(tag string) Locale {
	if tag == "ja" {
		return Japanese
	}
	return English
}

func (l Locale) title(t kintone.EventType) string {
	if s, ok := l.Titles[t]; ok {
		return s
	}
	return l.Titles[kintone.Other]
}

func (l Locale) verb(t kintone.EventType) string {
	if s, ok := l.Verbs[t]; ok {
		return s
	}
	return l.Verbs[kintone.Other]
}

// NotificationText is the short summary shown to the operator after a
// successful delivery.
func (l Locale) NotificationText(t kintone.EventType) string {
	return fmt.Sprintf(l.Notification, l.verb(t))
}
