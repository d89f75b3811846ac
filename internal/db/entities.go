package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type (
	// Settings holds per-chat presentation settings.
	Settings struct {
		ID       int64  `db:"id"`
		Enabled  bool   `db:"enabled"`
		Language string `db:"language"`
	}

	// Trigger is one auto-reply, global across chats. Either Response or the
	// media pair is set.
	Trigger struct {
		Word      string `db:"word"`
		Response  string `db:"response"`
		MediaID   string `db:"media_id"`
		MediaType string `db:"media_type"`
	}

	// RegionBlocks is the per-chat document of blocked countries and language
	// scripts.
	RegionBlocks struct {
		ChatID    int64      `db:"chat_id"`
		Countries StringList `db:"countries"`
		Scripts   StringList `db:"scripts"`
	}

	ModuleStat struct {
		ChatID     int64     `db:"chat_id"`
		Module     string    `db:"module"`
		UsageCount int64     `db:"usage_count"`
		LastUsed   time.Time `db:"last_used"`
	}

	AuditEntry struct {
		ID        string    `db:"id"`
		ChatID    int64     `db:"chat_id"`
		ActorID   int64     `db:"actor_id"`
		Action    string    `db:"action"`
		Details   string    `db:"details"`
		CreatedAt time.Time `db:"created_at"`
	}

	// Couple is the shippering pair for one chat and date (DD/MM/YYYY).
	Couple struct {
		ChatID   int64  `db:"chat_id"`
		Date     string `db:"date"`
		FirstID  int64  `db:"first_id"`
		SecondID int64  `db:"second_id"`
	}

	// StringList stores a JSON array in a text column.
	StringList []string
)

func DefaultSettings(chatID int64, language string) *Settings {
	return &Settings{
		ID:       chatID,
		Enabled:  true,
		Language: language,
	}
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(v interface{}) error {
	if v == nil {
		return nil
	}
	switch data := v.(type) {
	case string:
		return json.Unmarshal([]byte(data), l)
	case []byte:
		return json.Unmarshal(data, l)
	default:
		return fmt.Errorf("cannot scan type %T into StringList", v)
	}
}

// Contains reports membership, case-sensitively; callers normalize.
func (l StringList) Contains(s string) bool {
	for _, item := range l {
		if item == s {
			return true
		}
	}
	return false
}

// Add appends missing items and reports the ones actually added.
func (l StringList) Add(items ...string) (StringList, []string) {
	var added []string
	for _, item := range items {
		if l.Contains(item) {
			continue
		}
		l = append(l, item)
		added = append(added, item)
	}
	return l, added
}

// Remove drops items and reports the ones actually removed.
func (l StringList) Remove(items ...string) (StringList, []string) {
	var removed []string
	out := l[:0]
	for _, item := range l {
		drop := false
		for _, candidate := range items {
			if item == candidate {
				drop = true
				break
			}
		}
		if drop {
			removed = append(removed, item)
			continue
		}
		out = append(out, item)
	}
	return out, removed
}
