package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestTruncateMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "shorter-than-limit", text: "hello", limit: 10, want: "hello"},
		{name: "exact-limit", text: "hello", limit: 5, want: "hello"},
		{name: "ascii-cut", text: "hello", limit: 3, want: "hel"},
		{name: "cyrillic-cut-mid-rune", text: "привет", limit: 5, want: "пр"},
		{name: "cyrillic-cut-on-boundary", text: "привет", limit: 4, want: "пр"},
		{name: "cjk-cut-mid-rune", text: "你好世界", limit: 7, want: "你好"},
		{name: "zero-limit", text: "hello", limit: 0, want: ""},
		{name: "empty", text: "", limit: 5, want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := TruncateMessage(tt.text, tt.limit)
			if got != tt.want {
				t.Fatalf("TruncateMessage(%q, %d) = %q, want %q", tt.text, tt.limit, got, tt.want)
			}
			if len(got) > tt.limit {
				t.Fatalf("result %q exceeds limit %d", got, tt.limit)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("result %q is not valid UTF-8", got)
			}
		})
	}
}

func TestTruncateMessageLongMultibyte(t *testing.T) {
	t.Parallel()

	// The leading ASCII byte shifts every two-byte rune onto an odd offset,
	// so the 4096 cut lands inside a rune.
	text := "a" + strings.Repeat("инструкция", 300)
	got := TruncateMessage(text, 4096)
	if len(got) > 4096 {
		t.Fatalf("result length %d exceeds limit", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatal("result is not valid UTF-8")
	}
	if !strings.HasPrefix(text, got) {
		t.Fatal("result is not a prefix of the input")
	}
}

func TestGetMessageTypeEmptyPhotoSlice(t *testing.T) {
	t.Parallel()

	msg := &api.Message{Photo: []api.PhotoSize{}}
	if got := GetMessageType(msg); got != MessageTypeText {
		t.Fatalf("empty photo slice classified as %q", got)
	}
	if _, _, ok := MediaFileID(msg); ok {
		t.Fatal("empty photo slice must not yield a file ID")
	}
}

func TestMediaFileIDPicksLargestPhoto(t *testing.T) {
	t.Parallel()

	msg := &api.Message{Photo: []api.PhotoSize{
		{FileID: "small", Width: 90},
		{FileID: "large", Width: 800},
	}}
	fileID, mediaType, ok := MediaFileID(msg)
	if !ok || mediaType != MessageTypePhoto || fileID != "large" {
		t.Fatalf("got (%q, %q, %v)", fileID, mediaType, ok)
	}
}
