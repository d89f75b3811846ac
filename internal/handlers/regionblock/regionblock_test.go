package regionblock

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/butcherhq/butcherbot/internal/db"
)

func TestMatchUserScripts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		user       *api.User
		scripts    []string
		wantReason string
		wantHit    bool
	}{
		{
			name:       "cyrillic-name",
			user:       &api.User{FirstName: "Иван", LastName: "Петров"},
			scripts:    []string{"cyrillic"},
			wantReason: "cyrillic",
			wantHit:    true,
		},
		{
			name:       "chinese-name",
			user:       &api.User{FirstName: "王伟"},
			scripts:    []string{"chinese"},
			wantReason: "chinese",
			wantHit:    true,
		},
		{
			name:       "korean-name",
			user:       &api.User{FirstName: "김민준"},
			scripts:    []string{"korean"},
			wantReason: "korean",
			wantHit:    true,
		},
		{
			name:    "latin-name-passes",
			user:    &api.User{FirstName: "John", LastName: "Doe"},
			scripts: []string{"cyrillic", "chinese", "arabic"},
			wantHit: false,
		},
		{
			name:    "script-not-blocked",
			user:    &api.User{FirstName: "Иван"},
			scripts: []string{"thai"},
			wantHit: false,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			blocks := &db.RegionBlocks{Scripts: db.StringList(tt.scripts)}
			reason, hit := MatchUser(tt.user, blocks)
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if hit && reason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestMatchUserCountryMarkers(t *testing.T) {
	t.Parallel()

	blocks := &db.RegionBlocks{Countries: db.StringList{"ru"}}

	user := &api.User{FirstName: "John", UserName: "russia_fan"}
	if _, hit := MatchUser(user, blocks); !hit {
		t.Fatal("country marker in username must match")
	}

	clean := &api.User{FirstName: "John", UserName: "johnny"}
	if _, hit := MatchUser(clean, blocks); hit {
		t.Fatal("unrelated user must not match")
	}
}

func TestKnownScriptsSorted(t *testing.T) {
	t.Parallel()

	scripts := KnownScripts()
	if len(scripts) == 0 {
		t.Fatal("expected known scripts")
	}
	for i := 1; i < len(scripts); i++ {
		if scripts[i-1] >= scripts[i] {
			t.Fatalf("scripts not sorted: %v", scripts)
		}
	}
}

func TestSplitArguments(t *testing.T) {
	t.Parallel()

	got := splitArguments("RU, cn  ir,")
	want := []string{"ru", "cn", "ir"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestJoinedUserDetectsJoin(t *testing.T) {
	t.Parallel()

	joined := &api.User{ID: 5, FirstName: "New"}
	u := &api.Update{
		ChatMember: &api.ChatMemberUpdated{
			OldChatMember: api.ChatMember{Status: "left"},
			NewChatMember: api.ChatMember{Status: "member", User: joined},
		},
	}
	if got := joinedUser(u); got == nil || got.ID != 5 {
		t.Fatalf("expected joined user, got %+v", got)
	}

	left := &api.Update{
		ChatMember: &api.ChatMemberUpdated{
			OldChatMember: api.ChatMember{Status: "member", User: joined},
			NewChatMember: api.ChatMember{Status: "left", User: joined},
		},
	}
	if got := joinedUser(left); got != nil {
		t.Fatalf("leave must not count as join, got %+v", got)
	}
}
