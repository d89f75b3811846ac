package triggers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/butcherhq/butcherbot/internal/config"
	"github.com/butcherhq/butcherbot/internal/db"
)

// failingDB fails every write; only the methods the handler touches are
// overridden, the embedded interface stays nil.
type failingDB struct{ db.Client }

func (failingDB) UpsertTrigger(context.Context, *db.Trigger) error {
	return errors.New("database is locked")
}

type stubService struct {
	bot *api.BotAPI
}

func (s *stubService) GetBot() *api.BotAPI    { return s.bot }
func (*stubService) GetDB() db.Client         { return failingDB{} }
func (*stubService) GetConfig() config.Config { return config.Config{} }
func (*stubService) IsSudoer(int64) bool      { return true }
func (*stubService) GetLanguage(context.Context, int64, *api.User) string {
	return "en"
}

func newTestBot(t *testing.T, sent *[]string, mu *sync.Mutex) *api.BotAPI {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/getMe") {
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"bot","username":"testbot"}}`))
			return
		}
		if strings.HasSuffix(r.URL.Path, "/sendMessage") {
			mu.Lock()
			*sent = append(*sent, r.FormValue("text"))
			mu.Unlock()
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":1,"type":"supergroup"}}}`))
	}))
	t.Cleanup(srv.Close)

	botAPI, err := api.NewBotAPIWithAPIEndpoint("test-token", srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("bot api: %v", err)
	}
	return botAPI
}

func TestAddTriggerStorageFailureNotifiesInChat(t *testing.T) {
	t.Parallel()

	var (
		sent []string
		mu   sync.Mutex
	)
	m, err := New(&stubService{bot: newTestBot(t, &sent, &mu)})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	text := "/addtrigger hello hi there"
	u := &api.Update{Message: &api.Message{
		MessageID: 5,
		From:      &api.User{ID: 2},
		Chat:      api.Chat{ID: 1, Type: "supergroup"},
		Text:      text,
		Entities: []api.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len("/addtrigger")},
		},
	}}

	if err := m.(*Triggers).handleCommand(context.Background(), u, &u.Message.Chat, u.Message.From); err != nil {
		t.Fatalf("handle command: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 1 {
		t.Fatalf("expected one chat message, got %v", sent)
	}
	if want := "Could not update triggers, try again later"; sent[0] != want {
		t.Fatalf("got notice %q, want %q", sent[0], want)
	}
}

func TestMatch(t *testing.T) {
	t.Parallel()

	stored := []*db.Trigger{
		{Word: "hello", Response: "hi"},
		{Word: "cat", MediaID: "file-1", MediaType: "photo"},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "exact-word", text: "hello", want: "hello"},
		{name: "substring", text: "well hello there", want: "hello"},
		{name: "inside-word", text: "catalog", want: "cat"},
		{name: "first-stored-wins", text: "hello cat", want: "hello"},
		{name: "no-match", text: "good morning", want: ""},
		{name: "empty-text", text: "", want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Match(tt.text, stored)
			switch {
			case tt.want == "" && got != nil:
				t.Fatalf("expected no match, got %+v", got)
			case tt.want != "" && (got == nil || got.Word != tt.want):
				t.Fatalf("expected %q, got %+v", tt.want, got)
			}
		})
	}
}
