package configmenu

import (
	"context"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/config"
	"github.com/butcherhq/butcherbot/internal/db"
)

type stubService struct{}

func (stubService) GetBot() *api.BotAPI      { return nil }
func (stubService) GetDB() db.Client         { return nil }
func (stubService) GetConfig() config.Config { return config.Config{} }
func (stubService) IsSudoer(int64) bool      { return false }
func (stubService) GetLanguage(context.Context, int64, *api.User) string {
	return "en"
}

func callbackRegistration(t *testing.T) bot.Registration {
	t.Helper()

	m, err := New(stubService{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	d := bot.NewDispatcher(stubService{})
	m.Register(d)
	for _, reg := range d.Registrations() {
		u := &api.Update{CallbackQuery: &api.CallbackQuery{ID: "1", Data: callbackToggle + "triggers"}}
		if reg.Predicate(u, &api.Chat{ID: 1, Type: "supergroup"}, &api.User{ID: 2}) {
			return reg
		}
	}
	t.Fatal("no registration matches a menu callback")
	return bot.Registration{}
}

func TestCallbackPredicateSkipsOrphanedQuery(t *testing.T) {
	t.Parallel()

	reg := callbackRegistration(t)

	// A button pressed on an expired or inline message arrives without the
	// originating message, so no chat can be resolved for it.
	orphaned := &api.Update{CallbackQuery: &api.CallbackQuery{
		ID:   "1",
		From: &api.User{ID: 2},
		Data: callbackToggle + "triggers",
	}}
	if reg.Predicate(orphaned, nil, orphaned.CallbackQuery.From) {
		t.Fatal("callback without a resolved chat must not match")
	}
}

func TestCallbackPredicateMatchesForeignDataNever(t *testing.T) {
	t.Parallel()

	reg := callbackRegistration(t)

	u := &api.Update{CallbackQuery: &api.CallbackQuery{ID: "1", Data: "rules:clear:yes"}}
	if reg.Predicate(u, &api.Chat{ID: 1, Type: "supergroup"}, &api.User{ID: 2}) {
		t.Fatal("foreign callback data must not match")
	}
}
