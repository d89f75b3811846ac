package rules

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

func TestCallbackPredicateSkipsOrphanedQuery(t *testing.T) {
	t.Parallel()

	m, err := New(stubService{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	d := bot.NewDispatcher(stubService{})
	m.Register(d)

	chat := &api.Chat{ID: 1, Type: "supergroup"}
	user := &api.User{ID: 2}
	confirm := &api.Update{CallbackQuery: &api.CallbackQuery{ID: "1", From: user, Data: callbackClearYes}}

	var reg bot.Registration
	for _, candidate := range d.Registrations() {
		if candidate.Predicate(confirm, chat, user) {
			reg = candidate
			break
		}
	}
	if reg.Predicate == nil {
		t.Fatal("no registration matches a confirmation callback")
	}

	// The same press on an expired or inline message has no originating
	// message, so no chat resolves for it.
	if reg.Predicate(confirm, nil, user) {
		t.Fatal("callback without a resolved chat must not match")
	}
}
