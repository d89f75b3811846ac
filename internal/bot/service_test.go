package bot_test

import (
	"context"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/config"
	"github.com/butcherhq/butcherbot/internal/db"
	"github.com/butcherhq/butcherbot/internal/db/sqlite"
)

func newTestService(t *testing.T, cfg config.Config) (bot.Service, db.Client, context.Context) {
	t.Helper()
	ctx := context.Background()
	dbClient, err := sqlite.NewSQLiteClient(ctx, t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = dbClient.Close() })
	return bot.NewService(&api.BotAPI{}, dbClient, cfg), dbClient, ctx
}

func TestLoadSudoersMergesConfigAndDatabase(t *testing.T) {
	t.Parallel()

	cfg := config.Config{DefaultLanguage: "en", SudoUserIDs: []int64{100, 200}}
	service, dbClient, ctx := newTestService(t, cfg)

	if err := dbClient.AddSudoer(ctx, 300); err != nil {
		t.Fatalf("seed persisted sudoer: %v", err)
	}

	svc := service.(interface{ LoadSudoers(context.Context) error })
	if err := svc.LoadSudoers(ctx); err != nil {
		t.Fatalf("load sudoers: %v", err)
	}

	for _, userID := range []int64{100, 200, 300} {
		if !service.IsSudoer(userID) {
			t.Fatalf("user %d should be a sudoer", userID)
		}
	}
	if service.IsSudoer(400) {
		t.Fatal("unknown user must not be a sudoer")
	}

	persisted, err := dbClient.GetSudoers(ctx)
	if err != nil {
		t.Fatalf("get sudoers: %v", err)
	}
	if len(persisted) != 3 {
		t.Fatalf("configured sudoers must be persisted, got %v", persisted)
	}
}

func TestGetLanguageResolution(t *testing.T) {
	t.Parallel()

	cfg := config.Config{DefaultLanguage: "en"}
	service, dbClient, ctx := newTestService(t, cfg)

	if got := service.GetLanguage(ctx, 1, nil); got != "en" {
		t.Fatalf("expected process default, got %q", got)
	}

	user := &api.User{LanguageCode: "ru"}
	if got := service.GetLanguage(ctx, 1, user); got != "ru" {
		t.Fatalf("expected user client language, got %q", got)
	}

	unknown := &api.User{LanguageCode: "tlh"}
	if got := service.GetLanguage(ctx, 1, unknown); got != "en" {
		t.Fatalf("unsupported client language must fall back to default, got %q", got)
	}

	if err := dbClient.SetSettings(ctx, db.DefaultSettings(1, "es")); err != nil {
		t.Fatalf("set settings: %v", err)
	}
	if got := service.GetLanguage(ctx, 1, user); got != "es" {
		t.Fatalf("chat settings must win, got %q", got)
	}
}
