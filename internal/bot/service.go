package bot

import (
	"context"
	"sync"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/config"
	"github.com/butcherhq/butcherbot/internal/db"
	"github.com/butcherhq/butcherbot/internal/i18n"
)

type botService struct {
	bot *api.BotAPI
	db  db.Client
	cfg config.Config

	mu      sync.RWMutex
	sudoers map[int64]struct{}
}

func NewService(bot *api.BotAPI, dbClient db.Client, cfg config.Config) *botService {
	return &botService{
		bot:     bot,
		db:      dbClient,
		cfg:     cfg,
		sudoers: map[int64]struct{}{},
	}
}

func (s *botService) GetBot() *api.BotAPI {
	return s.bot
}

func (s *botService) GetDB() db.Client {
	return s.db
}

func (s *botService) GetConfig() config.Config {
	return s.cfg
}

// LoadSudoers merges the configured sudoer IDs into the persisted set and
// loads the union. Runs once at start-up, before module activation.
func (s *botService) LoadSudoers(ctx context.Context) error {
	for _, userID := range s.cfg.SudoUserIDs {
		if err := s.db.AddSudoer(ctx, userID); err != nil {
			return errors.WithMessage(err, "cant persist configured sudoer")
		}
	}
	sudoers, err := s.db.GetSudoers(ctx)
	if err != nil {
		return errors.WithMessage(err, "cant load sudoers")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sudoers = make(map[int64]struct{}, len(sudoers))
	for _, userID := range sudoers {
		s.sudoers[userID] = struct{}{}
	}
	log.WithField("count", len(s.sudoers)).Info("loaded sudoers")
	return nil
}

func (s *botService) IsSudoer(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sudoers[userID]
	return ok
}

// GetLanguage resolves the reply language: chat settings first, then the
// user's client language when translated, then the process default.
func (s *botService) GetLanguage(ctx context.Context, chatID int64, user *api.User) string {
	// GetSettings reports an unknown chat as (nil, nil), so any error here is
	// a real one.
	settings, err := s.db.GetSettings(ctx, chatID)
	if tool.Try(err) {
		log.WithError(err).WithField("chat_id", chatID).Warn("cant get chat settings")
	}
	if settings != nil && settings.Language != "" {
		return settings.Language
	}
	if user != nil && tool.In(user.LanguageCode, i18n.GetLanguagesList()...) {
		return user.LanguageCode
	}
	return s.cfg.DefaultLanguage
}
