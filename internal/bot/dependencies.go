package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/butcherhq/butcherbot/internal/config"
	"github.com/butcherhq/butcherbot/internal/db"
)

// ServiceBot defines bot-specific operations
type ServiceBot interface {
	GetBot() *api.BotAPI
}

// ServiceDB defines database-specific operations
type ServiceDB interface {
	GetDB() db.Client
}

// Service bundles the shared services every module receives at construction
// time: the chat client, the database handle and the process configuration.
type Service interface {
	ServiceBot
	ServiceDB
	GetConfig() config.Config
	IsSudoer(userID int64) bool
	GetLanguage(ctx context.Context, chatID int64, user *api.User) string
}

// HandlerFunc reacts to a single matched update.
type HandlerFunc func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) error

// Predicate decides whether a handler applies to an update. Predicates must be
// pure: no side effects, no mutation of the update.
type Predicate func(u *api.Update, chat *api.Chat, user *api.User) bool

// Module is one independently authored feature unit. Register is called once
// during activation and adds the module's predicate/handler pairs to the
// dispatcher.
type Module interface {
	Name() string
	Register(d *Dispatcher)
}

// ModuleFactory constructs a module over the shared services. A factory error
// excludes only that module from the active set.
type ModuleFactory func(s Service) (Module, error)
