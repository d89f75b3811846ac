package db

import (
	"context"
)

// Client is the database boundary. Each feature owns its own key namespace;
// there are no cross-feature invariants.
type Client interface {
	Close() error

	GetSettings(ctx context.Context, chatID int64) (*Settings, error)
	SetSettings(ctx context.Context, settings *Settings) error

	GetSudoers(ctx context.Context) ([]int64, error)
	AddSudoer(ctx context.Context, userID int64) error

	// Trigger storage, keyed by lowercased trigger word.
	UpsertTrigger(ctx context.Context, trigger *Trigger) error
	GetTrigger(ctx context.Context, word string) (*Trigger, error)
	GetTriggers(ctx context.Context) ([]*Trigger, error)
	DeleteTrigger(ctx context.Context, word string) error
	ClearTriggers(ctx context.Context) (int64, error)

	GetRegionBlocks(ctx context.Context, chatID int64) (*RegionBlocks, error)
	SetRegionBlocks(ctx context.Context, blocks *RegionBlocks) error
	ClearRegionBlocks(ctx context.Context, chatID int64) error

	GetRules(ctx context.Context, chatID int64) (string, error)
	SetRules(ctx context.Context, chatID int64, rules string) error
	DeleteRules(ctx context.Context, chatID int64) error

	// Per-chat module toggles and bookkeeping for the configuration menus.
	GetDisabledModules(ctx context.Context, chatID int64) ([]string, error)
	SetModuleDisabled(ctx context.Context, chatID int64, module string, disabled bool) error
	IncrementModuleUsage(ctx context.Context, chatID int64, module string) error
	GetModuleStats(ctx context.Context, chatID int64) ([]*ModuleStat, error)
	AddAuditEntry(ctx context.Context, entry *AuditEntry) error
	GetAuditLog(ctx context.Context, chatID int64, limit int) ([]*AuditEntry, error)

	GetCouple(ctx context.Context, chatID int64, date string) (*Couple, error)
	SaveCouple(ctx context.Context, couple *Couple) error

	GetKV(ctx context.Context, key string) (string, error)
	SetKV(ctx context.Context, key string, value string) error
}
