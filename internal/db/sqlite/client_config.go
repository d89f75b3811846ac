package sqlite

import (
	"context"

	"github.com/butcherhq/butcherbot/internal/db"
)

func (s *sqliteClient) GetDisabledModules(ctx context.Context, chatID int64) ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var modules []string
	err := s.db.SelectContext(ctx, &modules, "SELECT module FROM chat_modules WHERE chat_id=? AND disabled=1 ORDER BY module", chatID)
	return modules, err
}

func (s *sqliteClient) SetModuleDisabled(ctx context.Context, chatID int64, module string, disabled bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO chat_modules (chat_id, module, disabled)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id, module) DO UPDATE SET
		disabled=excluded.disabled;
	`
	_, err := s.db.ExecContext(ctx, query, chatID, module, disabled)
	return err
}

func (s *sqliteClient) IncrementModuleUsage(ctx context.Context, chatID int64, module string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO module_stats (chat_id, module, usage_count, last_used)
		VALUES (?, ?, 1, datetime('now'))
		ON CONFLICT(chat_id, module) DO UPDATE SET
		usage_count=usage_count+1,
		last_used=excluded.last_used;
	`
	_, err := s.db.ExecContext(ctx, query, chatID, module)
	return err
}

func (s *sqliteClient) GetModuleStats(ctx context.Context, chatID int64) ([]*db.ModuleStat, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var stats []*db.ModuleStat
	err := s.db.SelectContext(ctx, &stats,
		"SELECT chat_id, module, usage_count, last_used FROM module_stats WHERE chat_id=? ORDER BY usage_count DESC, module", chatID)
	return stats, err
}

func (s *sqliteClient) AddAuditEntry(ctx context.Context, entry *db.AuditEntry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO audit_log (id, chat_id, actor_id, action, details, created_at)
		VALUES (:id, :chat_id, :actor_id, :action, :details, :created_at);
	`
	_, err := s.db.NamedExecContext(ctx, query, entry)
	return err
}

func (s *sqliteClient) GetAuditLog(ctx context.Context, chatID int64, limit int) ([]*db.AuditEntry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var entries []*db.AuditEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT id, chat_id, actor_id, action, details, created_at FROM audit_log WHERE chat_id=? ORDER BY created_at DESC LIMIT ?", chatID, limit)
	return entries, err
}
