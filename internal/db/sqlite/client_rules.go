package sqlite

import (
	"context"
	"database/sql"
)

func (s *sqliteClient) GetRules(ctx context.Context, chatID int64) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var rules string
	err := s.db.GetContext(ctx, &rules, "SELECT rules FROM chat_rules WHERE chat_id=?", chatID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return rules, err
}

func (s *sqliteClient) SetRules(ctx context.Context, chatID int64, rules string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO chat_rules (chat_id, rules)
		VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
		rules=excluded.rules;
	`
	_, err := s.db.ExecContext(ctx, query, chatID, rules)
	return err
}

func (s *sqliteClient) DeleteRules(ctx context.Context, chatID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM chat_rules WHERE chat_id=?", chatID)
	return err
}
