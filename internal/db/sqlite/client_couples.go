package sqlite

import (
	"context"
	"database/sql"

	"github.com/butcherhq/butcherbot/internal/db"
)

func (s *sqliteClient) GetCouple(ctx context.Context, chatID int64, date string) (*db.Couple, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	res := &db.Couple{}
	err := s.db.GetContext(ctx, res, "SELECT chat_id, date, first_id, second_id FROM couples WHERE chat_id=? AND date=?", chatID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return res, err
}

func (s *sqliteClient) SaveCouple(ctx context.Context, couple *db.Couple) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO couples (chat_id, date, first_id, second_id)
		VALUES (:chat_id, :date, :first_id, :second_id)
		ON CONFLICT(chat_id, date) DO UPDATE SET
		first_id=excluded.first_id,
		second_id=excluded.second_id;
	`
	_, err := s.db.NamedExecContext(ctx, query, couple)
	return err
}
