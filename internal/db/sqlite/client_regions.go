package sqlite

import (
	"context"
	"database/sql"

	"github.com/butcherhq/butcherbot/internal/db"
)

func (s *sqliteClient) GetRegionBlocks(ctx context.Context, chatID int64) (*db.RegionBlocks, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	res := &db.RegionBlocks{}
	err := s.db.GetContext(ctx, res, "SELECT chat_id, countries, scripts FROM region_blocks WHERE chat_id=?", chatID)
	if err == sql.ErrNoRows {
		return &db.RegionBlocks{ChatID: chatID}, nil
	}
	return res, err
}

func (s *sqliteClient) SetRegionBlocks(ctx context.Context, blocks *db.RegionBlocks) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO region_blocks (chat_id, countries, scripts)
		VALUES (:chat_id, :countries, :scripts)
		ON CONFLICT(chat_id) DO UPDATE SET
		countries=excluded.countries,
		scripts=excluded.scripts;
	`
	_, err := s.db.NamedExecContext(ctx, query, blocks)
	return err
}

func (s *sqliteClient) ClearRegionBlocks(ctx context.Context, chatID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM region_blocks WHERE chat_id=?", chatID)
	return err
}
