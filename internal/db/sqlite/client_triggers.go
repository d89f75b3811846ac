package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/butcherhq/butcherbot/internal/db"
)

func (s *sqliteClient) UpsertTrigger(ctx context.Context, trigger *db.Trigger) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	trigger.Word = strings.ToLower(trigger.Word)
	query := `
		INSERT INTO triggers (word, response, media_id, media_type)
		VALUES (:word, :response, :media_id, :media_type)
		ON CONFLICT(word) DO UPDATE SET
		response=excluded.response,
		media_id=excluded.media_id,
		media_type=excluded.media_type;
	`
	_, err := s.db.NamedExecContext(ctx, query, trigger)
	return err
}

func (s *sqliteClient) GetTrigger(ctx context.Context, word string) (*db.Trigger, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	res := &db.Trigger{}
	err := s.db.GetContext(ctx, res, "SELECT word, response, media_id, media_type FROM triggers WHERE word=?", strings.ToLower(word))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return res, err
}

func (s *sqliteClient) GetTriggers(ctx context.Context) ([]*db.Trigger, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var triggers []*db.Trigger
	err := s.db.SelectContext(ctx, &triggers, "SELECT word, response, media_id, media_type FROM triggers ORDER BY word")
	return triggers, err
}

func (s *sqliteClient) DeleteTrigger(ctx context.Context, word string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM triggers WHERE word=?", strings.ToLower(word))
	return err
}

func (s *sqliteClient) ClearTriggers(ctx context.Context) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM triggers")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
