package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/butcherhq/butcherbot/internal/db"
	"github.com/butcherhq/butcherbot/resources"
)

type sqliteClient struct {
	db    *sqlx.DB
	mutex sync.RWMutex
}

var _ db.Client = (*sqliteClient)(nil)

func NewSQLiteClient(ctx context.Context, dir, filename string) (*sqliteClient, error) {
	dbx, err := sqlx.Open("sqlite", filepath.Join(dir, filename))
	if err != nil {
		return nil, errors.WithMessage(err, "cant open db")
	}
	dbx.SetMaxOpenConns(42)

	migrationsSource := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: resources.FS,
		Root:       "migrations",
	}
	n, err := migrate.ExecContext(ctx, dbx.DB, "sqlite3", migrationsSource, migrate.Up)
	if err != nil {
		return nil, errors.WithMessage(err, "migrate up failed")
	}
	if n > 0 {
		log.Infof("applied %d migrations", n)
	}

	return &sqliteClient{db: dbx}, nil
}

func (s *sqliteClient) Close() error {
	return s.db.Close()
}

func (s *sqliteClient) GetSettings(ctx context.Context, chatID int64) (*db.Settings, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	res := &db.Settings{}
	err := s.db.GetContext(ctx, res, "SELECT id, enabled, language FROM chats WHERE id=?", chatID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return res, err
}

func (s *sqliteClient) SetSettings(ctx context.Context, settings *db.Settings) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	query := `
		INSERT INTO chats (id, enabled, language)
		VALUES (:id, :enabled, :language)
		ON CONFLICT(id) DO UPDATE SET
		enabled=excluded.enabled,
		language=excluded.language;
	`
	_, err := s.db.NamedExecContext(ctx, query, settings)
	return err
}

func (s *sqliteClient) GetSudoers(ctx context.Context) ([]int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var userIDs []int64
	err := s.db.SelectContext(ctx, &userIDs, "SELECT user_id FROM sudoers ORDER BY user_id")
	return userIDs, err
}

func (s *sqliteClient) AddSudoer(ctx context.Context, userID int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO sudoers (user_id) VALUES (?)", userID)
	return err
}
