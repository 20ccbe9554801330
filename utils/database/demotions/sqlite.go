package demotions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"demote-bot/demotion"
	"demote-bot/model"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps demotions in a local SQLite file.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ demotion.Store = (*SQLiteStore)(nil)

// Init opens the database at dbPath and ensures the demotions table and indexes exist.
func Init(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to demotion database: %w", err)
	}
	// SQLite has a single writer; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS demotions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			guild_id TEXT NOT NULL,
			role_id TEXT NOT NULL,
			role_name TEXT NOT NULL,
			demoted_by TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			demoted_at INTEGER NOT NULL,
			restore_at INTEGER NOT NULL,
			restored BOOLEAN NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_demotions_lookup ON demotions (user_id, guild_id, role_id, restored)`,
		`CREATE INDEX IF NOT EXISTS idx_demotions_due ON demotions (restore_at, restored)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_demotions_active_unique ON demotions (user_id, guild_id, role_id) WHERE restored = 0`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create demotions schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Insert adds a new active demotion and returns its ID.
func (s *SQLiteStore) Insert(ctx context.Context, record *model.DemotionRecord) (int64, error) {
	if err := demotion.ValidateRecord(record); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing model.DemotionRecord
	err = tx.GetContext(ctx, &existing, `SELECT * FROM demotions
		WHERE user_id = ? AND guild_id = ? AND role_id = ? AND restored = 0 LIMIT 1`,
		record.UserID, record.GuildID, record.RoleID)
	switch {
	case err == nil:
		return 0, &demotion.ConflictError{Existing: &existing}
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("failed to check for active demotion: %w", err)
	}

	query := `INSERT INTO demotions (user_id, guild_id, role_id, role_name, demoted_by, reason, demoted_at, restore_at, restored)
			  VALUES (:user_id, :guild_id, :role_id, :role_name, :demoted_by, :reason, :demoted_at, :restore_at, :restored)`
	result, err := tx.NamedExecContext(ctx, query, record)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &demotion.ConflictError{}
		}
		return 0, fmt.Errorf("failed to insert demotion record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit demotion record: %w", err)
	}
	return id, nil
}

// FindActive returns the active demotion for the triple, or nil.
func (s *SQLiteStore) FindActive(ctx context.Context, userID, guildID, roleID string) (*model.DemotionRecord, error) {
	var record model.DemotionRecord
	err := s.db.GetContext(ctx, &record, `SELECT * FROM demotions
		WHERE user_id = ? AND guild_id = ? AND role_id = ? AND restored = 0
		ORDER BY id LIMIT 1`, userID, guildID, roleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active demotion for user %s role %s: %w", userID, roleID, err)
	}
	return &record, nil
}

// ListActiveForUser retrieves all active demotions of a user in a guild.
func (s *SQLiteStore) ListActiveForUser(ctx context.Context, userID, guildID string) ([]model.DemotionRecord, error) {
	var records []model.DemotionRecord
	err := s.db.SelectContext(ctx, &records, `SELECT * FROM demotions
		WHERE user_id = ? AND guild_id = ? AND restored = 0
		ORDER BY restore_at ASC, id ASC`, userID, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active demotions for user %s in guild %s: %w", userID, guildID, err)
	}
	return records, nil
}

// ListActive retrieves all active demotions of a guild, soonest restore first.
func (s *SQLiteStore) ListActive(ctx context.Context, guildID string) ([]model.DemotionRecord, error) {
	var records []model.DemotionRecord
	err := s.db.SelectContext(ctx, &records, `SELECT * FROM demotions
		WHERE guild_id = ? AND restored = 0
		ORDER BY restore_at ASC, id ASC`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active demotions for guild %s: %w", guildID, err)
	}
	return records, nil
}

// ListExpired retrieves active demotions of every guild that are due at now.
func (s *SQLiteStore) ListExpired(ctx context.Context, now time.Time) ([]model.DemotionRecord, error) {
	var records []model.DemotionRecord
	err := s.db.SelectContext(ctx, &records, `SELECT * FROM demotions
		WHERE restore_at <= ? AND restored = 0
		ORDER BY restore_at ASC, id ASC`, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to get expired demotions: %w", err)
	}
	return records, nil
}

// MarkRestored closes a demotion. It reports false if it was already closed.
func (s *SQLiteStore) MarkRestored(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE demotions SET restored = 1 WHERE id = ? AND restored = 0`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark demotion %d restored: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for demotion %d: %w", id, err)
	}
	return rowsAffected > 0, nil
}

// History retrieves the latest demotions of a user in a guild.
func (s *SQLiteStore) History(ctx context.Context, userID, guildID string, limit int) ([]model.DemotionRecord, error) {
	var records []model.DemotionRecord
	err := s.db.SelectContext(ctx, &records, `SELECT * FROM demotions
		WHERE user_id = ? AND guild_id = ?
		ORDER BY demoted_at DESC, id DESC LIMIT ?`, userID, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get demotion history for user %s in guild %s: %w", userID, guildID, err)
	}
	return records, nil
}

// CountActive returns the number of active demotions across all guilds.
func (s *SQLiteStore) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM demotions WHERE restored = 0`); err != nil {
		return 0, fmt.Errorf("failed to count active demotions: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
