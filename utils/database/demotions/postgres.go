package demotions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"demote-bot/demotion"
	"demote-bot/model"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const pgConnTimeout = 5 * time.Second

// PostgresStore keeps demotions in PostgreSQL through bun.
type PostgresStore struct {
	db *bun.DB
}

var _ demotion.Store = (*PostgresStore)(nil)

// InitPostgres connects with dsn and ensures the demotions table and indexes exist.
func InitPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(pgConnTimeout),
	))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to demotion database: %w", err)
	}

	if err := createPostgresSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func createPostgresSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*model.DemotionRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create demotions table: %w", err)
	}

	indexes := []*bun.CreateIndexQuery{
		db.NewCreateIndex().
			Model((*model.DemotionRecord)(nil)).
			Index("idx_demotions_lookup").
			Column("user_id", "guild_id", "role_id", "restored"),
		db.NewCreateIndex().
			Model((*model.DemotionRecord)(nil)).
			Index("idx_demotions_due").
			Column("restore_at", "restored"),
		db.NewCreateIndex().
			Model((*model.DemotionRecord)(nil)).
			Unique().
			Index("idx_demotions_active_unique").
			Column("user_id", "guild_id", "role_id").
			Where("restored = false"),
	}
	for _, q := range indexes {
		if _, err := q.IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create demotions index: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, record *model.DemotionRecord) (int64, error) {
	if err := demotion.ValidateRecord(record); err != nil {
		return 0, err
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing model.DemotionRecord
		err := tx.NewSelect().
			Model(&existing).
			Where("user_id = ? AND guild_id = ? AND role_id = ?", record.UserID, record.GuildID, record.RoleID).
			Where("restored = false").
			Limit(1).
			Scan(ctx)
		switch {
		case err == nil:
			return &demotion.ConflictError{Existing: &existing}
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to check for active demotion: %w", err)
		}

		if _, err := tx.NewInsert().Model(record).Returning("id").Exec(ctx); err != nil {
			var pgErr pgdriver.Error
			if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
				return &demotion.ConflictError{}
			}
			return fmt.Errorf("failed to insert demotion record: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return record.ID, nil
}

func (s *PostgresStore) FindActive(ctx context.Context, userID, guildID, roleID string) (*model.DemotionRecord, error) {
	var record model.DemotionRecord
	err := s.db.NewSelect().
		Model(&record).
		Where("user_id = ? AND guild_id = ? AND role_id = ?", userID, guildID, roleID).
		Where("restored = false").
		Order("id ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active demotion for user %s role %s: %w", userID, roleID, err)
	}
	return &record, nil
}

func (s *PostgresStore) ListActiveForUser(ctx context.Context, userID, guildID string) ([]model.DemotionRecord, error) {
	var records []model.DemotionRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("user_id = ? AND guild_id = ?", userID, guildID).
		Where("restored = false").
		Order("restore_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active demotions for user %s in guild %s: %w", userID, guildID, err)
	}
	return records, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, guildID string) ([]model.DemotionRecord, error) {
	var records []model.DemotionRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("guild_id = ?", guildID).
		Where("restored = false").
		Order("restore_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active demotions for guild %s: %w", guildID, err)
	}
	return records, nil
}

func (s *PostgresStore) ListExpired(ctx context.Context, now time.Time) ([]model.DemotionRecord, error) {
	var records []model.DemotionRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("restore_at <= ?", now.UnixMilli()).
		Where("restored = false").
		Order("restore_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired demotions: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) MarkRestored(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.NewUpdate().
		Model((*model.DemotionRecord)(nil)).
		Set("restored = true").
		Where("id = ?", id).
		Where("restored = false").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark demotion %d restored: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected for demotion %d: %w", id, err)
	}
	return rowsAffected > 0, nil
}

func (s *PostgresStore) History(ctx context.Context, userID, guildID string, limit int) ([]model.DemotionRecord, error) {
	var records []model.DemotionRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("user_id = ? AND guild_id = ?", userID, guildID).
		Order("demoted_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get demotion history for user %s in guild %s: %w", userID, guildID, err)
	}
	return records, nil
}

func (s *PostgresStore) CountActive(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().
		Model((*model.DemotionRecord)(nil)).
		Where("restored = false").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active demotions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
