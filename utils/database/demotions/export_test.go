package demotions

import (
	"context"

	"demote-bot/model"
)

// TruncatePostgres empties the demotions table between test runs.
func TruncatePostgres(ctx context.Context, s *PostgresStore) error {
	_, err := s.db.NewTruncateTable().Model((*model.DemotionRecord)(nil)).Exec(ctx)
	return err
}
