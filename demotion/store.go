package demotion

import (
	"context"
	"time"

	"demote-bot/model"
)

// Store persists demotion records. Every mutation is durable before it returns.
type Store interface {
	// Insert writes a new active record and returns its ID. It fails with an error
	// matching ErrAlreadyDemoted if an active record exists for the same triple.
	Insert(ctx context.Context, record *model.DemotionRecord) (int64, error)
	// FindActive returns the active record for the triple, or nil if there is none.
	FindActive(ctx context.Context, userID, guildID, roleID string) (*model.DemotionRecord, error)
	// ListActiveForUser returns every active record of a user in a guild.
	ListActiveForUser(ctx context.Context, userID, guildID string) ([]model.DemotionRecord, error)
	// ListActive returns the active records of a guild ordered by restore time.
	ListActive(ctx context.Context, guildID string) ([]model.DemotionRecord, error)
	// ListExpired returns active records of all guilds whose restore time is at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]model.DemotionRecord, error)
	// MarkRestored flags a record restored. It reports whether this call made the change.
	MarkRestored(ctx context.Context, id int64) (bool, error)
	// History returns a user's records in a guild, newest first.
	History(ctx context.Context, userID, guildID string, limit int) ([]model.DemotionRecord, error)
	// CountActive returns the number of active records across all guilds.
	CountActive(ctx context.Context) (int, error)
	Close() error
}
