package model

import (
	"time"

	"github.com/uptrace/bun"
)

// DemotionRecord represents a temporary role removal that must be undone at RestoreAt.
// The database table is named 'demotions'. Records are append-only; Restored only ever
// moves from false to true.
type DemotionRecord struct {
	bun.BaseModel `bun:"table:demotions" db:"-"`

	ID        int64  `db:"id" bun:"id,pk,autoincrement"`
	UserID    string `db:"user_id" bun:"user_id,notnull"`
	GuildID   string `db:"guild_id" bun:"guild_id,notnull"`
	RoleID    string `db:"role_id" bun:"role_id,notnull"`
	RoleName  string `db:"role_name" bun:"role_name,notnull"`
	DemotedBy string `db:"demoted_by" bun:"demoted_by,notnull"`
	Reason    string `db:"reason" bun:"reason"`
	DemotedAt int64  `db:"demoted_at" bun:"demoted_at,notnull"` // Unix milliseconds
	RestoreAt int64  `db:"restore_at" bun:"restore_at,notnull"` // Unix milliseconds
	Restored  bool   `db:"restored" bun:"restored,notnull,default:false"`
}

// RestoreTime returns RestoreAt as a time.Time.
func (r *DemotionRecord) RestoreTime() time.Time {
	return time.UnixMilli(r.RestoreAt)
}

// Expired reports whether the restore time has been reached at now.
func (r *DemotionRecord) Expired(now time.Time) bool {
	return r.RestoreAt <= now.UnixMilli()
}

// Remaining returns how long the demotion still has to run at now, or zero if expired.
func (r *DemotionRecord) Remaining(now time.Time) time.Duration {
	ms := r.RestoreAt - now.UnixMilli()
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
