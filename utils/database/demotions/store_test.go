package demotions_test

import (
	"context"
	"os"
	"testing"
	"time"

	"demote-bot/demotion"
	"demote-bot/model"
	"demote-bot/utils/database/demotions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postgresDSNEnv points the store tests at a scratch PostgreSQL database.
const postgresDSNEnv = "DEMOTE_TEST_POSTGRES_DSN"

// eachStore runs fn against every backend. PostgreSQL runs only when postgresDSNEnv is
// set; its table is truncated before each run.
func eachStore(t *testing.T, fn func(t *testing.T, store demotion.Store)) {
	t.Run("sqlite", func(t *testing.T) {
		store, err := demotions.Init(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		fn(t, store)
	})

	t.Run("postgres", func(t *testing.T) {
		dsn := os.Getenv(postgresDSNEnv)
		if dsn == "" {
			t.Skipf("%s not set", postgresDSNEnv)
		}
		ctx := context.Background()
		store, err := demotions.InitPostgres(ctx, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		require.NoError(t, demotions.TruncatePostgres(ctx, store))
		fn(t, store)
	})
}

func newRecord(userID, roleID string, demotedAt, restoreAt int64) *model.DemotionRecord {
	return &model.DemotionRecord{
		UserID:    userID,
		GuildID:   "guild",
		RoleID:    roleID,
		RoleName:  "Role " + roleID,
		DemotedBy: "owner",
		Reason:    "testing",
		DemotedAt: demotedAt,
		RestoreAt: restoreAt,
	}
}

func TestInsertAndFindActive(t *testing.T) {
	eachStore(t, func(t *testing.T, store demotion.Store) {
		ctx := context.Background()

		id, err := store.Insert(ctx, newRecord("u1", "r1", 0, 1_800_000))
		require.NoError(t, err)
		assert.Positive(t, id)

		found, err := store.FindActive(ctx, "u1", "guild", "r1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, id, found.ID)
		assert.Equal(t, "Role r1", found.RoleName)
		assert.Equal(t, int64(1_800_000), found.RestoreAt)
		assert.False(t, found.Restored)

		missing, err := store.FindActive(ctx, "u1", "guild", "other")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})
}

func TestInsertConflict(t *testing.T) {
	eachStore(t, func(t *testing.T, store demotion.Store) {
		ctx := context.Background()

		first, err := store.Insert(ctx, newRecord("u1", "r1", 0, 1000))
		require.NoError(t, err)

		_, err = store.Insert(ctx, newRecord("u1", "r1", 10, 2000))
		require.ErrorIs(t, err, demotion.ErrAlreadyDemoted)

		var conflict *demotion.ConflictError
		require.ErrorAs(t, err, &conflict)
		require.NotNil(t, conflict.Existing)
		assert.Equal(t, first, conflict.Existing.ID)

		// Once restored, the same triple can be demoted again.
		changed, err := store.MarkRestored(ctx, first)
		require.NoError(t, err)
		require.True(t, changed)

		_, err = store.Insert(ctx, newRecord("u1", "r1", 20, 3000))
		require.NoError(t, err)
	})
}

func TestInsertRejectsDegenerateRecord(t *testing.T) {
	eachStore(t, func(t *testing.T, store demotion.Store) {

		_, err := store.Insert(context.Background(), newRecord("u1", "r1", 1000, 1000))
		require.ErrorIs(t, err, demotion.ErrInvalidDuration)

		count, err := store.CountActive(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestMarkRestoredIsIdempotent(t *testing.T) {
	eachStore(t, func(t *testing.T, store demotion.Store) {
		ctx := context.Background()

		id, err := store.Insert(ctx, newRecord("u1", "r1", 0, 1000))
		require.NoError(t, err)

		changed, err := store.MarkRestored(ctx, id)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = store.MarkRestored(ctx, id)
		require.NoError(t, err)
		assert.False(t, changed)

		found, err := store.FindActive(ctx, "u1", "guild", "r1")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestListActiveOrderedByRestoreAt(t *testing.T) {
	eachStore(t, func(t *testing.T, store demotion.Store) {
		ctx := context.Background()

		_, err := store.Insert(ctx, newRecord("u1", "r1", 0, 3000))
		require.NoError(t, err)
		_, err = store.Insert(ctx, newRecord("u2", "r1", 0, 1000))
		require.NoError(t, err)
		_, err = store.Insert(ctx, newRecord("u3", "r1", 0, 2000))
		require.NoError(t, err)

		other := newRecord("u4", "r1", 0, 500)
		other.GuildID = "elsewhere"
		_, err = store.Insert(ctx, other)
		require.NoError(t, err)

		active, err := store.ListActive(ctx, "guild")
		require.NoError(t, err)
		require.Len(t, active, 3)
		assert.Equal(t, "u2", active[0].UserID)
		assert.Equal(t, "u3", active[1].UserID)
		assert.Equal(t, "u1", active[2].UserID)
	})
}

func TestListExpiredAcrossGuilds(t *testing.T) {
	eachStore(t, func(t *testing.T, store demotion.Store) {
		ctx := context.Background()

		dueID, err := store.Insert(ctx, newRecord("u1", "r1", 0, 1000))
		require.NoError(t, err)
		_, err = store.Insert(ctx, newRecord("u2", "r1", 0, 5000))
		require.NoError(t, err)

		other := newRecord("u3", "r1", 0, 1000)
		other.GuildID = "elsewhere"
		_, err = store.Insert(ctx, other)
		require.NoError(t, err)

		restoredID, err := store.Insert(ctx, newRecord("u4", "r1", 0, 10))
		require.NoError(t, err)
		_, err = store.MarkRestored(ctx, restoredID)
		require.NoError(t, err)

		expired, err := store.ListExpired(ctx, time.UnixMilli(1000))
		require.NoError(t, err)
		require.Len(t, expired, 2)
		assert.Equal(t, dueID, expired[0].ID)
		for _, record := range expired {
			assert.False(t, record.Restored)
			assert.LessOrEqual(t, record.RestoreAt, int64(1000))
		}
	})
}

func TestHistoryNewestFirst(t *testing.T) {
	eachStore(t, func(t *testing.T, store demotion.Store) {
		ctx := context.Background()

		firstID, err := store.Insert(ctx, newRecord("u1", "r1", 100, 1000))
		require.NoError(t, err)
		_, err = store.MarkRestored(ctx, firstID)
		require.NoError(t, err)
		secondID, err := store.Insert(ctx, newRecord("u1", "r2", 200, 2000))
		require.NoError(t, err)

		history, err := store.History(ctx, "u1", "guild", 10)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, secondID, history[0].ID)
		assert.False(t, history[0].Restored)
		assert.Equal(t, firstID, history[1].ID)
		assert.True(t, history[1].Restored)

		limited, err := store.History(ctx, "u1", "guild", 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})
}

func TestListActiveForUser(t *testing.T) {
	eachStore(t, func(t *testing.T, store demotion.Store) {
		ctx := context.Background()

		_, err := store.Insert(ctx, newRecord("u1", "r1", 0, 2000))
		require.NoError(t, err)
		_, err = store.Insert(ctx, newRecord("u1", "r2", 0, 1000))
		require.NoError(t, err)
		_, err = store.Insert(ctx, newRecord("u2", "r1", 0, 1000))
		require.NoError(t, err)

		records, err := store.ListActiveForUser(ctx, "u1", "guild")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "r2", records[0].RoleID)

		count, err := store.CountActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}
