package config

import (
	"testing"
	"time"

	"demote-bot/model"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func TestFromViperDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")

	cfg, err := fromViper(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.BotToken)
	assert.Equal(t, model.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/demotions.db", cfg.Database.Path)
	assert.Equal(t, 10*time.Second, cfg.Demotion.RestoreInterval)
	assert.Equal(t, 5*time.Second, cfg.Demotion.ReservationGrace)
	assert.Equal(t, 10*time.Second, cfg.Demotion.PlatformTimeout)
	assert.Equal(t, 5*time.Second, cfg.CommandCooldown)
	assert.Equal(t, 10, cfg.Demotion.HistoryLimit)
	assert.Empty(t, cfg.DeveloperUserIDs)
}

func TestFromViperOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("RESTORE_INTERVAL", "30s")
	t.Setenv("HISTORY_LIMIT", "25")
	t.Setenv("DEVELOPER_USER_IDS", "1, 2,,3")
	t.Setenv("DEMOTE_ADMIN_ROLE_IDS", "900")

	cfg, err := fromViper(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Demotion.RestoreInterval)
	assert.Equal(t, 25, cfg.Demotion.HistoryLimit)
	assert.Equal(t, []string{"1", "2", "3"}, cfg.DeveloperUserIDs)
	assert.Equal(t, []string{"900"}, cfg.Demotion.AdminRoleIDs)
}

func TestFromViperRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := fromViper(newTestViper())
	assert.Error(t, err)
}

func TestFromViperPostgresNeedsDSN(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "")

	_, err := fromViper(newTestViper())
	assert.Error(t, err)

	t.Setenv("DATABASE_DSN", "postgres://bot@localhost/bot?sslmode=disable")
	cfg, err := fromViper(newTestViper())
	require.NoError(t, err)
	assert.Equal(t, model.DriverPostgres, cfg.Database.Driver)
}

func TestFromViperRejectsUnknownDriver(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := fromViper(newTestViper())
	assert.Error(t, err)
}

func TestFromViperDurations(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("PLATFORM_TIMEOUT", "1d")
	t.Setenv("RESERVATION_GRACE", "soon")
	t.Setenv("COMMAND_COOLDOWN", "0s")

	cfg, err := fromViper(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.Demotion.PlatformTimeout)
	assert.Equal(t, 5*time.Second, cfg.Demotion.ReservationGrace, "invalid values fall back to the default")
	assert.Zero(t, cfg.CommandCooldown)
}
