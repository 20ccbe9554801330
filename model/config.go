package model

import "time"

// Database backends understood by the demotion store.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and configures the demotion store backend.
type DatabaseConfig struct {
	Driver string
	Path   string // SQLite file
	DSN    string // PostgreSQL connection string
}

// DemotionConfig holds the timing knobs of the demotion subsystem.
type DemotionConfig struct {
	RestoreInterval  time.Duration
	ReservationGrace time.Duration
	PlatformTimeout  time.Duration
	HistoryLimit     int
	AdminRoleIDs     []string
}

// Config holds the runtime configuration of the bot.
type Config struct {
	BotToken                 string
	AppID                    string
	GuildID                  string // empty registers commands globally
	LogChannelID             string
	LogLevel                 string
	DeveloperUserIDs         []string
	CommandCooldown          time.Duration
	WelcomeChannelName       string
	DisableCommandUnregister bool
	Database                 DatabaseConfig
	Demotion                 DemotionConfig
}
