package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"demote-bot/model"
	"demote-bot/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load loads the configuration from the .env file, environment variables and an
// optional data/config.yaml. Environment variables win over the file.
func Load() (*model.Config, error) {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Info: .env file not found, relying on environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("data")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", model.DriverSQLite)
	v.SetDefault("DATABASE_PATH", "data/demotions.db")
	v.SetDefault("RESTORE_INTERVAL", "10s")
	v.SetDefault("RESERVATION_GRACE", "5s")
	v.SetDefault("PLATFORM_TIMEOUT", "10s")
	v.SetDefault("COMMAND_COOLDOWN", "5s")
	v.SetDefault("HISTORY_LIMIT", 10)
}

func fromViper(v *viper.Viper) (*model.Config, error) {
	token := v.GetString("BOT_TOKEN")
	if token == "" {
		return nil, errors.New("BOT_TOKEN environment variable not set")
	}

	logChannelID := v.GetString("LOG_CHANNEL_ID")
	if logChannelID == "" {
		log.Println("Warning: LOG_CHANNEL_ID not set, log channel messages will be disabled")
	}

	driver := strings.ToLower(v.GetString("DATABASE_DRIVER"))
	switch driver {
	case model.DriverSQLite:
	case model.DriverPostgres:
		if v.GetString("DATABASE_DSN") == "" {
			return nil, errors.New("DATABASE_DSN must be set when DATABASE_DRIVER is postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}

	historyLimit := v.GetInt("HISTORY_LIMIT")
	if historyLimit <= 0 {
		log.Printf("Warning: Invalid HISTORY_LIMIT value %d, using default of 10", historyLimit)
		historyLimit = 10
	}

	cfg := &model.Config{
		BotToken:                 token,
		AppID:                    v.GetString("APP_ID"),
		GuildID:                  v.GetString("GUILD_ID"),
		LogChannelID:             logChannelID,
		LogLevel:                 v.GetString("LOG_LEVEL"),
		DeveloperUserIDs:         splitIDs(v.GetString("DEVELOPER_USER_IDS")),
		CommandCooldown:          nonNegativeDuration(v, "COMMAND_COOLDOWN"),
		WelcomeChannelName:       v.GetString("WELCOME_CHANNEL_NAME"),
		DisableCommandUnregister: v.GetBool("DISABLE_COMMAND_UNREGISTER"),
		Database: model.DatabaseConfig{
			Driver: driver,
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Demotion: model.DemotionConfig{
			RestoreInterval:  positiveDuration(v, "RESTORE_INTERVAL", 10*time.Second),
			ReservationGrace: positiveDuration(v, "RESERVATION_GRACE", 5*time.Second),
			PlatformTimeout:  positiveDuration(v, "PLATFORM_TIMEOUT", 10*time.Second),
			HistoryLimit:     historyLimit,
			AdminRoleIDs:     splitIDs(v.GetString("DEMOTE_ADMIN_ROLE_IDS")),
		},
	}

	return cfg, nil
}

// positiveDuration reads key as a duration, accepting a day suffix such as "1d".
func positiveDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	d, err := utils.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		log.Printf("Warning: Invalid %s value, using default of %s", key, fallback)
		return fallback
	}
	return d
}

// nonNegativeDuration reads key as a duration where zero disables the feature.
func nonNegativeDuration(v *viper.Viper, key string) time.Duration {
	d, err := utils.ParseDuration(v.GetString(key))
	if err != nil || d < 0 {
		log.Printf("Warning: Invalid %s value %q, disabling", key, v.GetString(key))
		return 0
	}
	return d
}

// splitIDs turns a comma separated list into IDs, dropping blanks.
func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
