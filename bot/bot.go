package bot

import (
	"context"
	"fmt"
	"sync/atomic"

	"demote-bot/config"
	"demote-bot/demotion"
	"demote-bot/gateway"
	"demote-bot/model"
	"demote-bot/scanner"
	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const userTagCacheSize = 1024

type Bot struct {
	Session            *discordgo.Session
	RegisteredCommands []*discordgo.ApplicationCommand
	config             atomic.Value // *model.Config
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
	Cooldowns          *utils.ExpiryCache
	Reservations       *utils.ExpiryCache
	Store              demotion.Store
	Demotions          *demotion.Service
	Guard              *demotion.Guard
	Restorer           *scanner.Restorer
	Tags               *utils.TagResolver
	Logger             *zap.Logger

	auth       *demotion.PolicyAuthorizer
	loadConfig func() (*model.Config, error)
	scheduler  *Scheduler
	ctx        context.Context
	cancel     context.CancelFunc
}

func (b *Bot) GetConfig() *model.Config {
	return b.config.Load().(*model.Config)
}

// ReloadConfig re-reads the configuration and swaps it in. Cooldown, log channel,
// history limit, welcome channel and the demotion policy take effect immediately; the
// token, database and loop timings need a restart.
func (b *Bot) ReloadConfig() error {
	b.Logger.Info("Reloading configuration")
	cfg, err := b.loadConfig()
	if err != nil {
		b.Logger.Error("Error reloading config", zap.Error(err))
		return fmt.Errorf("failed to reload config: %w", err)
	}

	b.config.Store(cfg)
	b.auth.SetPolicy(cfg.Demotion.AdminRoleIDs, cfg.DeveloperUserIDs)
	b.Logger.Info("Configuration reloaded",
		zap.Int("admin_roles", len(cfg.Demotion.AdminRoleIDs)),
		zap.Int("developers", len(cfg.DeveloperUserIDs)))
	return nil
}

// Context is cancelled when the bot shuts down.
func (b *Bot) Context() context.Context {
	return b.ctx
}

func New(cfg *model.Config, store demotion.Store, logger *zap.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	// Member updates carry the previous role set only when the state caches members.
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	dg.StateEnabled = true
	dg.State.TrackMembers = true
	dg.State.TrackRoles = true

	reservations := utils.NewExpiryCache()
	gw := gateway.NewDiscord(dg, cfg.Demotion.PlatformTimeout)
	auth := demotion.NewPolicyAuthorizer(gw, cfg.Demotion.AdminRoleIDs, cfg.DeveloperUserIDs)
	svc := demotion.NewService(store, gw, auth, reservations, logger,
		demotion.WithReservationGrace(cfg.Demotion.ReservationGrace))

	tags, err := utils.NewTagResolver(userTagCacheSize, func(ctx context.Context, userID string) (string, error) {
		u, err := dg.User(userID, discordgo.WithContext(ctx))
		if err != nil {
			return "", err
		}
		return u.String(), nil
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		Session:      dg,
		Cooldowns:    utils.NewExpiryCache(),
		Reservations: reservations,
		Store:        store,
		Demotions:    svc,
		Guard:        demotion.NewGuard(store, gw, reservations, logger, nil),
		Restorer:     scanner.NewRestorer(svc, logger, cfg.Demotion.RestoreInterval),
		Tags:         tags,
		Logger:       logger,
		auth:         auth,
		loadConfig:   config.Load,
		ctx:          ctx,
		cancel:       cancel,
	}
	b.config.Store(cfg)
	b.scheduler = NewScheduler(b)
	return b, nil
}

func (b *Bot) Close() {
	b.Logger.Info("Gracefully shutting down")
	b.cancel()
	b.scheduler.Stop()

	if err := b.Session.Close(); err != nil {
		b.Logger.Warn("Failed to close Discord session", zap.Error(err))
	}
	if err := b.Store.Close(); err != nil {
		b.Logger.Warn("Failed to close demotion store", zap.Error(err))
	}
	_ = b.Logger.Sync()
}

// RefreshCommands registers the command set, guild-scoped when guildID is set.
func (b *Bot) RefreshCommands(guildID string, cmds []*discordgo.ApplicationCommand) error {
	appID := b.GetConfig().AppID
	if appID == "" {
		appID = b.Session.State.User.ID
	}

	registered, err := b.Session.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
	if err != nil {
		return err
	}
	b.RegisteredCommands = registered
	b.Logger.Info("Registered application commands",
		zap.Int("count", len(registered)),
		zap.String("guild_id", guildID))
	return nil
}

// UnregisterCommands removes every command the bot registered in a guild.
func (b *Bot) UnregisterCommands(guildID string) {
	appID := b.Session.State.User.ID
	cmds, err := b.Session.ApplicationCommands(appID, guildID)
	if err != nil {
		b.Logger.Warn("Could not fetch commands", zap.String("guild_id", guildID), zap.Error(err))
		return
	}
	for _, cmd := range cmds {
		if err := b.Session.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			b.Logger.Warn("Cannot delete command",
				zap.String("command", cmd.Name),
				zap.String("guild_id", guildID),
				zap.Error(err))
		}
	}
}
