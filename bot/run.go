package bot

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Run opens the gateway connection, registers cmds and blocks until the process is signalled.
func (b *Bot) Run(cmds []*discordgo.ApplicationCommand) error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	cfg := b.GetConfig()
	if cfg.GuildID != "" && !cfg.DisableCommandUnregister {
		// Global commands would show up twice next to the guild-scoped set.
		b.Logger.Info("Unregistering global commands")
		b.UnregisterCommands("")
	}
	if err := b.RefreshCommands(cfg.GuildID, cmds); err != nil {
		return fmt.Errorf("cannot register commands: %w", err)
	}

	b.scheduler.Start()

	b.Logger.Info("Bot is now running. Press CTRL-C to exit.")
	if err := utils.LogInfo(b.Session, cfg.LogChannelID, "System", "Startup", "Bot has started successfully."); err != nil {
		b.Logger.Warn("Failed to send startup log", zap.Error(err))
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	return nil
}
