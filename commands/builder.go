package commands

import (
	"demote-bot/commands/defs"

	"github.com/bwmarrin/discordgo"
)

// GenerateCommands returns every application command the bot registers.
func GenerateCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.Demote,
		defs.Demotions,
		defs.Commands,
		defs.SystemInfo,
		defs.ReloadConfig,
	}
}
