package handlers

import (
	"demote-bot/bot"
	"demote-bot/handlers/demote"

	"github.com/bwmarrin/discordgo"
)

func commandHandlers(b *bot.Bot) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"demote": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			demote.HandleDemote(s, i, b)
		},
		"demotions": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			demote.HandleDemotions(s, i, b)
		},
		"commands": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			CommandListHandler(s, i, b)
		},
		"sysinfo": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			SystemInfoHandler(s, i, b)
		},
		"reload-config": func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			ReloadConfigHandler(s, i, b)
		},
	}
}
