package handlers

import (
	"demote-bot/bot"
	"demote-bot/handlers/demote"

	"github.com/bwmarrin/discordgo"
)

func handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	switch i.ApplicationCommandData().Name {
	case "demote":
		demote.HandleAutocomplete(s, i, b)
	}
}
