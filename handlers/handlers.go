package handlers

import (
	"demote-bot/bot"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func Register(b *bot.Bot) {
	b.CommandHandlers = commandHandlers(b)
	addHandlers(b)
}

func addHandlers(b *bot.Bot) {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.Logger.Info("Logged in",
			zap.String("user", r.User.String()),
			zap.Int("guilds", len(r.Guilds)))
	})
	b.Session.AddHandler(handleInteraction(b))
	b.Session.AddHandler(handleMemberUpdate(b))
	b.Session.AddHandler(handleMemberAdd(b))
}
