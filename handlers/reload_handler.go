package handlers

import (
	"demote-bot/bot"
	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ReloadConfigHandler re-reads the configuration. Only developers and the guild owner may use it.
func ReloadConfigHandler(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	var ownerID string
	if guild, err := s.State.Guild(i.GuildID); err == nil {
		ownerID = guild.OwnerID
	}
	userID := i.Member.User.ID
	if !canReload(userID, ownerID, b.GetConfig().DeveloperUserIDs) {
		if err := utils.SendErrorResponse(s, i, "You do not have permission to use this command."); err != nil {
			b.Logger.Warn("Failed to send error reply", zap.Error(err))
		}
		return
	}

	if err := b.ReloadConfig(); err != nil {
		if err := utils.SendErrorResponse(s, i, "Failed to reload configuration: "+err.Error()); err != nil {
			b.Logger.Warn("Failed to send error reply", zap.Error(err))
		}
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "✅ Configuration reloaded.",
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.Logger.Warn("Failed to send reload reply", zap.Error(err))
	}

	if err := utils.LogInfo(s, b.GetConfig().LogChannelID, "System", "Reload", i.Member.User.String()+" reloaded the configuration."); err != nil {
		b.Logger.Warn("Failed to send log message", zap.Error(err))
	}
}

func canReload(userID, ownerID string, developerUserIDs []string) bool {
	switch utils.CheckPermission(userID, ownerID, nil, nil, developerUserIDs) {
	case utils.DeveloperPermission, utils.OwnerPermission:
		return true
	}
	return false
}
