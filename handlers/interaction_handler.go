package handlers

import (
	"fmt"
	"strings"
	"time"

	"demote-bot/bot"
	"demote-bot/handlers/demote"
	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func handleInteraction(b *bot.Bot) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			runCommand(s, i, b)
		case discordgo.InteractionApplicationCommandAutocomplete:
			handleAutocomplete(s, i, b)
		case discordgo.InteractionMessageComponent:
			if strings.HasPrefix(i.MessageComponentData().CustomID, demote.ListPagePrefix+":") {
				demote.HandleListPage(s, i, b)
			}
		}
	}
}

func runCommand(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	name := i.ApplicationCommandData().Name
	h, ok := b.CommandHandlers[name]
	if !ok {
		return
	}
	logger := b.Logger.Named("commands")

	if i.GuildID == "" {
		if err := utils.SendErrorResponse(s, i, "This command can only be used in a server."); err != nil {
			logger.Warn("Failed to send error reply", zap.Error(err))
		}
		return
	}

	user := i.Member.User
	if wait, ok := cooldownRemaining(b.Cooldowns, user.ID, b.GetConfig().CommandCooldown); !ok {
		msg := fmt.Sprintf("Please wait %.1f seconds before using /%s again.", wait.Seconds(), name)
		if err := utils.SendErrorResponse(s, i, msg); err != nil {
			logger.Warn("Failed to send cooldown reply", zap.Error(err))
		}
		return
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("Command panicked",
				zap.String("command", name),
				zap.String("user_id", user.ID),
				zap.Any("panic", p))
			const msg = "There was an error while executing this command!"
			if err := utils.SendErrorResponse(s, i, msg); err != nil {
				_ = utils.SendFollowUpError(s, i.Interaction, msg)
			}
		}
	}()

	logger.Debug("Executing command",
		zap.String("command", name),
		zap.String("user_id", user.ID),
		zap.String("guild_id", i.GuildID))
	h(s, i)
}

// cooldownRemaining starts the user's cooldown. It reports false with the time left when
// the user is still cooling down from a previous command.
func cooldownRemaining(cooldowns *utils.ExpiryCache, userID string, cooldown time.Duration) (time.Duration, bool) {
	if cooldown <= 0 || cooldowns.Reserve(userID, cooldown) {
		return 0, true
	}
	return cooldowns.Remaining(userID), false
}
