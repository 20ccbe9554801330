package demote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"demote-bot/bot"
	"demote-bot/demotion"
	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const commandTimeout = 30 * time.Second

// HandleDemote runs /demote.
func HandleDemote(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	logger := b.Logger.Named("commands")
	if err := utils.DeferResponse(s, i, false); err != nil {
		logger.Warn("Failed to defer interaction", zap.Error(err))
		return
	}

	opts := optionMap(i.ApplicationCommandData().Options)
	actor := interactionUser(i)
	roleID := stringOption(opts, "role")
	if roleID == "" || roleID == noneChoice {
		followUpError(s, i, logger, "Please select a valid role from the autocomplete suggestions!")
		return
	}

	target := resolvedUser(s, i, opts["user"])
	req := demotion.CreateRequest{
		GuildID:  i.GuildID,
		UserID:   target.ID,
		RoleID:   roleID,
		ActorID:  actor.ID,
		ActorTag: actor.String(),
		Reason:   stringOption(opts, "reason"),
		Hours:    intOption(opts, "hours"),
		Minutes:  intOption(opts, "minutes"),
	}

	ctx, cancel := context.WithTimeout(b.Context(), commandTimeout)
	defer cancel()

	record, err := b.Demotions.Create(ctx, req)
	if err != nil {
		if !isUserError(err) {
			logger.Error("Failed to demote user",
				zap.String("guild_id", req.GuildID),
				zap.String("user_id", req.UserID),
				zap.String("role_id", req.RoleID),
				zap.Error(err))
		}
		followUpError(s, i, logger, errorMessage(err, target.String(), roleName(s, i.GuildID, roleID)))
		if errors.Is(err, demotion.ErrPlatform) {
			details := fmt.Sprintf("%s could not demote %s: %v", actor.String(), target.String(), err)
			if err := utils.LogError(s, b.GetConfig().LogChannelID, "Demotion", "Demote", details); err != nil {
				logger.Warn("Failed to send log message", zap.Error(err))
			}
		}
		return
	}

	if err := utils.SendFollowUp(s, i.Interaction, demoteSuccessMessage(record, target.String(), req.Hours, req.Minutes)); err != nil {
		logger.Warn("Failed to send demotion reply", zap.Error(err))
	}

	details := fmt.Sprintf("%s demoted %s from %s for %s. Reason: %s",
		actor.String(), target.String(), record.RoleName,
		demotion.FormatDuration(req.Hours, req.Minutes), demotion.ReasonOrDefault(record.Reason))
	if err := utils.LogInfo(s, b.GetConfig().LogChannelID, "Demotion", "Demote", details); err != nil {
		logger.Warn("Failed to send log message", zap.Error(err))
	}
}

func roleName(s *discordgo.Session, guildID, roleID string) string {
	if role, err := s.State.Role(guildID, roleID); err == nil {
		return role.Name
	}
	return "that"
}

func followUpError(s *discordgo.Session, i *discordgo.InteractionCreate, logger *zap.Logger, message string) {
	if err := utils.SendFollowUpError(s, i.Interaction, message); err != nil {
		logger.Warn("Failed to send error reply", zap.Error(err))
	}
}
