package demote

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"demote-bot/bot"
	"demote-bot/demotion"
	"demote-bot/model"
	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	// ListPagePrefix prefixes the custom IDs of the list pagination buttons.
	ListPagePrefix = "demotions_list"
	listPageSize   = 10
)

// HandleDemotions runs the /demotions subcommands.
func HandleDemotions(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	logger := b.Logger.Named("commands")
	if err := utils.DeferResponse(s, i, false); err != nil {
		logger.Warn("Failed to defer interaction", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(b.Context(), commandTimeout)
	defer cancel()

	actor := interactionUser(i)
	if err := b.Demotions.Authorize(ctx, i.GuildID, actor.ID); err != nil {
		if !isUserError(err) {
			logger.Error("Failed to authorize actor", zap.String("guild_id", i.GuildID), zap.Error(err))
		}
		followUpError(s, i, logger, errorMessage(err, actor.String(), ""))
		return
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}
	sub := options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "list":
		handleList(ctx, s, i, b, logger)
	case "restore":
		handleRestore(ctx, s, i, b, logger, opts)
	case "history":
		handleHistory(ctx, s, i, b, logger, opts)
	}
}

func handleList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, logger *zap.Logger) {
	records, err := b.Demotions.ListActive(ctx, i.GuildID)
	if err != nil {
		logger.Error("Failed to list demotions", zap.String("guild_id", i.GuildID), zap.Error(err))
		followUpError(s, i, logger, errorMessage(err, "", ""))
		return
	}
	if len(records) == 0 {
		if err := utils.SendFollowUp(s, i.Interaction, "✅ No active demotions in this server!"); err != nil {
			logger.Warn("Failed to send list reply", zap.Error(err))
		}
		return
	}

	embed, page := buildListEmbed(records, resolveTags(ctx, b, records), 1, b.Demotions.Now())
	components := utils.CreatePaginationComponents(page, pageCount(len(records)), ListPagePrefix)
	_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		logger.Warn("Failed to send list reply", zap.Error(err))
	}
}

// HandleListPage flips the active demotion list to the page named in the button's custom ID.
func HandleListPage(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	logger := b.Logger.Named("commands")
	page, err := strconv.Atoi(strings.TrimPrefix(i.MessageComponentData().CustomID, ListPagePrefix+":"))
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(b.Context(), commandTimeout)
	defer cancel()

	actor := interactionUser(i)
	if err := b.Demotions.Authorize(ctx, i.GuildID, actor.ID); err != nil {
		if err := utils.SendErrorResponse(s, i, errorMessage(err, actor.String(), "")); err != nil {
			logger.Warn("Failed to send error reply", zap.Error(err))
		}
		return
	}

	records, err := b.Demotions.ListActive(ctx, i.GuildID)
	if err != nil {
		logger.Error("Failed to list demotions", zap.String("guild_id", i.GuildID), zap.Error(err))
		return
	}

	embed, page := buildListEmbed(records, resolveTags(ctx, b, records), page, b.Demotions.Now())
	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: utils.CreatePaginationComponents(page, pageCount(len(records)), ListPagePrefix),
		},
	})
	if err != nil {
		logger.Warn("Failed to update list page", zap.Error(err))
	}
}

func handleRestore(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, logger *zap.Logger, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target := resolvedUser(s, i, opts["user"])
	actor := interactionUser(i)

	req := demotion.RestoreRequest{
		GuildID:  i.GuildID,
		UserID:   target.ID,
		ActorID:  actor.ID,
		ActorTag: actor.String(),
	}
	var roleLabel string
	if opt, ok := opts["role"]; ok {
		role := resolvedRole(s, i, opt)
		req.RoleID = role.ID
		roleLabel = role.Name
	}

	result, err := b.Demotions.Restore(ctx, req)
	if result == nil {
		if !isUserError(err) {
			logger.Error("Failed to restore demotion",
				zap.String("guild_id", req.GuildID),
				zap.String("user_id", req.UserID),
				zap.Error(err))
		}
		followUpError(s, i, logger, errorMessage(err, target.String(), roleLabel))
		return
	}

	if err := utils.SendFollowUp(s, i.Interaction, restoreResultMessage(result, target.String())); err != nil {
		logger.Warn("Failed to send restore reply", zap.Error(err))
	}

	channelID := b.GetConfig().LogChannelID
	if len(result.Restored) > 0 {
		details := fmt.Sprintf("%s restored %s early: %s", actor.String(), target.String(), strings.Join(result.Restored, ", "))
		if err := utils.LogInfo(s, channelID, "Demotion", "Restore", details); err != nil {
			logger.Warn("Failed to send log message", zap.Error(err))
		}
	}
	if err != nil {
		details := fmt.Sprintf("%s tried to restore %s early, but %s could not be given back: %v",
			actor.String(), target.String(), strings.Join(result.Failed, ", "), err)
		if err := utils.LogError(s, channelID, "Demotion", "Restore", details); err != nil {
			logger.Warn("Failed to send log message", zap.Error(err))
		}
	}
}

func handleHistory(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, logger *zap.Logger, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target := resolvedUser(s, i, opts["user"])

	records, err := b.Demotions.History(ctx, target.ID, i.GuildID, b.GetConfig().Demotion.HistoryLimit)
	if err != nil {
		logger.Error("Failed to load demotion history", zap.String("user_id", target.ID), zap.Error(err))
		followUpError(s, i, logger, errorMessage(err, target.String(), ""))
		return
	}
	if len(records) == 0 {
		if err := utils.SendFollowUp(s, i.Interaction, fmt.Sprintf("📜 No demotion history found for %s!", target.String())); err != nil {
			logger.Warn("Failed to send history reply", zap.Error(err))
		}
		return
	}

	embed := buildHistoryEmbed(target, records, resolveTags(ctx, b, records), b.Demotions.Now())
	if err := utils.SendFollowUpEmbed(s, i.Interaction, embed); err != nil {
		logger.Warn("Failed to send history reply", zap.Error(err))
	}
}

func resolveTags(ctx context.Context, b *bot.Bot, records []model.DemotionRecord) map[string]string {
	ids := make([]string, 0, len(records)*2)
	for _, record := range records {
		ids = append(ids, record.UserID, record.DemotedBy)
	}
	return b.Tags.Resolve(ctx, ids)
}
