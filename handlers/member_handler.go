package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"demote-bot/bot"
	"demote-bot/demotion"
	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const memberEventTimeout = 30 * time.Second

// handleMemberUpdate feeds role changes to the demotion guard.
func handleMemberUpdate(b *bot.Bot) func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if m.Member == nil || m.User == nil {
			return
		}

		change := demotion.RoleChange{
			GuildID: m.GuildID,
			UserID:  m.User.ID,
			UserTag: m.User.String(),
			After:   m.Roles,
		}
		if tagChanged(m.BeforeUpdate, m.User) {
			b.Tags.Forget(m.User.ID)
		}
		if m.BeforeUpdate != nil {
			change.Before = m.BeforeUpdate.Roles
			if change.Before == nil {
				change.Before = []string{}
			}
		}

		ctx, cancel := context.WithTimeout(b.Context(), memberEventTimeout)
		defer cancel()

		reverted := b.Guard.HandleRoleChange(ctx, change)
		if len(reverted) == 0 {
			return
		}

		details := fmt.Sprintf("Removed re-added role(s) %s from %s while their demotion is active.",
			mentionRoles(reverted), change.UserTag)
		if err := utils.LogWarn(s, b.GetConfig().LogChannelID, "Demotion", "Protection", details); err != nil {
			b.Logger.Warn("Failed to send log message", zap.Error(err))
		}
	}
}

// tagChanged reports whether the cached member state shows a different tag than user.
func tagChanged(before *discordgo.Member, user *discordgo.User) bool {
	return before != nil && before.User != nil && before.User.String() != user.String()
}

// handleMemberAdd greets new members in the configured welcome channel.
func handleMemberAdd(b *bot.Bot) func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	return func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		name := b.GetConfig().WelcomeChannelName
		if name == "" || m.Member == nil || m.User == nil {
			return
		}

		guild, err := s.State.Guild(m.GuildID)
		if err != nil {
			b.Logger.Debug("Guild not in state, skipping welcome", zap.String("guild_id", m.GuildID))
			return
		}
		channel := findChannelByName(guild.Channels, name)
		if channel == nil {
			return
		}

		msg := fmt.Sprintf("Welcome %s to %s!\nPlease read the rules in #rules.", m.User.String(), guild.Name)
		if _, err := s.ChannelMessageSend(channel.ID, msg); err != nil {
			b.Logger.Warn("Failed to send welcome message",
				zap.String("guild_id", m.GuildID),
				zap.String("channel_id", channel.ID),
				zap.Error(err))
		}
	}
}

// findChannelByName returns the first text channel called name.
func findChannelByName(channels []*discordgo.Channel, name string) *discordgo.Channel {
	for _, ch := range channels {
		if ch.Name == name && ch.Type == discordgo.ChannelTypeGuildText {
			return ch
		}
	}
	return nil
}

func mentionRoles(roleIDs []string) string {
	mentions := make([]string, len(roleIDs))
	for i, id := range roleIDs {
		mentions[i] = "<@&" + id + ">"
	}
	return strings.Join(mentions, ", ")
}
