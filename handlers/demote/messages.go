package demote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"demote-bot/demotion"
	"demote-bot/model"

	"github.com/bwmarrin/discordgo"
)

const (
	listColor    = 0xFF6B6B
	historyColor = 0x5865F2
)

// isUserError reports whether err is a refusal to show the moderator rather than a fault.
func isUserError(err error) bool {
	for _, target := range []error{
		demotion.ErrNotAuthorized,
		demotion.ErrSelfTarget,
		demotion.ErrInvalidDuration,
		demotion.ErrAlreadyDemoted,
		demotion.ErrRoleNotHeld,
		demotion.ErrRoleHierarchy,
		demotion.ErrTargetNotFound,
		demotion.ErrNotDemoted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func errorMessage(err error, userTag, roleName string) string {
	var conflict *demotion.ConflictError
	switch {
	case errors.Is(err, demotion.ErrNotAuthorized):
		return "You are not allowed to manage demotions in this server!"
	case errors.Is(err, demotion.ErrSelfTarget):
		return "You cannot demote yourself! That would be... awkward."
	case errors.Is(err, demotion.ErrInvalidDuration):
		return "You must specify at least some duration (hours and/or minutes)!"
	case errors.As(err, &conflict) && conflict.Existing != nil:
		return fmt.Sprintf("%s is already demoted from **%s**! Their role will be restored <t:%d:F>.",
			userTag, conflict.Existing.RoleName, conflict.Existing.RestoreAt/1000)
	case errors.Is(err, demotion.ErrAlreadyDemoted):
		return fmt.Sprintf("%s is already demoted from that role!", userTag)
	case errors.Is(err, demotion.ErrRoleNotHeld):
		return fmt.Sprintf("%s doesn't have the **%s** role!", userTag, roleName)
	case errors.Is(err, demotion.ErrRoleHierarchy):
		return "I cannot manage this role! It's higher than or equal to my highest role."
	case errors.Is(err, demotion.ErrTargetNotFound):
		return "That user or role could not be found in this server!"
	case errors.Is(err, demotion.ErrNotDemoted):
		if roleName != "" {
			return fmt.Sprintf("No active demotions found for %s with role **%s**!", userTag, roleName)
		}
		return fmt.Sprintf("No active demotions found for %s!", userTag)
	case errors.Is(err, demotion.ErrPlatform):
		return "Discord rejected the role change. Check my permissions!"
	default:
		return "There was an error while executing this command!"
	}
}

func demoteSuccessMessage(record *model.DemotionRecord, userTag string, hours, minutes int) string {
	return fmt.Sprintf("⬇️ **Demotion Successful!**\n\n"+
		"**User:** %s\n"+
		"**Role Removed:** %s\n"+
		"**Duration:** %s\n"+
		"**Restore Time:** <t:%d:F>\n"+
		"**Reason:** %s\n\n"+
		"Their role will be automatically restored when the time is up.",
		userTag, record.RoleName, demotion.FormatDuration(hours, minutes), record.RestoreAt/1000,
		demotion.ReasonOrDefault(record.Reason))
}

// restoreResultMessage describes a manual restore, one line per outcome.
func restoreResultMessage(result *demotion.RestoreResult, userTag string) string {
	var lines []string
	if len(result.Restored) > 0 {
		lines = append(lines, fmt.Sprintf("✅ Restored %d role(s) to %s: **%s**",
			len(result.Restored), userTag, strings.Join(result.Restored, ", ")))
	}
	if len(result.Closed) > 0 {
		lines = append(lines, fmt.Sprintf("✅ Closed the demotion(s) of %s for **%s**, but no role could be given back. The member may have left or the role was deleted.",
			userTag, strings.Join(result.Closed, ", ")))
	}
	if len(result.InFlight) > 0 {
		lines = append(lines, fmt.Sprintf("⏳ **%s** is already being restored to %s.",
			strings.Join(result.InFlight, ", "), userTag))
	}
	if len(result.Failed) > 0 {
		lines = append(lines, fmt.Sprintf("❌ Could not give **%s** back to %s. Check my permissions and add the role manually if needed.",
			strings.Join(result.Failed, ", "), userTag))
	}
	return strings.Join(lines, "\n")
}

func tagOr(tags map[string]string, id, fallback string) string {
	if tag, ok := tags[id]; ok {
		return tag
	}
	return fallback
}

func reasonOrNone(reason string) string {
	if strings.TrimSpace(reason) == "" {
		return "None"
	}
	return reason
}

// pageCount returns how many list pages n records fill.
func pageCount(n int) int {
	if n == 0 {
		return 1
	}
	return (n + listPageSize - 1) / listPageSize
}

// buildListEmbed renders one page of active demotions. page is clamped to the valid range.
func buildListEmbed(records []model.DemotionRecord, tags map[string]string, page int, now time.Time) (*discordgo.MessageEmbed, int) {
	total := pageCount(len(records))
	page = min(max(page, 1), total)

	start := (page - 1) * listPageSize
	end := min(start+listPageSize, len(records))

	var sb strings.Builder
	for _, record := range records[start:end] {
		restore := fmt.Sprintf("<t:%d:R> (<t:%d:t>)", record.RestoreAt/1000, record.RestoreAt/1000)
		if record.Expired(now) {
			restore = "✅ **Done** (restoring soon)"
		}
		fmt.Fprintf(&sb, "**%s**\n", tagOr(tags, record.UserID, "Unknown User"))
		fmt.Fprintf(&sb, "└ Role: **%s**\n", record.RoleName)
		fmt.Fprintf(&sb, "└ Restores: %s\n", restore)
		fmt.Fprintf(&sb, "└ By: %s\n", tagOr(tags, record.DemotedBy, "Unknown"))
		fmt.Fprintf(&sb, "└ Reason: %s\n\n", reasonOrNone(record.Reason))
	}

	footer := fmt.Sprintf("%d active demotion(s)", len(records))
	if total > 1 {
		footer += fmt.Sprintf(" • Page %d/%d", page, total)
	}

	return &discordgo.MessageEmbed{
		Title:       "⬇️ Active Demotions",
		Color:       listColor,
		Description: sb.String(),
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
		Timestamp:   now.Format(time.RFC3339),
	}, page
}

func buildHistoryEmbed(user *discordgo.User, records []model.DemotionRecord, tags map[string]string, now time.Time) *discordgo.MessageEmbed {
	var sb strings.Builder
	for _, record := range records {
		status := "⏳ Active"
		if record.Restored {
			status = "✅ Restored"
		}
		fmt.Fprintf(&sb, "**%s** - %s\n", record.RoleName, status)
		fmt.Fprintf(&sb, "└ Demoted: <t:%d:R>\n", record.DemotedAt/1000)
		fmt.Fprintf(&sb, "└ By: %s\n", tagOr(tags, record.DemotedBy, "Unknown"))
		fmt.Fprintf(&sb, "└ Reason: %s\n\n", reasonOrNone(record.Reason))
	}

	return &discordgo.MessageEmbed{
		Title:       "📜 Demotion History: " + user.String(),
		Color:       historyColor,
		Description: sb.String(),
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: user.AvatarURL("")},
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Showing last %d demotion(s)", len(records))},
		Timestamp:   now.Format(time.RFC3339),
	}
}
