package demote

import (
	"sort"

	"demote-bot/bot"

	"github.com/bwmarrin/discordgo"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

const (
	// noneChoice is the value of hint entries that are not real roles.
	noneChoice = "none"
	maxChoices = 25
)

// roleSource implements fuzzy.Source over role names.
type roleSource []*discordgo.Role

func (r roleSource) String(i int) string { return r[i].Name }
func (r roleSource) Len() int            { return len(r) }

// RankRoles orders roles for the autocomplete and drops @everyone, whose ID equals the
// guild's. Without a query roles are sorted by position, highest first; otherwise by
// fuzzy match score.
func RankRoles(roles []*discordgo.Role, guildID, query string) []*discordgo.Role {
	candidates := make(roleSource, 0, len(roles))
	for _, role := range roles {
		if role != nil && role.ID != guildID {
			candidates = append(candidates, role)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Position > candidates[b].Position
	})

	ranked := []*discordgo.Role(candidates)
	if query != "" {
		matches := fuzzy.FindFrom(query, candidates)
		ranked = make([]*discordgo.Role, 0, len(matches))
		for _, match := range matches {
			ranked = append(ranked, candidates[match.Index])
		}
	}

	if len(ranked) > maxChoices {
		ranked = ranked[:maxChoices]
	}
	return ranked
}

// HandleAutocomplete suggests the target member's roles for the /demote role option.
func HandleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	opts := optionMap(i.ApplicationCommandData().Options)
	roleOpt, ok := opts["role"]
	if !ok || !roleOpt.Focused {
		respondChoices(s, i, b, nil)
		return
	}

	var userID string
	if userOpt, ok := opts["user"]; ok {
		userID, _ = userOpt.Value.(string)
	}
	if userID == "" {
		respondChoices(s, i, b, hint("⚠️ Select a user first to see their roles"))
		return
	}

	member, err := s.State.Member(i.GuildID, userID)
	if err != nil {
		member, err = s.GuildMember(i.GuildID, userID)
	}
	if err != nil {
		respondChoices(s, i, b, hint("❌ User not found in server"))
		return
	}

	roles, err := memberRoles(s, i.GuildID, member)
	if err != nil {
		b.Logger.Warn("Failed to fetch roles for autocomplete", zap.String("guild_id", i.GuildID), zap.Error(err))
		respondChoices(s, i, b, nil)
		return
	}

	query := roleOpt.StringValue()
	ranked := RankRoles(roles, i.GuildID, query)
	if len(ranked) == 0 {
		if query != "" {
			respondChoices(s, i, b, hint("No matching roles found"))
		} else {
			respondChoices(s, i, b, hint("User has no roles to demote"))
		}
		return
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(ranked))
	for _, role := range ranked {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: role.Name, Value: role.ID})
	}
	respondChoices(s, i, b, choices)
}

// memberRoles resolves the member's role IDs, preferring the state cache.
func memberRoles(s *discordgo.Session, guildID string, member *discordgo.Member) ([]*discordgo.Role, error) {
	var all []*discordgo.Role
	if guild, err := s.State.Guild(guildID); err == nil && len(guild.Roles) > 0 {
		all = guild.Roles
	} else {
		all, err = s.GuildRoles(guildID)
		if err != nil {
			return nil, err
		}
	}

	held := make(map[string]struct{}, len(member.Roles))
	for _, id := range member.Roles {
		held[id] = struct{}{}
	}
	roles := make([]*discordgo.Role, 0, len(member.Roles))
	for _, role := range all {
		if _, ok := held[role.ID]; ok {
			roles = append(roles, role)
		}
	}
	return roles, nil
}

func hint(name string) []*discordgo.ApplicationCommandOptionChoice {
	return []*discordgo.ApplicationCommandOptionChoice{{Name: name, Value: noneChoice}}
}

func respondChoices(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, choices []*discordgo.ApplicationCommandOptionChoice) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		b.Logger.Debug("Failed to answer autocomplete", zap.Error(err))
	}
}
