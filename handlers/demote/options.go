package demote

import (
	"github.com/bwmarrin/discordgo"
)

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

// interactionUser returns whoever triggered the interaction.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// resolvedUser prefers the user payload Discord resolved with the interaction.
func resolvedUser(s *discordgo.Session, i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) *discordgo.User {
	id, _ := opt.Value.(string)
	if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
		if u, ok := resolved.Users[id]; ok {
			return u
		}
	}
	return opt.UserValue(s)
}

func resolvedRole(s *discordgo.Session, i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) *discordgo.Role {
	id, _ := opt.Value.(string)
	if resolved := i.ApplicationCommandData().Resolved; resolved != nil {
		if r, ok := resolved.Roles[id]; ok {
			return r
		}
	}
	return opt.RoleValue(s, i.GuildID)
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int {
	if opt, ok := opts[name]; ok {
		return int(opt.IntValue())
	}
	return 0
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}
