package defs

import "github.com/bwmarrin/discordgo"

var manageRoles int64 = discordgo.PermissionManageRoles

var (
	minZero    = float64(0)
	maxHours   = float64(720)
	maxMinutes = float64(59)
)

var Demote = &discordgo.ApplicationCommand{
	Name:                     "demote",
	Description:              "Temporarily demote a user by removing a role for a set duration",
	DefaultMemberPermissions: &manageRoles,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "The user to demote",
			Required:    true,
		},
		{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "role",
			Description:  "The role to temporarily remove (type to search)",
			Required:     true,
			Autocomplete: true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "hours",
			Description: "Number of hours (0-720)",
			MinValue:    &minZero,
			MaxValue:    maxHours,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "minutes",
			Description: "Number of minutes (0-59)",
			MinValue:    &minZero,
			MaxValue:    maxMinutes,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the demotion",
		},
	},
}

var Demotions = &discordgo.ApplicationCommand{
	Name:                     "demotions",
	Description:              "View and manage active demotions",
	DefaultMemberPermissions: &manageRoles,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "list",
			Description: "List all active demotions in this server",
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "restore",
			Description: "Manually restore a user's role early",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The user to restore",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role",
					Description: "The role to restore (optional - restores all if not specified)",
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "history",
			Description: "View demotion history for a user",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The user to check history for",
					Required:    true,
				},
			},
		},
	},
}
