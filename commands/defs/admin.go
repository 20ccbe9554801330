package defs

import "github.com/bwmarrin/discordgo"

var Commands = &discordgo.ApplicationCommand{
	Name:        "commands",
	Description: "Lists all bot commands",
}

var SystemInfo = &discordgo.ApplicationCommand{
	Name:                     "sysinfo",
	Description:              "Display bot and system status information",
	DefaultMemberPermissions: &manageRoles,
}

var ReloadConfig = &discordgo.ApplicationCommand{
	Name:                     "reload-config",
	Description:              "Reload bot configuration (owner and developers only)",
	DefaultMemberPermissions: &manageRoles,
}
