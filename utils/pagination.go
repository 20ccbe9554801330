package utils

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// CreatePaginationComponents creates previous/next buttons whose custom IDs are
// "<prefix>:<page>". It returns nil when everything fits on one page.
func CreatePaginationComponents(currentPage, totalPages int, customIDPrefix string) []discordgo.MessageComponent {
	if totalPages <= 1 {
		return nil
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.PrimaryButton,
					Disabled: currentPage <= 1,
					CustomID: fmt.Sprintf("%s:%d", customIDPrefix, currentPage-1),
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.PrimaryButton,
					Disabled: currentPage >= totalPages,
					CustomID: fmt.Sprintf("%s:%d", customIDPrefix, currentPage+1),
				},
			},
		},
	}
}
