package utils

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaginationComponents(t *testing.T) {
	assert.Nil(t, CreatePaginationComponents(1, 1, "list"))

	components := CreatePaginationComponents(1, 3, "list")
	require.Len(t, components, 1)
	row := components[0].(discordgo.ActionsRow)
	require.Len(t, row.Components, 2)

	prev := row.Components[0].(discordgo.Button)
	next := row.Components[1].(discordgo.Button)
	assert.True(t, prev.Disabled)
	assert.Equal(t, "list:0", prev.CustomID)
	assert.False(t, next.Disabled)
	assert.Equal(t, "list:2", next.CustomID)
}
