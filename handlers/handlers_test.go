package handlers

import (
	"testing"
	"time"

	"demote-bot/commands"
	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestFindChannelByName(t *testing.T) {
	channels := []*discordgo.Channel{
		{ID: "1", Name: "welcome", Type: discordgo.ChannelTypeGuildVoice},
		{ID: "2", Name: "general", Type: discordgo.ChannelTypeGuildText},
		{ID: "3", Name: "welcome", Type: discordgo.ChannelTypeGuildText},
	}

	ch := findChannelByName(channels, "welcome")
	if assert.NotNil(t, ch) {
		assert.Equal(t, "3", ch.ID)
	}
	assert.Nil(t, findChannelByName(channels, "rules"))
}

func TestCooldownRemaining(t *testing.T) {
	now := time.UnixMilli(0)
	cooldowns := utils.NewExpiryCacheWithClock(func() time.Time { return now })

	_, ok := cooldownRemaining(cooldowns, "u1", 5*time.Second)
	assert.True(t, ok)

	now = now.Add(1500 * time.Millisecond)
	wait, ok := cooldownRemaining(cooldowns, "u1", 5*time.Second)
	assert.False(t, ok)
	assert.Equal(t, 3500*time.Millisecond, wait)

	_, ok = cooldownRemaining(cooldowns, "u2", 5*time.Second)
	assert.True(t, ok, "cooldowns are per user")

	now = now.Add(3500 * time.Millisecond)
	_, ok = cooldownRemaining(cooldowns, "u1", 5*time.Second)
	assert.True(t, ok)

	_, ok = cooldownRemaining(cooldowns, "u1", 0)
	assert.True(t, ok, "a zero cooldown disables the check")
}

func TestCommandList(t *testing.T) {
	list := commandList(commands.GenerateCommands())
	assert.Contains(t, list, "**/demote** - Temporarily demote a user")
	assert.Contains(t, list, "**/demotions** - View and manage active demotions")
	assert.Contains(t, list, "**/sysinfo**")
	assert.Contains(t, list, "**/reload-config**")
}

func TestCanReload(t *testing.T) {
	devs := []string{"dev"}
	assert.True(t, canReload("dev", "owner", devs))
	assert.True(t, canReload("owner", "owner", devs))
	assert.False(t, canReload("mod", "owner", devs))
	assert.False(t, canReload("mod", "", nil))
}

func TestTagChanged(t *testing.T) {
	renamed := &discordgo.User{ID: "1", Username: "new", Discriminator: "0"}
	before := &discordgo.Member{User: &discordgo.User{ID: "1", Username: "old", Discriminator: "0"}}

	assert.True(t, tagChanged(before, renamed))
	assert.False(t, tagChanged(&discordgo.Member{User: renamed}, renamed))
	assert.False(t, tagChanged(nil, renamed))
	assert.False(t, tagChanged(&discordgo.Member{}, renamed))
}

func TestMentionRoles(t *testing.T) {
	assert.Equal(t, "<@&1>, <@&2>", mentionRoles([]string{"1", "2"}))
}
