package demote

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"demote-bot/demotion"
	"demote-bot/model"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleNames(roles []*discordgo.Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}
	return names
}

func TestRankRoles(t *testing.T) {
	roles := []*discordgo.Role{
		{ID: "guild", Name: "@everyone", Position: 0},
		{ID: "1", Name: "Member", Position: 1},
		{ID: "2", Name: "Moderator", Position: 5},
		{ID: "3", Name: "Admin", Position: 9},
	}

	assert.Equal(t, []string{"Admin", "Moderator", "Member"}, roleNames(RankRoles(roles, "guild", "")))
	assert.Equal(t, []string{"Moderator"}, roleNames(RankRoles(roles, "guild", "mod")))
	assert.Empty(t, RankRoles(roles, "guild", "zzz"))
	assert.Empty(t, RankRoles(nil, "guild", ""))
}

func TestRankRolesCapsChoices(t *testing.T) {
	var roles []*discordgo.Role
	for i := range 40 {
		roles = append(roles, &discordgo.Role{ID: fmt.Sprint(i), Name: fmt.Sprintf("role-%d", i), Position: i})
	}

	ranked := RankRoles(roles, "guild", "")
	require.Len(t, ranked, maxChoices)
	assert.Equal(t, "role-39", ranked[0].Name)
}

func TestErrorMessage(t *testing.T) {
	existing := &model.DemotionRecord{RoleName: "Member", RestoreAt: 1_800_000}

	tests := []struct {
		err  error
		want string
	}{
		{demotion.ErrNotAuthorized, "not allowed"},
		{demotion.ErrSelfTarget, "cannot demote yourself"},
		{demotion.ErrInvalidDuration, "at least some duration"},
		{&demotion.ConflictError{Existing: existing}, "already demoted from **Member**! Their role will be restored <t:1800:F>"},
		{fmt.Errorf("%w: Member", demotion.ErrRoleNotHeld), "doesn't have the **Member** role"},
		{demotion.ErrRoleHierarchy, "higher than or equal to my highest role"},
		{fmt.Errorf("%w: remove role: %w", demotion.ErrPlatform, fmt.Errorf("403")), "Check my permissions"},
		{fmt.Errorf("database is locked"), "error while executing"},
	}
	for _, tt := range tests {
		assert.Contains(t, errorMessage(tt.err, "user#0001", "Member"), tt.want, tt.err.Error())
	}

	assert.Equal(t, "No active demotions found for user#0001!", errorMessage(demotion.ErrNotDemoted, "user#0001", ""))
	assert.True(t, isUserError(&demotion.ConflictError{}))
	assert.False(t, isUserError(demotion.ErrPlatform))
}

func TestRestoreResultMessage(t *testing.T) {
	assert.Equal(t, "✅ Restored 2 role(s) to user#0001: **Member, VIP**",
		restoreResultMessage(&demotion.RestoreResult{Restored: []string{"Member", "VIP"}}, "user#0001"))
	assert.Contains(t, restoreResultMessage(&demotion.RestoreResult{Closed: []string{"Member"}}, "user#0001"), "no role could be given back")

	inFlight := restoreResultMessage(&demotion.RestoreResult{InFlight: []string{"Member"}}, "user#0001")
	assert.Contains(t, inFlight, "already being restored")
	assert.NotContains(t, inFlight, "may have left")

	mixed := restoreResultMessage(&demotion.RestoreResult{Restored: []string{"VIP"}, Failed: []string{"Member"}}, "user#0001")
	lines := strings.Split(mixed, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "**VIP**")
	assert.Contains(t, lines[1], "❌ Could not give **Member** back")
}

func TestBuildListEmbed(t *testing.T) {
	now := time.UnixMilli(10_000_000)
	var records []model.DemotionRecord
	for i := range 12 {
		records = append(records, model.DemotionRecord{
			UserID:    fmt.Sprintf("u%d", i),
			RoleName:  "Member",
			DemotedBy: "owner",
			RestoreAt: now.UnixMilli() + int64(i-1)*60_000,
		})
	}
	tags := map[string]string{"u0": "first#0001", "owner": "owner#0001"}

	embed, page := buildListEmbed(records, tags, 1, now)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, strings.Count(embed.Description, "└ Role:"))
	assert.Contains(t, embed.Description, "**first#0001**")
	assert.Contains(t, embed.Description, "Unknown User")
	assert.Contains(t, embed.Description, "└ By: owner#0001")
	assert.Contains(t, embed.Description, "✅ **Done** (restoring soon)")
	assert.Contains(t, embed.Description, "└ Reason: None")
	assert.Equal(t, "12 active demotion(s) • Page 1/2", embed.Footer.Text)

	embed, page = buildListEmbed(records, tags, 9, now)
	assert.Equal(t, 2, page)
	assert.Equal(t, 2, strings.Count(embed.Description, "└ Role:"))
	assert.NotContains(t, embed.Description, "Done")
}

func TestBuildHistoryEmbed(t *testing.T) {
	user := &discordgo.User{ID: "u1", Username: "someone", Discriminator: "0"}
	records := []model.DemotionRecord{
		{RoleName: "VIP", DemotedBy: "owner", DemotedAt: 2_000_000, Reason: "spam"},
		{RoleName: "Member", DemotedBy: "gone", DemotedAt: 1_000_000, Restored: true},
	}

	embed := buildHistoryEmbed(user, records, map[string]string{"owner": "owner#0001"}, time.UnixMilli(3_000_000))
	assert.Equal(t, "📜 Demotion History: someone", embed.Title)
	assert.Contains(t, embed.Description, "**VIP** - ⏳ Active")
	assert.Contains(t, embed.Description, "**Member** - ✅ Restored")
	assert.Contains(t, embed.Description, "<t:2000:R>")
	assert.Contains(t, embed.Description, "└ By: Unknown")
	assert.Equal(t, "Showing last 2 demotion(s)", embed.Footer.Text)
}
