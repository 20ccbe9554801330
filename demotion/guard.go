package demotion

import (
	"context"
	"fmt"
	"slices"
	"time"

	"demote-bot/model"
	"demote-bot/utils"

	"go.uber.org/zap"
)

// RoleChange is a member role update reported by the platform. Before is nil when the
// previous role set is unknown, in which case every current role is treated as added.
type RoleChange struct {
	GuildID string
	UserID  string
	UserTag string
	Before  []string
	After   []string
}

// AddedRoles returns the roles in after that are missing from before.
func AddedRoles(before, after []string) []string {
	var added []string
	for _, roleID := range after {
		if !slices.Contains(before, roleID) && !slices.Contains(added, roleID) {
			added = append(added, roleID)
		}
	}
	return added
}

// Guard reverts roles handed back while their demotion is still running.
// It only reads the store.
type Guard struct {
	store        Store
	gw           Gateway
	reservations *utils.ExpiryCache
	logger       *zap.Logger
	now          func() time.Time
}

func NewGuard(store Store, gw Gateway, reservations *utils.ExpiryCache, logger *zap.Logger, now func() time.Time) *Guard {
	if now == nil {
		now = time.Now
	}
	return &Guard{
		store:        store,
		gw:           gw,
		reservations: reservations,
		logger:       logger.Named("guard"),
		now:          now,
	}
}

// HandleRoleChange checks every added role against active demotions and returns the
// IDs of the roles it removed again.
func (g *Guard) HandleRoleChange(ctx context.Context, change RoleChange) []string {
	var reverted []string
	for _, roleID := range AddedRoles(change.Before, change.After) {
		if g.reservations.IsReserved(ReservationKey(change.UserID, roleID)) {
			continue
		}

		record, err := g.store.FindActive(ctx, change.UserID, change.GuildID, roleID)
		if err != nil {
			g.logger.Error("Failed to look up demotion",
				zap.String("guild_id", change.GuildID),
				zap.String("user_id", change.UserID),
				zap.String("role_id", roleID),
				zap.Error(err))
			continue
		}
		if record == nil {
			continue
		}

		// The restorer picks up expired records on its next tick.
		now := g.now()
		if record.Expired(now) {
			continue
		}

		err = g.gw.RemoveRole(ctx, change.GuildID, change.UserID, roleID, "Demotion still active - role automatically removed")
		if err != nil {
			g.logger.Error("Failed to remove role during active demotion",
				zap.Int64("demotion_id", record.ID),
				zap.String("role", record.RoleName),
				zap.Error(err))
			continue
		}

		g.logger.Info("Removed role re-added during active demotion",
			zap.Int64("demotion_id", record.ID),
			zap.String("guild_id", change.GuildID),
			zap.String("user_id", change.UserID),
			zap.String("role", record.RoleName))
		reverted = append(reverted, roleID)

		g.notifyActor(ctx, change, record, now)
	}
	return reverted
}

// notifyActor DMs whoever granted the role, if the audit log names them.
func (g *Guard) notifyActor(ctx context.Context, change RoleChange, record *model.DemotionRecord, now time.Time) {
	entry, err := g.gw.FetchRecentAuditEntry(ctx, change.GuildID, AuditMemberRoleUpdate)
	if err != nil {
		g.logger.Debug("Could not read audit log", zap.String("guild_id", change.GuildID), zap.Error(err))
		return
	}
	if entry == nil || entry.TargetID != change.UserID || entry.ActorID == "" || entry.ActorID == g.gw.SelfID() {
		return
	}

	guildName := "the server"
	if guild, err := g.gw.FetchGuild(ctx, change.GuildID); err == nil && guild != nil {
		guildName = guild.Name
	}
	target := change.UserTag
	if target == "" {
		target = change.UserID
	}

	msg := fmt.Sprintf("⚠️ **Demotion Protection**\n\n"+
		"You tried to give **%s** to **%s** in **%s**, but they are currently demoted from that role.\n\n"+
		"**Time remaining:** %s\n"+
		"**Reason:** %s\n\n"+
		"Use `/demotions restore` if you want to end the demotion early.",
		record.RoleName, target, guildName, FormatRemaining(record.Remaining(now)), ReasonOrDefault(record.Reason))

	if err := g.gw.SendDirectMessage(ctx, entry.ActorID, msg); err != nil {
		g.logger.Debug("Could not DM actor", zap.String("actor_id", entry.ActorID), zap.Error(err))
	}
}
