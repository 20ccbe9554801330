// Package gateway implements the demotion subsystem's platform operations over discordgo.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"demote-bot/demotion"
	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// Discord talks to the Discord REST API, preferring the session state cache for reads.
// Every call is bounded by timeout.
type Discord struct {
	session *discordgo.Session
	timeout time.Duration
}

var _ demotion.Gateway = (*Discord)(nil)

func NewDiscord(session *discordgo.Session, timeout time.Duration) *Discord {
	return &Discord{session: session, timeout: timeout}
}

func (d *Discord) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

func (d *Discord) RemoveRole(ctx context.Context, guildID, userID, roleID, auditReason string) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.session.GuildMemberRoleRemove(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(auditReason))
}

func (d *Discord) AddRole(ctx context.Context, guildID, userID, roleID, auditReason string) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.session.GuildMemberRoleAdd(guildID, userID, roleID,
		discordgo.WithContext(ctx), discordgo.WithAuditLogReason(auditReason))
}

// FetchMember always asks the API so the role set is current.
func (d *Discord) FetchMember(ctx context.Context, guildID, userID string) (*demotion.Member, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	m, err := d.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if isUnknown(err, discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	member := &demotion.Member{ID: userID, RoleIDs: m.Roles}
	if m.User != nil {
		member.Tag = m.User.String()
	}
	return member, nil
}

func (d *Discord) FetchRole(ctx context.Context, guildID, roleID string) (*demotion.Role, error) {
	if r, err := d.session.State.Role(guildID, roleID); err == nil {
		return &demotion.Role{ID: r.ID, Name: r.Name, Position: r.Position}, nil
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	roles, err := d.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if isUnknown(err, discordgo.ErrCodeUnknownGuild) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		if r.ID == roleID {
			return &demotion.Role{ID: r.ID, Name: r.Name, Position: r.Position}, nil
		}
	}
	return nil, nil
}

func (d *Discord) FetchGuild(ctx context.Context, guildID string) (*demotion.Guild, error) {
	if g, err := d.session.State.Guild(guildID); err == nil {
		return &demotion.Guild{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID}, nil
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	g, err := d.session.Guild(guildID, discordgo.WithContext(ctx))
	if isUnknown(err, discordgo.ErrCodeUnknownGuild) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &demotion.Guild{ID: g.ID, Name: g.Name, OwnerID: g.OwnerID}, nil
}

func (d *Discord) BotTopRolePosition(ctx context.Context, guildID string) (int, error) {
	self, err := d.FetchMember(ctx, guildID, d.SelfID())
	if err != nil {
		return 0, err
	}
	if self == nil {
		return 0, fmt.Errorf("bot is not a member of guild %s", guildID)
	}

	top := 0
	for _, roleID := range self.RoleIDs {
		role, err := d.FetchRole(ctx, guildID, roleID)
		if err != nil {
			return 0, err
		}
		if role != nil && role.Position > top {
			top = role.Position
		}
	}
	return top, nil
}

// FetchRecentAuditEntry returns the newest audit entry of the given kind, or nil.
func (d *Discord) FetchRecentAuditEntry(ctx context.Context, guildID string, action demotion.AuditAction) (*demotion.AuditEntry, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	auditLog, err := d.session.GuildAuditLog(guildID, "", "", int(action), 1, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	if len(auditLog.AuditLogEntries) == 0 {
		return nil, nil
	}
	entry := auditLog.AuditLogEntries[0]
	return &demotion.AuditEntry{ActorID: entry.UserID, TargetID: entry.TargetID}, nil
}

func (d *Discord) SendDirectMessage(ctx context.Context, userID, text string) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return utils.SendPrivateMessage(d.session, userID, text, discordgo.WithContext(ctx))
}

func (d *Discord) SelfID() string {
	if d.session.State == nil || d.session.State.User == nil {
		return ""
	}
	return d.session.State.User.ID
}

// isUnknown reports whether err is a Discord API error carrying one of codes.
func isUnknown(err error, codes ...int) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	for _, code := range codes {
		if restErr.Message.Code == code {
			return true
		}
	}
	return false
}
