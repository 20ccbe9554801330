package demotion

import (
	"context"
	"slices"
)

// AuditAction identifies an audit log entry kind on the chat platform.
type AuditAction int

// AuditMemberRoleUpdate is the platform's member role update audit action.
const AuditMemberRoleUpdate AuditAction = 25

type Member struct {
	ID      string
	Tag     string
	RoleIDs []string
}

func (m *Member) HasRole(roleID string) bool {
	return slices.Contains(m.RoleIDs, roleID)
}

type Role struct {
	ID       string
	Name     string
	Position int
}

type Guild struct {
	ID      string
	Name    string
	OwnerID string
}

type AuditEntry struct {
	ActorID  string
	TargetID string
}

// Gateway is the subset of the chat platform the demotion subsystem talks to.
// Fetch methods return (nil, nil) when the entity does not exist.
type Gateway interface {
	RemoveRole(ctx context.Context, guildID, userID, roleID, auditReason string) error
	AddRole(ctx context.Context, guildID, userID, roleID, auditReason string) error
	FetchMember(ctx context.Context, guildID, userID string) (*Member, error)
	FetchRole(ctx context.Context, guildID, roleID string) (*Role, error)
	FetchGuild(ctx context.Context, guildID string) (*Guild, error)
	// BotTopRolePosition returns the position of the highest role the bot holds in the guild.
	BotTopRolePosition(ctx context.Context, guildID string) (int, error)
	FetchRecentAuditEntry(ctx context.Context, guildID string, action AuditAction) (*AuditEntry, error)
	SendDirectMessage(ctx context.Context, userID, text string) error
	// SelfID is the bot's own user ID.
	SelfID() string
}
