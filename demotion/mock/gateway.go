// Package mock provides an in-memory chat platform for exercising the demotion subsystem.
package mock

import (
	"context"
	"slices"
	"sync"

	"demote-bot/demotion"
)

// RoleCall records one role mutation.
type RoleCall struct {
	GuildID string
	UserID  string
	RoleID  string
	Reason  string
}

// DirectMessage records one DM.
type DirectMessage struct {
	UserID string
	Text   string
}

// Gateway is a stateful fake of demotion.Gateway. Role mutations update member state.
type Gateway struct {
	mu sync.Mutex

	Self        string
	TopPosition int
	members     map[string]*demotion.Member
	roles       map[string]*demotion.Role
	guilds      map[string]*demotion.Guild
	Audit       *demotion.AuditEntry

	RemoveErr error
	AddErr    error
	FetchErr  error
	AuditErr  error
	DMErr     error

	// OnAdd runs inside AddRole before the role is granted, outside the lock.
	OnAdd func()

	Removed []RoleCall
	Added   []RoleCall
	DMs     []DirectMessage
}

var _ demotion.Gateway = (*Gateway)(nil)

func NewGateway() *Gateway {
	return &Gateway{
		Self:        "bot",
		TopPosition: 100,
		members:     make(map[string]*demotion.Member),
		roles:       make(map[string]*demotion.Role),
		guilds:      make(map[string]*demotion.Guild),
	}
}

func key(a, b string) string { return a + "/" + b }

func (g *Gateway) AddGuild(id, name, ownerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.guilds[id] = &demotion.Guild{ID: id, Name: name, OwnerID: ownerID}
}

func (g *Gateway) AddRoleDef(guildID, roleID, name string, position int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.roles[key(guildID, roleID)] = &demotion.Role{ID: roleID, Name: name, Position: position}
}

func (g *Gateway) DeleteRoleDef(guildID, roleID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.roles, key(guildID, roleID))
}

func (g *Gateway) AddMember(guildID, userID, tag string, roleIDs ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[key(guildID, userID)] = &demotion.Member{ID: userID, Tag: tag, RoleIDs: slices.Clone(roleIDs)}
}

func (g *Gateway) RemoveMember(guildID, userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, key(guildID, userID))
}

// MemberRoles returns a copy of the member's current roles.
func (g *Gateway) MemberRoles(guildID, userID string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m, ok := g.members[key(guildID, userID)]; ok {
		return slices.Clone(m.RoleIDs)
	}
	return nil
}

func (g *Gateway) AddedCalls() []RoleCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.Added)
}

func (g *Gateway) RemovedCalls() []RoleCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.Removed)
}

func (g *Gateway) SentDMs() []DirectMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.DMs)
}

func (g *Gateway) RemoveRole(_ context.Context, guildID, userID, roleID, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.RemoveErr != nil {
		return g.RemoveErr
	}
	g.Removed = append(g.Removed, RoleCall{GuildID: guildID, UserID: userID, RoleID: roleID, Reason: reason})
	if m, ok := g.members[key(guildID, userID)]; ok {
		m.RoleIDs = slices.DeleteFunc(m.RoleIDs, func(id string) bool { return id == roleID })
	}
	return nil
}

func (g *Gateway) AddRole(_ context.Context, guildID, userID, roleID, reason string) error {
	if g.OnAdd != nil {
		g.OnAdd()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.AddErr != nil {
		return g.AddErr
	}
	g.Added = append(g.Added, RoleCall{GuildID: guildID, UserID: userID, RoleID: roleID, Reason: reason})
	if m, ok := g.members[key(guildID, userID)]; ok && !slices.Contains(m.RoleIDs, roleID) {
		m.RoleIDs = append(m.RoleIDs, roleID)
	}
	return nil
}

func (g *Gateway) FetchMember(_ context.Context, guildID, userID string) (*demotion.Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FetchErr != nil {
		return nil, g.FetchErr
	}
	m, ok := g.members[key(guildID, userID)]
	if !ok {
		return nil, nil
	}
	cp := *m
	cp.RoleIDs = slices.Clone(m.RoleIDs)
	return &cp, nil
}

func (g *Gateway) FetchRole(_ context.Context, guildID, roleID string) (*demotion.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FetchErr != nil {
		return nil, g.FetchErr
	}
	r, ok := g.roles[key(guildID, roleID)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (g *Gateway) FetchGuild(_ context.Context, guildID string) (*demotion.Guild, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	guild, ok := g.guilds[guildID]
	if !ok {
		return nil, nil
	}
	cp := *guild
	return &cp, nil
}

func (g *Gateway) BotTopRolePosition(context.Context, string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.TopPosition, nil
}

func (g *Gateway) FetchRecentAuditEntry(context.Context, string, demotion.AuditAction) (*demotion.AuditEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.AuditErr != nil {
		return nil, g.AuditErr
	}
	if g.Audit == nil {
		return nil, nil
	}
	cp := *g.Audit
	return &cp, nil
}

func (g *Gateway) SendDirectMessage(_ context.Context, userID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DMErr != nil {
		return g.DMErr
	}
	g.DMs = append(g.DMs, DirectMessage{UserID: userID, Text: text})
	return nil
}

func (g *Gateway) SelfID() string {
	return g.Self
}
