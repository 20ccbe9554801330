package demotion

import (
	"context"
	"fmt"
	"sync"

	"demote-bot/utils"
)

// Authorizer decides whether an actor may create or lift demotions in a guild.
// It returns an error matching ErrNotAuthorized when the actor is refused.
type Authorizer interface {
	Authorize(ctx context.Context, guildID, actorID string) error
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, guildID, actorID string) error

func (f AuthorizerFunc) Authorize(ctx context.Context, guildID, actorID string) error {
	return f(ctx, guildID, actorID)
}

// PolicyAuthorizer allows the guild owner, configured developers and members holding one
// of the admin roles. With no developers or admin roles configured only the owner passes.
type PolicyAuthorizer struct {
	gw Gateway

	mu               sync.RWMutex
	adminRoleIDs     []string
	developerUserIDs []string
}

func NewPolicyAuthorizer(gw Gateway, adminRoleIDs, developerUserIDs []string) *PolicyAuthorizer {
	return &PolicyAuthorizer{
		gw:               gw,
		adminRoleIDs:     adminRoleIDs,
		developerUserIDs: developerUserIDs,
	}
}

// SetPolicy replaces the admin roles and developers, e.g. after a config reload.
func (a *PolicyAuthorizer) SetPolicy(adminRoleIDs, developerUserIDs []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.adminRoleIDs = adminRoleIDs
	a.developerUserIDs = developerUserIDs
}

func (a *PolicyAuthorizer) policy() (adminRoleIDs, developerUserIDs []string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.adminRoleIDs, a.developerUserIDs
}

func (a *PolicyAuthorizer) Authorize(ctx context.Context, guildID, actorID string) error {
	adminRoleIDs, developerUserIDs := a.policy()

	guild, err := a.gw.FetchGuild(ctx, guildID)
	if err != nil {
		return platformError("fetch guild", err)
	}
	if guild == nil {
		return fmt.Errorf("%w: guild %s", ErrTargetNotFound, guildID)
	}

	var roleIDs []string
	if len(adminRoleIDs) > 0 && actorID != guild.OwnerID {
		member, err := a.gw.FetchMember(ctx, guildID, actorID)
		if err != nil {
			return platformError("fetch actor", err)
		}
		if member != nil {
			roleIDs = member.RoleIDs
		}
	}

	level := utils.CheckPermission(actorID, guild.OwnerID, roleIDs, adminRoleIDs, developerUserIDs)
	if level == utils.GuestPermission {
		return ErrNotAuthorized
	}
	return nil
}
