package bot

import (
	"context"
	"errors"
	"testing"

	"demote-bot/demotion"
	"demote-bot/demotion/mock"
	"demote-bot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func reloadableBot(t *testing.T) (*Bot, *demotion.PolicyAuthorizer) {
	t.Helper()
	gw := mock.NewGateway()
	gw.AddGuild("guild", "The Guild", "owner")
	gw.AddMember("guild", "mod", "mod#0001", "mods")

	auth := demotion.NewPolicyAuthorizer(gw, nil, nil)
	b := &Bot{Logger: zap.NewNop(), auth: auth}
	b.config.Store(&model.Config{LogChannelID: "old"})
	return b, auth
}

func TestReloadConfigSwapsConfigAndPolicy(t *testing.T) {
	b, auth := reloadableBot(t)
	ctx := context.Background()
	require.ErrorIs(t, auth.Authorize(ctx, "guild", "mod"), demotion.ErrNotAuthorized)
	require.ErrorIs(t, auth.Authorize(ctx, "guild", "dev"), demotion.ErrNotAuthorized)

	b.loadConfig = func() (*model.Config, error) {
		return &model.Config{
			LogChannelID:     "new",
			DeveloperUserIDs: []string{"dev"},
			Demotion:         model.DemotionConfig{AdminRoleIDs: []string{"mods"}},
		}, nil
	}
	require.NoError(t, b.ReloadConfig())

	assert.Equal(t, "new", b.GetConfig().LogChannelID)
	assert.NoError(t, auth.Authorize(ctx, "guild", "mod"))
	assert.NoError(t, auth.Authorize(ctx, "guild", "dev"))
	assert.NoError(t, auth.Authorize(ctx, "guild", "owner"))
}

func TestReloadConfigKeepsCurrentOnError(t *testing.T) {
	b, auth := reloadableBot(t)
	b.loadConfig = func() (*model.Config, error) {
		return nil, errors.New("BOT_TOKEN is not set")
	}

	require.Error(t, b.ReloadConfig())
	assert.Equal(t, "old", b.GetConfig().LogChannelID)
	assert.ErrorIs(t, auth.Authorize(context.Background(), "guild", "mod"), demotion.ErrNotAuthorized)
}
