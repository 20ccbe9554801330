package scanner_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"demote-bot/demotion"
	"demote-bot/demotion/mock"
	"demote-bot/scanner"
	"demote-bot/utils"
	"demote-bot/utils/database/demotions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clock struct {
	now atomic.Int64
}

func (c *clock) Now() time.Time { return time.UnixMilli(c.now.Load()) }

func setupRestorer(t *testing.T) (*scanner.Restorer, *demotion.Service, *mock.Gateway, *clock) {
	t.Helper()

	store, err := demotions.Init(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gw := mock.NewGateway()
	gw.AddGuild("guild", "The Guild", "owner")
	gw.AddRoleDef("guild", "r1", "Member", 10)
	gw.AddRoleDef("guild", "r2", "Regular", 11)
	gw.AddMember("guild", "u1", "u1#0001", "r1", "r2")
	gw.AddMember("guild", "u2", "u2#0001", "r1")

	c := &clock{}
	logger := zap.NewNop()
	auth := demotion.AuthorizerFunc(func(context.Context, string, string) error { return nil })
	svc := demotion.NewService(store, gw, auth, utils.NewExpiryCacheWithClock(c.Now), logger, demotion.WithClock(c.Now))

	return scanner.NewRestorer(svc, logger, time.Hour), svc, gw, c
}

func demote(t *testing.T, svc *demotion.Service, userID, roleID string, minutes int) {
	t.Helper()
	_, err := svc.Create(context.Background(), demotion.CreateRequest{
		GuildID: "guild", UserID: userID, RoleID: roleID, ActorID: "owner", Minutes: minutes,
	})
	require.NoError(t, err)
}

func TestRunOnceRestoresOnlyExpired(t *testing.T) {
	r, svc, gw, c := setupRestorer(t)
	demote(t, svc, "u1", "r1", 30)
	demote(t, svc, "u2", "r1", 45)

	c.now.Store(1_800_000 - 1)
	require.True(t, r.RunOnce(context.Background()))
	assert.Empty(t, gw.AddedCalls())

	c.now.Store(1_800_001)
	require.True(t, r.RunOnce(context.Background()))
	added := gw.AddedCalls()
	require.Len(t, added, 1)
	assert.Equal(t, "u1", added[0].UserID)
	assert.Contains(t, gw.MemberRoles("guild", "u1"), "r1")
	assert.NotContains(t, gw.MemberRoles("guild", "u2"), "r1")

	active, err := svc.ListActive(context.Background(), "guild")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "u2", active[0].UserID)
}

func TestOverlappingPassesGrantOnce(t *testing.T) {
	r, svc, gw, c := setupRestorer(t)
	demote(t, svc, "u1", "r1", 1)
	c.now.Store(60_000)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gw.OnAdd = func() {
		once.Do(func() { close(entered) })
		<-release
	}

	done := make(chan bool)
	go func() { done <- r.RunOnce(context.Background()) }()

	<-entered
	assert.False(t, r.RunOnce(context.Background()), "second pass must be skipped")
	close(release)
	assert.True(t, <-done)

	require.True(t, r.RunOnce(context.Background()))
	assert.Len(t, gw.AddedCalls(), 1)
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	r, svc, gw, c := setupRestorer(t)
	demote(t, svc, "u1", "r1", 1)
	demote(t, svc, "u2", "r1", 2)
	c.now.Store(120_000)

	var calls atomic.Int32
	gw.OnAdd = func() {
		if calls.Add(1) == 1 {
			panic("connection reset")
		}
	}

	require.True(t, r.RunOnce(context.Background()))

	added := gw.AddedCalls()
	require.Len(t, added, 1)
	assert.Equal(t, "u2", added[0].UserID)
}

func TestStartStopsOnCancel(t *testing.T) {
	r, _, _, _ := setupRestorer(t)
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()

	finished := make(chan struct{})
	go func() {
		r.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("restorer did not stop")
	}
}
