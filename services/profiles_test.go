package services

import (
	"context"
	"testing"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	e.user(t, "bob")

	bio := "Crimper <b>since</b> 2010"
	avatar := testutil.FileHeader(t, "avatar", "me.png", testutil.PNG)
	u, err := e.svc.Profiles.UpdateMe(ctx, alice, dto.UpdateProfileDTO{Biography: &bio}, avatar)
	require.NoError(t, err)
	assert.Equal(t, "Crimper since 2010", u.Biography)
	assert.NotEmpty(t, u.AvatarURL)
	assert.Equal(t, 1, e.objects.Len())

	taken := "bob"
	_, err = e.svc.Profiles.UpdateMe(ctx, alice, dto.UpdateProfileDTO{Username: &taken}, nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	u, err = e.svc.Profiles.UpdateMe(ctx, alice, dto.UpdateProfileDTO{DeleteExistingAvatar: true}, nil)
	require.NoError(t, err)
	assert.Empty(t, u.AvatarURL)
	assert.Equal(t, 0, e.objects.Len())

	public, err := e.svc.Profiles.Public(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", public.Username)
	assert.Equal(t, "Crimper since 2010", public.Biography)
}

func TestProfileActivity(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	slab := e.route(t, alice, "Slab")
	roof := e.route(t, bob, "Roof")

	require.NoError(t, e.svc.Routes.Like(ctx, alice, roof))
	require.NoError(t, e.svc.Routes.MarkClimbed(ctx, alice, slab))
	e.clock.Advance(time.Hour)
	require.NoError(t, e.svc.Routes.MarkClimbed(ctx, alice, roof))

	created, err := e.svc.Profiles.CreatedRoutes(ctx, alice)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, slab, created[0].ID)

	liked, err := e.svc.Profiles.LikedRoutes(ctx, alice)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, roof, liked[0].ID)

	climbed, err := e.svc.Profiles.ClimbedRoutes(ctx, alice)
	require.NoError(t, err)
	require.Len(t, climbed, 2)
	assert.Equal(t, roof, climbed[0].Route.ID)
	assert.True(t, climbed[0].ClimbedAt.After(climbed[1].ClimbedAt))

	c := newCommunity(t, e, bob, "Verdon")
	require.NoError(t, e.svc.Communities.Join(ctx, alice, c.ID))
	communities, err := e.svc.Profiles.Communities(ctx, alice)
	require.NoError(t, err)
	require.Len(t, communities, 1)

	ch := e.challenge(t, bob, models.ChallengeOpen, nil)
	require.NoError(t, e.svc.Challenges.Register(ctx, alice, ch))
	challenges, err := e.svc.Profiles.Challenges(ctx, alice)
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, ch, challenges[0].ID)
}
