package services

import (
	"context"
	"testing"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func newCommunity(t *testing.T, e *env, creator bson.ObjectID, name string) *models.Community {
	t.Helper()
	c, err := e.svc.Communities.Create(context.Background(), creator, dto.CreateCommunityDTO{Name: name, Description: "Local crew"}, nil)
	require.NoError(t, err)
	return c
}

func TestCreateCommunity(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")

	c := newCommunity(t, e, alice, "Bleau Crew")
	assert.Equal(t, 1, c.MemberCount)
	assert.Equal(t, []bson.ObjectID{alice}, c.AdminIDs)
	assert.Equal(t, []bson.ObjectID{alice}, c.MemberIDs)

	_, err := e.svc.Communities.Create(ctx, alice, dto.CreateCommunityDTO{Name: "Bleau Crew", Description: "again"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = e.svc.Communities.Create(ctx, alice, dto.CreateCommunityDTO{Name: "ab", Description: "short"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = e.svc.Communities.Create(ctx, alice, dto.CreateCommunityDTO{Name: "No description"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestJoinLeave(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	c := newCommunity(t, e, alice, "Gritstone")

	require.NoError(t, e.svc.Communities.Join(ctx, bob, c.ID))
	assert.True(t, apperr.Is(e.svc.Communities.Join(ctx, bob, c.ID), apperr.KindConflict))
	assert.True(t, apperr.Is(e.svc.Communities.Join(ctx, alice, c.ID), apperr.KindConflict))

	got, err := e.svc.Communities.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemberCount)
	assert.Len(t, got.MemberIDs, 2)

	assert.True(t, apperr.Is(e.svc.Communities.Leave(ctx, alice, c.ID), apperr.KindForbidden))
	require.NoError(t, e.svc.Communities.Leave(ctx, bob, c.ID))
	assert.True(t, apperr.Is(e.svc.Communities.Leave(ctx, bob, c.ID), apperr.KindNotFound))

	got, err = e.svc.Communities.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.MemberCount)
	assert.Equal(t, got.MemberCount, len(got.MemberIDs))

	assert.True(t, apperr.Is(e.svc.Communities.Join(ctx, bob, bson.NewObjectID()), apperr.KindNotFound))
}

func TestAdminManagement(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	c := newCommunity(t, e, alice, "Peak District")

	// carol is not a member yet
	assert.True(t, apperr.Is(e.svc.Communities.AddAdmin(ctx, alice, c.ID, carol), apperr.KindForbidden))

	require.NoError(t, e.svc.Communities.Join(ctx, bob, c.ID))
	require.NoError(t, e.svc.Communities.Join(ctx, carol, c.ID))

	assert.True(t, apperr.Is(e.svc.Communities.AddAdmin(ctx, bob, c.ID, carol), apperr.KindForbidden))
	require.NoError(t, e.svc.Communities.AddAdmin(ctx, alice, c.ID, bob))
	assert.True(t, apperr.Is(e.svc.Communities.AddAdmin(ctx, alice, c.ID, bob), apperr.KindConflict))

	assert.True(t, apperr.Is(e.svc.Communities.RemoveAdmin(ctx, bob, c.ID, alice), apperr.KindForbidden))
	assert.True(t, apperr.Is(e.svc.Communities.RemoveAdmin(ctx, bob, c.ID, bob), apperr.KindValidation))
	assert.True(t, apperr.Is(e.svc.Communities.RemoveAdmin(ctx, bob, c.ID, carol), apperr.KindNotFound))
	require.NoError(t, e.svc.Communities.RemoveAdmin(ctx, alice, c.ID, bob))

	admins, err := e.svc.Communities.Admins(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{alice}, admins)
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	c := newCommunity(t, e, alice, "Kalymnos")
	require.NoError(t, e.svc.Communities.Join(ctx, bob, c.ID))
	require.NoError(t, e.svc.Communities.Join(ctx, carol, c.ID))
	require.NoError(t, e.svc.Communities.AddAdmin(ctx, alice, c.ID, bob))

	assert.True(t, apperr.Is(e.svc.Communities.RemoveMember(ctx, carol, c.ID, bob), apperr.KindForbidden))
	assert.True(t, apperr.Is(e.svc.Communities.RemoveMember(ctx, bob, c.ID, alice), apperr.KindForbidden))
	assert.True(t, apperr.Is(e.svc.Communities.RemoveMember(ctx, bob, c.ID, bob), apperr.KindValidation))

	require.NoError(t, e.svc.Communities.RemoveMember(ctx, alice, c.ID, bob))
	got, err := e.svc.Communities.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.MemberCount)
	assert.False(t, got.IsAdmin(bob))
	assert.NotEmpty(t, got.AdminIDs)

	assert.True(t, apperr.Is(e.svc.Communities.RemoveMember(ctx, alice, c.ID, bob), apperr.KindNotFound))
}

func TestCommunityChallenges(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	c := newCommunity(t, e, alice, "Ceuse")
	ch := e.challenge(t, alice, models.ChallengeOpen, nil)

	assert.True(t, apperr.Is(e.svc.Communities.AddChallenge(ctx, bob, c.ID, ch), apperr.KindForbidden))
	assert.True(t, apperr.Is(e.svc.Communities.AddChallenge(ctx, alice, c.ID, bson.NewObjectID()), apperr.KindNotFound))
	require.NoError(t, e.svc.Communities.AddChallenge(ctx, alice, c.ID, ch))
	assert.True(t, apperr.Is(e.svc.Communities.AddChallenge(ctx, alice, c.ID, ch), apperr.KindConflict))

	ids, err := e.svc.Communities.Challenges(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{ch}, ids)

	require.NoError(t, e.svc.Communities.RemoveChallenge(ctx, alice, c.ID, ch))
	assert.True(t, apperr.Is(e.svc.Communities.RemoveChallenge(ctx, alice, c.ID, ch), apperr.KindNotFound))
}

func TestUpdateAndDeleteCommunity(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	c := newCommunity(t, e, alice, "Frankenjura")
	newCommunity(t, e, alice, "Siurana")
	require.NoError(t, e.svc.Communities.Join(ctx, bob, c.ID))

	name := "Franken Jura"
	_, err := e.svc.Communities.Update(ctx, bob, c.ID, dto.UpdateCommunityDTO{Name: &name}, nil)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	updated, err := e.svc.Communities.Update(ctx, alice, c.ID, dto.UpdateCommunityDTO{Name: &name}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Franken Jura", updated.Name)

	taken := "Siurana"
	_, err = e.svc.Communities.Update(ctx, alice, c.ID, dto.UpdateCommunityDTO{Name: &taken}, nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, e.svc.Communities.AddAdmin(ctx, alice, c.ID, bob))
	assert.True(t, apperr.Is(e.svc.Communities.Delete(ctx, bob, c.ID), apperr.KindForbidden))
	require.NoError(t, e.svc.Communities.Delete(ctx, alice, c.ID))
	_, err = e.svc.Communities.Get(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
