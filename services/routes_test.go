package services

import (
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestRouteLikeCounterTracksSet(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	routeID := e.route(t, alice, "Crimp Line")

	require.NoError(t, e.svc.Routes.Like(ctx, alice, routeID))
	err := e.svc.Routes.Like(ctx, alice, routeID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	require.NoError(t, e.svc.Routes.Like(ctx, bob, routeID))

	r, err := e.svc.Routes.Get(ctx, routeID)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Likes)

	require.NoError(t, e.svc.Routes.Unlike(ctx, bob, routeID))
	err = e.svc.Routes.Unlike(ctx, bob, routeID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	r, err = e.svc.Routes.Get(ctx, routeID)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Likes)

	err = e.svc.Routes.Like(ctx, alice, bson.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.Contains(t, e.events.membership, "route_like:add:conflict")
}

func TestUndoClimbWindow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	first := e.route(t, alice, "Slab")
	second := e.route(t, alice, "Roof")

	require.NoError(t, e.svc.Routes.MarkClimbed(ctx, alice, first))
	err := e.svc.Routes.MarkClimbed(ctx, alice, first)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	e.clock.Advance(5 * time.Minute)
	require.NoError(t, e.svc.Routes.UndoClimbed(ctx, alice, first))
	assert.Equal(t, 0, e.db.Routes[first].ClimbedCount)

	require.NoError(t, e.svc.Routes.MarkClimbed(ctx, alice, second))
	e.clock.Advance(11 * time.Minute)
	err = e.svc.Routes.UndoClimbed(ctx, alice, second)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, 1, e.db.Routes[second].ClimbedCount)
	assert.Len(t, e.db.Climbs[alice], 1)

	err = e.svc.Routes.UndoClimbed(ctx, alice, first)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreateRoute(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")

	in := dto.CreateRouteDTO{
		Title:           "Arete <script>x</script>",
		Description:     "Classic line",
		DifficultyLevel: "6a",
		ClimbType:       "sport",
		GeoLocation:     "Fontainebleau",
	}
	images := []*multipart.FileHeader{testutil.FileHeader(t, "images", "arete.png", testutil.PNG)}
	r, err := e.svc.Routes.Create(ctx, alice, in, images, nil)
	require.NoError(t, err)
	assert.Equal(t, "Arete", r.Title)
	require.Len(t, r.Images, 1)
	assert.Empty(t, r.Videos)
	assert.Equal(t, 1, e.objects.Len())

	bad := in
	bad.GeoLocation = ""
	_, err = e.svc.Routes.Create(ctx, alice, bad, nil, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	negative := in
	negative.AccessCost = new(float64)
	*negative.AccessCost = -1
	_, err = e.svc.Routes.Create(ctx, alice, negative, nil, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	text := []*multipart.FileHeader{testutil.FileHeader(t, "images", "notes.txt", []byte("hello"))}
	_, err = e.svc.Routes.Create(ctx, alice, in, text, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 1, e.objects.Len())
}

func TestDeleteRouteCreatorOnly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")

	r, err := e.svc.Routes.Create(ctx, alice, dto.CreateRouteDTO{
		Title: "Roof", Description: "Steep", DifficultyLevel: "7a", ClimbType: "boulder", GeoLocation: "Albarracin",
	}, []*multipart.FileHeader{testutil.FileHeader(t, "images", "roof.png", testutil.PNG)}, nil)
	require.NoError(t, err)

	err = e.svc.Routes.Delete(ctx, bob, r.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, e.svc.Routes.Delete(ctx, alice, r.ID))
	assert.Equal(t, 0, e.objects.Len())
	_, err = e.svc.Routes.Get(ctx, r.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListRoutesSortsByLikes(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	low := e.route(t, alice, "Low")
	high := e.route(t, alice, "High")
	require.NoError(t, e.svc.Routes.Like(ctx, alice, high))

	page, err := e.svc.Routes.List(ctx, models.ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, high, page.Items[0].ID)
	assert.Equal(t, low, page.Items[1].ID)
	assert.EqualValues(t, 2, page.Total)
}
