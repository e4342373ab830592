// Package testutil provides in-memory fakes of the repositories and other
// helpers shared by package tests.
package testutil

import (
	"context"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/repositories"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryDB is the shared state behind every fake repository.
type MemoryDB struct {
	mu sync.Mutex

	Users        map[bson.ObjectID]*models.User
	Tokens       map[string]*models.RefreshToken
	Routes       map[bson.ObjectID]*models.Route
	Posts        map[bson.ObjectID]*models.Post
	Challenges   map[bson.ObjectID]*models.Challenge
	Participants []models.Participation
	Communities  map[bson.ObjectID]*models.Community
	PostLikes    map[bson.ObjectID][]bson.ObjectID
	RouteLikes   map[bson.ObjectID][]bson.ObjectID
	Climbs       map[bson.ObjectID][]models.ClimbRecord

	Now func() time.Time
}

// NewMemoryStore returns a Store backed entirely by memory.
func NewMemoryStore(now func() time.Time) (*repositories.Store, *MemoryDB) {
	db := &MemoryDB{
		Users:       map[bson.ObjectID]*models.User{},
		Tokens:      map[string]*models.RefreshToken{},
		Routes:      map[bson.ObjectID]*models.Route{},
		Posts:       map[bson.ObjectID]*models.Post{},
		Challenges:  map[bson.ObjectID]*models.Challenge{},
		Communities: map[bson.ObjectID]*models.Community{},
		PostLikes:   map[bson.ObjectID][]bson.ObjectID{},
		RouteLikes:  map[bson.ObjectID][]bson.ObjectID{},
		Climbs:      map[bson.ObjectID][]models.ClimbRecord{},
		Now:         now,
	}

	store := &repositories.Store{
		Users:            &memUsers{db},
		RefreshTokens:    &memTokens{db},
		Routes:           &memRoutes{db},
		Posts:            &memPosts{db},
		Challenges:       &memChallenges{db},
		Participants:     &memParticipants{db},
		Communities:      &memCommunities{db},
		PostLikes:        &memLikes{db: db, lists: db.PostLikes},
		RouteLikes:       &memLikes{db: db, lists: db.RouteLikes},
		Climbs:           &memClimbs{db},
		CommunityMembers: &memMembers{db},

		PostLikeCounter: &memCounter{db: db, field: func(id bson.ObjectID) *int {
			if p := db.Posts[id]; p != nil {
				return &p.Likes
			}
			return nil
		}},
		RouteLikeCounter: &memCounter{db: db, field: func(id bson.ObjectID) *int {
			if r := db.Routes[id]; r != nil {
				return &r.Likes
			}
			return nil
		}},
		RouteClimbCounter: &memCounter{db: db, field: func(id bson.ObjectID) *int {
			if r := db.Routes[id]; r != nil {
				return &r.ClimbedCount
			}
			return nil
		}},
		ParticipantCounter: &memSlots{memCounter{db: db, field: func(id bson.ObjectID) *int {
			if c := db.Challenges[id]; c != nil {
				return &c.CurrentParticipants
			}
			return nil
		}}},
		CommunityMemberCounter: &memCounter{db: db, field: func(id bson.ObjectID) *int {
			if c := db.Communities[id]; c != nil {
				return &c.MemberCount
			}
			return nil
		}},
	}
	return store, db
}

func (db *MemoryDB) Lock()   { db.mu.Lock() }
func (db *MemoryDB) Unlock() { db.mu.Unlock() }

func ciMatch(text string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(text))
}

func page[T any](items []T, q models.ListQuery) []T {
	skip := int(q.Skip())
	if skip >= len(items) {
		return []T{}
	}
	end := len(items)
	if q.Limit > 0 && skip+q.Limit < end {
		end = skip + q.Limit
	}
	return append([]T{}, items[skip:end]...)
}

func indexOf(ids []bson.ObjectID, id bson.ObjectID) int {
	for i, x := range ids {
		if x == id {
			return i
		}
	}
	return -1
}

func without(ids []bson.ObjectID, id bson.ObjectID) []bson.ObjectID {
	out := make([]bson.ObjectID, 0, len(ids))
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

type memCounter struct {
	db    *MemoryDB
	field func(bson.ObjectID) *int
}

func (c *memCounter) Exists(_ context.Context, id bson.ObjectID) (bool, error) {
	c.db.Lock()
	defer c.db.Unlock()
	return c.field(id) != nil, nil
}

func (c *memCounter) Increment(_ context.Context, id bson.ObjectID, delta int) (bool, error) {
	c.db.Lock()
	defer c.db.Unlock()
	f := c.field(id)
	if f == nil {
		return false, nil
	}
	*f += delta
	return true, nil
}

// memSlots hands out challenge slots the way repositories.ChallengeSlots does.
type memSlots struct{ memCounter }

func (s *memSlots) Reserve(_ context.Context, id bson.ObjectID) (bool, error) {
	s.db.Lock()
	defer s.db.Unlock()
	c := s.db.Challenges[id]
	if c == nil || c.Status != models.ChallengeOpen || c.Full() {
		return false, nil
	}
	c.CurrentParticipants++
	return true, nil
}

// Users

type memUsers struct{ db *MemoryDB }

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	r.db.Lock()
	defer r.db.Unlock()
	for _, existing := range r.db.Users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return apperr.Conflict("Username or email already exists.")
		}
	}
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	cpy := *u
	r.db.Users[u.ID] = &cpy
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	r.db.Lock()
	defer r.db.Unlock()
	u, ok := r.db.Users[id]
	if !ok {
		return nil, apperr.NotFound("User not found.")
	}
	cpy := *u
	return &cpy, nil
}

func (r *memUsers) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	r.db.Lock()
	defer r.db.Unlock()
	for _, u := range r.db.Users {
		if u.Username == identifier || u.Email == identifier {
			cpy := *u
			return &cpy, nil
		}
	}
	return nil, apperr.NotFound("User not found.")
}

func (r *memUsers) UpdateProfile(_ context.Context, id bson.ObjectID, upd models.ProfileUpdate) error {
	r.db.Lock()
	defer r.db.Unlock()
	u, ok := r.db.Users[id]
	if !ok {
		return apperr.NotFound("User not found.")
	}
	if upd.Username != nil {
		for _, other := range r.db.Users {
			if other.ID != id && other.Username == *upd.Username {
				return apperr.Conflict("Username already taken.")
			}
		}
		u.Username = *upd.Username
	}
	if upd.Biography != nil {
		u.Biography = *upd.Biography
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = *upd.AvatarURL
	} else if upd.ClearAvatar {
		u.AvatarURL = ""
	}
	u.UpdatedAt = upd.UpdatedAt
	return nil
}

// Refresh tokens

type memTokens struct{ db *MemoryDB }

func (r *memTokens) Insert(_ context.Context, t *models.RefreshToken) error {
	r.db.Lock()
	defer r.db.Unlock()
	if t.ID.IsZero() {
		t.ID = bson.NewObjectID()
	}
	cpy := *t
	r.db.Tokens[t.TokenHash] = &cpy
	return nil
}

func (r *memTokens) Consume(_ context.Context, hash string) (*models.RefreshToken, error) {
	r.db.Lock()
	defer r.db.Unlock()
	t, ok := r.db.Tokens[hash]
	if !ok {
		return nil, apperr.NotFound("refresh token not found")
	}
	delete(r.db.Tokens, hash)
	return t, nil
}

func (r *memTokens) DeleteByHash(_ context.Context, hash string) error {
	r.db.Lock()
	defer r.db.Unlock()
	delete(r.db.Tokens, hash)
	return nil
}

func (r *memTokens) DeleteExpired(_ context.Context, userID bson.ObjectID, now time.Time) error {
	r.db.Lock()
	defer r.db.Unlock()
	for hash, t := range r.db.Tokens {
		if t.UserID == userID && !t.ExpiresAt.After(now) {
			delete(r.db.Tokens, hash)
		}
	}
	return nil
}

// Routes

type memRoutes struct{ db *MemoryDB }

func (r *memRoutes) Create(_ context.Context, route *models.Route) error {
	r.db.Lock()
	defer r.db.Unlock()
	if route.ID.IsZero() {
		route.ID = bson.NewObjectID()
	}
	cpy := *route
	r.db.Routes[route.ID] = &cpy
	return nil
}

func (r *memRoutes) FindByID(_ context.Context, id bson.ObjectID) (*models.Route, error) {
	r.db.Lock()
	defer r.db.Unlock()
	route, ok := r.db.Routes[id]
	if !ok {
		return nil, apperr.NotFound("Route not found.")
	}
	cpy := *route
	return &cpy, nil
}

func (r *memRoutes) all(keep func(*models.Route) bool, sortBy string) []models.Route {
	out := make([]models.Route, 0)
	for _, route := range r.db.Routes {
		if keep == nil || keep(route) {
			out = append(out, *route)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if sortBy != "recent" && out[i].Likes != out[j].Likes {
			return out[i].Likes > out[j].Likes
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *memRoutes) List(_ context.Context, q models.ListQuery) ([]models.Route, int64, error) {
	r.db.Lock()
	defer r.db.Unlock()
	all := r.all(nil, q.Sort)
	return page(all, q), int64(len(all)), nil
}

func (r *memRoutes) ListByCreator(_ context.Context, creatorID bson.ObjectID) ([]models.Route, error) {
	r.db.Lock()
	defer r.db.Unlock()
	return r.all(func(route *models.Route) bool { return route.CreatorID == creatorID }, "recent"), nil
}

func (r *memRoutes) FindByIDs(_ context.Context, ids []bson.ObjectID) ([]models.Route, error) {
	r.db.Lock()
	defer r.db.Unlock()
	return r.all(func(route *models.Route) bool { return indexOf(ids, route.ID) >= 0 }, "recent"), nil
}

func (r *memRoutes) Delete(_ context.Context, id bson.ObjectID) error {
	r.db.Lock()
	defer r.db.Unlock()
	if _, ok := r.db.Routes[id]; !ok {
		return apperr.NotFound("Route not found.")
	}
	delete(r.db.Routes, id)
	return nil
}

func (r *memRoutes) Search(_ context.Context, text string, limit int) ([]models.Route, error) {
	r.db.Lock()
	defer r.db.Unlock()
	re := ciMatch(text)
	all := r.all(func(route *models.Route) bool { return re.MatchString(route.Title) }, "likes")
	return page(all, models.ListQuery{Page: 1, Limit: limit}), nil
}

// Posts

type memPosts struct{ db *MemoryDB }

func (r *memPosts) Create(_ context.Context, p *models.Post) error {
	r.db.Lock()
	defer r.db.Unlock()
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	cpy := *p
	r.db.Posts[p.ID] = &cpy
	return nil
}

func (r *memPosts) FindByID(_ context.Context, id bson.ObjectID) (*models.Post, error) {
	r.db.Lock()
	defer r.db.Unlock()
	p, ok := r.db.Posts[id]
	if !ok {
		return nil, apperr.NotFound("Post not found.")
	}
	cpy := *p
	return &cpy, nil
}

func (r *memPosts) all(keep func(*models.Post) bool, sortBy string) []models.Post {
	out := make([]models.Post, 0)
	for _, p := range r.db.Posts {
		if keep == nil || keep(p) {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if sortBy == "likes" && out[i].Likes != out[j].Likes {
			return out[i].Likes > out[j].Likes
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (r *memPosts) List(_ context.Context, q models.ListQuery) ([]models.Post, int64, error) {
	r.db.Lock()
	defer r.db.Unlock()
	all := r.all(nil, q.Sort)
	return page(all, q), int64(len(all)), nil
}

func (r *memPosts) FindByIDs(_ context.Context, ids []bson.ObjectID) ([]models.Post, error) {
	r.db.Lock()
	defer r.db.Unlock()
	return r.all(func(p *models.Post) bool { return indexOf(ids, p.ID) >= 0 }, "date"), nil
}

func (r *memPosts) Update(_ context.Context, id bson.ObjectID, upd models.PostUpdate) error {
	r.db.Lock()
	defer r.db.Unlock()
	p, ok := r.db.Posts[id]
	if !ok {
		return apperr.NotFound("Post not found.")
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.Photo != nil {
		p.Photo = *upd.Photo
	} else if upd.ClearPhoto {
		p.Photo = ""
	}
	return nil
}

func (r *memPosts) Delete(_ context.Context, id bson.ObjectID) error {
	r.db.Lock()
	defer r.db.Unlock()
	if _, ok := r.db.Posts[id]; !ok {
		return apperr.NotFound("Post not found.")
	}
	delete(r.db.Posts, id)
	return nil
}
