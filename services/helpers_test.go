package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/repositories"
	"github.com/princinho/cragbase/storage"
	"github.com/princinho/cragbase/testutil"
	"github.com/princinho/cragbase/utils"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type env struct {
	svc     *Services
	db      *testutil.MemoryDB
	clock   *testutil.Clock
	objects *testutil.MemoryObjects
	events  *recorded
}

type recorded struct {
	mu         sync.Mutex
	auth       []string
	membership []string
}

func (r *recorded) RecordAuth(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auth = append(r.auth, event+":"+outcome)
}

func (r *recorded) RecordMembership(kind, op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.membership = append(r.membership, kind+":"+op+":"+outcome)
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, nil)
}

// newEnvWith lets a test swap repositories in the store before the services are built.
func newEnvWith(t *testing.T, wrap func(*repositories.Store)) *env {
	t.Helper()

	clock := testutil.NewClock(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))
	store, db := testutil.NewMemoryStore(clock.Now)
	if wrap != nil {
		wrap(store)
	}
	objects := testutil.NewMemoryObjects()
	validator := utils.NewFileValidator([]string{".png", ".jpg", ".mp4"}, []string{"image/png", "image/jpeg", "video/mp4"}, 5)
	events := &recorded{}

	svc := New(Deps{
		Store:      store,
		Signer:     utils.NewTokenSigner("test-secret", time.Hour),
		RefreshTTL: 7 * 24 * time.Hour,
		Media:      storage.NewMedia(objects, validator, zap.NewNop()),
		Recorder:   events,
		Log:        zap.NewNop(),
		Now:        clock.Now,
	})
	return &env{svc: svc, db: db, clock: clock, objects: objects, events: events}
}

func (e *env) user(t *testing.T, name string) bson.ObjectID {
	t.Helper()
	u, err := e.svc.Auth.Register(context.Background(), name, name+"@example.com", "secret-"+name)
	require.NoError(t, err)
	return u.ID
}

func (e *env) route(t *testing.T, creator bson.ObjectID, title string) bson.ObjectID {
	t.Helper()
	r := &models.Route{Title: title, CreatorID: creator, Images: []string{}, Videos: []string{}, CreatedAt: e.clock.Now()}
	e.db.Lock()
	r.ID = bson.NewObjectID()
	e.db.Routes[r.ID] = r
	e.db.Unlock()
	return r.ID
}

func (e *env) challenge(t *testing.T, creator bson.ObjectID, status models.ChallengeStatus, limit *int) bson.ObjectID {
	t.Helper()
	c := &models.Challenge{
		Title:           "Boulder week",
		Status:          status,
		MaxParticipants: limit,
		CreatorID:       creator,
		StartDate:       e.clock.Now(),
		EndDate:         e.clock.Now().Add(7 * 24 * time.Hour),
	}
	e.db.Lock()
	c.ID = bson.NewObjectID()
	e.db.Challenges[c.ID] = c
	e.db.Unlock()
	return c.ID
}
