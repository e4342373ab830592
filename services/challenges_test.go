package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/dto"
	"github.com/princinho/cragbase/models"
	"github.com/princinho/cragbase/repositories"
	"github.com/princinho/cragbase/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCreateChallengeValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	image := testutil.FileHeader(t, "image", "poster.png", testutil.PNG)

	valid := dto.CreateChallengeDTO{
		Title:       "Summer league",
		Description: "Ten routes in ten days",
		StartDate:   "2025-06-01",
		EndDate:     "2025-06-10T18:00",
	}
	c, err := e.svc.Challenges.Create(ctx, alice, valid, image)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeOpen, c.Status)
	assert.Nil(t, c.MaxParticipants)
	assert.Equal(t, 18, c.EndDate.Hour())

	for name, mutate := range map[string]func(*dto.CreateChallengeDTO){
		"end before start": func(d *dto.CreateChallengeDTO) { d.EndDate = "2025-05-01" },
		"bad date":         func(d *dto.CreateChallengeDTO) { d.StartDate = "June first" },
		"negative max":     func(d *dto.CreateChallengeDTO) { d.MaxParticipants = "-2" },
		"missing title":    func(d *dto.CreateChallengeDTO) { d.Title = "" },
	} {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			_, err := e.svc.Challenges.Create(ctx, alice, in, image)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}

	_, err = e.svc.Challenges.Create(ctx, alice, valid, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRegisterRequiresOpenChallenge(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice := e.user(t, "alice")
	closed := e.challenge(t, alice, models.ChallengeClosed, nil)

	err := e.svc.Challenges.Register(ctx, alice, closed)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Empty(t, e.db.Participants)

	err = e.svc.Challenges.Register(ctx, alice, bson.NewObjectID())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRegisterAndUnregister(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	id := e.challenge(t, alice, models.ChallengeOpen, nil)

	require.NoError(t, e.svc.Challenges.Register(ctx, bob, id))
	assert.True(t, apperr.Is(e.svc.Challenges.Register(ctx, bob, id), apperr.KindConflict))

	participants, err := e.svc.Challenges.Participants(ctx, id)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "bob", participants[0].Username)

	registered, err := e.svc.Challenges.Registered(ctx, bob)
	require.NoError(t, err)
	require.Len(t, registered, 1)
	assert.Equal(t, 1, registered[0].CurrentParticipants)

	require.NoError(t, e.svc.Challenges.Unregister(ctx, bob, id))
	assert.True(t, apperr.Is(e.svc.Challenges.Unregister(ctx, bob, id), apperr.KindNotFound))
	assert.Equal(t, 0, e.db.Challenges[id].CurrentParticipants)
}

func TestRegisterRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner := e.user(t, "owner")
	limit := 3
	id := e.challenge(t, owner, models.ChallengeOpen, &limit)

	users := make([]bson.ObjectID, 10)
	for i := range users {
		users[i] = e.user(t, "climber"+string(rune('a'+i)))
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u bson.ObjectID) {
			defer wg.Done()
			err := e.svc.Challenges.Register(ctx, u, id)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.True(t, apperr.Is(err, apperr.KindForbidden), err)
		}(u)
	}
	wg.Wait()

	assert.Equal(t, limit, accepted)
	c, err := e.svc.Challenges.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, limit, c.CurrentParticipants)
	participants, err := e.svc.Challenges.Participants(ctx, id)
	require.NoError(t, err)
	assert.Len(t, participants, limit)

	err = e.svc.Challenges.Register(ctx, owner, id)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, "Challenge is already full.", apperr.Message(err))
}

// stalledChallenges holds the first n reads until all n have arrived, so
// several registrations pass the capacity pre-check together.
type stalledChallenges struct {
	repositories.ChallengeRepository
	arrived sync.WaitGroup
	calls   atomic.Int32
	n       int32
}

func (r *stalledChallenges) FindByID(ctx context.Context, id bson.ObjectID) (*models.Challenge, error) {
	if r.calls.Add(1) <= r.n {
		r.arrived.Done()
		r.arrived.Wait()
	}
	return r.ChallengeRepository.FindByID(ctx, id)
}

func TestRegisterLastSlotGoesToExactlyOne(t *testing.T) {
	ctx := context.Background()
	stalled := &stalledChallenges{n: 2}
	stalled.arrived.Add(2)
	e := newEnvWith(t, func(store *repositories.Store) {
		stalled.ChallengeRepository = store.Challenges
		store.Challenges = stalled
	})
	owner := e.user(t, "owner")
	limit := 1
	id := e.challenge(t, owner, models.ChallengeOpen, &limit)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, u := range []bson.ObjectID{alice, bob} {
		wg.Add(1)
		go func(i int, u bson.ObjectID) {
			defer wg.Done()
			errs[i] = e.svc.Challenges.Register(ctx, u, id)
		}(i, u)
	}
	wg.Wait()

	var ok, full int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.Is(err, apperr.KindForbidden):
			full++
		}
	}
	assert.Equal(t, 1, ok, errs)
	assert.Equal(t, 1, full, errs)

	e.db.Lock()
	assert.Equal(t, 1, e.db.Challenges[id].CurrentParticipants)
	assert.Len(t, e.db.Participants, 1)
	e.db.Unlock()
}

func TestRegisterAfterStatusChange(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	owner, bob := e.user(t, "owner"), e.user(t, "bob")
	id := e.challenge(t, owner, models.ChallengeOpen, nil)
	require.NoError(t, e.svc.Challenges.Register(ctx, bob, id))

	// a duplicate registration hands its reserved slot back
	assert.True(t, apperr.Is(e.svc.Challenges.Register(ctx, bob, id), apperr.KindConflict))
	c, err := e.svc.Challenges.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, c.CurrentParticipants)

	status := "closed"
	_, err = e.svc.Challenges.Update(ctx, owner, id, dto.UpdateChallengeDTO{Status: &status}, nil)
	require.NoError(t, err)
	err = e.svc.Challenges.Register(ctx, owner, id)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	assert.Equal(t, "Challenge is not open for registration.", apperr.Message(err))
}

func TestUpdateChallenge(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	id := e.challenge(t, alice, models.ChallengeOpen, nil)
	require.NoError(t, e.svc.Challenges.Register(ctx, bob, id))
	require.NoError(t, e.svc.Challenges.Register(ctx, carol, id))

	one := "1"
	_, err := e.svc.Challenges.Update(ctx, alice, id, dto.UpdateChallengeDTO{MaxParticipants: &one}, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	status := "closed"
	_, err = e.svc.Challenges.Update(ctx, bob, id, dto.UpdateChallengeDTO{Status: &status}, nil)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	c, err := e.svc.Challenges.Update(ctx, alice, id, dto.UpdateChallengeDTO{Status: &status}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeClosed, c.Status)
	assert.True(t, apperr.Is(e.svc.Challenges.Unregister(ctx, bob, id), apperr.KindForbidden))

	bogus := "paused"
	_, err = e.svc.Challenges.Update(ctx, alice, id, dto.UpdateChallengeDTO{Status: &bogus}, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestDeleteChallengeRemovesParticipants(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	id := e.challenge(t, alice, models.ChallengeOpen, nil)
	require.NoError(t, e.svc.Challenges.Register(ctx, bob, id))

	assert.True(t, apperr.Is(e.svc.Challenges.Delete(ctx, bob, id), apperr.KindForbidden))
	require.NoError(t, e.svc.Challenges.Delete(ctx, alice, id))
	assert.Empty(t, e.db.Participants)
}
