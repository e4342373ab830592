package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Challenges

type memChallenges struct{ db *MemoryDB }

func (r *memChallenges) Create(_ context.Context, c *models.Challenge) error {
	r.db.Lock()
	defer r.db.Unlock()
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	cpy := *c
	r.db.Challenges[c.ID] = &cpy
	return nil
}

func (r *memChallenges) FindByID(_ context.Context, id bson.ObjectID) (*models.Challenge, error) {
	r.db.Lock()
	defer r.db.Unlock()
	c, ok := r.db.Challenges[id]
	if !ok {
		return nil, apperr.NotFound("Challenge not found.")
	}
	cpy := *c
	return &cpy, nil
}

func (r *memChallenges) all(keep func(*models.Challenge) bool, sortBy string) []models.Challenge {
	out := make([]models.Challenge, 0)
	for _, c := range r.db.Challenges {
		if keep == nil || keep(c) {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		switch sortBy {
		case "recent":
			return out[i].CreatedAt.After(out[j].CreatedAt)
		case "popular":
			if out[i].CurrentParticipants != out[j].CurrentParticipants {
				return out[i].CurrentParticipants > out[j].CurrentParticipants
			}
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out
}

func (r *memChallenges) List(_ context.Context, q models.ListQuery) ([]models.Challenge, int64, error) {
	r.db.Lock()
	defer r.db.Unlock()
	all := r.all(nil, q.Sort)
	return page(all, q), int64(len(all)), nil
}

func (r *memChallenges) FindByIDs(_ context.Context, ids []bson.ObjectID) ([]models.Challenge, error) {
	r.db.Lock()
	defer r.db.Unlock()
	return r.all(func(c *models.Challenge) bool { return indexOf(ids, c.ID) >= 0 }, ""), nil
}

func (r *memChallenges) Update(_ context.Context, id bson.ObjectID, upd models.ChallengeUpdate) error {
	r.db.Lock()
	defer r.db.Unlock()
	c, ok := r.db.Challenges[id]
	if !ok {
		return apperr.NotFound("Challenge not found.")
	}
	if upd.MaxParticipants != nil && *upd.MaxParticipants < c.CurrentParticipants {
		return apperr.Validation("maxParticipants cannot be lower than the current number of participants.")
	}
	if upd.StartDate != nil {
		c.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		c.EndDate = *upd.EndDate
	}
	if upd.MaxParticipants != nil {
		v := *upd.MaxParticipants
		c.MaxParticipants = &v
	} else if upd.ClearMax {
		c.MaxParticipants = nil
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.Image != nil {
		c.Image = *upd.Image
	}
	return nil
}

func (r *memChallenges) Delete(_ context.Context, id bson.ObjectID) error {
	r.db.Lock()
	defer r.db.Unlock()
	if _, ok := r.db.Challenges[id]; !ok {
		return apperr.NotFound("Challenge not found.")
	}
	delete(r.db.Challenges, id)
	return nil
}

func (r *memChallenges) Search(_ context.Context, text string, limit int) ([]models.Challenge, error) {
	r.db.Lock()
	defer r.db.Unlock()
	re := ciMatch(text)
	all := r.all(func(c *models.Challenge) bool { return re.MatchString(c.Title) }, "")
	return page(all, models.ListQuery{Page: 1, Limit: limit}), nil
}

// Participants

type memParticipants struct{ db *MemoryDB }

func (r *memParticipants) Add(_ context.Context, userID, challengeID bson.ObjectID) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()
	for _, p := range r.db.Participants {
		if p.ChallengeID == challengeID && p.UserID == userID {
			return false, nil
		}
	}
	r.db.Participants = append(r.db.Participants, models.Participation{
		ChallengeID: challengeID, UserID: userID, RegisteredAt: r.db.Now().UTC(),
	})
	return true, nil
}

func (r *memParticipants) Remove(_ context.Context, userID, challengeID bson.ObjectID) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()
	for i, p := range r.db.Participants {
		if p.ChallengeID == challengeID && p.UserID == userID {
			r.db.Participants = append(r.db.Participants[:i], r.db.Participants[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *memParticipants) List(_ context.Context, challengeID bson.ObjectID) ([]models.Participant, error) {
	r.db.Lock()
	defer r.db.Unlock()
	out := make([]models.Participant, 0)
	for _, p := range r.db.Participants {
		if p.ChallengeID != challengeID {
			continue
		}
		u, ok := r.db.Users[p.UserID]
		if !ok {
			continue
		}
		out = append(out, models.Participant{
			UserID: p.UserID, Username: u.Username, AvatarURL: u.AvatarURL, RegisteredAt: p.RegisteredAt,
		})
	}
	return out, nil
}

func (r *memParticipants) ChallengeIDs(_ context.Context, userID bson.ObjectID) ([]bson.ObjectID, error) {
	r.db.Lock()
	defer r.db.Unlock()
	out := make([]bson.ObjectID, 0)
	for _, p := range r.db.Participants {
		if p.UserID == userID {
			out = append(out, p.ChallengeID)
		}
	}
	return out, nil
}

func (r *memParticipants) DeleteForChallenge(_ context.Context, challengeID bson.ObjectID) error {
	r.db.Lock()
	defer r.db.Unlock()
	kept := r.db.Participants[:0]
	for _, p := range r.db.Participants {
		if p.ChallengeID != challengeID {
			kept = append(kept, p)
		}
	}
	r.db.Participants = kept
	return nil
}

// Communities

type memCommunities struct{ db *MemoryDB }

func cloneCommunity(c *models.Community) *models.Community {
	cpy := *c
	cpy.AdminIDs = append([]bson.ObjectID{}, c.AdminIDs...)
	cpy.MemberIDs = append([]bson.ObjectID{}, c.MemberIDs...)
	cpy.ChallengeIDs = append([]bson.ObjectID{}, c.ChallengeIDs...)
	return &cpy
}

func (r *memCommunities) nameTaken(name string, except bson.ObjectID) bool {
	for _, c := range r.db.Communities {
		if c.ID != except && c.Name == name {
			return true
		}
	}
	return false
}

func (r *memCommunities) Create(_ context.Context, c *models.Community) error {
	r.db.Lock()
	defer r.db.Unlock()
	if r.nameTaken(c.Name, bson.NilObjectID) {
		return apperr.Conflict("A community with this name already exists.")
	}
	if c.ID.IsZero() {
		c.ID = bson.NewObjectID()
	}
	r.db.Communities[c.ID] = cloneCommunity(c)
	return nil
}

func (r *memCommunities) FindByID(_ context.Context, id bson.ObjectID) (*models.Community, error) {
	r.db.Lock()
	defer r.db.Unlock()
	c, ok := r.db.Communities[id]
	if !ok {
		return nil, apperr.NotFound("Community not found.")
	}
	return cloneCommunity(c), nil
}

func (r *memCommunities) all(keep func(*models.Community) bool, sortBy string) []models.Community {
	out := make([]models.Community, 0)
	for _, c := range r.db.Communities {
		if keep == nil || keep(c) {
			out = append(out, *cloneCommunity(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if sortBy == "members" && out[i].MemberCount != out[j].MemberCount {
			return out[i].MemberCount > out[j].MemberCount
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *memCommunities) List(_ context.Context, q models.ListQuery) ([]models.Community, int64, error) {
	r.db.Lock()
	defer r.db.Unlock()
	all := r.all(nil, q.Sort)
	return page(all, q), int64(len(all)), nil
}

func (r *memCommunities) ListForMember(_ context.Context, userID bson.ObjectID) ([]models.Community, error) {
	r.db.Lock()
	defer r.db.Unlock()
	return r.all(func(c *models.Community) bool { return indexOf(c.MemberIDs, userID) >= 0 }, ""), nil
}

func (r *memCommunities) Update(_ context.Context, id bson.ObjectID, upd models.CommunityUpdate) error {
	r.db.Lock()
	defer r.db.Unlock()
	c, ok := r.db.Communities[id]
	if !ok {
		return apperr.NotFound("Community not found.")
	}
	if upd.Name != nil {
		if r.nameTaken(*upd.Name, id) {
			return apperr.Conflict("A community with this name already exists.")
		}
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Image != nil {
		c.Image = *upd.Image
	}
	return nil
}

func (r *memCommunities) Delete(_ context.Context, id bson.ObjectID) error {
	r.db.Lock()
	defer r.db.Unlock()
	if _, ok := r.db.Communities[id]; !ok {
		return apperr.NotFound("Community not found.")
	}
	delete(r.db.Communities, id)
	return nil
}

func (r *memCommunities) Search(_ context.Context, text string, limit int) ([]models.Community, error) {
	r.db.Lock()
	defer r.db.Unlock()
	re := ciMatch(text)
	all := r.all(func(c *models.Community) bool { return re.MatchString(c.Name) }, "")
	return page(all, models.ListQuery{Page: 1, Limit: limit}), nil
}

func (r *memCommunities) AddAdmin(_ context.Context, id, userID bson.ObjectID) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()
	c, ok := r.db.Communities[id]
	if !ok || indexOf(c.MemberIDs, userID) < 0 || indexOf(c.AdminIDs, userID) >= 0 {
		return false, nil
	}
	c.AdminIDs = append(c.AdminIDs, userID)
	return true, nil
}

func (r *memCommunities) RemoveAdmin(_ context.Context, id, userID bson.ObjectID) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()
	c, ok := r.db.Communities[id]
	if !ok || indexOf(c.AdminIDs, userID) < 0 || len(c.AdminIDs) < 2 {
		return false, nil
	}
	c.AdminIDs = without(c.AdminIDs, userID)
	return true, nil
}

func (r *memCommunities) AddChallenge(_ context.Context, id, challengeID bson.ObjectID) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()
	c, ok := r.db.Communities[id]
	if !ok || indexOf(c.ChallengeIDs, challengeID) >= 0 {
		return false, nil
	}
	c.ChallengeIDs = append(c.ChallengeIDs, challengeID)
	return true, nil
}

func (r *memCommunities) RemoveChallenge(_ context.Context, id, challengeID bson.ObjectID) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()
	c, ok := r.db.Communities[id]
	if !ok || indexOf(c.ChallengeIDs, challengeID) < 0 {
		return false, nil
	}
	c.ChallengeIDs = without(c.ChallengeIDs, challengeID)
	return true, nil
}

// memMembers is the embedded memberIds set of communities. Leaving also drops admin rights.
type memMembers struct{ db *MemoryDB }

func (s *memMembers) Add(_ context.Context, userID, id bson.ObjectID) (bool, error) {
	s.db.Lock()
	defer s.db.Unlock()
	c, ok := s.db.Communities[id]
	if !ok || indexOf(c.MemberIDs, userID) >= 0 {
		return false, nil
	}
	c.MemberIDs = append(c.MemberIDs, userID)
	return true, nil
}

func (s *memMembers) Remove(_ context.Context, userID, id bson.ObjectID) (bool, error) {
	s.db.Lock()
	defer s.db.Unlock()
	c, ok := s.db.Communities[id]
	if !ok || indexOf(c.MemberIDs, userID) < 0 {
		return false, nil
	}
	c.MemberIDs = without(c.MemberIDs, userID)
	c.AdminIDs = without(c.AdminIDs, userID)
	return true, nil
}

// Likes

type memLikes struct {
	db    *MemoryDB
	lists map[bson.ObjectID][]bson.ObjectID
}

func (s *memLikes) Add(_ context.Context, userID, id bson.ObjectID) (bool, error) {
	s.db.Lock()
	defer s.db.Unlock()
	if indexOf(s.lists[userID], id) >= 0 {
		return false, nil
	}
	s.lists[userID] = append(s.lists[userID], id)
	return true, nil
}

func (s *memLikes) Remove(_ context.Context, userID, id bson.ObjectID) (bool, error) {
	s.db.Lock()
	defer s.db.Unlock()
	if indexOf(s.lists[userID], id) < 0 {
		return false, nil
	}
	s.lists[userID] = without(s.lists[userID], id)
	return true, nil
}

func (s *memLikes) LikedIDs(_ context.Context, userID bson.ObjectID) ([]bson.ObjectID, error) {
	s.db.Lock()
	defer s.db.Unlock()
	return append([]bson.ObjectID{}, s.lists[userID]...), nil
}

// Climbs

type memClimbs struct{ db *MemoryDB }

func (s *memClimbs) Add(_ context.Context, userID, routeID bson.ObjectID) (bool, error) {
	s.db.Lock()
	defer s.db.Unlock()
	for _, c := range s.db.Climbs[userID] {
		if c.RouteID == routeID {
			return false, nil
		}
	}
	s.db.Climbs[userID] = append(s.db.Climbs[userID], models.ClimbRecord{RouteID: routeID, ClimbedAt: s.db.Now().UTC()})
	return true, nil
}

func (s *memClimbs) Remove(_ context.Context, userID, routeID bson.ObjectID) (bool, error) {
	s.db.Lock()
	defer s.db.Unlock()
	list := s.db.Climbs[userID]
	for i, c := range list {
		if c.RouteID == routeID {
			s.db.Climbs[userID] = append(list[:i:i], list[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *memClimbs) Climbs(_ context.Context, userID bson.ObjectID) ([]models.ClimbRecord, error) {
	s.db.Lock()
	defer s.db.Unlock()
	return append([]models.ClimbRecord{}, s.db.Climbs[userID]...), nil
}

func (s *memClimbs) ClimbedAt(_ context.Context, userID, routeID bson.ObjectID) (time.Time, bool, error) {
	s.db.Lock()
	defer s.db.Unlock()
	for _, c := range s.db.Climbs[userID] {
		if c.RouteID == routeID {
			return c.ClimbedAt, true, nil
		}
	}
	return time.Time{}, false, nil
}
