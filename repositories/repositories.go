// Package repositories defines the persistence ports of the services and
// their MongoDB implementations.
package repositories

import (
	"context"
	"time"

	"github.com/princinho/cragbase/membership"
	"github.com/princinho/cragbase/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Lookups return apperr NotFound errors when nothing matches, and writes
// guarded by a unique index return apperr Conflict errors.

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	// FindByIdentifier matches either the username or the email.
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	UpdateProfile(ctx context.Context, id bson.ObjectID, upd models.ProfileUpdate) error
}

type RefreshTokenRepository interface {
	Insert(ctx context.Context, t *models.RefreshToken) error
	// Consume atomically deletes and returns the record with the given hash.
	Consume(ctx context.Context, hash string) (*models.RefreshToken, error)
	DeleteByHash(ctx context.Context, hash string) error
	DeleteExpired(ctx context.Context, userID bson.ObjectID, now time.Time) error
}

type RouteRepository interface {
	Create(ctx context.Context, r *models.Route) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Route, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Route, int64, error)
	ListByCreator(ctx context.Context, creatorID bson.ObjectID) ([]models.Route, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Route, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	Search(ctx context.Context, text string, limit int) ([]models.Route, error)
}

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Post, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Post, int64, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Post, error)
	Update(ctx context.Context, id bson.ObjectID, upd models.PostUpdate) error
	Delete(ctx context.Context, id bson.ObjectID) error
}

type ChallengeRepository interface {
	Create(ctx context.Context, c *models.Challenge) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Challenge, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Challenge, int64, error)
	FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]models.Challenge, error)
	Update(ctx context.Context, id bson.ObjectID, upd models.ChallengeUpdate) error
	Delete(ctx context.Context, id bson.ObjectID) error
	Search(ctx context.Context, text string, limit int) ([]models.Challenge, error)
}

type ParticipantRepository interface {
	membership.Set
	List(ctx context.Context, challengeID bson.ObjectID) ([]models.Participant, error)
	ChallengeIDs(ctx context.Context, userID bson.ObjectID) ([]bson.ObjectID, error)
	DeleteForChallenge(ctx context.Context, challengeID bson.ObjectID) error
}

type CommunityRepository interface {
	Create(ctx context.Context, c *models.Community) error
	FindByID(ctx context.Context, id bson.ObjectID) (*models.Community, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Community, int64, error)
	ListForMember(ctx context.Context, userID bson.ObjectID) ([]models.Community, error)
	Update(ctx context.Context, id bson.ObjectID, upd models.CommunityUpdate) error
	Delete(ctx context.Context, id bson.ObjectID) error
	Search(ctx context.Context, text string, limit int) ([]models.Community, error)
	// AddAdmin promotes a current member who is not yet an admin.
	AddAdmin(ctx context.Context, id, userID bson.ObjectID) (bool, error)
	// RemoveAdmin demotes an admin unless they are the only one.
	RemoveAdmin(ctx context.Context, id, userID bson.ObjectID) (bool, error)
	AddChallenge(ctx context.Context, id, challengeID bson.ObjectID) (bool, error)
	RemoveChallenge(ctx context.Context, id, challengeID bson.ObjectID) (bool, error)
}

type LikeRepository interface {
	membership.Set
	LikedIDs(ctx context.Context, userID bson.ObjectID) ([]bson.ObjectID, error)
}

type ClimbRepository interface {
	membership.Set
	Climbs(ctx context.Context, userID bson.ObjectID) ([]models.ClimbRecord, error)
	ClimbedAt(ctx context.Context, userID, routeID bson.ObjectID) (time.Time, bool, error)
}

// Store bundles every repository plus the membership sets and counters the
// mutators are built from.
type Store struct {
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	Routes        RouteRepository
	Posts         PostRepository
	Challenges    ChallengeRepository
	Participants  ParticipantRepository
	Communities   CommunityRepository

	PostLikes        LikeRepository
	RouteLikes       LikeRepository
	Climbs           ClimbRepository
	CommunityMembers membership.Set

	PostLikeCounter        membership.Counter
	RouteLikeCounter       membership.Counter
	RouteClimbCounter      membership.Counter
	ParticipantCounter     membership.Reserver
	CommunityMemberCounter membership.Counter
}
