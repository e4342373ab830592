package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/princinho/cragbase/apperr"
	"github.com/princinho/cragbase/database"
	"github.com/princinho/cragbase/membership"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// NewMongoStore wires every repository to its collection in db.
func NewMongoStore(db *mongo.Database, now func() time.Time) *Store {
	routes := db.Collection(database.RoutesCollection)
	posts := db.Collection(database.PostsCollection)
	challenges := db.Collection(database.ChallengesCollection)
	communities := db.Collection(database.CommunitiesCollection)
	users := db.Collection(database.UsersCollection)
	participants := db.Collection(database.ParticipantsCollection)

	return &Store{
		Users:         &MongoUsers{col: users},
		RefreshTokens: &MongoRefreshTokens{col: db.Collection(database.RefreshTokensCollection)},
		Routes:        &MongoRoutes{col: routes},
		Posts:         &MongoPosts{col: posts},
		Challenges:    &MongoChallenges{col: challenges},
		Participants: &MongoParticipants{
			PairSet: membership.PairSet{Col: participants, EntityField: "challengeId", TimeField: "registeredAt", Now: now},
			col:     participants,
			users:   database.UsersCollection,
		},
		Communities: &MongoCommunities{col: communities},

		PostLikes:  &MongoLikes{UserListSet: membership.UserListSet{Col: db.Collection(database.PostLikesCollection), Field: "likedPostIds"}},
		RouteLikes: &MongoLikes{UserListSet: membership.UserListSet{Col: db.Collection(database.RouteLikesCollection), Field: "likedRouteIds"}},
		Climbs:     &MongoClimbs{col: db.Collection(database.ClimbedRoutesCollection), now: now},
		CommunityMembers: membership.EmbeddedSet{
			Col: communities, Field: "memberIds", AlsoPull: []string{"adminIds"},
		},

		PostLikeCounter:        membership.FieldCounter{Col: posts, Field: "likes"},
		RouteLikeCounter:       membership.FieldCounter{Col: routes, Field: "likes"},
		RouteClimbCounter:      membership.FieldCounter{Col: routes, Field: "climbedCount"},
		ParticipantCounter:     ChallengeSlots{membership.FieldCounter{Col: challenges, Field: "currentParticipants"}},
		CommunityMemberCounter: membership.FieldCounter{Col: communities, Field: "memberCount"},
	}
}

func titleRegex(text string) bson.Regex {
	return bson.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}
}

// findErr maps a FindOne error to NotFound or an infrastructure error.
func findErr(err error, notFound string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(notFound)
	}
	return apperr.Internal("find", err)
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, apperr.Internal("decode", err)
	}
	return items, nil
}
