package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates the unique constraints the services rely on for
// conflict detection, plus the TTL index that reaps expired refresh tokens.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	plain := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys}
	}

	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			unique(bson.D{{Key: "username", Value: 1}}),
			unique(bson.D{{Key: "email", Value: 1}}),
		},
		RefreshTokensCollection: {
			unique(bson.D{{Key: "tokenHash", Value: 1}}),
			plain(bson.D{{Key: "userId", Value: 1}}),
			{
				Keys:    bson.D{{Key: "expiresAt", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
		PostLikesCollection:     {unique(bson.D{{Key: "userId", Value: 1}})},
		RouteLikesCollection:    {unique(bson.D{{Key: "userId", Value: 1}})},
		ClimbedRoutesCollection: {unique(bson.D{{Key: "userId", Value: 1}})},
		ParticipantsCollection: {
			unique(bson.D{{Key: "challengeId", Value: 1}, {Key: "userId", Value: 1}}),
			plain(bson.D{{Key: "userId", Value: 1}}),
		},
		CommunitiesCollection: {
			unique(bson.D{{Key: "name", Value: 1}}),
			plain(bson.D{{Key: "memberIds", Value: 1}}),
		},
		RoutesCollection: {
			plain(bson.D{{Key: "creatorId", Value: 1}}),
			plain(bson.D{{Key: "likes", Value: -1}}),
		},
		PostsCollection: {
			plain(bson.D{{Key: "date", Value: -1}}),
		},
	}

	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
